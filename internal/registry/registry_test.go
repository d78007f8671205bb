package registry

import (
	"errors"
	"testing"

	"prf-forms-be/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestPRFCatalogue(t *testing.T) {
	reg := PRF()

	assert.Equal(t, 14, reg.Len())

	descriptors := reg.Describe()
	assert.Equal(t, "patient-details", descriptors[0].Key)
	assert.Equal(t, "transportation", descriptors[len(descriptors)-1].Key)

	// Order values drive navigation order
	for i := 1; i < len(descriptors); i++ {
		assert.Greater(t, descriptors[i].Order, descriptors[i-1].Order)
	}

	d, err := reg.Resolve("vital-signs")
	assert.NoError(t, err)
	assert.Equal(t, "Vital Signs", d.Label)

	_, err = reg.Resolve("no-such-section")
	assert.True(t, errors.Is(err, apperr.ErrUnknownSection))
}

func TestRegistryOrdersByWeight(t *testing.T) {
	reg := New([]Descriptor{
		{Key: "c", Order: 30},
		{Key: "a", Order: 10},
		{Key: "b", Order: 20},
	})

	descriptors := reg.Describe()
	assert.Equal(t, []string{"a", "b", "c"}, []string{descriptors[0].Key, descriptors[1].Key, descriptors[2].Key})
	assert.True(t, reg.Has("b"))
	assert.False(t, reg.Has("d"))
}

func TestSchemaValidate(t *testing.T) {
	schema := Schema{Fields: []FieldRule{
		{Name: "pulse", Kind: KindNumber, Required: true, Rules: "gte=0,lte=400"},
		{Name: "unit", Kind: KindString},
	}}

	t.Run("partial value passes", func(t *testing.T) {
		assert.Empty(t, schema.Validate(map[string]interface{}{"unit": "bpm"}))
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		violations := schema.Validate(map[string]interface{}{"pressure": 120})
		assert.Len(t, violations, 1)
		assert.Equal(t, "known", violations[0].Rule)
	})

	t.Run("kind mismatch rejected", func(t *testing.T) {
		violations := schema.Validate(map[string]interface{}{"pulse": "fast"})
		assert.Len(t, violations, 1)
		assert.Equal(t, "kind", violations[0].Rule)
	})

	t.Run("rule violation reported", func(t *testing.T) {
		violations := schema.Validate(map[string]interface{}{"pulse": -10})
		assert.Len(t, violations, 1)
		assert.Equal(t, "gte", violations[0].Rule)
	})
}

func TestSchemaComplete(t *testing.T) {
	schema := Schema{Fields: []FieldRule{
		{Name: "entries", Kind: KindList, Required: true},
		{Name: "remark", Kind: KindText},
	}}

	assert.False(t, schema.Complete(map[string]interface{}{}))
	assert.False(t, schema.Complete(map[string]interface{}{"entries": []interface{}{}}))
	assert.True(t, schema.Complete(map[string]interface{}{"entries": []interface{}{"splint"}}))

	// Invalid values are never complete
	assert.False(t, schema.Complete(map[string]interface{}{"entries": []interface{}{"splint"}, "extra": 1}))
}
