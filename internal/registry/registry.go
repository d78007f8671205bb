package registry

import (
	"fmt"
	"sort"

	"prf-forms-be/internal/apperr"
)

// Descriptor declares one section of a document: stable key, validation
// schema, human label and the ordering weight the navigator uses.
// Descriptors are immutable once a registry is built.
type Descriptor struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Order  int    `json:"order"`
	Schema Schema `json:"schema"`
}

// Registry is the per-template mapping from section key to descriptor.
// It never changes shape mid-session; a new template version means a new
// registry instance.
type Registry struct {
	ordered []Descriptor
	byKey   map[string]Descriptor
}

func New(descriptors []Descriptor) *Registry {
	ordered := make([]Descriptor, len(descriptors))
	copy(ordered, descriptors)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	byKey := make(map[string]Descriptor, len(ordered))
	for _, d := range ordered {
		byKey[d.Key] = d
	}

	return &Registry{ordered: ordered, byKey: byKey}
}

// Describe returns the descriptors in navigation order.
func (r *Registry) Describe() []Descriptor {
	out := make([]Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *Registry) Resolve(sectionKey string) (Descriptor, error) {
	d, ok := r.byKey[sectionKey]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", apperr.ErrUnknownSection, sectionKey)
	}
	return d, nil
}

func (r *Registry) Has(sectionKey string) bool {
	_, ok := r.byKey[sectionKey]
	return ok
}

func (r *Registry) Len() int {
	return len(r.ordered)
}
