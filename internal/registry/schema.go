package registry

import (
	"fmt"

	"prf-forms-be/internal/apperr"

	"github.com/go-playground/validator/v10"
)

type FieldKind string

const (
	KindString FieldKind = "string"
	KindText   FieldKind = "text"
	KindNumber FieldKind = "number"
	KindBool   FieldKind = "bool"
	KindList   FieldKind = "list"
)

// FieldRule declares one field of a section payload.
// Rules is a validator tag expression (e.g. "min=1,max=255") applied to
// the field when it is present. Required drives the completeness flag
// only; a partially filled section still commits.
type FieldRule struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	Rules    string    `json:"rules,omitempty"`
}

// Schema is the ordered field rule set of a single section.
type Schema struct {
	Fields []FieldRule `json:"fields"`
}

var validate = validator.New()

// Validate checks a section value against the schema. Only violations on
// present fields (plus fields the schema does not know) are reported;
// missing required fields are a completeness concern, not a commit gate.
func (s Schema) Validate(value map[string]interface{}) []apperr.FieldViolation {
	var violations []apperr.FieldViolation

	byName := make(map[string]FieldRule, len(s.Fields))
	for _, f := range s.Fields {
		byName[f.Name] = f
	}

	for name, v := range value {
		rule, known := byName[name]
		if !known {
			violations = append(violations, apperr.FieldViolation{
				Field:   name,
				Rule:    "known",
				Message: fmt.Sprintf("field %q is not part of this section", name),
			})
			continue
		}

		if v == nil {
			continue
		}

		if !kindMatches(rule.Kind, v) {
			violations = append(violations, apperr.FieldViolation{
				Field:   name,
				Rule:    "kind",
				Message: fmt.Sprintf("field %q must be of kind %s", name, rule.Kind),
			})
			continue
		}

		if rule.Rules == "" {
			continue
		}
		if err := validate.Var(v, rule.Rules); err != nil {
			if errs, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range errs {
					violations = append(violations, apperr.FieldViolation{
						Field:   name,
						Rule:    fe.Tag(),
						Message: fmt.Sprintf("field %q failed rule %q", name, fe.Tag()),
					})
				}
			} else {
				violations = append(violations, apperr.FieldViolation{
					Field:   name,
					Rule:    rule.Rules,
					Message: err.Error(),
				})
			}
		}
	}

	return violations
}

// Complete reports whether the value validates fully and every required
// field carries a non-empty value.
func (s Schema) Complete(value map[string]interface{}) bool {
	if len(s.Validate(value)) > 0 {
		return false
	}
	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		v, ok := value[f.Name]
		if !ok || v == nil || isEmpty(v) {
			return false
		}
	}
	return true
}

func kindMatches(kind FieldKind, v interface{}) bool {
	switch kind {
	case KindString, KindText:
		_, ok := v.(string)
		return ok
	case KindNumber:
		switch v.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindList:
		_, ok := v.([]interface{})
		return ok
	default:
		return false
	}
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case []interface{}:
		return len(t) == 0
	default:
		return false
	}
}
