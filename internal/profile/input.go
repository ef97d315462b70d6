package profile

import (
	"fmt"
	"strings"
)

// Input is a partial profile: only the fields it carries are changed.
type Input map[Field]Value

func (in Input) Clone() Input {
	c := make(Input, len(in))
	for f, v := range in {
		c[f] = v
	}
	return c
}

// Merge copies all fields of other into in, overwriting existing ones.
func (in Input) Merge(other Input) {
	for f, v := range other {
		in[f] = v
	}
}

// Fields returns the carried fields, sorted.
func (in Input) Fields() []Field {
	fields := make([]Field, 0, len(in))
	for f := range in {
		fields = append(fields, f)
	}
	sortFields(fields)
	return fields
}

func (in Input) Has(field Field) bool {
	_, ok := in[field]
	return ok
}

// Validate checks every carried field. When requireAll is set, the required
// fields must be present and not blank, which is what a save demands.
func (in Input) Validate(requireAll bool) error {
	if len(in) == 0 {
		return fmt.Errorf("%w: no fields", ErrInvalidValue)
	}

	for _, field := range in.Fields() {
		if err := CheckValue(field, in[field]); err != nil {
			return err
		}
	}

	for _, field := range RequiredFields() {
		v, ok := in[field]
		if !ok {
			if requireAll {
				return fmt.Errorf("%w: %s is required", ErrInvalidValue, field)
			}
			continue
		}
		if strings.TrimSpace(v.AsString()) == "" {
			return fmt.Errorf("%w: %s cannot be blank", ErrInvalidValue, field)
		}
	}

	return nil
}

// Normalized returns a copy with string values trimmed and list entries
// trimmed and deduplicated.
func (in Input) Normalized() Input {
	out := make(Input, len(in))
	for f, v := range in {
		switch v.Kind() {
		case KindString:
			out[f] = String(strings.TrimSpace(v.AsString()))
		case KindStrings:
			seen := map[string]bool{}
			var list []string
			for _, s := range v.AsStrings() {
				s = strings.TrimSpace(s)
				if s == "" || seen[s] {
					continue
				}
				seen[s] = true
				list = append(list, s)
			}
			out[f] = Strings(list...)
		default:
			out[f] = v
		}
	}
	return out
}
