package filter

import (
	"fmt"

	"taxiapp/pkg/apperrors"
)

// Fields is a projection. With Exclude set, Names are dropped; otherwise
// only Names are kept.
type Fields struct {
	Names   []string
	Exclude bool
}

// parseFields accepts {"a": true, "b": false} or ["a", "b"]. In the object
// form, any true entry turns it into an include list; all-false entries
// form an exclude list.
func parseFields(val any, schema Schema) (*Fields, error) {
	check := func(name string) error {
		if _, ok := schema.Fields[name]; !ok {
			return apperrors.InvalidField(name, "unknown_field",
				fmt.Sprintf("%s has no field %q", schema.Name, name))
		}
		return nil
	}

	switch v := val.(type) {
	case []any:
		f := &Fields{}
		for _, item := range v {
			name, ok := item.(string)
			if !ok {
				return nil, apperrors.Invalid("filter.fields entries must be strings")
			}
			if err := check(name); err != nil {
				return nil, err
			}
			f.Names = append(f.Names, name)
		}
		return f, nil
	case map[string]any:
		var include, exclude []string
		for _, name := range sortedKeys(v) {
			if err := check(name); err != nil {
				return nil, err
			}
			on, ok := v[name].(bool)
			if !ok {
				return nil, apperrors.InvalidField(name, "invalid_type", "filter.fields values must be booleans")
			}
			if on {
				include = append(include, name)
			} else {
				exclude = append(exclude, name)
			}
		}
		if len(include) > 0 {
			return &Fields{Names: include}, nil
		}
		return &Fields{Names: exclude, Exclude: true}, nil
	}
	return nil, apperrors.Invalid("filter.fields must be an object or an array")
}

// Project returns a copy of record restricted by f. A nil projection keeps
// every field.
func (f *Fields) Project(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	if f == nil {
		for k, v := range record {
			out[k] = v
		}
		return out
	}

	names := make(map[string]bool, len(f.Names))
	for _, n := range f.Names {
		names[n] = true
	}
	for k, v := range record {
		if names[k] != f.Exclude {
			out[k] = v
		}
	}
	return out
}
