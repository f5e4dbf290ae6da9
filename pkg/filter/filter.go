// Package filter implements the JSON filter grammar accepted on query
// strings: a "where" predicate tree and a "fields" projection.
//
//	{"where": {"plate": "ABC123", "year": {"gte": 2015}}, "fields": {"plate": true}}
//
// Predicates are parsed against a Schema, so field names and value types
// are checked before anything reaches a backend. A parsed Where can be
// compiled to a parameterised SQL clause (ToSQL) or evaluated against a
// record in memory (Match).
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"taxiapp/pkg/apperrors"
)

type Type int

const (
	String Type = iota
	Int
	Bool
	Time
	// UUID values are compared in canonical lower-case form and support
	// only equality, ordering and list operators.
	UUID
)

type Field struct {
	Column string
	Type   Type
}

type Schema struct {
	Name   string
	Fields map[string]Field
}

type Op string

const (
	OpEq      Op = "eq"
	OpNeq     Op = "neq"
	OpGt      Op = "gt"
	OpGte     Op = "gte"
	OpLt      Op = "lt"
	OpLte     Op = "lte"
	OpInq     Op = "inq"
	OpNin     Op = "nin"
	OpLike    Op = "like"
	OpNlike   Op = "nlike"
	OpIlike   Op = "ilike"
	OpNilike  Op = "nilike"
	OpBetween Op = "between"
)

var knownOps = map[Op]bool{
	OpEq: true, OpNeq: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true,
	OpInq: true, OpNin: true, OpLike: true, OpNlike: true, OpIlike: true,
	OpNilike: true, OpBetween: true,
}

// Cond is a single comparison. Value is nil only for eq/neq null checks;
// Values is set for inq, nin and between.
type Cond struct {
	Field  string
	Op     Op
	Value  any
	Values []any
}

// Where holds Conds AND And AND (any of Or).
type Where struct {
	Conds []Cond
	And   []*Where
	Or    []*Where
}

func (w *Where) Empty() bool {
	return w == nil || (len(w.Conds) == 0 && len(w.And) == 0 && len(w.Or) == 0)
}

type Filter struct {
	Where  *Where
	Fields *Fields
}

// ParseFilter parses a JSON filter object. An empty string yields nil.
func ParseFilter(raw string, schema Schema) (*Filter, error) {
	if raw == "" {
		return nil, nil
	}
	obj, err := decodeObject(raw, "filter")
	if err != nil {
		return nil, err
	}

	f := &Filter{}
	for _, key := range sortedKeys(obj) {
		switch key {
		case "where":
			m, ok := obj[key].(map[string]any)
			if !ok {
				return nil, apperrors.Invalid("filter.where must be an object")
			}
			if f.Where, err = parseWhere(m, schema); err != nil {
				return nil, err
			}
		case "fields":
			if f.Fields, err = parseFields(obj[key], schema); err != nil {
				return nil, err
			}
		default:
			return nil, apperrors.Invalid("unsupported filter key %q", key)
		}
	}
	return f, nil
}

// ParseWhere parses a JSON where object. An empty string yields nil.
func ParseWhere(raw string, schema Schema) (*Where, error) {
	if raw == "" {
		return nil, nil
	}
	obj, err := decodeObject(raw, "where")
	if err != nil {
		return nil, err
	}
	return parseWhere(obj, schema)
}

func decodeObject(raw, name string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, apperrors.Invalid("%s is not valid JSON", name)
	}
	if dec.More() {
		return nil, apperrors.Invalid("%s must contain a single JSON value", name)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, apperrors.Invalid("%s must be a JSON object", name)
	}
	return obj, nil
}

func parseWhere(obj map[string]any, schema Schema) (*Where, error) {
	w := &Where{}
	for _, key := range sortedKeys(obj) {
		val := obj[key]
		switch key {
		case "and", "or":
			subs, err := parseGroup(key, val, schema)
			if err != nil {
				return nil, err
			}
			if key == "and" {
				w.And = append(w.And, subs...)
			} else {
				w.Or = append(w.Or, subs...)
			}
			continue
		}

		field, ok := schema.Fields[key]
		if !ok {
			return nil, apperrors.InvalidField(key, "unknown_field",
				fmt.Sprintf("%s has no field %q", schema.Name, key))
		}
		conds, err := parseConds(key, field, val)
		if err != nil {
			return nil, err
		}
		w.Conds = append(w.Conds, conds...)
	}
	return w, nil
}

func parseGroup(key string, val any, schema Schema) ([]*Where, error) {
	items, ok := val.([]any)
	if !ok {
		return nil, apperrors.Invalid("%q must be an array of objects", key)
	}
	subs := make([]*Where, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, apperrors.Invalid("%q must be an array of objects", key)
		}
		sub, err := parseWhere(m, schema)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func parseConds(name string, field Field, val any) ([]Cond, error) {
	switch v := val.(type) {
	case nil:
		return []Cond{{Field: name, Op: OpEq}}, nil
	case []any:
		return nil, apperrors.InvalidField(name, "invalid_value", "use inq to match a list of values")
	case map[string]any:
		conds := make([]Cond, 0, len(v))
		for _, opName := range sortedKeys(v) {
			op := Op(opName)
			if !knownOps[op] {
				return nil, apperrors.InvalidField(name, "unknown_operator",
					fmt.Sprintf("unknown operator %q", opName))
			}
			c, err := parseOp(name, field, op, v[opName])
			if err != nil {
				return nil, err
			}
			conds = append(conds, c)
		}
		return conds, nil
	default:
		coerced, err := coerce(name, field.Type, v)
		if err != nil {
			return nil, err
		}
		return []Cond{{Field: name, Op: OpEq, Value: coerced}}, nil
	}
}

func parseOp(name string, field Field, op Op, val any) (Cond, error) {
	c := Cond{Field: name, Op: op}

	switch op {
	case OpEq, OpNeq:
		if val == nil {
			return c, nil
		}
	case OpGt, OpGte, OpLt, OpLte:
		if field.Type == Bool {
			return c, apperrors.InvalidField(name, "invalid_operator",
				fmt.Sprintf("%s is not supported on a boolean field", op))
		}
	case OpLike, OpNlike, OpIlike, OpNilike:
		if field.Type != String {
			return c, apperrors.InvalidField(name, "invalid_operator",
				fmt.Sprintf("%s is only supported on text fields", op))
		}
	case OpInq, OpNin, OpBetween:
		items, ok := val.([]any)
		if !ok {
			return c, apperrors.InvalidField(name, "invalid_value",
				fmt.Sprintf("%s expects an array", op))
		}
		if op == OpBetween && len(items) != 2 {
			return c, apperrors.InvalidField(name, "invalid_value", "between expects exactly two values")
		}
		c.Values = make([]any, 0, len(items))
		for _, item := range items {
			coerced, err := coerce(name, field.Type, item)
			if err != nil {
				return c, err
			}
			c.Values = append(c.Values, coerced)
		}
		return c, nil
	}

	coerced, err := coerce(name, field.Type, val)
	if err != nil {
		return c, err
	}
	c.Value = coerced
	return c, nil
}

// coerce converts a decoded JSON value to the Go type of the field:
// string, int64, bool or time.Time. UUIDs stay strings.
func coerce(name string, typ Type, val any) (any, error) {
	bad := func() error {
		return apperrors.InvalidField(name, "invalid_type",
			fmt.Sprintf("value %v does not match the type of %s", val, name))
	}

	switch typ {
	case String:
		s, ok := val.(string)
		if !ok {
			return nil, bad()
		}
		return s, nil
	case Int:
		switch v := val.(type) {
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return nil, bad()
			}
			return n, nil
		case string:
			n, err := cast.ToInt64E(v)
			if err != nil {
				return nil, bad()
			}
			return n, nil
		}
		return nil, bad()
	case Bool:
		switch v := val.(type) {
		case bool:
			return v, nil
		case string:
			b, err := cast.ToBoolE(v)
			if err != nil {
				return nil, bad()
			}
			return b, nil
		}
		return nil, bad()
	case Time:
		s, ok := val.(string)
		if !ok {
			return nil, bad()
		}
		t, err := cast.ToTimeE(s)
		if err != nil {
			return nil, bad()
		}
		return t.UTC(), nil
	case UUID:
		s, ok := val.(string)
		if !ok {
			return nil, bad()
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, bad()
		}
		return id.String(), nil
	}
	return nil, bad()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
