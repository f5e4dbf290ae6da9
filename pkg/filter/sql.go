package filter

import (
	"fmt"
	"strings"
)

var sqlOps = map[Op]string{
	OpEq:     "=",
	OpNeq:    "<>",
	OpGt:     ">",
	OpGte:    ">=",
	OpLt:     "<",
	OpLte:    "<=",
	OpLike:   "LIKE",
	OpNlike:  "NOT LIKE",
	OpIlike:  "ILIKE",
	OpNilike: "NOT ILIKE",
}

// ToSQL compiles w into a boolean SQL expression using $n placeholders
// numbered after argOffset. Column names come from the schema only.
// An empty Where compiles to TRUE.
func ToSQL(w *Where, schema Schema, argOffset int) (string, []any, error) {
	b := &sqlBuilder{schema: schema, offset: argOffset}
	clause, err := b.where(w)
	if err != nil {
		return "", nil, err
	}
	return clause, b.args, nil
}

type sqlBuilder struct {
	schema Schema
	offset int
	args   []any
}

func (b *sqlBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", b.offset+len(b.args))
}

func (b *sqlBuilder) where(w *Where) (string, error) {
	if w.Empty() {
		return "TRUE", nil
	}

	var parts []string
	for _, c := range w.Conds {
		part, err := b.cond(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	for _, sub := range w.And {
		part, err := b.where(sub)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	if len(w.Or) > 0 {
		ors := make([]string, 0, len(w.Or))
		for _, sub := range w.Or {
			part, err := b.where(sub)
			if err != nil {
				return "", err
			}
			ors = append(ors, part)
		}
		parts = append(parts, "("+strings.Join(ors, " OR ")+")")
	}

	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " AND ") + ")", nil
}

func (b *sqlBuilder) cond(c Cond) (string, error) {
	field, ok := b.schema.Fields[c.Field]
	if !ok {
		return "", fmt.Errorf("filter: %s has no field %q", b.schema.Name, c.Field)
	}
	col := field.Column

	switch c.Op {
	case OpEq, OpNeq:
		if c.Value == nil {
			if c.Op == OpEq {
				return col + " IS NULL", nil
			}
			return col + " IS NOT NULL", nil
		}
	case OpInq, OpNin:
		if len(c.Values) == 0 {
			if c.Op == OpInq {
				return "FALSE", nil
			}
			return "TRUE", nil
		}
		holders := make([]string, 0, len(c.Values))
		for _, v := range c.Values {
			holders = append(holders, b.bind(v))
		}
		kw := "IN"
		if c.Op == OpNin {
			kw = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", col, kw, strings.Join(holders, ", ")), nil
	case OpBetween:
		lo := b.bind(c.Values[0])
		hi := b.bind(c.Values[1])
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, lo, hi), nil
	}

	op, ok := sqlOps[c.Op]
	if !ok {
		return "", fmt.Errorf("filter: unsupported operator %q", c.Op)
	}
	return fmt.Sprintf("%s %s %s", col, op, b.bind(c.Value)), nil
}
