package filter

import (
	"regexp"
	"strings"
	"time"
)

// Match evaluates w against a record keyed by field name. It follows SQL
// semantics for nulls: a nil field only satisfies eq null and nin lists
// never match it.
func Match(w *Where, record map[string]any) bool {
	if w.Empty() {
		return true
	}
	for _, c := range w.Conds {
		if !matchCond(c, record[c.Field]) {
			return false
		}
	}
	for _, sub := range w.And {
		if !Match(sub, record) {
			return false
		}
	}
	if len(w.Or) == 0 {
		return true
	}
	for _, sub := range w.Or {
		if Match(sub, record) {
			return true
		}
	}
	return false
}

func matchCond(c Cond, val any) bool {
	switch c.Op {
	case OpEq, OpNeq:
		if c.Value == nil {
			return (val == nil) == (c.Op == OpEq)
		}
	case OpNin:
		if len(c.Values) == 0 {
			return true
		}
	}
	if val == nil {
		return false
	}

	switch c.Op {
	case OpEq:
		n, ok := compare(val, c.Value)
		return ok && n == 0
	case OpNeq:
		n, ok := compare(val, c.Value)
		return ok && n != 0
	case OpGt:
		n, ok := compare(val, c.Value)
		return ok && n > 0
	case OpGte:
		n, ok := compare(val, c.Value)
		return ok && n >= 0
	case OpLt:
		n, ok := compare(val, c.Value)
		return ok && n < 0
	case OpLte:
		n, ok := compare(val, c.Value)
		return ok && n <= 0
	case OpInq, OpNin:
		found := false
		for _, v := range c.Values {
			if n, ok := compare(val, v); ok && n == 0 {
				found = true
				break
			}
		}
		return found == (c.Op == OpInq)
	case OpBetween:
		lo, ok1 := compare(val, c.Values[0])
		hi, ok2 := compare(val, c.Values[1])
		return ok1 && ok2 && lo >= 0 && hi <= 0
	case OpLike, OpNlike, OpIlike, OpNilike:
		s, ok := val.(string)
		pattern, ok2 := c.Value.(string)
		if !ok || !ok2 {
			return false
		}
		fold := c.Op == OpIlike || c.Op == OpNilike
		matched := likeRegexp(pattern, fold).MatchString(s)
		if c.Op == OpNlike || c.Op == OpNilike {
			return !matched
		}
		return matched
	}
	return false
}

// compare orders a and b when they hold the same kind of value.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case int64:
		y, ok := b.(int64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}
	return 0, false
}

// likeRegexp translates a SQL LIKE pattern. A backslash escapes the next
// character.
func likeRegexp(pattern string, fold bool) *regexp.Regexp {
	var sb strings.Builder
	if fold {
		sb.WriteString("(?i)")
	}
	sb.WriteString("(?s)^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			sb.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			sb.WriteString(".*")
		case r == '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return regexp.MustCompile(sb.String())
}
