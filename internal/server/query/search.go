package query

import (
	"reflect"
	"slices"
	"sort"
)

type Op int

const (
	OpEq Op = iota
	OpIn
)

// Predicate is one ANDed condition of a Search.
type Predicate struct {
	Column string
	Op     Op
	Values []any
}

// Eq matches rows where column equals v.
func Eq(column string, v any) Predicate {
	return Predicate{Column: column, Op: OpEq, Values: []any{v}}
}

// In matches rows where column is one of vs. An empty list matches nothing.
func In(column string, vs ...any) Predicate {
	return Predicate{Column: column, Op: OpIn, Values: slices.Clone(vs)}
}

// Search is an ordered list of predicates joined with AND.
// The zero value is an unrestricted search.
type Search []Predicate

func Where(preds ...Predicate) Search {
	return slices.Clone(Search(preds))
}

// And returns a new Search with preds appended.
func (s Search) And(preds ...Predicate) Search {
	out := make(Search, 0, len(s)+len(preds))
	out = append(out, s...)
	return append(out, preds...)
}

// Constrains reports whether any predicate targets column.
func (s Search) Constrains(column string) bool {
	for _, p := range s {
		if p.Column == column {
			return true
		}
	}
	return false
}

// EqValue returns the value of the first equality predicate on column.
func (s Search) EqValue(column string) (any, bool) {
	for _, p := range s {
		if p.Column == column && p.Op == OpEq {
			return p.Values[0], true
		}
	}
	return nil, false
}

// SearchFromMap turns a column → value map into a Search. Slice values
// become IN predicates, everything else equality. Keys are sorted so the
// produced statement is deterministic.
func SearchFromMap(m map[string]any) Search {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := make(Search, 0, len(keys))
	for _, k := range keys {
		v := m[k]
		rv := reflect.ValueOf(v)
		if v != nil && rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
			vs := make([]any, rv.Len())
			for i := range vs {
				vs[i] = rv.Index(i).Interface()
			}
			s = append(s, In(k, vs...))
			continue
		}
		s = append(s, Eq(k, v))
	}
	return s
}

// Assignment is one SET entry of an UPDATE.
type Assignment struct {
	Column string
	Value  any
}

func Set(column string, v any) Assignment {
	return Assignment{Column: column, Value: v}
}

// Changes describes an update: SET assignments in order plus an optional
// desired tag set. TagsSet distinguishes "clear all tags" (empty Tags) from
// "leave tags alone".
type Changes struct {
	Set     []Assignment
	Tags    []string
	TagsSet bool
}

// Value returns the assigned value for column, if any.
func (c Changes) Value(column string) (any, bool) {
	for _, a := range c.Set {
		if a.Column == column {
			return a.Value, true
		}
	}
	return nil, false
}

// Replace returns a copy of c with column's value swapped for v.
func (c Changes) Replace(column string, v any) Changes {
	out := c
	out.Set = slices.Clone(c.Set)
	for i := range out.Set {
		if out.Set[i].Column == column {
			out.Set[i].Value = v
		}
	}
	return out
}

func (c Changes) Empty() bool {
	return len(c.Set) == 0 && !c.TagsSet
}
