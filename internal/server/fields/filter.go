// Package fields sanitizes untrusted field maps and projection lists against
// the users allow-list before they reach the query builder.
package fields

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/dmitrijs2005/mentorhub/internal/server/query"
)

var ErrInvalidValue = errors.New("invalid field value")

// Filter never mutates the caller's input.
type Filter struct {
	schema query.Schema
}

func NewFilter(schema query.Schema) *Filter {
	return &Filter{schema: schema}
}

// ForSave keeps the settable, allow-listed entries of input as ordered SET
// assignments. System columns (id, type_user, search_key, token,
// token_date_end) are always dropped, as is anything unknown. A "tags" list
// becomes the desired tag set; a missing or null "tags" leaves tags
// unchanged.
func (f *Filter) ForSave(input map[string]any) (query.Changes, error) {
	var changes query.Changes

	for _, col := range f.schema.Columns() {
		if col.System {
			continue
		}
		v, ok := input[col.Name]
		if !ok {
			continue
		}

		if col.Kind == query.KindVirtual {
			if v == nil {
				continue
			}
			tags, err := toStrings(v)
			if err != nil {
				return query.Changes{}, fmt.Errorf("%s: %w", col.Name, err)
			}
			changes.Tags = tags
			changes.TagsSet = true
			continue
		}

		if !isScalar(v) {
			return query.Changes{}, fmt.Errorf("%s: %w", col.Name, ErrInvalidValue)
		}
		changes.Set = append(changes.Set, query.Set(col.Name, v))
	}

	return changes, nil
}

// ForReturn filters a projection list. An empty list means every column.
// id and secret columns are always removed; type_user only survives when
// revealType is set. Unknown and repeated names are dropped.
func (f *Filter) ForReturn(names []string, revealType bool) []string {
	if len(names) == 0 {
		cols := f.schema.Columns()
		names = make([]string, len(cols))
		for i, col := range cols {
			names[i] = col.Name
		}
	}

	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		col, ok := f.schema.Lookup(name)
		if !ok || seen[name] || col.Secret || name == query.ColID {
			continue
		}
		if name == query.ColTypeUser && !revealType {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func toStrings(v any) ([]string, error) {
	switch x := v.(type) {
	case []string:
		return append([]string{}, x...), nil
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, ErrInvalidValue
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, ErrInvalidValue
	}
}

func isScalar(v any) bool {
	if v == nil {
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Func, reflect.Chan:
		return false
	default:
		return true
	}
}
