package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownColumn rejects a statement referencing a column outside the
	// allow-list, or the virtual tags column where SQL is required.
	ErrUnknownColumn   = errors.New("unknown column")
	ErrDuplicateColumn = errors.New("column assigned twice")
)

// Fixed UTC rendering of timestamp columns; matches common.TimeLayout.
const timestampFormat = "YYYY-MM-DD HH24:MI:SS"

// always returned, whatever the projection
var systemProjection = []string{ColID, ColToken, ColTokenDateEnd, ColTypeUser}

// Statement is a parameterized SQL statement plus what the caller needs to
// decode its result.
type Statement struct {
	Text string
	Args []any
	// Restricted is true when the statement has a WHERE clause.
	Restricted bool
	// Columns lists result columns in SELECT order.
	Columns []string
	// Requested lists the caller-requested SQL columns, in order.
	Requested []string
	// Tags asks the caller to splice tags into each returned row.
	Tags bool
}

type Builder struct {
	schema Schema
}

func NewBuilder(schema Schema) *Builder {
	return &Builder{schema: schema}
}

func (b *Builder) Schema() Schema {
	return b.schema
}

// Select builds a SELECT over the schema's table. A nil projection selects
// every non-secret column. Cells are coalesced to '' so every row carries
// every selected column.
func (b *Builder) Select(search Search, projection []string) (Statement, error) {
	return b.selectStmt(search, projection, false)
}

// SelectForUpdate is Select with row locks held until the transaction ends.
func (b *Builder) SelectForUpdate(search Search, projection []string) (Statement, error) {
	return b.selectStmt(search, projection, true)
}

func (b *Builder) selectStmt(search Search, projection []string, lock bool) (Statement, error) {
	if projection == nil {
		for _, c := range b.schema.columns {
			if !c.Secret {
				projection = append(projection, c.Name)
			}
		}
	}

	var (
		requested     []string
		tagsRequested bool
		seen          = make(map[string]bool, len(projection)+len(systemProjection))
	)
	for _, name := range projection {
		col, ok := b.schema.Lookup(name)
		if !ok {
			return Statement{}, fmt.Errorf("select %q: %w", name, ErrUnknownColumn)
		}
		if col.Kind == KindVirtual {
			tagsRequested = true
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		requested = append(requested, name)
	}

	columns := append([]string(nil), requested...)
	for _, name := range systemProjection {
		if !seen[name] {
			seen[name] = true
			columns = append(columns, name)
		}
	}

	exprs := make([]string, len(columns))
	for i, name := range columns {
		col, _ := b.schema.Lookup(name)
		exprs[i] = coalesce(col)
	}

	where, args, err := b.where(search, 1)
	if err != nil {
		return Statement{}, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(exprs, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.schema.table)
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if lock {
		sb.WriteString(" FOR UPDATE")
	}

	mentor, _ := search.EqValue(ColTypeUser)

	return Statement{
		Text:       sb.String(),
		Args:       args,
		Restricted: where != "",
		Columns:    columns,
		Requested:  requested,
		Tags:       tagsRequested && mentor == "mentor",
	}, nil
}

// Update builds an UPDATE from changes.Set. ok is false when there is
// nothing to SET (e.g. a tag-only change); no statement is produced then.
func (b *Builder) Update(search Search, changes Changes) (stmt Statement, ok bool, err error) {
	seen := make(map[string]bool, len(changes.Set))
	for _, a := range changes.Set {
		col, known := b.schema.Lookup(a.Column)
		if !known || col.Kind == KindVirtual {
			return Statement{}, false, fmt.Errorf("set %q: %w", a.Column, ErrUnknownColumn)
		}
		if seen[a.Column] {
			return Statement{}, false, fmt.Errorf("set %q: %w", a.Column, ErrDuplicateColumn)
		}
		seen[a.Column] = true
	}

	where, whereArgs, err := b.where(search, len(changes.Set)+1)
	if err != nil {
		return Statement{}, false, err
	}

	if len(changes.Set) == 0 {
		return Statement{}, false, nil
	}

	sets := make([]string, len(changes.Set))
	args := make([]any, 0, len(changes.Set)+len(whereArgs))
	for i, a := range changes.Set {
		sets[i] = a.Column + " = $" + strconv.Itoa(i+1)
		args = append(args, a.Value)
	}
	args = append(args, whereArgs...)

	text := "UPDATE " + b.schema.table + " SET " + strings.Join(sets, ", ")
	if where != "" {
		text += " WHERE " + where
	}

	return Statement{Text: text, Args: args, Restricted: where != ""}, true, nil
}

// where compiles search into a condition with placeholders numbered from start.
func (b *Builder) where(search Search, start int) (string, []any, error) {
	if len(search) == 0 {
		return "", nil, nil
	}

	conds := make([]string, 0, len(search))
	var args []any
	n := start

	for _, p := range search {
		col, ok := b.schema.Lookup(p.Column)
		if !ok || col.Kind == KindVirtual {
			return "", nil, fmt.Errorf("where %q: %w", p.Column, ErrUnknownColumn)
		}

		switch p.Op {
		case OpEq:
			conds = append(conds, p.Column+" = $"+strconv.Itoa(n))
			args = append(args, p.Values[0])
			n++
		case OpIn:
			if len(p.Values) == 0 {
				conds = append(conds, "FALSE")
				continue
			}
			conds = append(conds, p.Column+" IN ("+Placeholders(n, len(p.Values))+")")
			args = append(args, p.Values...)
			n += len(p.Values)
		default:
			return "", nil, fmt.Errorf("where %q: unsupported operator %d", p.Column, p.Op)
		}
	}

	return strings.Join(conds, " AND "), args, nil
}

func coalesce(col Column) string {
	if col.Kind == KindTimestamp {
		return "COALESCE(to_char(" + col.Name + " AT TIME ZONE 'UTC', '" + timestampFormat + "'), '') AS " + col.Name
	}
	return "COALESCE(CAST(" + col.Name + " AS TEXT), '') AS " + col.Name
}

// Placeholders renders n positional parameters starting at $start,
// e.g. Placeholders(3, 2) == "$3, $4".
func Placeholders(start, n int) string {
	if n <= 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(start + i))
	}
	return sb.String()
}
