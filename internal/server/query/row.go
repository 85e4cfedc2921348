package query

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/mentorhub/internal/common"
)

// Row is one decoded user row. Every selected cell is text; NULL reads as "".
type Row struct {
	ID          int64
	Token       string
	TokenExpiry string
	TypeUser    string
	Fields      map[string]string
	Tags        []string
	HasTags     bool

	requested []string
	public    bool
}

// Get returns the decoded value of a selected column.
func (r Row) Get(column string) string {
	return r.Fields[column]
}

// WithTags returns a copy of r carrying tags.
func (r Row) WithTags(tags []string) Row {
	out := r
	out.Tags = append([]string{}, tags...)
	out.HasTags = true
	return out
}

// Public returns a copy of r that renders without token and token_date_end.
func (r Row) Public() Row {
	out := r
	out.public = true
	return out
}

// MarshalJSON renders requested columns plus id, token and token_date_end
// (the latter two omitted for a Public row). type_user appears only when
// requested, tags only when spliced.
func (r Row) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.requested)+4)
	for _, name := range r.requested {
		m[name] = r.Fields[name]
	}
	m[ColID] = r.ID
	if r.public {
		delete(m, ColToken)
		delete(m, ColTokenDateEnd)
	} else {
		m[ColToken] = r.Token
		m[ColTokenDateEnd] = r.TokenExpiry
	}
	if r.HasTags {
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		m[ColTags] = tags
	}
	return json.Marshal(m)
}

// ScanRows decodes every row of rows produced by stmt. rows is not closed.
func ScanRows(rows *sql.Rows, stmt Statement) ([]Row, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		cells := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row, err := decodeRow(names, cells, stmt.Requested)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeRow(names []string, cells []any, requested []string) (Row, error) {
	fields := make(map[string]string, len(names))
	for i, name := range names {
		fields[name] = decodeCell(cells[i])
	}
	return NewRow(fields, requested)
}

// NewRow builds a Row from decoded text fields. requested names the columns
// the caller asked for and drives MarshalJSON.
func NewRow(fields map[string]string, requested []string) (Row, error) {
	row := Row{Fields: fields, requested: requested}
	if row.Fields == nil {
		row.Fields = map[string]string{}
	}

	if raw := row.Fields[ColID]; raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Row{}, fmt.Errorf("decode id %q: %w", raw, err)
		}
		row.ID = id
	}
	row.Token = row.Fields[ColToken]
	row.TokenExpiry = row.Fields[ColTokenDateEnd]
	row.TypeUser = row.Fields[ColTypeUser]
	return row, nil
}

// decodeCell turns a driver value into text so no engine-specific binary
// form reaches callers.
func decodeCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.UTC().Format(common.TimeLayout)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
