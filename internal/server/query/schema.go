// Package query builds parameterized SELECT and UPDATE statements for the
// users table from typed predicates, enforcing a column allow-list.
package query

// Column names of the users table, plus the virtual "tags" column.
const (
	ColID           = "id"
	ColEmail        = "email"
	ColName         = "name"
	ColPassword     = "password"
	ColTypeUser     = "type_user"
	ColSearchKey    = "search_key"
	ColBio          = "bio"
	ColRole         = "role"
	ColLocation     = "location"
	ColHomepage     = "homepage"
	ColCompany      = "company"
	ColPictureHash  = "picture_hash"
	ColDateStart    = "date_start"
	ColToken        = "token"
	ColTokenDateEnd = "token_date_end"
	ColTags         = "tags"
)

type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindTimestamp
	// KindVirtual columns have no SQL counterpart.
	KindVirtual
)

// Column describes one allow-listed field.
type Column struct {
	Name string
	Kind Kind
	// Secret columns are never handed back to callers.
	Secret bool
	// System columns are never settable from profile input.
	System bool
}

// Schema is an immutable, versioned allow-list for one table.
type Schema struct {
	version int
	table   string
	columns []Column
	index   map[string]int
}

func NewSchema(version int, table string, columns ...Column) Schema {
	cols := make([]Column, len(columns))
	copy(cols, columns)

	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c.Name] = i
	}
	return Schema{version: version, table: table, columns: cols, index: index}
}

var usersV1 = NewSchema(1, "users",
	Column{Name: ColID, Kind: KindInteger, System: true},
	Column{Name: ColEmail},
	Column{Name: ColName},
	Column{Name: ColPassword, Secret: true},
	Column{Name: ColTypeUser, System: true},
	Column{Name: ColSearchKey, System: true},
	Column{Name: ColBio},
	Column{Name: ColRole},
	Column{Name: ColLocation},
	Column{Name: ColHomepage},
	Column{Name: ColCompany},
	Column{Name: ColPictureHash},
	Column{Name: ColTags, Kind: KindVirtual},
	Column{Name: ColDateStart, Kind: KindTimestamp},
	Column{Name: ColToken, System: true},
	Column{Name: ColTokenDateEnd, Kind: KindTimestamp, System: true},
)

// Users returns the current allow-list of the users table.
func Users() Schema {
	return usersV1
}

func (s Schema) Version() int  { return s.version }
func (s Schema) Table() string { return s.table }

// Columns returns a copy of the columns in declaration order.
func (s Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

func (s Schema) Lookup(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}
