package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	exprName     = "COALESCE(CAST(name AS TEXT), '') AS name"
	exprID       = "COALESCE(CAST(id AS TEXT), '') AS id"
	exprToken    = "COALESCE(CAST(token AS TEXT), '') AS token"
	exprTokenEnd = "COALESCE(to_char(token_date_end AT TIME ZONE 'UTC', 'YYYY-MM-DD HH24:MI:SS'), '') AS token_date_end"
	exprTypeUser = "COALESCE(CAST(type_user AS TEXT), '') AS type_user"
)

func TestBuilder_Select(t *testing.T) {
	b := NewBuilder(Users())

	stmt, err := b.Select(Where(Eq(ColID, int64(5)), Eq(ColTypeUser, "mentor")), []string{ColName, ColTags})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT "+exprName+", "+exprID+", "+exprToken+", "+exprTokenEnd+", "+exprTypeUser+
			" FROM users WHERE id = $1 AND type_user = $2",
		stmt.Text)
	assert.Equal(t, []any{int64(5), "mentor"}, stmt.Args)
	assert.True(t, stmt.Restricted)
	assert.Equal(t, []string{ColName}, stmt.Requested)
	assert.Equal(t, []string{ColName, ColID, ColToken, ColTokenDateEnd, ColTypeUser}, stmt.Columns)
	assert.True(t, stmt.Tags)
}

func TestBuilder_Select_AlwaysAppendsSystemColumnsOnce(t *testing.T) {
	b := NewBuilder(Users())

	stmt, err := b.Select(nil, []string{ColToken, ColName, ColName})
	require.NoError(t, err)

	assert.Equal(t, []string{ColToken, ColName, ColID, ColTokenDateEnd, ColTypeUser}, stmt.Columns)
	assert.Equal(t, []string{ColToken, ColName}, stmt.Requested)
	assert.False(t, stmt.Restricted)
	assert.NotContains(t, stmt.Text, "WHERE")
	assert.Empty(t, stmt.Args)
}

func TestBuilder_Select_NilProjectionSkipsSecrets(t *testing.T) {
	b := NewBuilder(Users())

	stmt, err := b.Select(Where(Eq(ColID, 1)), nil)
	require.NoError(t, err)

	assert.NotContains(t, stmt.Columns, ColPassword)
	assert.NotContains(t, stmt.Text, "password")
	assert.Contains(t, stmt.Columns, ColBio)
	assert.Contains(t, stmt.Text, "to_char(date_start AT TIME ZONE 'UTC'")
	assert.False(t, stmt.Tags, "tags need a mentor predicate")
}

func TestBuilder_Select_EmptyProjectionOnlySystemColumns(t *testing.T) {
	b := NewBuilder(Users())

	stmt, err := b.Select(Where(Eq(ColToken, "t")), []string{})
	require.NoError(t, err)

	assert.Empty(t, stmt.Requested)
	assert.Equal(t, systemProjection, stmt.Columns)
}

func TestBuilder_Select_TagsOnlyForMentorSearch(t *testing.T) {
	b := NewBuilder(Users())

	tests := []struct {
		name   string
		search Search
		want   bool
	}{
		{name: "mentor equality", search: Where(Eq(ColTypeUser, "mentor")), want: true},
		{name: "user equality", search: Where(Eq(ColTypeUser, "user"))},
		{name: "no type predicate", search: Where(Eq(ColID, 1))},
		{name: "mentor in list", search: Where(In(ColTypeUser, "mentor"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := b.Select(tt.search, []string{ColName, ColTags})
			require.NoError(t, err)
			assert.Equal(t, tt.want, stmt.Tags)
			assert.NotContains(t, stmt.Text, "tags")
		})
	}
}

func TestBuilder_Select_In(t *testing.T) {
	b := NewBuilder(Users())

	stmt, err := b.Select(Where(In(ColID, 1, 2, 3), Eq(ColTypeUser, "mentor")), []string{ColName})
	require.NoError(t, err)

	assert.Contains(t, stmt.Text, " WHERE id IN ($1, $2, $3) AND type_user = $4")
	assert.Equal(t, []any{1, 2, 3, "mentor"}, stmt.Args)

	stmt, err = b.Select(Where(In(ColID)), []string{ColName})
	require.NoError(t, err)
	assert.Contains(t, stmt.Text, " WHERE FALSE")
	assert.Empty(t, stmt.Args)
}

func TestBuilder_SelectForUpdate(t *testing.T) {
	b := NewBuilder(Users())

	stmt, err := b.SelectForUpdate(Where(Eq(ColID, 1)), []string{})
	require.NoError(t, err)
	assert.Regexp(t, `WHERE id = \$1 FOR UPDATE$`, stmt.Text)
}

func TestBuilder_FailsClosed(t *testing.T) {
	b := NewBuilder(Users())

	_, err := b.Select(Where(Eq("is_admin", true)), nil)
	require.ErrorIs(t, err, ErrUnknownColumn)

	_, err = b.Select(Where(Eq(ColTags, "go")), nil)
	require.ErrorIs(t, err, ErrUnknownColumn)

	_, err = b.Select(nil, []string{ColName, "salary"})
	require.ErrorIs(t, err, ErrUnknownColumn)

	_, _, err = b.Update(Where(Eq(ColID, 1)), Changes{Set: []Assignment{Set("is_admin", true)}})
	require.ErrorIs(t, err, ErrUnknownColumn)

	_, _, err = b.Update(Where(Eq(ColID, 1)), Changes{Set: []Assignment{Set(ColTags, "go")}})
	require.ErrorIs(t, err, ErrUnknownColumn)

	_, _, err = b.Update(Where(Eq("nope", 1)), Changes{Set: []Assignment{Set(ColBio, "x")}})
	require.ErrorIs(t, err, ErrUnknownColumn)

	_, _, err = b.Update(Where(Eq("nope", 1)), Changes{TagsSet: true})
	require.ErrorIs(t, err, ErrUnknownColumn, "search is checked even when nothing is set")

	_, _, err = b.Update(Where(Eq(ColID, 1)), Changes{Set: []Assignment{Set(ColBio, "a"), Set(ColBio, "b")}})
	require.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestBuilder_Update(t *testing.T) {
	b := NewBuilder(Users())

	stmt, ok, err := b.Update(
		Where(Eq(ColID, int64(1)), Eq(ColTypeUser, "user")),
		Changes{Set: []Assignment{Set(ColBio, "hi"), Set(ColName, "Bob")}, Tags: []string{"go"}, TagsSet: true},
	)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "UPDATE users SET bio = $1, name = $2 WHERE id = $3 AND type_user = $4", stmt.Text)
	assert.Equal(t, []any{"hi", "Bob", int64(1), "user"}, stmt.Args)
	assert.True(t, stmt.Restricted)
}

func TestBuilder_Update_TagOnlyIssuesNothing(t *testing.T) {
	b := NewBuilder(Users())

	stmt, ok, err := b.Update(Where(Eq(ColID, 1)), Changes{Tags: []string{"go"}, TagsSet: true})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, stmt.Text)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", Placeholders(1, 0))
	assert.Equal(t, "$1", Placeholders(1, 1))
	assert.Equal(t, "$3, $4, $5", Placeholders(3, 3))
}
