package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearch_AndDoesNotAlias(t *testing.T) {
	base := make(Search, 0, 4)
	base = append(base, Eq(ColID, 1))

	a := base.And(Eq(ColTypeUser, "mentor"))
	b := base.And(Eq(ColTypeUser, "user"))

	assert.Len(t, base, 1)
	v, _ := a.EqValue(ColTypeUser)
	assert.Equal(t, "mentor", v)
	v, _ = b.EqValue(ColTypeUser)
	assert.Equal(t, "user", v)
}

func TestSearch_Constrains(t *testing.T) {
	s := Where(In(ColID, 1, 2))
	assert.True(t, s.Constrains(ColID))
	assert.False(t, s.Constrains(ColTypeUser))

	_, ok := s.EqValue(ColID)
	assert.False(t, ok, "IN is not an equality")
}

func TestSearchFromMap(t *testing.T) {
	s := SearchFromMap(map[string]any{
		"type_user": "mentor",
		"id":        []int64{1, 2},
		"token":     []byte("raw"),
	})

	assert.Equal(t, Search{
		In(ColID, int64(1), int64(2)),
		Eq(ColToken, []byte("raw")),
		Eq(ColTypeUser, "mentor"),
	}, s)
}

func TestChanges(t *testing.T) {
	c := Changes{Set: []Assignment{Set(ColPassword, "plain"), Set(ColBio, "x")}}

	replaced := c.Replace(ColPassword, "hashed")
	v, ok := replaced.Value(ColPassword)
	assert.True(t, ok)
	assert.Equal(t, "hashed", v)

	v, _ = c.Value(ColPassword)
	assert.Equal(t, "plain", v, "original untouched")

	assert.False(t, c.Empty())
	assert.True(t, Changes{}.Empty())
	assert.False(t, Changes{TagsSet: true}.Empty(), "explicit empty tag list is a change")
}
