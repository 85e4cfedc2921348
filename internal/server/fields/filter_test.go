package fields

import (
	"testing"

	"github.com/dmitrijs2005/mentorhub/internal/server/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_ForSave_DropsSystemAndUnknownFields(t *testing.T) {
	f := NewFilter(query.Users())

	input := map[string]any{
		"id":             999,
		"token":          "x",
		"token_date_end": "2099-01-01 00:00:00",
		"type_user":      "mentor",
		"search_key":     "admin",
		"is_admin":       true,
		"bio":            "hi",
	}

	changes, err := f.ForSave(input)
	require.NoError(t, err)

	assert.Equal(t, []query.Assignment{query.Set("bio", "hi")}, changes.Set)
	assert.False(t, changes.TagsSet)
	assert.Len(t, input, 7, "input must not be mutated")
	assert.Equal(t, 999, input["id"])
}

func TestFilter_ForSave_SearchKeyIsNotSettable(t *testing.T) {
	f := NewFilter(query.Users())

	changes, err := f.ForSave(map[string]any{"search_key": "x"})
	require.NoError(t, err)
	assert.Empty(t, changes.Set)
	assert.True(t, changes.Empty())
}

func TestFilter_ForSave_OrderFollowsSchema(t *testing.T) {
	f := NewFilter(query.Users())

	changes, err := f.ForSave(map[string]any{"company": "c", "name": "n", "bio": "b", "password": "p"})
	require.NoError(t, err)

	var cols []string
	for _, a := range changes.Set {
		cols = append(cols, a.Column)
	}
	assert.Equal(t, []string{"name", "password", "bio", "company"}, cols)
}

func TestFilter_ForSave_Tags(t *testing.T) {
	f := NewFilter(query.Users())

	tests := []struct {
		name    string
		input   map[string]any
		want    []string
		wantSet bool
		wantErr bool
	}{
		{name: "absent", input: map[string]any{"bio": "x"}},
		{name: "null", input: map[string]any{"tags": nil}},
		{name: "explicit empty clears", input: map[string]any{"tags": []any{}}, want: []string{}, wantSet: true},
		{name: "json array", input: map[string]any{"tags": []any{"go", "rust"}}, want: []string{"go", "rust"}, wantSet: true},
		{name: "string slice", input: map[string]any{"tags": []string{"go"}}, want: []string{"go"}, wantSet: true},
		{name: "not a list", input: map[string]any{"tags": "go"}, wantErr: true},
		{name: "non-string item", input: map[string]any{"tags": []any{"go", 3}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, err := f.ForSave(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSet, changes.TagsSet)
			assert.Equal(t, tt.want, changes.Tags)
		})
	}
}

func TestFilter_ForSave_RejectsNonScalar(t *testing.T) {
	f := NewFilter(query.Users())

	_, err := f.ForSave(map[string]any{"bio": map[string]any{"nested": true}})
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestFilter_ForReturn(t *testing.T) {
	f := NewFilter(query.Users())

	tests := []struct {
		name       string
		in         []string
		revealType bool
		want       []string
	}{
		{
			name: "strips id password unknown and dups",
			in:   []string{"id", "name", "password", "salary", "name", "tags"},
			want: []string{"name", "tags"},
		},
		{
			name: "type_user hidden",
			in:   []string{"type_user", "bio"},
			want: []string{"bio"},
		},
		{
			name:       "type_user revealed",
			in:         []string{"type_user", "bio"},
			revealType: true,
			want:       []string{"type_user", "bio"},
		},
		{
			name: "only secrets leaves empty non-nil",
			in:   []string{"password"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]string(nil), tt.in...)
			got := f.ForReturn(in, tt.revealType)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, in, "input must not be mutated")
		})
	}
}

func TestFilter_ForReturn_DefaultsToSchema(t *testing.T) {
	f := NewFilter(query.Users())

	got := f.ForReturn(nil, false)

	assert.NotContains(t, got, "id")
	assert.NotContains(t, got, "password")
	assert.NotContains(t, got, "type_user")
	assert.Contains(t, got, "email")
	assert.Contains(t, got, "tags")
	assert.Contains(t, got, "token")
}
