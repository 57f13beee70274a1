package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restcore/restcore/internal/db/controller/record"
)

func query(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestParseListOptions(t *testing.T) {
	opts, err := record.ParseListOptions(query(nil))
	require.NoError(t, err)
	assert.Equal(t, record.ListOptions{Rows: record.DefaultRows, Page: 1}, opts)

	opts, err = record.ParseListOptions(query(map[string]string{
		"rows":   "-1",
		"page":   "3",
		"match":  `{"views":[1,2]}`,
		"search": `{"title":"hello"}`,
		"sortBy": `{"views":"DESC","title":"asc"}`,
	}))
	require.NoError(t, err)
	assert.Equal(t, record.AllRows, opts.Rows)
	assert.Equal(t, 3, opts.Page)
	assert.Equal(t, map[string]any{"views": []any{1.0, 2.0}}, opts.Match)
	assert.Equal(t, map[string]any{"title": "hello"}, opts.Search)
	assert.Equal(t, []record.Sort{{Column: "views", Desc: true}, {Column: "title"}}, opts.SortBy)
}

func TestParseListOptionsErrors(t *testing.T) {
	for _, values := range []map[string]string{
		{"rows": "abc"},
		{"rows": "0"},
		{"page": "0"},
		{"match": "not json"},
		{"match": "[1,2]"},
		{"search": "42"},
		{"sortBy": `{"views":"sideways"}`},
		{"sortBy": `[["a","b","c"]]`},
		{"sortBy": `[1]`},
	} {
		_, err := record.ParseListOptions(query(values))
		require.ErrorIs(t, err, record.ErrInvalidQuery, "%v", values)
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		raw  string
		want []record.Sort
	}{
		{`{"b":"DESC","a":"ASC"}`, []record.Sort{{Column: "b", Desc: true}, {Column: "a"}}},
		{`[["b","desc"],["a"]]`, []record.Sort{{Column: "b", Desc: true}, {Column: "a"}}},
		{`["a","b"]`, []record.Sort{{Column: "a"}, {Column: "b"}}},
		{`created_at`, []record.Sort{{Column: "created_at"}}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := record.ParseSort(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSON(t *testing.T) {
	assert.Equal(t, map[string]any{"a": 1.0}, record.ParseJSON(`{"a":1}`))
	assert.Equal(t, "plain text", record.ParseJSON("plain text"))
	assert.Equal(t, true, record.ParseJSON("true"))
}

func TestValidUUID(t *testing.T) {
	assert.True(t, record.ValidUUID("0b9e1c52-3c1b-4f0a-9d8e-2f4b6a7c8d9e"))
	assert.False(t, record.ValidUUID("0b9e1c52-3c1b-0f0a-9d8e-2f4b6a7c8d9e"))
	assert.False(t, record.ValidUUID("nope"))
}

func TestParsePopulate(t *testing.T) {
	got, err := record.ParsePopulate(`{"path":"author","ref":"user","select":["email"],"populate":{"path":"org","ref":"org"}}`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "author", got[0].Path)
	require.NotNil(t, got[0].Populate)
	assert.Equal(t, "org", got[0].Populate.Ref)

	got, err = record.ParsePopulate(`[{"path":"a","ref":"x"},{"path":"b","ref":"y"}]`)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = record.ParsePopulate("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = record.ParsePopulate("{")
	require.ErrorIs(t, err, record.ErrInvalidQuery)
}
