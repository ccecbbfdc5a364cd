package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryLimitClamping(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  string
	}{
		{"within range", 250, "250"},
		{"above cap silently caps", 1000, "500"},
		{"exactly at cap", 500, "500"},
		{"below minimum", 0, "1"},
		{"negative", -10, "1"},
		{"minimum", 1, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := NewQuery().Limit(tt.limit).Values()
			assert.Equal(t, tt.want, values.Get("limit"))
		})
	}
}

func TestQuerySkipClamping(t *testing.T) {
	assert.Equal(t, "25", NewQuery().Skip(25).Values().Get("skip"))

	// negative skips clamp to zero and are omitted
	values := NewQuery().Skip(-5).Values()
	assert.Empty(t, values.Get("skip"))
}

func TestQueryDefaults(t *testing.T) {
	values := NewQuery().Values()

	assert.Equal(t, "50", values.Get("limit"))
	assert.Empty(t, values.Get("skip"))
	assert.Empty(t, values.Get("search"))
}

func TestQueryFilters(t *testing.T) {
	values := NewQuery().
		Filter("certifiedBot", "true").
		Filter("username", "shiro").
		Values()

	assert.Equal(t, "true", values.Get("filter[certifiedBot]"))
	assert.Equal(t, "shiro", values.Get("filter[username]"))
}

func TestQueryFilterLastValueWins(t *testing.T) {
	values := NewQuery().
		Filter("username", "first").
		Filter("username", "second").
		Values()

	assert.Equal(t, "second", values.Get("filter[username]"))
}

func TestQuerySearchAlongsideFilters(t *testing.T) {
	t.Run("plain search text is kept", func(t *testing.T) {
		values := NewQuery().
			Search("music bot").
			Filter("certifiedBot", "true").
			Values()

		assert.Equal(t, "music bot", values.Get("search"))
	})

	t.Run("filters win for fields they name", func(t *testing.T) {
		values := NewQuery().
			Search("username: shiro").
			Filter("username", "luca").
			Values()

		assert.Empty(t, values.Get("search"))
		assert.Equal(t, "luca", values.Get("filter[username]"))
	})
}

func TestQueryEncodingIsDeterministic(t *testing.T) {
	build := func() string {
		return NewQuery().
			Search("shiro").
			Filter("prefix", "!").
			Filter("certifiedBot", "true").
			Limit(100).
			Skip(10).
			Values().Encode()
	}

	first := build()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, build())
	}
}

func TestQuerySerializedLimitCap(t *testing.T) {
	encoded := NewQuery().Limit(1000).Values().Encode()
	assert.Contains(t, encoded, "limit=500")
}
