package api

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	minLimit     = 1
)

// Query builds normalized search parameters for bot searches. It is a pure
// fluent builder; the parameter set is materialized by Values at call time.
type Query struct {
	search  string
	filters map[string]string
	limit   int
	skip    int
}

// NewQuery creates a query with the default limit of 50 and no skip.
func NewQuery() *Query {
	return &Query{
		filters: make(map[string]string),
		limit:   defaultLimit,
	}
}

// Search sets the free-text search term.
func (q *Query) Search(text string) *Query {
	q.search = strings.TrimSpace(text)
	return q
}

// Filter constrains a single field to a value. Setting the same field twice
// keeps the latest value.
func (q *Query) Filter(field, value string) *Query {
	field = strings.TrimSpace(field)
	if field != "" {
		q.filters[field] = value
	}
	return q
}

// Limit sets the page size, silently clamped to [1, 500].
func (q *Query) Limit(n int) *Query {
	if n > maxLimit {
		n = maxLimit
	}
	if n < minLimit {
		n = minLimit
	}
	q.limit = n
	return q
}

// Skip sets the result offset, clamped to be non-negative.
func (q *Query) Skip(n int) *Query {
	if n < 0 {
		n = 0
	}
	q.skip = n
	return q
}

// Values materializes the query into canonical request parameters. Encoding
// is deterministic: url.Values.Encode sorts by key, and filter fields are
// emitted as filter[field]=value. A free-text term of the form
// "field: value" is dropped when that field is already constrained by a
// filter, so filters always win for fields they name.
func (q *Query) Values() url.Values {
	values := url.Values{}
	values.Set("limit", strconv.Itoa(q.limit))
	if q.skip > 0 {
		values.Set("skip", strconv.Itoa(q.skip))
	}

	fields := make([]string, 0, len(q.filters))
	for field := range q.filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		values.Set("filter["+field+"]", q.filters[field])
	}

	if search := q.effectiveSearch(); search != "" {
		values.Set("search", search)
	}

	return values
}

func (q *Query) effectiveSearch() string {
	if q.search == "" {
		return ""
	}
	for field := range q.filters {
		if strings.HasPrefix(q.search, field+":") {
			return ""
		}
	}
	return q.search
}
