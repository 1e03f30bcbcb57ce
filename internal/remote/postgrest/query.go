package postgrest

import (
	"net/url"
	"strconv"
	"strings"
)

// query builds PostgREST filter query strings.
type query struct {
	values url.Values
}

func newQuery() *query {
	q := &query{values: url.Values{}}
	q.values.Set("select", "*")
	return q
}

func (q *query) filter(column, op, value string) *query {
	q.values.Add(column, op+"."+value)
	return q
}

func (q *query) eq(column, value string) *query {
	if value == "" {
		return q
	}
	return q.filter(column, "eq", value)
}

// contains filters array columns holding value.
func (q *query) contains(column, value string) *query {
	if value == "" {
		return q
	}
	return q.filter(column, "cs", "{"+quoteArrayElem(value)+"}")
}

func (q *query) ilike(column, pattern string) *query {
	if pattern == "" {
		return q
	}
	return q.filter(column, "ilike", "*"+pattern+"*")
}

func (q *query) gte(column string, v float64) *query {
	return q.filter(column, "gte", strconv.FormatFloat(v, 'f', -1, 64))
}

func (q *query) lte(column string, v float64) *query {
	return q.filter(column, "lte", strconv.FormatFloat(v, 'f', -1, 64))
}

func (q *query) order(expr string) *query {
	q.values.Set("order", expr)
	return q
}

func (q *query) page(limit, offset int) *query {
	if limit > 0 {
		q.values.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.values.Set("offset", strconv.Itoa(offset))
	}
	return q
}

func (q *query) encode() string {
	return q.values.Encode()
}

// quoteArrayElem quotes a Postgres array literal element when needed.
func quoteArrayElem(v string) string {
	if strings.ContainsAny(v, `{},"\ `) {
		return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v) + `"`
	}
	return v
}

// parseContentRange reads the total from a "0-23/120" or "*/0" header.
func parseContentRange(header string) (int, bool) {
	i := strings.LastIndexByte(header, '/')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(header[i+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}
