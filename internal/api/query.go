package api

import (
	"net/url"
	"strconv"
)

// PageQuery carries the common paging parameters of listing endpoints.
type PageQuery struct {
	Page int
	Size int
	Sort string
}

// DefaultPageSize is applied when a query leaves Size unset.
const DefaultPageSize = 20

// Values encodes the query as URL parameters.
func (q PageQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	size := q.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	v.Set("size", strconv.Itoa(size))
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	return v
}

// Endpoint joins a base URL, a path and optional query parameters.
func Endpoint(base, path string, query url.Values) string {
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
