package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Row is one record of a listed collection. The backend is authoritative
// for its shape; the only field the admin relies on is the identifier.
type Row map[string]any

// ID returns the row identifier read from "id" (or "_id"), formatted as a
// string. It returns "" when the row carries no identifier.
func (r Row) ID() string {
	for _, key := range []string{"id", "_id"} {
		if v, ok := r[key]; ok && v != nil {
			return FormatValue(v)
		}
	}
	return ""
}

// Field returns the value at a dot-separated path ("homeTeam.name").
func (r Row) Field(path string) any {
	if path == "" {
		return nil
	}
	if v, ok := r[path]; ok {
		return v
	}
	var current any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		switch m := current.(type) {
		case map[string]any:
			current = m[part]
		case Row:
			current = m[part]
		default:
			return nil
		}
	}
	return current
}

// FormatValue renders a scalar field value the way a table cell shows it
// verbatim. Whole floats drop their fraction so JSON numbers print as ints.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// Beyond 2^53 floats are not exact integers and int64 may overflow.
		if math.Abs(t) < 1<<53 && t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// ListRequest describes one listing of a resource collection. It is built
// fresh for every search, filter, sort or page change.
type ListRequest struct {
	Collection string            `json:"collection"`
	Search     string            `json:"search,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
	SortKey    string            `json:"sort,omitempty"`
	PageIndex  int               `json:"page"`
	PageSize   int               `json:"page_size"`
}

// ListResult is one page of a filtered, sorted collection.
type ListResult struct {
	Rows       []Row `json:"rows"`
	TotalCount int   `json:"total_count"`
	PageIndex  int   `json:"page"`
	PageSize   int   `json:"page_size"`
}

// PageCount returns the number of pages needed to show TotalCount rows.
func (r ListResult) PageCount() int {
	if r.PageSize <= 0 || r.TotalCount <= 0 {
		return 0
	}
	return (r.TotalCount + r.PageSize - 1) / r.PageSize
}

// HasNext reports whether a page follows the current one.
func (r ListResult) HasNext() bool {
	return r.PageIndex+1 < r.PageCount()
}
