// Package listing implements the in-memory list pipeline shared by every
// resource page: search, filter, sort, then slice one page. The pipeline is
// pure; callers re-run it in full whenever any input changes.
package listing

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cebeepredict/admin/model"
)

// FilterAll is the filter value that disables a filter.
const FilterAll = "all"

// Filter restricts rows to those whose field value is one of Values. A
// single value is an exact match; several values are set membership.
// Normalize maps the row value before comparison, which is how status
// filters match by bucket instead of by raw backend value.
type Filter struct {
	Field     string
	Values    []string
	Normalize func(any) string
}

// active reports whether the filter constrains anything. Empty values and
// "all" are ignored.
func (f Filter) active() []string {
	var out []string
	for _, v := range f.Values {
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, FilterAll) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Query is one configuration of the pipeline.
type Query struct {
	Search       string
	SearchFields []string
	Filters      []Filter
	SortKey      string
	Comparators  map[string]Comparator
}

// Apply runs search, filters and sort over rows and returns a new slice.
// The input slice is never reordered. An unknown SortKey is a BAD_REQUEST
// error; an empty SortKey keeps the backend order.
func Apply(rows []model.Row, q Query) ([]model.Row, error) {
	// 1. Resolve the comparator before doing any work.
	var cmp Comparator
	if q.SortKey != "" {
		c, ok := q.Comparators[q.SortKey]
		if !ok {
			return nil, model.NewBadRequestError(fmt.Sprintf("unknown sort key %q", q.SortKey))
		}
		cmp = c
	}

	// 2. Prepare predicates.
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	type predicate struct {
		field     string
		values    []string
		normalize func(any) string
	}
	var preds []predicate
	for _, f := range q.Filters {
		values := f.active()
		if len(values) == 0 {
			continue
		}
		norm := f.Normalize
		if norm == nil {
			norm = model.FormatValue
		}
		preds = append(preds, predicate{field: f.Field, values: values, normalize: norm})
	}

	// 3. Search, then filter, preserving input order.
	out := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		if needle != "" && !matchesSearch(row, q.SearchFields, needle) {
			continue
		}
		keep := true
		for _, p := range preds {
			if !slices.Contains(p.values, p.normalize(row.Field(p.field))) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}

	// 4. Stable sort so ties keep their filtered order.
	if cmp != nil {
		slices.SortStableFunc(out, cmp)
	}

	return out, nil
}

// matchesSearch reports whether any search field contains needle,
// case-insensitively. needle must already be lower case.
func matchesSearch(row model.Row, fields []string, needle string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(model.FormatValue(row.Field(f))), needle) {
			return true
		}
	}
	return false
}

// Paginate slices one page out of rows. A negative index is treated as 0 and
// a non-positive size as DefaultPageSize. An index past the end yields an
// empty page; TotalCount is always len(rows).
func Paginate(rows []model.Row, pageIndex, pageSize int) model.ListResult {
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	result := model.ListResult{
		Rows:       []model.Row{},
		TotalCount: len(rows),
		PageIndex:  pageIndex,
		PageSize:   pageSize,
	}

	start := pageIndex * pageSize
	if start >= len(rows) {
		return result
	}
	end := min(start+pageSize, len(rows))
	result.Rows = append(result.Rows, rows[start:end]...)
	return result
}
