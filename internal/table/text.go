package table

import (
	"fmt"

	"github.com/cebeepredict/admin/internal/status"
	"github.com/cebeepredict/admin/model"
)

// CellText formats a value for plain-text output with the same rules as
// the HTML cells: grouped numbers, formatted times, team names, scores and
// status labels.
func (f *Formatter) CellText(d model.ColumnDefinition, fallbackVocab string, v any) string {
	switch d.Type {
	case "number", "count", "points":
		if items, ok := v.([]any); ok && d.Type == "count" {
			v = float64(len(items))
		}
		suffix := d.Suffix
		if d.Type == "points" && suffix == "" {
			suffix = " pts"
		}
		s := f.Number(v)
		if s == Blank {
			return s
		}
		return s + suffix
	case "date", "datetime":
		layout := d.Format
		if layout == "" {
			layout = dateLayout
			if d.Type == "datetime" {
				layout = dateTimeLayout
			}
		}
		return f.Time(v, layout)
	case "status":
		name := d.Vocabulary
		if name == "" {
			name = fallbackVocab
		}
		if vocab, ok := status.Lookup(name); ok {
			return vocab.Resolve(v).Label
		}
	case "bool":
		if b, ok := v.(bool); ok {
			if b {
				return "Yes"
			}
			return "No"
		}
	case "team":
		if name := teamName(v); name != "" {
			return name
		}
		return Blank
	case "score":
		return score(v)
	}
	if s := model.FormatValue(v); s != "" {
		return s
	}
	return Blank
}

// RangeLabel describes the rows of res, as in "11-20 of 57".
func RangeLabel(res model.ListResult) string {
	first := res.PageIndex*res.PageSize + 1
	last := min(first+len(res.Rows)-1, res.TotalCount)
	if len(res.Rows) == 0 {
		first, last = 0, 0
	}
	return fmt.Sprintf("%d-%d of %d", first, last, res.TotalCount)
}
