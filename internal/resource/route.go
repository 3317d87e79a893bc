package resource

import (
	"net/url"
	"regexp"

	"github.com/cebeepredict/admin/model"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_.]+)\}`)

// ExpandRoute substitutes {field} placeholders in a route template with
// values from row. Values are escaped for the position they land in: path
// segments before "?" and query values after it. Missing fields expand to
// the empty string.
func ExpandRoute(tmpl string, row model.Row) string {
	queryStart := len(tmpl)
	for i, c := range tmpl {
		if c == '?' {
			queryStart = i
			break
		}
	}

	var out []byte
	last := 0
	for _, m := range placeholder.FindAllStringSubmatchIndex(tmpl, -1) {
		out = append(out, tmpl[last:m[0]]...)
		value := model.FormatValue(row.Field(tmpl[m[2]:m[3]]))
		if m[0] > queryStart {
			out = append(out, url.QueryEscape(value)...)
		} else {
			out = append(out, url.PathEscape(value)...)
		}
		last = m[1]
	}
	out = append(out, tmpl[last:]...)
	return string(out)
}

// RowHref returns the detail link for a row, or "" when the resource has no
// row link or the row has no identifier.
func RowHref(def model.ResourceDefinition, row model.Row) string {
	if def.RowLink == "" || row.ID() == "" {
		return ""
	}
	return ExpandRoute(def.RowLink, row)
}
