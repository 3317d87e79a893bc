package ui

import (
	"maps"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/cebeepredict/admin/internal/table"
	"github.com/cebeepredict/admin/model"
)

// stat is one figure on the overview.
type stat struct {
	Key   string
	Label string
	Value any
}

func overviewPage(c chrome, summary map[string]any, err error, formatter *table.Formatter) Node {
	var body []Node
	if err != nil {
		body = append(body, loadErrorCard("the dashboard summary", err, "/"))
	} else {
		stats := flattenSummary(summary)
		if len(stats) == 0 {
			body = append(body, Div(Class(cardClass("blankslate")), P(Class(mutedClass()), Text("No summary figures yet."))))
		}
		cards := make([]Node, 0, len(stats))
		for _, s := range stats {
			cards = append(cards, Div(
				Class(cardClass("stat-card")),
				Attr("data-key", s.Key),
				P(Class(mutedClass()+" mb-1"), Text(s.Label)),
				Strong(Class("h2"), Text(statValue(s.Value, formatter))),
			))
		}
		body = append(body, Div(Class("d-flex flex-wrap gap-3"), Group(cards)))
	}

	links := make([]Node, 0, len(c.Nav))
	for _, item := range c.Nav {
		links = append(links, Li(A(Href(item.Route), Text(item.Label))))
	}
	body = append(body, Div(Class(cardClass()), H2(Class("h4 mb-2"), Text("Manage")), Ul(Group(links))))

	return appPage("Overview", c, body...)
}

// flattenSummary lists scalar figures, one level of nesting deep, sorted by
// key.
func flattenSummary(summary map[string]any) []stat {
	var stats []stat
	for _, k := range slices.Sorted(maps.Keys(summary)) {
		switch v := summary[k].(type) {
		case map[string]any:
			for _, sub := range slices.Sorted(maps.Keys(v)) {
				if isScalar(v[sub]) {
					stats = append(stats, stat{Key: k + "." + sub, Label: humanize(k) + ": " + strings.ToLower(humanize(sub)), Value: v[sub]})
				}
			}
		default:
			if isScalar(v) {
				stats = append(stats, stat{Key: k, Label: humanize(k), Value: v})
			}
		}
	}
	return stats
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, float64, int, int64, bool:
		return true
	}
	return false
}

func statValue(v any, formatter *table.Formatter) string {
	if f, ok := v.(float64); ok && formatter != nil {
		return formatter.Number(f)
	}
	return model.FormatValue(v)
}

// humanize turns "activeUsers" or "active_users" into "Active users".
func humanize(key string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	for _, r := range key {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	if len(words) == 0 {
		return key
	}
	words[0] = cases.Title(language.English).String(words[0])
	return strings.Join(words, " ")
}
