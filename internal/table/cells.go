package table

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/cebeepredict/admin/internal/status"
	"github.com/cebeepredict/admin/model"
)

// Blank is shown for missing values in formatted cells.
const Blank = "-"

const (
	dateLayout     = "02 Jan 2006"
	dateTimeLayout = "02 Jan 2006 15:04"
)

// StatusChip renders a status bucket as a coloured label.
func StatusChip(b status.Bucket) Node {
	className := "Label"
	if b.Color != "" && b.Color != status.ColorDefault {
		className += " Label--" + b.Color
	}
	return Span(Class(className), Attr("data-status", b.Key), Text(b.Label))
}

// Formatter builds cell renderers for column definitions. Numbers use the
// locale's grouping.
type Formatter struct {
	printer *message.Printer
	loc     *time.Location
}

// NewFormatter returns a formatter for a BCP 47 locale. Unparseable locales
// fall back to English; times are shown in UTC.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{printer: message.NewPrinter(tag), loc: time.UTC}
}

// Columns converts column definitions into renderable columns. fallbackVocab
// names the vocabulary used by status columns that declare none.
func (f *Formatter) Columns(defs []model.ColumnDefinition, fallbackVocab string) []Column {
	cols := make([]Column, 0, len(defs))
	for _, d := range defs {
		cols = append(cols, Column{
			ID:     d.Field,
			Label:  d.Label,
			Width:  d.Width,
			Render: f.renderer(d, fallbackVocab),
		})
	}
	return cols
}

func (f *Formatter) renderer(d model.ColumnDefinition, fallbackVocab string) func(any, model.Row) Node {
	switch d.Type {
	case "number", "count", "points":
		suffix := d.Suffix
		if d.Type == "points" && suffix == "" {
			suffix = " pts"
		}
		countSlices := d.Type == "count"
		return func(v any, _ model.Row) Node {
			if countSlices {
				if items, ok := v.([]any); ok {
					v = float64(len(items))
				}
			}
			s := f.Number(v)
			if s == Blank {
				return Text(s)
			}
			return Span(Class("text-mono"), Text(s+suffix))
		}
	case "date", "datetime":
		layout := d.Format
		if layout == "" {
			layout = dateLayout
			if d.Type == "datetime" {
				layout = dateTimeLayout
			}
		}
		return func(v any, _ model.Row) Node {
			return Text(f.Time(v, layout))
		}
	case "status":
		name := d.Vocabulary
		if name == "" {
			name = fallbackVocab
		}
		vocab, ok := status.Lookup(name)
		if !ok {
			return nil
		}
		return func(v any, _ model.Row) Node {
			return StatusChip(vocab.Resolve(v))
		}
	case "bool":
		return func(v any, _ model.Row) Node {
			switch t := v.(type) {
			case bool:
				if t {
					return Text("Yes")
				}
				return Text("No")
			case nil:
				return Text(Blank)
			default:
				return Text(model.FormatValue(v))
			}
		}
	case "team":
		return func(v any, _ model.Row) Node {
			name := teamName(v)
			if name == "" {
				return Text(Blank)
			}
			return Span(Class("team"), Text(name))
		}
	case "score":
		return func(v any, _ model.Row) Node {
			return Span(Class("text-mono"), Text(score(v)))
		}
	case "link":
		return func(v any, _ model.Row) Node {
			href := model.FormatValue(v)
			if href == "" {
				return Text(Blank)
			}
			return A(Href(href), Attr("target", "_blank"), Attr("rel", "noopener"), Text(href))
		}
	default:
		return nil
	}
}

// Number formats a numeric value with grouping separators. Non-numeric
// strings are returned unchanged.
func (f *Formatter) Number(v any) string {
	switch t := v.(type) {
	case nil:
		return Blank
	case float64:
		if t == float64(int64(t)) {
			return f.printer.Sprintf("%d", int64(t))
		}
		return f.printer.Sprintf("%.2f", t)
	case int:
		return f.printer.Sprintf("%d", t)
	case int64:
		return f.printer.Sprintf("%d", t)
	default:
		return model.FormatValue(v)
	}
}

var inputLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", time.DateOnly}

// Time formats an RFC 3339 (or date-only) string, or a unix-millisecond
// number, with layout. Unparseable values are shown verbatim.
func (f *Formatter) Time(v any, layout string) string {
	switch t := v.(type) {
	case nil:
		return Blank
	case float64:
		return time.UnixMilli(int64(t)).In(f.loc).Format(layout)
	case string:
		if t == "" {
			return Blank
		}
		for _, l := range inputLayouts {
			if parsed, err := time.Parse(l, t); err == nil {
				return parsed.In(f.loc).Format(layout)
			}
		}
		return t
	default:
		return model.FormatValue(v)
	}
}

func teamName(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, key := range []string{"name", "shortName", "code"} {
			if s, ok := t[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// score renders {"home":2,"away":1} as "2 - 1". Strings pass through.
func score(v any) string {
	switch t := v.(type) {
	case map[string]any:
		home, hok := t["home"]
		away, aok := t["away"]
		if !hok || !aok || home == nil || away == nil {
			return Blank
		}
		return model.FormatValue(home) + " - " + model.FormatValue(away)
	case string:
		if strings.TrimSpace(t) == "" {
			return Blank
		}
		return t
	case nil:
		return Blank
	default:
		return model.FormatValue(v)
	}
}
