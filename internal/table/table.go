// Package table renders resource listings as HTML tables. One renderer
// serves every resource page; columns decide how their cells look.
package table

import (
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/cebeepredict/admin/model"
)

// Column is one table column. Render, when set, builds the cell from the
// row value at ID; otherwise the raw value is shown.
type Column struct {
	ID     string
	Label  string
	Width  string
	Render func(value any, row model.Row) Node
}

// Options controls how a table is rendered.
type Options struct {
	// Loading replaces the body with a single spinner row.
	Loading bool
	// EmptyMessage is shown when there are no rows.
	EmptyMessage string
	// RowHref, when set, makes rows navigable. Rows with an empty href stay
	// inert.
	RowHref func(row model.Row) string
	// RowActions renders the trailing action cell for a row.
	RowActions func(row model.Row) Node
	// Pagination renders the footer. It is omitted when nil or when the
	// result has no rows in total.
	Pagination *Pagination
}

// DefaultEmptyMessage is shown when Options.EmptyMessage is blank.
const DefaultEmptyMessage = "No records found."

// Render builds the table for one page of rows.
func Render(columns []Column, rows []model.Row, opts Options) Node {
	span := len(columns)
	if opts.RowActions != nil {
		span++
	}

	var body []Node
	switch {
	case opts.Loading:
		body = append(body, Tr(
			Class("table-loading"),
			Td(Attr("colspan", strconv.Itoa(span)), Class("text-center"),
				Span(Class("spinner"), Attr("role", "status"), Attr("aria-label", "Loading")),
			),
		))
	case len(rows) == 0:
		msg := opts.EmptyMessage
		if msg == "" {
			msg = DefaultEmptyMessage
		}
		body = append(body, Tr(
			Class("table-empty"),
			Td(Attr("colspan", strconv.Itoa(span)), Class("text-center color-fg-muted"), Text(msg)),
		))
	default:
		for i, row := range rows {
			body = append(body, renderRow(columns, row, i, opts))
		}
	}

	return Div(
		Class("table-wrap"),
		Table(
			Class("data-table"),
			THead(Tr(headerCells(columns, opts.RowActions != nil))),
			TBody(Group(body)),
		),
		footer(opts),
	)
}

func headerCells(columns []Column, actions bool) Node {
	cells := make([]Node, 0, len(columns)+1)
	for _, col := range columns {
		var width Node
		if col.Width != "" {
			width = Style("width:" + col.Width)
		}
		cells = append(cells, Th(Attr("scope", "col"), width, Text(col.Label)))
	}
	if actions {
		cells = append(cells, Th(Span(Class("sr-only"), Text("Actions"))))
	}
	return Group(cells)
}

func renderRow(columns []Column, row model.Row, index int, opts Options) Node {
	key := row.ID()
	if key == "" {
		key = strconv.Itoa(index)
	}

	attrs := []Node{Attr("data-key", key)}
	if opts.RowHref != nil {
		if href := opts.RowHref(row); href != "" {
			attrs = append(attrs,
				Class("row-link"),
				Attr("data-href", href),
				Attr("onclick", "window.location=this.dataset.href"),
			)
		}
	}

	cells := make([]Node, 0, len(columns)+1)
	for _, col := range columns {
		cells = append(cells, Td(Cell(col, row)))
	}
	if opts.RowActions != nil {
		cells = append(cells, Td(
			Class("text-right"),
			Attr("onclick", "event.stopPropagation()"),
			opts.RowActions(row),
		))
	}

	return Tr(Group(attrs), Group(cells))
}

// Cell renders the content of one cell.
func Cell(col Column, row model.Row) Node {
	value := row.Field(col.ID)
	if col.Render != nil {
		return col.Render(value, row)
	}
	return Text(model.FormatValue(value))
}
