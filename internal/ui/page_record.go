package ui

import (
	"net/url"

	json "github.com/goccy/go-json"
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/cebeepredict/admin/internal/resource"
	"github.com/cebeepredict/admin/internal/table"
	"github.com/cebeepredict/admin/model"
)

// recordView is one record shown on its own page.
type recordView struct {
	Def     model.ResourceDefinition
	Row     model.Row
	Columns []table.Column
	Actions []model.ActionDescriptor
	Self    string
	CSRF    Node
}

func recordPage(c chrome, v recordView) Node {
	listPath := "/resources/" + url.PathEscape(v.Def.ID)
	id := v.Row.ID()

	rows := make([]Node, 0, len(v.Columns))
	for _, col := range v.Columns {
		rows = append(rows, Tr(
			Th(Attr("scope", "row"), Class("text-left pr-3"), Text(col.Label)),
			Td(table.Cell(col, v.Row)),
		))
	}

	var buttons []Node
	for _, a := range v.Actions {
		switch a.Type {
		case model.ActionNavigate:
			if href := resource.ExpandRoute(a.NavigateTo, v.Row); href != "" {
				buttons = append(buttons, A(Href(href), Class("btn btn-sm mr-2"), Text(a.Label)))
			}
		default:
			if id == "" {
				continue
			}
			// Deleting returns to the list; other actions come back here.
			returnTo := v.Self
			if a.Type == model.ActionDelete {
				returnTo = listPath
			}
			buttons = append(buttons, Form(
				Method("post"),
				Action(actionPath(v.Def.ID, id, a.ID)),
				Class("d-inline-block mr-2"),
				If(a.Confirm != "", Attr("onsubmit", "return confirm("+jsString(a.Confirm)+")")),
				v.CSRF,
				Input(Type("hidden"), Name("return"), Value(returnTo)),
				Button(Type("submit"), Class(actionButtonClass(a)), Text(a.Label)),
			))
		}
	}

	title := v.Def.Title
	if id != "" {
		title += " " + id
	}

	return appPage(title, c,
		P(A(Href(listPath), Text("Back to "+v.Def.Title))),
		Div(Class(cardClass()), Table(Class("record-table"), TBody(Group(rows)))),
		If(len(buttons) > 0, Div(Class(cardClass("toolbar")), Group(buttons))),
		Details(
			Class(cardClass()),
			Summary(Text("All fields")),
			Pre(Class("record-json"), Code(Text(prettyJSON(v.Row)))),
		),
	)
}

func actionButtonClass(a model.ActionDescriptor) string {
	if a.Danger {
		return "btn btn-sm btn-danger"
	}
	return "btn btn-sm"
}

func prettyJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return model.FormatValue(v)
	}
	return string(b)
}
