package ui

import (
	"net/url"
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/cebeepredict/admin/model"
)

// contentView is one CMS document in the editor.
type contentView struct {
	Doc    model.ContentDocument
	Err    error
	Notice string
	// Problem is a failed save. Draft keeps what the admin typed.
	Problem string
	Draft   *model.ContentDocument
	Self    string
	CSRF    Node
}

func contentPage(c chrome, v contentView) Node {
	var body Node
	switch {
	case v.Err != nil:
		body = loadErrorCard(v.Doc.Title, v.Err, v.Self)
	case v.Doc.Format == model.ContentList:
		body = itemsEditor(v)
	default:
		body = markdownEditor(v)
	}
	return appPage(v.Doc.Title, c,
		flash("success", v.Notice),
		flash("error", v.Problem),
		body,
	)
}

func contentPath(docID string) string {
	return "/content/" + url.PathEscape(docID)
}

func markdownEditor(v contentView) Node {
	doc := v.Doc
	if v.Draft != nil {
		doc.Body = v.Draft.Body
	}
	return Div(
		Class("d-flex gap-3"),
		Form(
			Method("post"),
			Action(contentPath(doc.ID)),
			Class(cardClass("flex-1")),
			v.CSRF,
			Label(For("content-body"), Text("Markdown")),
			Textarea(
				ID("content-body"), Name("body"), Class("form-control input-block"),
				Attr("rows", "24"),
				Text(doc.Body),
			),
			Div(Class("mt-2 d-flex flex-items-center gap-2"),
				Button(Type("submit"), Class(primaryButtonClass()), Text("Save")),
				If(doc.UpdatedAt != "", Span(Class(mutedClass()), Text("Last updated "+doc.UpdatedAt))),
			),
		),
		Div(
			Class(cardClass("flex-1")),
			H2(Class("h4 mb-2"), Text("Preview")),
			Div(Class("markdown-body"), Raw(doc.HTML)),
		),
	)
}

func itemsEditor(v contentView) Node {
	path := contentPath(v.Doc.ID)
	forms := make([]Node, 0, len(v.Doc.Items)+1)
	for _, item := range v.Doc.Items {
		forms = append(forms, itemForm(path, item, v.CSRF))
	}
	next := len(v.Doc.Items) + 1
	forms = append(forms, Div(
		Class(cardClass()),
		H2(Class("h4 mb-2"), Text("Add item")),
		itemFields(path, model.Row{"order": next}, v.CSRF, "Add"),
	))
	return Div(Group(forms))
}

func itemForm(path string, item model.Row, csrf Node) Node {
	id := item.ID()
	return Div(
		Class(cardClass()),
		Attr("data-key", id),
		itemFields(path, item, csrf, "Save"),
		If(id != "", Form(
			Method("post"),
			Action(path+"/items/"+url.PathEscape(id)+"/delete"),
			Class("mt-2"),
			Attr("onsubmit", "return confirm('Delete this item?')"),
			csrf,
			Button(Type("submit"), Class("btn btn-sm btn-danger"), Text("Delete")),
		)),
	)
}

func itemFields(path string, item model.Row, csrf Node, submit string) Node {
	id := item.ID()
	prefix := "item-new"
	if id != "" {
		prefix = "item-" + id
	}
	return Form(
		Method("post"),
		Action(path+"/items"),
		csrf,
		If(id != "", Input(Type("hidden"), Name("id"), Value(id))),
		Label(For(prefix+"-title"), Text("Title")),
		Input(Type("text"), ID(prefix+"-title"), Name("title"), Class("form-control input-block"),
			Value(model.FormatValue(item["title"])), Required()),
		Label(For(prefix+"-text"), Text("Text")),
		Textarea(ID(prefix+"-text"), Name("text"), Class("form-control input-block"), Attr("rows", "4"),
			Text(model.FormatValue(item["text"]))),
		Label(For(prefix+"-order"), Text("Order")),
		Input(Type("number"), ID(prefix+"-order"), Name("order"), Class("form-control"), Min("0"),
			Value(orderValue(item["order"]))),
		Div(Class("mt-2"), Button(Type("submit"), Class(primaryButtonClass()), Text(submit))),
	)
}

func orderValue(v any) string {
	switch t := v.(type) {
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.Itoa(int(t))
	default:
		return "0"
	}
}
