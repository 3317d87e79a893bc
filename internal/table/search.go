package table

import (
	"maps"
	"slices"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"

	"github.com/cebeepredict/admin/model"
)

// SearchParam is the query parameter carrying the search text.
const SearchParam = "q"

// Dropdown is a filter or sort selector submitted with the search form.
type Dropdown struct {
	Name     string
	Label    string
	Options  []model.OptionDescriptor
	Selected string
}

// Toolbar is the search form above a table.
type Toolbar struct {
	Action      string
	Search      string
	Placeholder string
	Dropdowns   []Dropdown
	// Hidden carries parameters that must survive a search, such as the
	// page size.
	Hidden map[string]string
}

// SearchBar renders the search form. Submitting it always returns to the
// first page because the page parameter is never carried over.
func SearchBar(tb Toolbar) Node {
	placeholder := tb.Placeholder
	if placeholder == "" {
		placeholder = "Search"
	}

	controls := []Node{
		Div(
			Class("d-flex flex-items-center gap-2 flex-1"),
			Label(Class("sr-only"), For("table-search"), Text("Search")),
			Input(
				Type("search"), ID("table-search"), Name(SearchParam), Class("form-control"),
				Value(tb.Search), Placeholder(placeholder), AutoComplete("off"),
				data.Bind(SearchParam),
			),
		),
	}
	for _, d := range tb.Dropdowns {
		controls = append(controls, dropdown(d))
	}
	hidden := slices.Sorted(maps.Keys(tb.Hidden))
	for _, name := range hidden {
		controls = append(controls, Input(Type("hidden"), Name(name), Value(tb.Hidden[name])))
	}
	controls = append(controls, Button(Type("submit"), Class("btn btn-sm"), Text("Apply")))

	return Form(
		Class("Box p-3 mb-3 card toolbar"),
		Method("get"),
		Action(tb.Action),
		data.Signals(map[string]any{SearchParam: tb.Search}),
		Div(Class("d-flex flex-wrap flex-items-center gap-2"), Group(controls)),
	)
}

func dropdown(s Dropdown) Node {
	opts := make([]Node, 0, len(s.Options))
	for _, o := range s.Options {
		opts = append(opts, Option(Value(o.Value), If(o.Value == s.Selected, Selected()), Text(o.Label)))
	}
	id := "filter-" + s.Name
	return Div(
		Class("d-flex flex-items-center gap-1"),
		Label(Class("text-small"), For(id), Text(s.Label)),
		Select(ID(id), Name(s.Name), Class("form-select"), Group(opts)),
	)
}
