package ui

import (
	"strings"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/cebeepredict/admin/model"
)

const (
	primerCSS   = "https://cdn.jsdelivr.net/npm/@primer/css@22.1.0/dist/primer.min.css"
	datastarJS  = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"
	appName     = "CeBee Admin"
	overviewKey = "overview"
)

// chrome is the per-request frame around every signed-in page.
type chrome struct {
	Nav    []model.NavigationItem
	Active string
	User   string
	CSRF   Node
}

func appPage(title string, c chrome, body ...Node) Node {
	var data, content []Node
	for _, item := range c.Nav {
		link := navLink(item, c.Active)
		if strings.HasPrefix(item.Route, "/content/") {
			content = append(content, link)
		} else {
			data = append(data, link)
		}
	}

	user := c.User
	if user == "" {
		user = "admin"
	}

	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(title+" | "+appName)),
			Link(Rel("icon"), Href("data:,")),
			Link(Rel("stylesheet"), Href(primerCSS)),
			Script(Type("module"), Src(datastarJS)),
		),
		Body(
			Main(Class("app-shell d-flex"),
				Aside(
					Class("app-sidebar p-3 border-right"),
					Div(Class("brand mb-3"), Strong(Text(appName))),
					Nav(Class("app-nav menu"),
						navLink(model.NavigationItem{ID: overviewKey, Label: "Overview", Route: "/"}, c.Active),
						If(len(data) > 0, Span(Class("menu-heading"), Text("Data"))),
						Group(data),
						If(len(content) > 0, Span(Class("menu-heading"), Text("Content"))),
						Group(content),
					),
				),
				Section(
					Class("app-main flex-1 p-4"),
					Div(
						Class("topbar d-flex flex-justify-between flex-items-center mb-3"),
						H1(Class("page-title h2"), Text(title)),
						Div(
							P(Class(mutedClass()+" mb-2"), Text("Signed in as "+user)),
							Form(
								Method("post"),
								Action("/logout"),
								c.CSRF,
								Button(Type("submit"), Class("btn btn-sm"), Text("Sign out")),
							),
						),
					),
					Div(Class("content"), Group(body)),
				),
			),
			Script(Raw("document.addEventListener('click', function(e){ var t=e.target; if(!(t instanceof Element)){return;} document.querySelectorAll('details.dropdown[open]').forEach(function(d){ if(!d.contains(t)){ d.removeAttribute('open'); }}); });")),
		),
	)
}

func navLink(item model.NavigationItem, active string) Node {
	className := "menu-item"
	if item.ID == active {
		className += " selected"
	}
	return A(
		Href(item.Route),
		Class(className),
		If(item.ID == active, Attr("aria-current", "page")),
		If(item.Icon != "", Span(Class("material-icons nav-icon"), Attr("aria-hidden", "true"), Text(item.Icon))),
		Span(Text(item.Label)),
	)
}

func errorPage(title, message string) Node {
	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(title+" | "+appName)),
			Link(Rel("icon"), Href("data:,")),
			Link(Rel("stylesheet"), Href(primerCSS)),
		),
		Body(
			Main(
				Class("layout p-4"),
				H1(Class("page-title"), Text(title)),
				P(Text(message)),
				P(A(Href("/"), Text("Back to overview"))),
			),
		),
	)
}

func cardClass(extra ...string) string {
	parts := []string{"Box", "p-3", "mb-3", "card"}
	parts = append(parts, extra...)
	return strings.Join(parts, " ")
}

func mutedClass() string {
	return "color-fg-muted text-small"
}

func primaryButtonClass() string {
	return "btn btn-primary"
}

// flash renders a one-line notice. Kind is "error" or "success".
func flash(kind, message string, extra ...Node) Node {
	if message == "" {
		return nil
	}
	return Div(
		Class("flash flash-"+kind+" mb-3"),
		Attr("role", "alert"),
		Span(Text(message)),
		Group(extra),
	)
}

// loadErrorCard is the single state shown when a page's data could not be
// loaded. It never falls back to sample data.
func loadErrorCard(what string, err error, retryHref string) Node {
	return Div(
		Class(cardClass("flash flash-error")),
		Attr("role", "alert"),
		P(Class("mb-2"), Text("Could not load "+what+". "+errorMessage(err))),
		A(Href(retryHref), Class("btn btn-sm"), Text("Retry")),
	)
}

func actionMenu(label string, items ...Node) Node {
	return Details(
		Class("dropdown details-reset details-overlay d-inline-block"),
		Summary(Class("btn btn-sm"), Title(label), Attr("aria-label", label), Text("...")),
		Div(
			Class("dropdown-menu dropdown-menu-sw"),
			Group(items),
		),
	)
}

func actionMenuLink(href, label string) Node {
	return A(Href(href), Class("dropdown-item"), Text(label))
}

// actionMenuPost renders a one-button form. A confirm prompt, when set,
// must be accepted before the form is submitted.
func actionMenuPost(action, label, confirm, returnTo string, csrf Node, danger bool) Node {
	btnClass := "dropdown-item btn-link"
	if danger {
		btnClass += " dropdown-item-danger color-fg-danger"
	}
	form := Form(
		Method("post"),
		Action(action),
		If(confirm != "", Attr("onsubmit", "return confirm("+jsString(confirm)+")")),
		csrf,
		If(returnTo != "", Input(Type("hidden"), Name("return"), Value(returnTo))),
		Button(Type("submit"), Class(btnClass), Text(label)),
	)
	if danger {
		return Group([]Node{Div(Class("dropdown-divider")), form})
	}
	return form
}

// jsString quotes s as a single-quoted JavaScript string literal.
func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", "")
	return "'" + r.Replace(s) + "'"
}
