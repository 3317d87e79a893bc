package ui

import (
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func loginPage(errMsg, email, next string, csrf Node) Node {
	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text("Sign in | "+appName)),
			Link(Rel("icon"), Href("data:,")),
			Link(Rel("stylesheet"), Href(primerCSS)),
		),
		Body(
			Class("login-body"),
			Main(
				Class("login-wrap p-4"),
				H1(Text(appName)),
				P(Class(mutedClass()), Text("Sign in with your CeBee Predict admin account.")),
				flash("error", errMsg),
				Form(
					Method("post"),
					Action("/login"),
					Class("login-form"),
					csrf,
					If(next != "", Input(Type("hidden"), Name("next"), Value(next))),
					Label(For("login-email"), Text("Email")),
					Input(Type("email"), ID("login-email"), Name("email"), Class("form-control"), Value(email), Required(), AutoComplete("username")),
					Label(For("login-password"), Text("Password")),
					Input(Type("password"), ID("login-password"), Name("password"), Class("form-control"), Required(), AutoComplete("current-password")),
					Button(Type("submit"), Class(primaryButtonClass()+" mt-3"), Text("Sign in")),
				),
			),
		),
	)
}
