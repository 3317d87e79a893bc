package ui

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the admin pages on r. The session cookie middleware
// must already be installed.
func MountRoutes(r chi.Router, h *Handler) {
	r.Group(func(r chi.Router) {
		r.Use(h.EnsureCSRFToken)
		r.Use(h.RequireCSRF)

		r.Get("/login", h.LoginPage)
		r.Post("/login", h.LoginSubmit)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession)
			r.Get("/", h.Overview)
			r.Get("/resources/{resourceID}", h.ResourcesList)
			r.Get("/resources/{resourceID}/{recordID}", h.ResourcesDetail)
			r.Post("/resources/{resourceID}/{recordID}/actions/{actionID}", h.ResourcesAction)
			r.Get("/content/{contentID}", h.ContentEdit)
			r.Post("/content/{contentID}", h.ContentSave)
			r.Post("/content/{contentID}/items", h.ContentItemSave)
			r.Post("/content/{contentID}/items/{itemID}/delete", h.ContentItemDelete)
		})
	})
}
