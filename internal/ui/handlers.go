package ui

import (
	"net/http"

	"github.com/cebeepredict/admin/internal/session"
)

func (h *Handler) frame(r *http.Request, active string) chrome {
	return chrome{
		Nav:    h.Registry.Navigation(),
		Active: active,
		User:   session.Current(r.Context()).DisplayName(),
		CSRF:   csrfField(r),
	}
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Resources.Dashboard(r.Context(), h.backend(r))
	if isUnauthorized(err) {
		h.renderServiceError(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, overviewPage(h.frame(r, overviewKey), summary, err, h.Formatter))
}
