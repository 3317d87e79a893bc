package ui

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/cebeepredict/admin/internal/observability"
	"github.com/cebeepredict/admin/internal/session"
	"github.com/cebeepredict/admin/internal/validation"
	"github.com/cebeepredict/admin/model"
)

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := localPath(r.URL.Query().Get("next"), "")
	if session.Current(r.Context()) != nil {
		http.Redirect(w, r, localPath(next, "/"), http.StatusSeeOther)
		return
	}
	renderHTML(w, http.StatusOK, loginPage(r.URL.Query().Get("error"), "", next, csrfField(r)))
}

func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error=invalid+form", http.StatusSeeOther)
		return
	}
	in := validation.LoginRequest{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}
	next := localPath(r.PostForm.Get("next"), "")

	// A fresh key on every sign-in; the previous session is dropped.
	previous := session.SlotFrom(r.Context())
	slot := h.Cookies.NewSlot()
	if _, err := h.Auth.Login(r.Context(), h.Client, slot, in); err != nil {
		status := http.StatusBadGateway
		var ee *model.ErrorEnvelope
		if errors.As(err, &ee) {
			switch ee.Code {
			case model.ErrValidationError, model.ErrBadRequest:
				status = http.StatusUnprocessableEntity
			case model.ErrUnauthorized, model.ErrForbidden:
				status = http.StatusUnauthorized
			}
		}
		renderHTML(w, status, loginPage(loginMessage(err), in.Email, next, csrfField(r)))
		return
	}
	if previous != nil {
		if err := previous.Clear(r.Context()); err != nil {
			observability.RequestLogger(r.Context(), h.Logger).Warn("dropping previous session", zap.Error(err))
		}
	}
	h.Cookies.Bind(w, slot)
	http.Redirect(w, r, localPath(next, "/"), http.StatusSeeOther)
}

func loginMessage(err error) string {
	var ee *model.ErrorEnvelope
	if errors.As(err, &ee) {
		switch ee.Code {
		case model.ErrValidationError:
			return "Enter a valid email address and a password of at least 6 characters."
		case model.ErrUnauthorized, model.ErrForbidden:
			return "Invalid email or password."
		}
	}
	return errorMessage(err)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if slot := session.SlotFrom(r.Context()); slot != nil {
		if err := h.Auth.Logout(r.Context(), slot); err != nil {
			observability.RequestLogger(r.Context(), h.Logger).Error("logout", zap.Error(err))
		}
	}
	h.Cookies.Expire(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
