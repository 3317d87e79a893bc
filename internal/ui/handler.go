// Package ui serves the server-rendered admin pages: sign-in, dashboard,
// resource listings and records, and the content editor.
package ui

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	gomponents "maragu.dev/gomponents"
	"go.uber.org/zap"

	"github.com/cebeepredict/admin/internal/apiclient"
	"github.com/cebeepredict/admin/internal/cms"
	"github.com/cebeepredict/admin/internal/definition"
	"github.com/cebeepredict/admin/internal/observability"
	"github.com/cebeepredict/admin/internal/resource"
	"github.com/cebeepredict/admin/internal/session"
	"github.com/cebeepredict/admin/internal/table"
	"github.com/cebeepredict/admin/model"
)

type Handler struct {
	Registry  *definition.Registry
	Resources *resource.Provider
	Content   *cms.Service
	Auth      *session.Authenticator
	Cookies   *session.Cookies
	Client    *apiclient.Client
	Formatter *table.Formatter
	Logger    *zap.Logger
	Secure    bool
}

func NewHandler(
	registry *definition.Registry,
	resources *resource.Provider,
	content *cms.Service,
	auth *session.Authenticator,
	cookies *session.Cookies,
	client *apiclient.Client,
	formatter *table.Formatter,
	logger *zap.Logger,
	secure bool,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Registry:  registry,
		Resources: resources,
		Content:   content,
		Auth:      auth,
		Cookies:   cookies,
		Client:    client,
		Formatter: formatter,
		Logger:    logger,
		Secure:    secure,
	}
}

// backend returns the API client bound to the request's session.
func (h *Handler) backend(r *http.Request) resource.Backend {
	if slot := session.SlotFrom(r.Context()); slot != nil {
		return h.Client.WithSession(slot)
	}
	return h.Client
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

// RequireSession sends signed-out browsers to the login page.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session.Current(r.Context()) == nil {
			RedirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectToLogin redirects to the login page, remembering the page the
// admin was on when it was a GET.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if r.Method == http.MethodGet && r.URL.Path != "/" {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// localPath returns p when it is a same-site absolute path, else fallback.
func localPath(p, fallback string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return fallback
	}
	return p
}

func (h *Handler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ee *model.ErrorEnvelope
	if !errors.As(err, &ee) {
		observability.RequestLogger(r.Context(), h.Logger).Error("page failed", zap.Error(err))
		ee = model.NewInternalError()
	}

	// The API client already cleared the stored session.
	if ee.Code == model.ErrUnauthorized {
		h.Cookies.Expire(w)
		RedirectToLogin(w, r)
		return
	}

	title := "Unexpected Error"
	switch ee.Code {
	case model.ErrNotFound:
		title = "Not Found"
	case model.ErrForbidden:
		title = "Access Denied"
	case model.ErrBadRequest, model.ErrValidationError:
		title = "Invalid Request"
	case model.ErrBackendUnavailable, model.ErrBackendTimeout, model.ErrBackendError, model.ErrRateLimited:
		title = "Backend Unavailable"
	}
	renderHTML(w, ee.HTTPStatus(), errorPage(title, ee.Message))
}

// errorMessage returns the message shown to the admin for err.
func errorMessage(err error) string {
	var ee *model.ErrorEnvelope
	if !errors.As(err, &ee) {
		return "An unexpected error occurred."
	}
	if ee.Code == model.ErrValidationError && len(ee.Details) > 0 {
		parts := make([]string, 0, len(ee.Details))
		for _, d := range ee.Details {
			parts = append(parts, d.Message)
		}
		return strings.Join(parts, " ")
	}
	return ee.Message
}

func isUnauthorized(err error) bool {
	var ee *model.ErrorEnvelope
	return errors.As(err, &ee) && ee.Code == model.ErrUnauthorized
}
