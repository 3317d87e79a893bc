package transport

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/cebeepredict/admin/internal/apiclient"
	"github.com/cebeepredict/admin/internal/observability"
	"github.com/cebeepredict/admin/internal/session"
	"github.com/cebeepredict/admin/internal/validation"
	"github.com/cebeepredict/admin/model"
)

type meResponse struct {
	DisplayName string         `json:"display_name"`
	User        map[string]any `json:"user,omitempty"`
}

func meFrom(sess *model.Session) meResponse {
	return meResponse{DisplayName: sess.DisplayName(), User: sess.User}
}

// handleLogin signs in against the backend under a fresh session key and
// drops the session the browser arrived with.
func handleLogin(auth *session.Authenticator, cookies *session.Cookies, client *apiclient.Client, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in validation.LoginRequest
		if err := decodeJSON(r, &in); err != nil {
			WriteError(w, r, err)
			return
		}

		slot := cookies.NewSlot()
		sess, err := auth.Login(r.Context(), client, slot, in)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		if prev := session.SlotFrom(r.Context()); prev != nil && prev.Key() != "" {
			if err := prev.Clear(r.Context()); err != nil {
				observability.RequestLogger(r.Context(), logger).Warn("clearing previous session failed", zap.Error(err))
			}
		}
		cookies.Bind(w, slot)
		WriteJSON(w, http.StatusOK, meFrom(sess))
	}
}

func handleLogout(auth *session.Authenticator, cookies *session.Cookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if slot := session.SlotFrom(r.Context()); slot != nil {
			if err := auth.Logout(r.Context(), slot); err != nil {
				WriteError(w, r, err)
				return
			}
		}
		cookies.Expire(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleMe(w http.ResponseWriter, r *http.Request) {
	sess := session.Current(r.Context())
	if sess == nil {
		WriteError(w, r, model.NewUnauthorizedError("sign in required"))
		return
	}
	WriteJSON(w, http.StatusOK, meFrom(sess))
}
