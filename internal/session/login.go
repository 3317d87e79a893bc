package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cebeepredict/admin/internal/observability"
	"github.com/cebeepredict/admin/internal/validation"
	"github.com/cebeepredict/admin/model"
)

// LoginEndpoint is the backend route that exchanges credentials for a token.
const LoginEndpoint = "/auth/login"

// Poster is the subset of the API client used to sign in.
type Poster interface {
	Post(ctx context.Context, endpoint string, body any) model.Envelope
}

// Authenticator signs admins in against the backend and keeps the resulting
// session in a Slot.
type Authenticator struct {
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuthenticator creates an Authenticator. Both arguments may be nil.
func NewAuthenticator(metrics *observability.Metrics, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{metrics: metrics, logger: logger, now: time.Now}
}

// Login validates the credentials, posts them to the backend and saves the
// returned token in slot.
func (a *Authenticator) Login(ctx context.Context, backend Poster, slot *Slot, in validation.LoginRequest) (*model.Session, error) {
	log := observability.RequestLogger(ctx, a.logger)
	in.Email = strings.TrimSpace(in.Email)

	// 1. Reject malformed credentials before calling the backend.
	if err := validation.Struct(in); err != nil {
		a.metrics.RecordLogin("invalid")
		return nil, err
	}

	// 2. Exchange credentials for a token.
	env := backend.Post(ctx, LoginEndpoint, map[string]any{
		"email":    in.Email,
		"password": in.Password,
	})
	if err := env.Err(); err != nil {
		outcome := "error"
		if env.Status == http.StatusBadRequest || env.Status == http.StatusUnauthorized || env.Status == http.StatusForbidden {
			outcome = "rejected"
		}
		a.metrics.RecordLogin(outcome)
		log.Warn("login failed", zap.String("outcome", outcome), zap.Int("status", env.Status))
		return nil, err
	}

	// 3. Read the token and user record.
	data := env.DataMap()
	token := firstString(data, "token", "accessToken", "access_token")
	if token == "" {
		a.metrics.RecordLogin("error")
		return nil, model.NewBackendError("login response carried no token")
	}
	user, _ := data["user"].(map[string]any)

	// 4. Persist the session.
	sess := FromToken(token, user, a.now())
	if err := slot.Save(ctx, sess); err != nil {
		a.metrics.RecordLogin("error")
		log.Error("saving session", zap.Error(err))
		return nil, model.NewInternalError()
	}

	a.metrics.RecordLogin("ok")
	log.Info("admin signed in", zap.String("user", sess.DisplayName()))
	return sess, nil
}

// Logout removes the session from slot. It never calls the backend.
func (a *Authenticator) Logout(ctx context.Context, slot *Slot) error {
	if err := slot.Clear(ctx); err != nil {
		return err
	}
	a.metrics.RecordSessionCleared("logout")
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
