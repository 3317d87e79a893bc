package model

import (
	"context"
	"errors"
)

// RequestContext carries identity and tracing information for the lifetime
// of an admin request. It is immutable after construction and safe for
// concurrent reads.
type RequestContext struct {
	SubjectID     string
	Email         string
	DisplayName   string
	Roles         []string
	SessionID     string
	CorrelationID string
	TraceID       string
	Locale        string
}

// Validate checks that all mandatory fields are present.
func (rc *RequestContext) Validate() error {
	if rc.SessionID == "" {
		return errors.New("SessionID is required")
	}
	return nil
}

// HasRole returns true if the RequestContext contains the given role.
func (rc *RequestContext) HasRole(role string) bool {
	for _, r := range rc.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type contextKey struct{}

// WithRequestContext attaches a RequestContext to the given context.
func WithRequestContext(ctx context.Context, rctx *RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rctx)
}

// RequestContextFrom extracts the RequestContext from the context. The
// boolean is false when the request did not pass through the session
// middleware; callers decide how to degrade.
func RequestContextFrom(ctx context.Context) (*RequestContext, bool) {
	rctx, ok := ctx.Value(contextKey{}).(*RequestContext)
	return rctx, ok && rctx != nil
}
