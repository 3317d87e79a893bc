package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cebeepredict/admin/internal/config"
	"github.com/cebeepredict/admin/model"
)

type currentKey struct{}

// Current returns the session loaded for this request, or nil when signed
// out.
func Current(ctx context.Context) *model.Session {
	s, _ := ctx.Value(currentKey{}).(*model.Session)
	return s
}

// Cookies binds browser cookies to sessions in a Store. The cookie holds
// only a random key; the token stays server-side.
type Cookies struct {
	store  Store
	name   string
	secure bool
	ttl    time.Duration
	now    func() time.Time
}

// NewCookies creates a cookie binder from the session configuration.
func NewCookies(store Store, cfg config.SessionConfig) *Cookies {
	name := cfg.CookieName
	if name == "" {
		name = "cebee_sid"
	}
	return &Cookies{store: store, name: name, secure: cfg.Secure, ttl: cfg.TTL, now: time.Now}
}

// Middleware stores the request's Slot and its current session in the
// context. Requests without a usable cookie get an empty slot. Store errors
// are treated as signed out.
func (c *Cookies) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slot := NewSlot(c.store, c.key(r))
		ctx := WithSlot(r.Context(), slot)
		if sess, err := slot.Load(ctx); err == nil && sess.Valid(c.now()) {
			ctx = context.WithValue(ctx, currentKey{}, sess)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c *Cookies) key(r *http.Request) string {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}

// NewSlot returns a slot under a fresh key. Nothing is sent to the browser
// until Bind.
func (c *Cookies) NewSlot() *Slot {
	return NewSlot(c.store, NewKey())
}

// Bind sets the cookie naming slot on w.
func (c *Cookies) Bind(w http.ResponseWriter, slot *Slot) {
	cookie := &http.Cookie{
		Name:     c.name,
		Value:    slot.Key(),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if c.ttl > 0 {
		cookie.Expires = c.now().Add(c.ttl)
	}
	http.SetCookie(w, cookie)
}

// Expire removes the session cookie from the browser.
func (c *Cookies) Expire(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
