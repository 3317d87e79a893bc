package model

import "time"

// Session is the signed-in admin's state: the backend bearer token, the
// user record returned at login, and when the session was created. It lives
// from login until logout or the first 401 from the backend.
type Session struct {
	Token     string         `json:"token"`
	User      map[string]any `json:"user,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	ExpiresAt time.Time      `json:"expires_at,omitempty"`
}

// Valid reports whether the session carries a token that has not expired.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// DisplayName returns a human label for the signed-in user.
func (s *Session) DisplayName() string {
	if s == nil || s.User == nil {
		return ""
	}
	for _, key := range []string{"name", "username", "email", "id"} {
		if v, ok := s.User[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
