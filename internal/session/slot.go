package session

import (
	"context"
	"time"

	"github.com/cebeepredict/admin/model"
)

// Slot binds a Store to one session key. The HTTP server creates one per
// request from the session cookie; the CLI uses a single fixed key. A Slot
// satisfies the API client's session source.
type Slot struct {
	store Store
	key   string
	now   func() time.Time
}

// NewSlot returns a slot over store for key.
func NewSlot(store Store, key string) *Slot {
	return &Slot{store: store, key: key, now: time.Now}
}

// Key returns the session key this slot is bound to.
func (s *Slot) Key() string { return s.key }

// Load returns the current session, or nil if signed out.
func (s *Slot) Load(ctx context.Context) (*model.Session, error) {
	if s == nil || s.key == "" {
		return nil, nil
	}
	return s.store.Load(ctx, s.key)
}

// Save stores sess in the slot.
func (s *Slot) Save(ctx context.Context, sess *model.Session) error {
	return s.store.Save(ctx, s.key, sess)
}

// Token returns the bearer token of the current session, or "" when there
// is none or it cannot be read.
func (s *Slot) Token(ctx context.Context) string {
	sess, err := s.Load(ctx)
	if err != nil || !sess.Valid(s.now()) {
		return ""
	}
	return sess.Token
}

// Clear removes the session from the slot.
func (s *Slot) Clear(ctx context.Context) error {
	if s == nil || s.key == "" {
		return nil
	}
	return s.store.Delete(ctx, s.key)
}
