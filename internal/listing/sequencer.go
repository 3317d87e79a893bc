package listing

import (
	"context"
	"sync"
)

// Ticket identifies one issued list request.
type Ticket uint64

// Sequencer orders overlapping list requests. Each Begin issues a new ticket
// and cancels the context of the request before it; a completion may be
// applied only if its ticket is still the latest issued.
type Sequencer struct {
	mu     sync.Mutex
	latest Ticket
	cancel context.CancelFunc
}

// Begin issues a ticket and returns a context derived from parent that is
// cancelled when the next request begins or Cancel is called.
func (s *Sequencer) Begin(parent context.Context) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.latest++
	s.cancel = cancel
	return ctx, s.latest
}

// IsLatest reports whether t is the most recently issued ticket.
func (s *Sequencer) IsLatest(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t == s.latest
}

// Done releases the context of t. It reports whether t was the latest, in
// which case its result should be applied.
func (s *Sequencer) Done(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.latest {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return true
}

// Cancel aborts the in-flight request, if any, and retires its ticket so
// that its completion is discarded. Callers use it whenever the state a
// request was built from changes.
func (s *Sequencer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.latest++
}
