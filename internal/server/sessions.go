package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/diogo/finking/internal/widget"
)

type session struct {
	controller *widget.Controller
	lastSeen   time.Time
}

// Sessions keeps one widget controller per browser session
type Sessions struct {
	mu      sync.Mutex
	items   map[string]*session
	factory func() *widget.Controller
	idle    time.Duration
	now     func() time.Time
}

// NewSessions creates a store that builds controllers with factory and
// forgets sessions idle for longer than idle
func NewSessions(factory func() *widget.Controller, idle time.Duration) *Sessions {
	return &Sessions{
		items:   make(map[string]*session),
		factory: factory,
		idle:    idle,
		now:     time.Now,
	}
}

// Get returns the controller for id, creating a session when id is unknown
// or malformed. The returned id is the one to hand back to the browser.
func (s *Sessions) Get(id string) (string, *widget.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := uuid.Parse(id); err == nil {
		if sess, ok := s.items[id]; ok {
			sess.lastSeen = s.now()
			return id, sess.controller
		}
	}

	id = uuid.NewString()
	sess := &session{controller: s.factory(), lastSeen: s.now()}
	s.items[id] = sess
	return id, sess.controller
}

// Lookup returns the controller of a live session without creating one
func (s *Sessions) Lookup(id string) (*widget.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.controller, true
}

// Preview returns a controller that is not stored, for rendering the page
// of a browser that has not sent anything yet
func (s *Sessions) Preview() *widget.Controller {
	return s.factory()
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Prune drops idle sessions that are not delivering a message and returns
// how many were removed
func (s *Sessions) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idle)
	removed := 0
	for id, sess := range s.items {
		if sess.lastSeen.Before(cutoff) && !sess.controller.Working() {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// RunPruner calls Prune every interval until ctx is done
func (s *Sessions) RunPruner(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Prune(); n > 0 {
				log.Debug().Int("removed", n).Int("remaining", s.Len()).Msg("pruned idle sessions")
			}
		}
	}
}
