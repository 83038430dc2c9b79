package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-manager/bookui/internal/state"
)

const CookieName = "bookui_session"

type entry struct {
	sess     *state.Session
	lastSeen time.Time
}

// Store keeps one UI state per browser, keyed by the session cookie.
type Store struct {
	mgr *state.Manager
	ttl time.Duration
	log *zap.Logger
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewStore(mgr *state.Manager, ttl time.Duration, log *zap.Logger) *Store {
	return &Store{
		mgr:      mgr,
		ttl:      ttl,
		log:      log.Named("sessions"),
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Get returns the session for id, creating a fresh one when id is unknown or expired.
// created reports whether a new id was issued.
func (s *Store) Get(id string) (sess *state.Session, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.sessions[id]; ok && !s.expired(e, now) {
		e.lastSeen = now
		return e.sess, false
	}
	delete(s.sessions, id)

	newID := uuid.NewString()
	e := &entry{sess: s.mgr.NewSession(newID), lastSeen: now}
	s.sessions[newID] = e
	s.log.Debug("session created", zap.String("session", newID))
	return e.sess, true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts idle sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Store) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) > s.ttl
}

// Janitor sweeps every interval until ctx is done.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				s.log.Debug("sessions evicted", zap.Int("count", n), zap.Int("left", s.Len()))
			}
		}
	}
}
