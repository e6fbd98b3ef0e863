package session

import (
	"sync"
	"sync/atomic"
	"time"

	agentErrors "recruitagent/internal/errors"

	"github.com/google/uuid"
)

// entry pairs a stored session with the lock that serialises actions on it.
type entry struct {
	// op is held for the whole of an Update so two actions on one session
	// never overlap. It does not guard sess.
	op         sync.Mutex
	deleted    bool // guarded by op
	sess       *Session
	lastAccess atomic.Int64
}

func (e *entry) touch(now time.Time) {
	e.lastAccess.Store(now.UnixNano())
}

// Store is a concurrency-safe in-memory session store with idle expiry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	ttl    time.Duration
	now    func() time.Time
	logger *agentErrors.Logger

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewStore starts a janitor that evicts sessions idle longer than ttl.
// A ttl of zero disables expiry.
func NewStore(ttl time.Duration, logger *agentErrors.Logger) *Store {
	if logger == nil {
		logger = agentErrors.Nop()
	}
	s := &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if ttl > 0 {
		go s.janitor(min(ttl/2, time.Minute))
	} else {
		close(s.done)
	}
	return s
}

// Create registers an empty session and returns a copy of it.
func (s *Store) Create() *Session {
	now := s.now()
	sess := &Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	e := &entry{sess: sess}
	e.touch(now)

	s.mu.Lock()
	s.sessions[sess.ID] = e
	s.mu.Unlock()

	s.logger.Debug("Session created", "session_id", sess.ID)
	return sess.clone()
}

// Get returns a copy of the session; changes to it are not stored.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, notFound(id)
	}
	e.touch(s.now())
	return e.sess.clone(), nil
}

// Update runs fn on a copy of the session while holding the session's
// action lock. The copy replaces the stored session only if fn returns nil,
// so a failed action leaves every field unchanged.
func (s *Store) Update(id string, fn func(*Session) error) (*Session, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}

	e.op.Lock()
	defer e.op.Unlock()
	if e.deleted {
		return nil, notFound(id)
	}
	e.touch(s.now())

	s.mu.RLock()
	working := e.sess.clone()
	s.mu.RUnlock()

	if err := fn(working); err != nil {
		return nil, err
	}

	working.ID = id
	working.UpdatedAt = s.now()

	s.mu.Lock()
	e.sess = working
	s.mu.Unlock()
	e.touch(working.UpdatedAt)

	return working.clone(), nil
}

// Delete removes a session. It waits for a running action on the session
// to finish.
func (s *Store) Delete(id string) error {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return notFound(id)
	}

	e.op.Lock()
	defer e.op.Unlock()
	if e.deleted {
		return notFound(id)
	}
	e.deleted = true

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	s.logger.Debug("Session deleted", "session_id", id)
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the janitor. The store stays usable.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

func (s *Store) janitor(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.evictExpired(); n > 0 {
				s.logger.Info("Evicted idle sessions", "count", n, "remaining", s.Len())
			}
		case <-s.stop:
			return
		}
	}
}

// evictExpired removes sessions idle longer than the TTL. Sessions with an
// action in flight are skipped.
func (s *Store) evictExpired() int {
	cutoff := s.now().Add(-s.ttl).UnixNano()

	s.mu.RLock()
	var expired []string
	for id, e := range s.sessions {
		if e.lastAccess.Load() < cutoff {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	evicted := 0
	for _, id := range expired {
		s.mu.RLock()
		e, ok := s.sessions[id]
		s.mu.RUnlock()
		if !ok || !e.op.TryLock() {
			continue
		}
		if !e.deleted && e.lastAccess.Load() < cutoff {
			e.deleted = true
			s.mu.Lock()
			delete(s.sessions, id)
			s.mu.Unlock()
			evicted++
		}
		e.op.Unlock()
	}
	return evicted
}

func notFound(id string) error {
	return agentErrors.NewNotFoundError(agentErrors.ErrCodeSessionNotFound,
		"session not found", nil).WithContext("session_id", id)
}
