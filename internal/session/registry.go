// Package session keeps the in-flight download sessions of the bot. The
// registry is the only owner of session records: callers receive copies and
// change a session through Advance, which checks the expected stage and
// applies the mutation under one lock.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ytget/shizuku-bot/internal/model"
)

var (
	// ErrNotFound indicates that no session is registered under the id
	ErrNotFound = errors.New("session not found")

	// ErrDuplicate indicates that the id is already taken
	ErrDuplicate = errors.New("session already exists")

	// ErrStageMismatch indicates that the session is not in the expected stage
	ErrStageMismatch = errors.New("session stage mismatch")
)

// Registry is a thread-safe in-memory session store with idle eviction
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry creates an empty registry. Sessions waiting for a selection
// longer than ttl are removed by Sweep; a zero ttl disables eviction.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*model.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Insert registers a new session
func (r *Registry) Insert(s *model.Session) error {
	if s.ID == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, s.ID)
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

// Lookup returns a copy of the session registered under id
func (r *Registry) Lookup(id string) (model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *s, nil
}

// Advance applies mutate to the session if it is currently in stage from,
// then moves it to the next stage. The check and the write happen under one
// lock, so two callbacks racing for the same step cannot both succeed.
// Sessions reaching a terminal stage are evicted.
func (r *Registry) Advance(id string, from model.Stage, mutate func(*model.Session)) (model.Session, error) {
	return r.transition(id, from, from.Next(), mutate)
}

// Fail moves a live session to the failed stage and evicts it
func (r *Registry) Fail(id string) (model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.Advance(model.StageFailed); err != nil {
		return *s, fmt.Errorf("%w: %v", ErrStageMismatch, err)
	}
	delete(r.sessions, id)
	return *s, nil
}

func (r *Registry) transition(id string, from, to model.Stage, mutate func(*model.Session)) (model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.Stage != from {
		return *s, fmt.Errorf("%w: session %s is %s, expected %s", ErrStageMismatch, id, s.Stage, from)
	}

	next := *s
	if mutate != nil {
		mutate(&next)
	}
	// identity and stage are owned by the registry
	next.ID = s.ID
	next.SourceURL = s.SourceURL
	next.Stage = s.Stage
	if err := next.Advance(to); err != nil {
		return *s, fmt.Errorf("%w: %v", ErrStageMismatch, err)
	}

	if next.Stage.IsTerminal() {
		delete(r.sessions, id)
	} else {
		r.sessions[id] = &next
	}
	return next, nil
}

// Evict removes the session; removing an unknown id is a no-op
func (r *Registry) Evict(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Sweep removes sessions that have waited for a selection longer than the
// ttl and returns how many were removed. Downloading sessions are kept.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}

	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.Stage.IsAwaiting() && s.IdleFor(now) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps the registry every interval until ctx is done. onSweep, if set,
// receives the number of sessions removed by each non-empty sweep.
func (r *Registry) Run(ctx context.Context, interval time.Duration, onSweep func(int)) {
	if interval <= 0 || r.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}

// Contains reports whether id is registered
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[id]
	return ok
}

// Len returns the number of registered sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
