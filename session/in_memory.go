// Package session provides core.SessionStore implementations: a volatile
// in-process store matching the reference behavior, and a Redis-backed
// store for multi-instance deployments.
package session

import (
	"sync"

	"github.com/ublc/libchat/core"
)

// InMemoryStore keeps sessions in a process-local map. The map itself is
// guarded by a RWMutex held only for lookups and inserts; each session
// carries its own mutex, so a slow turn on one session never blocks turns
// on other sessions.
//
// There is no eviction policy: sessions live until a terminal reservation
// outcome or an explicit clear deletes them. Deployments needing bounded
// memory should use RedisStore, which expires sessions by TTL.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	sess *core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]*entry)}
}

// GetOrCreate returns a snapshot of the session, creating an idle one if
// the id is unknown.
func (s *InMemoryStore) GetOrCreate(id string) (*core.Session, error) {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Clone(), nil
}

// Peek returns a snapshot without creating the session.
func (s *InMemoryStore) Peek(id string) (*core.Session, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Clone(), true
}

// Update runs fn against the live session under that session's lock,
// creating the session if absent. Updates for the same id are serialized;
// different ids proceed concurrently.
func (s *InMemoryStore) Update(id string, fn func(*core.Session) error) error {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.sess)
}

// Delete removes the session. Unknown ids are a no-op.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Len returns the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *InMemoryStore) entry(id string) *entry {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[id]; ok {
		return e
	}
	e = &entry{sess: core.NewSession(id)}
	s.entries[id] = e
	return e
}
