package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rs/xid"
)

// Session maps an opaque session ID to the signed-in user.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionStore is the server-side session table.
//
// Get reports false for unknown and expired sessions alike; callers treat both as
// "not signed in". Delete of an unknown ID is a no-op.
type SessionStore interface {
	Create(ctx context.Context, userID string) (Session, error)
	Get(ctx context.Context, id string) (Session, bool)
	Delete(ctx context.Context, id string)
	Purge(now time.Time) int
}

// MemorySessionStore keeps sessions in a map for the lifetime of the process.
// Restarting the server signs everybody out.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]Session
	now      func() time.Time
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an empty store whose sessions live for ttl.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// TTL returns the lifetime given to new sessions.
func (m *MemorySessionStore) TTL() time.Duration {
	return m.ttl
}

// Create starts a session for userID.
func (m *MemorySessionStore) Create(_ context.Context, userID string) (Session, error) {
	s := Session{
		ID:        xid.New().String(),
		UserID:    userID,
		ExpiresAt: m.now().Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s, nil
}

// Get returns a live session.
func (m *MemorySessionStore) Get(_ context.Context, id string) (Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok || s.Expired(m.now()) {
		return Session{}, false
	}
	return s, true
}

// Delete ends a session.
func (m *MemorySessionStore) Delete(_ context.Context, id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Purge drops every session expired at now and returns how many were removed.
func (m *MemorySessionStore) Purge(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
