package auth

import (
	"context"
	"sync"
	"testing"
	"time"
)

// newTestSessionStore returns a store with a controllable clock.
func newTestSessionStore(ttl time.Duration) (*MemorySessionStore, *time.Time) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemorySessionStore(ttl)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestSessionStore_CreateGet(t *testing.T) {
	s, _ := newTestSessionStore(time.Hour)
	ctx := context.Background()

	created, err := s.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create() returned an empty session ID")
	}

	got, ok := s.Get(ctx, created.ID)
	if !ok {
		t.Fatal("Get() did not find a fresh session")
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", got.UserID, "user-1")
	}
}

func TestSessionStore_TTLMatchesExpiry(t *testing.T) {
	s, now := newTestSessionStore(90 * time.Minute)

	if s.TTL() != 90*time.Minute {
		t.Fatalf("TTL() = %s, want 1h30m", s.TTL())
	}
	created, _ := s.Create(context.Background(), "user-1")
	if want := now.Add(s.TTL()); !created.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %s, want %s", created.ExpiresAt, want)
	}
}

func TestSessionStore_IDsAreUnique(t *testing.T) {
	s, _ := newTestSessionStore(time.Hour)
	ctx := context.Background()

	a, _ := s.Create(ctx, "user-1")
	b, _ := s.Create(ctx, "user-1")
	if a.ID == b.ID {
		t.Error("two sessions for the same user share an ID")
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	s, now := newTestSessionStore(time.Hour)
	ctx := context.Background()

	created, _ := s.Create(ctx, "user-1")

	*now = now.Add(59 * time.Minute)
	if _, ok := s.Get(ctx, created.ID); !ok {
		t.Fatal("session expired too early")
	}

	*now = now.Add(time.Minute)
	if _, ok := s.Get(ctx, created.ID); ok {
		t.Fatal("Get() returned a session at its expiry time")
	}
}

func TestSessionStore_Delete(t *testing.T) {
	s, _ := newTestSessionStore(time.Hour)
	ctx := context.Background()

	created, _ := s.Create(ctx, "user-1")
	s.Delete(ctx, created.ID)

	if _, ok := s.Get(ctx, created.ID); ok {
		t.Error("Get() found a deleted session")
	}

	// Deleting twice is harmless.
	s.Delete(ctx, created.ID)
	s.Delete(ctx, "never-existed")
}

func TestSessionStore_Purge(t *testing.T) {
	s, now := newTestSessionStore(time.Hour)
	ctx := context.Background()

	s.Create(ctx, "old")
	*now = now.Add(30 * time.Minute)
	s.Create(ctx, "new")

	removed := s.Purge(now.Add(45 * time.Minute))
	if removed != 1 {
		t.Errorf("Purge() removed %d, want 1", removed)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSessionStore_ConcurrentAccess(t *testing.T) {
	s := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, _ := s.Create(ctx, "user")
			s.Get(ctx, created.ID)
			s.Delete(ctx, created.ID)
		}()
	}
	wg.Wait()

	if s.Len() != 0 {
		t.Errorf("Len() = %d after all sessions were deleted", s.Len())
	}
}
