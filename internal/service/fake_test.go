package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sakif/secrets/internal/apperror"
	"github.com/sakif/secrets/internal/auth"
	"github.com/sakif/secrets/internal/model"
	"github.com/sakif/secrets/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository. A hand-written fake keeps
// the tests readable: you can see exactly what the "database" does.
type fakeUserRepo struct {
	users  map[string]*model.User
	order  []string // insertion order, for FindOne/FindMany
	nextID int
	// set to a non-nil error to simulate a database failure
	findErr   error
	createErr error
	getErr    error
	saveErr   error
	creates   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func matches(u *model.User, f repository.UserFilter) bool {
	if f.Username != "" && u.Username != f.Username {
		return false
	}
	if f.GoogleID != "" && u.GoogleID != f.GoogleID {
		return false
	}
	if f.HasSecret && u.Secret == "" {
		return false
	}
	return true
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	f.creates++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	f.order = append(f.order, user.ID)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) FindOne(_ context.Context, filter repository.UserFilter) (*model.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if !filter.Identifies() {
		return nil, apperror.ValidationFailed("filter", "username or Google id required")
	}
	for _, id := range f.order {
		if u := f.users[id]; matches(u, filter) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", "filter")
}

func (f *fakeUserRepo) FindMany(_ context.Context, filter repository.UserFilter) ([]model.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := []model.User{}
	for _, id := range f.order {
		if u := f.users[id]; matches(u, filter) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Save(_ context.Context, user *model.User) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestAuthService returns an AuthService wired with fakes and a fast bcrypt cost.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.MemorySessionStore) {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	sessions := auth.NewMemorySessionStore(time.Hour)
	svc := NewAuthService(repo, auth.NewPasswordServiceForTest(4), tokens, sessions, time.Hour, discardLogger())
	return svc, sessions
}
