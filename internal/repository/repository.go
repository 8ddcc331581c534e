// Package repository declares the persistence boundary for users.
//
// Implementations live in sub-packages (sqlite, mongo). The service layer only ever
// sees the UserRepository interface, so the backend is chosen once in the server wiring.
package repository

import (
	"context"

	"github.com/sakif/secrets/internal/model"
)

// UserFilter selects users by field. Zero-valued fields do not constrain the query,
// so UserFilter{} matches every user.
type UserFilter struct {
	Username  string
	GoogleID  string
	HasSecret bool // only users with a non-empty secret
}

// Identifies reports whether f names a single account (by username or Google id).
// FindOne rejects filters that do not, so an empty username can never resolve to
// whichever user happens to sort first.
func (f UserFilter) Identifies() bool {
	return f.Username != "" || f.GoogleID != ""
}

// UserRepository is the user store.
//
// Lookups that match nothing return an error wrapping apperror.ErrNotFound.
// FindOne fails with apperror.ErrValidation unless the filter Identifies a user.
// FindMany returns an empty slice, never ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	FindOne(ctx context.Context, filter UserFilter) (*model.User, error)
	FindMany(ctx context.Context, filter UserFilter) ([]model.User, error)
	Save(ctx context.Context, user *model.User) error
}
