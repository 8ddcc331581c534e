package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/secrets/internal/model"
	"github.com/sakif/secrets/internal/repository"
)

// SecretService posts and lists secrets.
//
// A user holds at most one secret; submitting again overwrites it. There is no
// history, no size limit and no concurrency control; concurrent submits for the
// same user end with whichever write lands last.
type SecretService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewSecretService creates a SecretService.
func NewSecretService(users repository.UserRepository, logger *slog.Logger) *SecretService {
	return &SecretService{
		users:  users,
		logger: logger,
	}
}

// Submit sets userID's secret to secret.
// An empty secret clears it, which also removes the user from the shared list.
func (s *SecretService) Submit(ctx context.Context, userID, secret string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/secret: loading user %s: %w", userID, err)
	}

	user.Secret = secret
	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("service/secret: saving secret for %s: %w", userID, err)
	}

	s.logger.Info("secret submitted",
		slog.String("userID", user.ID),
		slog.Int("length", len(secret)),
	)

	return user, nil
}

// ListShared returns every user with a non-empty secret, oldest account first.
// The list is public; callers do not need to be signed in.
func (s *SecretService) ListShared(ctx context.Context) ([]model.User, error) {
	users, err := s.users.FindMany(ctx, repository.UserFilter{HasSecret: true})
	if err != nil {
		return nil, fmt.Errorf("service/secret: listing secrets: %w", err)
	}
	return users, nil
}
