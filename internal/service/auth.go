// Package service holds the business rules, between the HTTP handlers and the stores:
//
//	handler (HTTP) → service (rules) → repository.UserRepository (DB)
//	                              ↘ auth (bcrypt, session store, cookie tokens)
//
// Services take and return plain Go values and domain errors (internal/apperror);
// they never see an *http.Request.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/secrets/internal/apperror"
	"github.com/sakif/secrets/internal/auth"
	"github.com/sakif/secrets/internal/model"
	"github.com/sakif/secrets/internal/repository"
)

// AuthService registers users, checks credentials and manages their sessions.
type AuthService struct {
	users      repository.UserRepository
	passwords  *auth.PasswordService
	tokens     *auth.TokenService
	sessions   auth.SessionStore
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewAuthService wires an AuthService. sessionTTL must match the store's TTL so the
// cookie and the server-side session expire together.
func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	sessions auth.SessionStore,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		passwords:  passwords,
		tokens:     tokens,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

var _ auth.UserResolver = (*AuthService)(nil)

// Register creates a local account.
//
// Errors:
//   - apperror.ErrValidation → password and confirmation differ, username empty,
//     or password too long for bcrypt. Nothing is written.
//   - apperror.ErrConflict   → the username is already registered.
//   - anything else          → store failure.
func (s *AuthService) Register(ctx context.Context, username, password, confirmPassword string) (*model.User, error) {
	if password != confirmPassword {
		return nil, apperror.ValidationFailed("confirmPassword", "passwords must match")
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	_, err := s.users.FindOne(ctx, repository.UserFilter{Username: username})
	switch {
	case err == nil:
		return nil, apperror.Conflict("user", username)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking username %q: %w", username, err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login checks local credentials.
//
// An unknown username, a Google-only account and a wrong password all come back as
// the same apperror.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		// no account has an empty username; Google-only accounts must not match
		return nil, apperror.Unauthorized()
	}

	user, err := s.users.FindOne(ctx, repository.UserFilter{Username: username})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized()
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, err
	}

	return user, nil
}

// LoginGoogle finds the account linked to a Google profile, creating it on first
// sign-in. Google has already vouched for the identity, so the only possible failure
// is the store.
//
// If two first sign-ins race, the store's unique index rejects the loser with
// ErrConflict and the winner's record is read back instead.
func (s *AuthService) LoginGoogle(ctx context.Context, profile *auth.GoogleProfile) (*model.User, error) {
	if profile == nil || profile.ID == "" {
		return nil, fmt.Errorf("service/auth: Google profile must have an id")
	}

	filter := repository.UserFilter{GoogleID: profile.ID}

	user, err := s.users.FindOne(ctx, filter)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up Google account %s: %w", profile.ID, err)
	}

	user = &model.User{GoogleID: profile.ID}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return s.users.FindOne(ctx, filter)
		}
		return nil, fmt.Errorf("service/auth: creating Google account %s: %w", profile.ID, err)
	}

	s.logger.Info("user registered via Google",
		slog.String("userID", user.ID),
		slog.String("googleID", user.GoogleID),
	)

	return user, nil
}

// StartSession signs user in and returns the cookie value.
func (s *AuthService) StartSession(ctx context.Context, user *model.User) (string, error) {
	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("service/auth: creating session for %s: %w", user.ID, err)
	}

	token, err := s.tokens.Sign(session.ID, s.sessionTTL)
	if err != nil {
		s.sessions.Delete(ctx, session.ID)
		return "", fmt.Errorf("service/auth: signing session for %s: %w", user.ID, err)
	}

	return token, nil
}

// SessionTTL is how long a new session (and its cookie) stays valid.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// CurrentUser resolves a cookie value to its user.
//
// Any failure (bad signature, ended or expired session, user gone, store error)
// just means "not signed in". Store errors are logged so they are not lost.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*model.User, bool) {
	sessionID, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Debug("ignoring session cookie", slog.String("error", err.Error()))
		return nil, false
	}

	session, ok := s.sessions.Get(ctx, sessionID)
	if !ok {
		return nil, false
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("loading session user",
				slog.String("userID", session.UserID),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	return user, true
}

// EndSession signs out whoever token belongs to. Invalid tokens are ignored.
func (s *AuthService) EndSession(ctx context.Context, token string) {
	sessionID, err := s.tokens.Verify(token)
	if err != nil {
		return
	}
	s.sessions.Delete(ctx, sessionID)
}
