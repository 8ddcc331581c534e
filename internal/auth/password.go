// Package auth — password hashing.
//
// bcrypt embeds a random salt and its cost in the output, so the single string returned
// by Hash is everything that needs storing:
//
//	$2a$12$<22-char salt><31-char hash>
//
// No strength rules are applied here; any password bcrypt accepts is accepted.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/secrets/internal/apperror"
)

// defaultCost is the bcrypt work factor (~250ms per hash on a modern server).
const defaultCost = 12

// maxPasswordBytes is bcrypt's input limit. Longer inputs are rejected rather than
// silently truncated.
const maxPasswordBytes = 72

// PasswordService provides bcrypt hashing and verification.
// The cost is a field so tests can run at the bcrypt minimum.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom (low) cost.
// Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash derives the stored credential from a plaintext password.
// Passwords over 72 bytes fail with apperror.ErrValidation.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", maxPasswordBytes))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks plaintext against a stored hash in constant time.
//
// A mismatch, or an empty hash as Google-only accounts carry, is
// reported as apperror.ErrUnauthorized. Any other failure means the stored hash is
// corrupt and is returned as-is.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if hash == "" {
		return apperror.Unauthorized()
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return apperror.Unauthorized()
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
