// Package auth provides the building blocks of sign-in: password hashing, the Google
// OAuth provider, the server-side session store and the signed cookie that points at it.
//
// SESSION FLOW:
//  1. A user signs in (local form or Google callback)
//  2. The service creates a Session in the SessionStore → opaque session ID (xid)
//  3. TokenService signs that ID into a short JWT, stored in the "session" cookie
//  4. On each request the Sessions middleware verifies the JWT, looks the ID up in the
//     store and loads the user into the request context
//  5. Logout deletes the Session, so the cookie is dead even before it expires
//
// The JWT only proves the cookie was minted with SECRET; the store decides whether the
// session still exists.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "secrets"

// minSecretLength is the shortest SECRET accepted for HMAC signing.
const minSecretLength = 16

// TokenService signs and verifies session cookie values with HS256.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService keyed by secret.
// Example: SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("auth: SECRET must be at least %d characters", minSecretLength)
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Sign wraps a session ID in a JWT ("sub" = session ID) valid for ttl.
func (s *TokenService) Sign(sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    tokenIssuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry of a cookie value and returns the
// session ID it carries. Only HS256 is accepted, which rules out "alg: none".
func (s *TokenService) Verify(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}
	return c.Subject, nil
}
