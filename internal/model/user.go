// Package model defines the data structures used throughout the application.
package model

import "time"

// User is the only persisted entity: an account plus the one secret it may carry.
//
// Accounts come from two places:
//   - local registration → Username and PasswordHash are set, GoogleID is empty
//   - Google sign-in     → GoogleID is set, Username and PasswordHash may be empty
//
// Optional fields use the empty string as "unset" rather than nullable pointers;
// the stores translate that to whatever their backend needs.
type User struct {
	ID           string    `json:"id"           db:"id"`
	Username     string    `json:"username"     db:"username"`
	PasswordHash string    `json:"-"            db:"password_hash"` // bcrypt, salt embedded
	GoogleID     string    `json:"googleId"     db:"google_id"`     // Google account "sub"
	Secret       string    `json:"secret"       db:"secret"`        // last submitted secret
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}

// HasPassword reports whether the account can sign in with local credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// HasSecret reports whether the user has submitted a secret.
func (u *User) HasSecret() bool {
	return u.Secret != ""
}
