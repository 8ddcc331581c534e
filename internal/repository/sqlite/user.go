package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/secrets/internal/apperror"
	"github.com/sakif/secrets/internal/model"
	"github.com/sakif/secrets/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, password_hash, google_id, secret, created_at, updated_at`

// Create inserts a new user. The ID and both timestamps are assigned here and
// written back into the caller's struct.
//
// A second row for the same google_id violates the partial unique index and is
// reported as apperror.ErrConflict.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.GoogleID,
		user.Secret,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.GoogleID)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return u, nil
}

// FindOne returns the oldest user matching filter.
func (db *DB) FindOne(ctx context.Context, filter repository.UserFilter) (*model.User, error) {
	if !filter.Identifies() {
		return nil, apperror.ValidationFailed("filter", "username or Google id required")
	}

	where, args := whereClause(filter)

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users`+where+` ORDER BY created_at, id LIMIT 1`,
		args...,
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", describe(filter))
		}
		return nil, fmt.Errorf("sqlite: finding user (%s): %w", describe(filter), err)
	}

	return u, nil
}

// FindMany returns every user matching filter, oldest first.
func (db *DB) FindMany(ctx context.Context, filter repository.UserFilter) ([]model.User, error) {
	where, args := whereClause(filter)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users`+where+` ORDER BY created_at, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users (%s): %w", describe(filter), err)
	}
	// ALWAYS close rows — otherwise the connection never returns to the pool.
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}

	return users, nil
}

// Save overwrites the mutable fields of an existing user. Last write wins;
// there is no version check.
func (db *DB) Save(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET username = ?, password_hash = ?, google_id = ?, secret = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.PasswordHash,
		user.GoogleID,
		user.Secret,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.GoogleID)
		}
		return fmt.Errorf("sqlite: saving user %s: %w", user.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected for user %s: %w", user.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	err := s.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.GoogleID,
		&u.Secret,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// whereClause turns a filter into " WHERE ..." plus its placeholder arguments.
// An empty filter yields an empty clause.
func whereClause(f repository.UserFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Username != "" {
		conds = append(conds, "username = ?")
		args = append(args, f.Username)
	}
	if f.GoogleID != "" {
		conds = append(conds, "google_id = ?")
		args = append(args, f.GoogleID)
	}
	if f.HasSecret {
		conds = append(conds, "secret <> ''")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// describe renders a filter for error messages and logs.
func describe(f repository.UserFilter) string {
	var parts []string
	if f.Username != "" {
		parts = append(parts, "username="+f.Username)
	}
	if f.GoogleID != "" {
		parts = append(parts, "googleId="+f.GoogleID)
	}
	if f.HasSecret {
		parts = append(parts, "hasSecret")
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, ",")
}
