package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new account. Email and username are globally unique;
// a duplicate of either is reported as a conflict, whether it is caught by a
// pre-check upstream or only here by the constraint (two concurrent signups).
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, username, first_name, last_name, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("a user with this email or username already exists")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
//
// viewerID drives the derived is_subscribed flag: when non-empty, a single
// EXISTS subquery checks whether the viewer follows this user. For anonymous
// viewers ("") no membership lookup happens and the flag stays false.
func (db *DB) GetUserByID(ctx context.Context, id, viewerID string) (*model.User, error) {
	var u model.User

	query := `SELECT id, email, username, first_name, last_name, password_hash, created_at, updated_at,
	          ` + subscribedExpr(viewerID) + `
	          FROM users WHERE id = ?`

	args := []any{}
	if viewerID != "" {
		args = append(args, viewerID)
	}
	args = append(args, id)

	err := db.conn.QueryRowContext(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.IsSubscribed,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// GetUserByEmail retrieves a user by email for login. The derived flag is
// irrelevant here, so it is left false.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, username, first_name, last_name, password_hash, created_at, updated_at
		 FROM users WHERE email = ?`,
		email,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}

	return &u, nil
}

// ListUsers returns accounts ordered by username with limit/offset paging,
// each carrying the viewer's is_subscribed flag.
func (db *DB) ListUsers(ctx context.Context, viewerID string, opts repository.ListOptions) ([]model.User, error) {
	limit, offset := clampListOptions(opts)

	query := `SELECT id, email, username, first_name, last_name, created_at, updated_at,
	          ` + subscribedExpr(viewerID) + `
	          FROM users ORDER BY username LIMIT ? OFFSET ?`

	args := []any{}
	if viewerID != "" {
		args = append(args, viewerID)
	}
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName,
			&u.CreatedAt, &u.UpdatedAt, &u.IsSubscribed,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// UpdatePassword replaces the stored bcrypt hash.
func (db *DB) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating password for user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

// subscribedExpr returns the SELECT expression for the is_subscribed flag.
// With an anonymous viewer it is the constant 0 — no subquery, per the
// derived-flag contract. The caller must prepend viewerID to the query args
// exactly when it is non-empty.
func subscribedExpr(viewerID string) string {
	if viewerID == "" {
		return `0`
	}
	return `EXISTS (SELECT 1 FROM subscriptions s WHERE s.subscriber_id = ? AND s.author_id = users.id)`
}

// clampListOptions applies the default and maximum page sizes.
func clampListOptions(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
