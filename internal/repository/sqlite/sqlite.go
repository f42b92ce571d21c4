// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere
// Go works.
//
// The schema leans on SQLite itself for the invariants that matter under
// concurrency: UNIQUE constraints on the membership pairs (favorite, cart,
// subscription, recipe-ingredient), CHECK constraints on the numeric lower
// bounds, and foreign keys with ON DELETE CASCADE. A race to insert the same
// pair is resolved by the database rejecting the second insert; this package
// translates that rejection into the documented apperror kind instead of
// leaking the raw driver error.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sakif/recipe-box/internal/apperror"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/recipebox.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping verifies the connection actually works — without it, a bad path
	// or permissions issue would only surface on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is happening.
	// Default SQLite locks the entire database during writes, which is a
	// problem for a web server where multiple requests hit the DB.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (backwards compatibility).
	// The cascade rules below depend on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer it next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS is safe to run on
// every start; for real schema evolution you'd reach for golang-migrate, but
// this schema is small enough to carry inline.
func (db *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL UNIQUE,
			first_name    TEXT NOT NULL DEFAULT '',
			last_name     TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// author <> subscriber is enforced here as the last line of defense;
		// the service rejects self-subscription before it ever reaches SQL.
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id            TEXT PRIMARY KEY,
			author_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			subscriber_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (author_id, subscriber_id),
			CHECK (author_id <> subscriber_id)
		)`,

		`CREATE TABLE IF NOT EXISTS tags (
			id    TEXT PRIMARY KEY,
			name  TEXT NOT NULL UNIQUE,
			color TEXT NOT NULL UNIQUE,
			slug  TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS ingredients (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			measurement_unit TEXT NOT NULL,
			UNIQUE (name, measurement_unit)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ingredients_name ON ingredients(name)`,

		`CREATE TABLE IF NOT EXISTS recipes (
			id           TEXT PRIMARY KEY,
			author_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name         TEXT NOT NULL,
			image        TEXT NOT NULL DEFAULT '',
			text         TEXT NOT NULL,
			cooking_time INTEGER NOT NULL CHECK (cooking_time >= 1),
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (name, author_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recipes_author ON recipes(author_id)`,
		`CREATE INDEX IF NOT EXISTS idx_recipes_created_at ON recipes(created_at)`,

		`CREATE TABLE IF NOT EXISTS recipe_ingredients (
			id            TEXT PRIMARY KEY,
			recipe_id     TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
			ingredient_id TEXT NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
			amount        INTEGER NOT NULL CHECK (amount >= 1),
			UNIQUE (recipe_id, ingredient_id)
		)`,

		`CREATE TABLE IF NOT EXISTS recipe_tags (
			recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
			tag_id    TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			UNIQUE (recipe_id, tag_id)
		)`,

		`CREATE TABLE IF NOT EXISTS favorites (
			id        TEXT PRIMARY KEY,
			user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
			UNIQUE (user_id, recipe_id)
		)`,

		`CREATE TABLE IF NOT EXISTS shopping_list (
			id        TEXT PRIMARY KEY,
			user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
			UNIQUE (user_id, recipe_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}

	return nil
}

// CONSTRAINT TRANSLATION:
// The driver surfaces constraint failures as plain errors with a well-known
// message prefix ("UNIQUE constraint failed: table.column"). Call sites use
// the helpers below to re-signal races as the documented apperror kind
// instead of a generic 500.

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isCheckViolation matches CHECK failures: the cooking_time/amount lower
// bounds and the self-subscription prohibition.
func isCheckViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CHECK constraint failed")
}

// isFKViolation matches inserts referencing a row that does not exist.
func isFKViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// translateConstraint maps a storage constraint failure to the documented
// apperror kind. conflictMsg/checkField/checkMsg describe the operation at
// the call site so the caller sees a useful message, not SQL.
func translateConstraint(err error, conflictMsg, checkField, checkMsg string) error {
	switch {
	case isUniqueViolation(err):
		return apperror.Conflict(conflictMsg)
	case isCheckViolation(err):
		return apperror.ValidationFailed(checkField, checkMsg)
	default:
		return err
	}
}
