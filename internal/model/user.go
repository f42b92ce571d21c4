// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Identity is email + password. We generate our own string ID (xid) rather
// than exposing an autoincrement rowid, so primary keys stay stable if the
// storage backend ever changes.
//
// PasswordHash carries the bcrypt hash and is tagged `json:"-"` so it can
// never appear in a response body, no matter which handler serialises a User.
//
// IsSubscribed is a derived flag, computed per viewer at read time and never
// stored: true when the requesting user follows this user. Always false for
// anonymous viewers.
type User struct {
	ID           string    `json:"id"            db:"id"`
	Email        string    `json:"email"         db:"email"`
	Username     string    `json:"username"      db:"username"`
	FirstName    string    `json:"first_name"    db:"first_name"`
	LastName     string    `json:"last_name"     db:"last_name"`
	PasswordHash string    `json:"-"             db:"password_hash"`
	IsSubscribed bool      `json:"is_subscribed" db:"-"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"    db:"updated_at"`
}

// SubscribedAuthor is one entry in the subscriptions listing: a followed
// author plus their recipe count and a bounded preview of their recipes.
// The preview size is a response-shaping concern (recipes_limit query param),
// not a domain invariant.
type SubscribedAuthor struct {
	User
	RecipesCount int             `json:"recipes_count"`
	Recipes      []RecipePreview `json:"recipes"`
}
