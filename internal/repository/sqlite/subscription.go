package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

var _ repository.SubscriptionRepository = (*DB)(nil)

// Subscribe creates the follow row. The UNIQUE (author, subscriber)
// constraint resolves racing subscribes to one row plus a conflict; the
// CHECK (author <> subscriber) constraint is the schema-level backstop for
// the self-subscription rule the service enforces first.
func (db *DB) Subscribe(ctx context.Context, subscriberID, authorID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO subscriptions (id, author_id, subscriber_id) VALUES (?, ?, ?)`,
		xid.New().String(), authorID, subscriberID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("already subscribed to this author")
		}
		if isCheckViolation(err) {
			return apperror.ValidationFailed("author", "cannot subscribe to yourself")
		}
		if isFKViolation(err) {
			return apperror.NotFound("user", authorID)
		}
		return fmt.Errorf("sqlite: inserting subscription: %w", err)
	}
	return nil
}

// Unsubscribe deletes the follow row; absence is a user-visible error.
func (db *DB) Unsubscribe(ctx context.Context, subscriberID, authorID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE author_id = ? AND subscriber_id = ?`,
		authorID, subscriberID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting subscription: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: "not subscribed to this author",
		}
	}

	return nil
}

// ListSubscriptions returns the authors the user follows, newest subscription
// first. Each entry carries the author's total recipe count and a preview of
// at most previewLimit recipes (newest first). The per-author preview query
// is an N+1, which is fine at the page sizes the API allows.
func (db *DB) ListSubscriptions(ctx context.Context, subscriberID string, opts repository.ListOptions, previewLimit int) ([]model.SubscribedAuthor, error) {
	limit, offset := clampListOptions(opts)
	if previewLimit < 0 {
		previewLimit = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.created_at, u.updated_at,
		        (SELECT COUNT(*) FROM recipes r WHERE r.author_id = u.id) AS recipes_count
		 FROM subscriptions s
		 JOIN users u ON u.id = s.author_id
		 WHERE s.subscriber_id = ?
		 ORDER BY s.created_at DESC, u.username
		 LIMIT ? OFFSET ?`,
		subscriberID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing subscriptions: %w", err)
	}
	defer rows.Close()

	authors := make([]model.SubscribedAuthor, 0, limit)
	for rows.Next() {
		var a model.SubscribedAuthor
		if err := rows.Scan(
			&a.ID, &a.Email, &a.Username, &a.FirstName, &a.LastName,
			&a.CreatedAt, &a.UpdatedAt, &a.RecipesCount,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning subscription row: %w", err)
		}
		// Listed authors are by definition subscribed-to by the caller.
		a.IsSubscribed = true
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating subscriptions: %w", err)
	}

	for i := range authors {
		preview, err := db.recipePreviews(ctx, authors[i].ID, previewLimit)
		if err != nil {
			return nil, err
		}
		authors[i].Recipes = preview
	}

	return authors, nil
}

// GetSubscribedAuthor loads one followed author in the subscription-listing
// shape. The JOIN against subscriptions makes "not subscribed" and "no such
// author" the same NotFound, which is what the subscribe response wants.
func (db *DB) GetSubscribedAuthor(ctx context.Context, subscriberID, authorID string, previewLimit int) (*model.SubscribedAuthor, error) {
	if previewLimit < 0 {
		previewLimit = 0
	}

	var a model.SubscribedAuthor
	err := db.conn.QueryRowContext(ctx,
		`SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.created_at, u.updated_at,
		        (SELECT COUNT(*) FROM recipes r WHERE r.author_id = u.id) AS recipes_count
		 FROM subscriptions s
		 JOIN users u ON u.id = s.author_id
		 WHERE s.subscriber_id = ? AND s.author_id = ?`,
		subscriberID, authorID,
	).Scan(
		&a.ID, &a.Email, &a.Username, &a.FirstName, &a.LastName,
		&a.CreatedAt, &a.UpdatedAt, &a.RecipesCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("subscription", authorID)
		}
		return nil, fmt.Errorf("sqlite: loading subscribed author %s: %w", authorID, err)
	}
	a.IsSubscribed = true

	preview, err := db.recipePreviews(ctx, a.ID, previewLimit)
	if err != nil {
		return nil, err
	}
	a.Recipes = preview

	return &a, nil
}

func (db *DB) recipePreviews(ctx context.Context, authorID string, limit int) ([]model.RecipePreview, error) {
	if limit == 0 {
		return []model.RecipePreview{}, nil
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, image, cooking_time FROM recipes
		 WHERE author_id = ?
		 ORDER BY created_at DESC, id
		 LIMIT ?`,
		authorID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading recipe previews for %s: %w", authorID, err)
	}
	defer rows.Close()

	previews := []model.RecipePreview{}
	for rows.Next() {
		var p model.RecipePreview
		if err := rows.Scan(&p.ID, &p.Name, &p.Image, &p.CookingTime); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe preview: %w", err)
		}
		previews = append(previews, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipe previews: %w", err)
	}

	return previews, nil
}
