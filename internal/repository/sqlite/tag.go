package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

var _ repository.TagRepository = (*DB)(nil)

// CreateTag inserts a tag. Name, color and slug are each globally unique;
// the constraint catches duplicates regardless of which field collides.
func (db *DB) CreateTag(ctx context.Context, tag *model.Tag) error {
	tag.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tags (id, name, color, slug) VALUES (?, ?, ?, ?)`,
		tag.ID, tag.Name, tag.Color, tag.Slug,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("a tag with the same name, color or slug as %q already exists", tag.Name))
		}
		return fmt.Errorf("sqlite: inserting tag %s: %w", tag.Name, err)
	}

	return nil
}

func (db *DB) GetTagByID(ctx context.Context, id string) (*model.Tag, error) {
	var t model.Tag

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, color, slug FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Color, &t.Slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("tag", id)
		}
		return nil, fmt.Errorf("sqlite: getting tag %s: %w", id, err)
	}

	return &t, nil
}

// ListTags returns every tag. The tag set is small and curated (seeded at
// startup), so no pagination.
func (db *DB) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, color, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}

	return tags, nil
}
