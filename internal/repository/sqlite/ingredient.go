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

var _ repository.IngredientRepository = (*DB)(nil)

// CreateIngredient inserts a catalog ingredient. Uniqueness is on the
// (name, measurement_unit) pair — "milk"/"ml" and "milk"/"g" coexist.
func (db *DB) CreateIngredient(ctx context.Context, ingredient *model.Ingredient) error {
	ingredient.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO ingredients (id, name, measurement_unit) VALUES (?, ?, ?)`,
		ingredient.ID, ingredient.Name, ingredient.MeasurementUnit,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("ingredient %q (%s) already exists",
				ingredient.Name, ingredient.MeasurementUnit))
		}
		return fmt.Errorf("sqlite: inserting ingredient %s: %w", ingredient.Name, err)
	}

	return nil
}

func (db *DB) GetIngredientByID(ctx context.Context, id string) (*model.Ingredient, error) {
	var ing model.Ingredient

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = ?`, id,
	).Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("ingredient", id)
		}
		return nil, fmt.Errorf("sqlite: getting ingredient %s: %w", id, err)
	}

	return &ing, nil
}

// SearchIngredients matches on a case-insensitive name prefix, the catalog
// autocompletion the recipe form uses. An empty prefix lists everything.
//
// LIKE is case-insensitive for ASCII in SQLite by default; the prefix is
// escaped so user input containing % or _ matches literally.
func (db *DB) SearchIngredients(ctx context.Context, namePrefix string, opts repository.ListOptions) ([]model.Ingredient, error) {
	limit, offset := clampListOptions(opts)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients
		 WHERE name LIKE ? ESCAPE '\'
		 ORDER BY name, measurement_unit
		 LIMIT ? OFFSET ?`,
		escapeLike(namePrefix)+"%", limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := make([]model.Ingredient, 0, limit)
	for rows.Next() {
		var ing model.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ingredient row: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ingredients: %w", err)
	}

	return ingredients, nil
}

// escapeLike escapes LIKE metacharacters in user input.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
