package sqlite

import (
	"context"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

var _ repository.MembershipRepository = (*DB)(nil)

// Favorites and shopping-cart entries are pure existence markers: a row per
// (user, recipe) pair and nothing else. The UNIQUE constraint on the pair is
// the concurrency mechanism — two racing adds resolve to one row and one
// conflict error, with no application-level locking.

func (db *DB) AddFavorite(ctx context.Context, userID, recipeID string) error {
	return db.addMembership(ctx, "favorites", userID, recipeID,
		"recipe is already in favorites")
}

func (db *DB) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	return db.removeMembership(ctx, "favorites", userID, recipeID,
		"recipe is not in favorites")
}

func (db *DB) AddToCart(ctx context.Context, userID, recipeID string) error {
	return db.addMembership(ctx, "shopping_list", userID, recipeID,
		"recipe is already in the shopping cart")
}

func (db *DB) RemoveFromCart(ctx context.Context, userID, recipeID string) error {
	return db.removeMembership(ctx, "shopping_list", userID, recipeID,
		"recipe is not in the shopping cart")
}

// addMembership inserts the marker row. Duplicate pair → conflict; a
// dangling recipe id trips the FK and is reported as not-found.
//
// The table name comes from the two constants above, never from user input.
func (db *DB) addMembership(ctx context.Context, table, userID, recipeID, conflictMsg string) error {
	_, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, user_id, recipe_id) VALUES (?, ?, ?)`, table),
		xid.New().String(), userID, recipeID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(conflictMsg)
		}
		if isFKViolation(err) {
			return apperror.NotFound("recipe", recipeID)
		}
		return fmt.Errorf("sqlite: inserting into %s: %w", table, err)
	}
	return nil
}

// removeMembership deletes the marker row. Removing an absent row is a
// user-visible error, not a silent no-op: the contract is explicitly
// non-idempotent so double-remove surfaces in the UI.
func (db *DB) removeMembership(ctx context.Context, table, userID, recipeID, absentMsg string) error {
	result, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND recipe_id = ?`, table),
		userID, recipeID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting from %s: %w", table, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: absentMsg}
	}

	return nil
}

// CartTotals computes the aggregated shopping list: every ingredient row of
// every recipe in the user's cart, grouped by (name, measurement_unit) with
// summed amounts. Ordering by the grouping key keeps the output stable
// within one response. A pure read — an empty cart yields zero rows.
func (db *DB) CartTotals(ctx context.Context, userID string) ([]model.IngredientTotal, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT i.name, i.measurement_unit, SUM(ri.amount) AS total
		 FROM shopping_list sl
		 JOIN recipe_ingredients ri ON ri.recipe_id = sl.recipe_id
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE sl.user_id = ?
		 GROUP BY i.name, i.measurement_unit
		 ORDER BY i.name, i.measurement_unit`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: aggregating shopping list: %w", err)
	}
	defer rows.Close()

	totals := []model.IngredientTotal{}
	for rows.Next() {
		var t model.IngredientTotal
		if err := rows.Scan(&t.Name, &t.MeasurementUnit, &t.Total); err != nil {
			return nil, fmt.Errorf("sqlite: scanning shopping list row: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating shopping list: %w", err)
	}

	return totals, nil
}
