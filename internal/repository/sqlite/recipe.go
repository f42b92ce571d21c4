package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

var _ repository.RecipeRepository = (*DB)(nil)

// CreateRecipe inserts a recipe together with its tag links and ingredient
// rows in a single transaction. All-or-nothing: an invalid tag or ingredient
// reference, a duplicate (recipe, ingredient) pair or a constraint failure
// rolls back every row written so far.
func (db *DB) CreateRecipe(ctx context.Context, recipe *model.Recipe, tagIDs []string, ingredients []model.IngredientAmount) error {
	recipe.ID = xid.New().String()
	now := time.Now()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	// Rollback after Commit is a no-op, so the defer is safe on both paths.
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recipes (id, author_id, name, image, text, cooking_time, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.ID,
		recipe.Author.ID,
		recipe.Name,
		recipe.Image,
		recipe.Text,
		recipe.CookingTime,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	)
	if err != nil {
		if tErr := translateConstraint(err,
			fmt.Sprintf("you already have a recipe named %q", recipe.Name),
			"cooking_time", "cooking time must be at least 1",
		); tErr != err {
			return tErr
		}
		return fmt.Errorf("sqlite: inserting recipe %s: %w", recipe.Name, err)
	}

	if err := insertRecipeTags(ctx, tx, recipe.ID, tagIDs); err != nil {
		return err
	}
	if err := insertRecipeIngredients(ctx, tx, recipe.ID, ingredients); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing recipe %s: %w", recipe.ID, err)
	}

	return nil
}

// UpdateRecipe applies the scalar field changes and replaces the full tag and
// ingredient sets, all in one transaction. The ingredient rows are removed
// wholesale and recreated from the input — the sets are small and the
// "replace set" semantics stay obvious, so no incremental diffing.
func (db *DB) UpdateRecipe(ctx context.Context, recipe *model.Recipe, tagIDs []string, ingredients []model.IngredientAmount) error {
	recipe.UpdatedAt = time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE recipes SET name = ?, image = ?, text = ?, cooking_time = ?, updated_at = ?
		 WHERE id = ?`,
		recipe.Name,
		recipe.Image,
		recipe.Text,
		recipe.CookingTime,
		recipe.UpdatedAt,
		recipe.ID,
	)
	if err != nil {
		if tErr := translateConstraint(err,
			fmt.Sprintf("you already have a recipe named %q", recipe.Name),
			"cooking_time", "cooking time must be at least 1",
		); tErr != err {
			return tErr
		}
		return fmt.Errorf("sqlite: updating recipe %s: %w", recipe.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("recipe", recipe.ID)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recipe_tags WHERE recipe_id = ?`, recipe.ID); err != nil {
		return fmt.Errorf("sqlite: clearing recipe tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipe.ID); err != nil {
		return fmt.Errorf("sqlite: clearing recipe ingredients: %w", err)
	}

	if err := insertRecipeTags(ctx, tx, recipe.ID, tagIDs); err != nil {
		return err
	}
	if err := insertRecipeIngredients(ctx, tx, recipe.ID, ingredients); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing recipe %s: %w", recipe.ID, err)
	}

	return nil
}

// insertRecipeTags links the recipe to each tag id. A dangling tag id trips
// the foreign key and is reported as not-found.
func insertRecipeTags(ctx context.Context, tx *sql.Tx, recipeID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`,
			recipeID, tagID,
		)
		if err != nil {
			if isFKViolation(err) {
				return apperror.NotFound("tag", tagID)
			}
			if isUniqueViolation(err) {
				return apperror.ValidationFailed("tags",
					fmt.Sprintf("tag %s appears more than once", tagID))
			}
			return fmt.Errorf("sqlite: linking tag %s: %w", tagID, err)
		}
	}
	return nil
}

// insertRecipeIngredients writes one row per (ingredient, amount) pair.
// The UNIQUE (recipe_id, ingredient_id) constraint backs up the service
// layer's duplicate check; the FK catches unknown ingredient ids.
func insertRecipeIngredients(ctx context.Context, tx *sql.Tx, recipeID string, ingredients []model.IngredientAmount) error {
	for _, ing := range ingredients {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (id, recipe_id, ingredient_id, amount)
			 VALUES (?, ?, ?, ?)`,
			xid.New().String(), recipeID, ing.IngredientID, ing.Amount,
		)
		if err != nil {
			if isFKViolation(err) {
				return apperror.NotFound("ingredient", ing.IngredientID)
			}
			if isUniqueViolation(err) {
				return apperror.ValidationFailed("ingredients",
					fmt.Sprintf("ingredient %s appears more than once", ing.IngredientID))
			}
			if isCheckViolation(err) {
				return apperror.ValidationFailed("amount", "ingredient amount must be at least 1")
			}
			return fmt.Errorf("sqlite: inserting recipe ingredient %s: %w", ing.IngredientID, err)
		}
	}
	return nil
}

// GetRecipeByID loads a recipe with its author, tags, ingredient rows and the
// viewer's derived flags. viewerID == "" means anonymous: both flags are the
// constant 0 in the SELECT, no membership subqueries run.
func (db *DB) GetRecipeByID(ctx context.Context, id, viewerID string) (*model.Recipe, error) {
	var (
		r        model.Recipe
		authorID string
	)

	query := `SELECT id, author_id, name, image, text, cooking_time, created_at, updated_at,
	          ` + favoritedExpr(viewerID) + `, ` + inCartExpr(viewerID) + `
	          FROM recipes WHERE id = ?`

	args := []any{}
	if viewerID != "" {
		args = append(args, viewerID, viewerID)
	}
	args = append(args, id)

	err := db.conn.QueryRowContext(ctx, query, args...).Scan(
		&r.ID, &authorID, &r.Name, &r.Image, &r.Text, &r.CookingTime,
		&r.CreatedAt, &r.UpdatedAt, &r.IsFavorited, &r.IsInShoppingCart,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("recipe", id)
		}
		return nil, fmt.Errorf("sqlite: getting recipe %s: %w", id, err)
	}

	if err := db.attachRecipeDetails(ctx, &r, authorID, viewerID); err != nil {
		return nil, err
	}

	return &r, nil
}

// ListRecipes returns recipes newest first, narrowed by the filter. Tag slugs
// select recipes carrying ANY of the given slugs. The favorited/in-cart
// filters are membership joins against the requesting user and are left
// empty by the handler for anonymous viewers.
func (db *DB) ListRecipes(ctx context.Context, filter repository.RecipeFilter, viewerID string) ([]model.Recipe, error) {
	limit, offset := clampListOptions(filter.ListOptions)

	var (
		where []string
		args  []any
	)

	if viewerID != "" {
		args = append(args, viewerID, viewerID)
	}

	if filter.AuthorID != "" {
		where = append(where, `author_id = ?`)
		args = append(args, filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.TagSlugs)), ",")
		where = append(where, `EXISTS (
			SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = recipes.id AND t.slug IN (`+placeholders+`))`)
		for _, slug := range filter.TagSlugs {
			args = append(args, slug)
		}
	}
	if filter.FavoritedBy != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM favorites f WHERE f.user_id = ? AND f.recipe_id = recipes.id)`)
		args = append(args, filter.FavoritedBy)
	}
	if filter.InCartOf != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM shopping_list sl WHERE sl.user_id = ? AND sl.recipe_id = recipes.id)`)
		args = append(args, filter.InCartOf)
	}

	query := `SELECT id, author_id, name, image, text, cooking_time, created_at, updated_at,
	          ` + favoritedExpr(viewerID) + `, ` + inCartExpr(viewerID) + `
	          FROM recipes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes: %w", err)
	}
	defer rows.Close()

	type recipeRow struct {
		recipe   model.Recipe
		authorID string
	}
	scanned := make([]recipeRow, 0, limit)
	for rows.Next() {
		var rr recipeRow
		if err := rows.Scan(
			&rr.recipe.ID, &rr.authorID, &rr.recipe.Name, &rr.recipe.Image,
			&rr.recipe.Text, &rr.recipe.CookingTime, &rr.recipe.CreatedAt,
			&rr.recipe.UpdatedAt, &rr.recipe.IsFavorited, &rr.recipe.IsInShoppingCart,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe row: %w", err)
		}
		scanned = append(scanned, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipes: %w", err)
	}

	recipes := make([]model.Recipe, 0, len(scanned))
	for i := range scanned {
		if err := db.attachRecipeDetails(ctx, &scanned[i].recipe, scanned[i].authorID, viewerID); err != nil {
			return nil, err
		}
		recipes = append(recipes, scanned[i].recipe)
	}

	return recipes, nil
}

// DeleteRecipe removes the recipe; the ingredient rows, tag links, favorites
// and cart entries cascade.
func (db *DB) DeleteRecipe(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting recipe %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("recipe", id)
	}

	return nil
}

// attachRecipeDetails fills in the author (with the viewer's is_subscribed
// flag), the tag list and the ingredient rows.
func (db *DB) attachRecipeDetails(ctx context.Context, r *model.Recipe, authorID, viewerID string) error {
	author, err := db.GetUserByID(ctx, authorID, viewerID)
	if err != nil {
		return fmt.Errorf("sqlite: loading author of recipe %s: %w", r.ID, err)
	}
	author.PasswordHash = ""
	r.Author = author

	tags, err := db.recipeTags(ctx, r.ID)
	if err != nil {
		return err
	}
	r.Tags = tags

	ingredients, err := db.recipeIngredients(ctx, r.ID)
	if err != nil {
		return err
	}
	r.Ingredients = ingredients

	return nil
}

func (db *DB) recipeTags(ctx context.Context, recipeID string) ([]model.Tag, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT t.id, t.name, t.color, t.slug
		 FROM tags t JOIN recipe_tags rt ON rt.tag_id = t.id
		 WHERE rt.recipe_id = ?
		 ORDER BY t.name`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading tags of recipe %s: %w", recipeID, err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipe tags: %w", err)
	}

	return tags, nil
}

func (db *DB) recipeIngredients(ctx context.Context, recipeID string) ([]model.RecipeIngredient, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT i.id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = ?
		 ORDER BY i.name`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading ingredients of recipe %s: %w", recipeID, err)
	}
	defer rows.Close()

	ingredients := []model.RecipeIngredient{}
	for rows.Next() {
		var ri model.RecipeIngredient
		if err := rows.Scan(&ri.ID, &ri.Name, &ri.MeasurementUnit, &ri.Amount); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe ingredient row: %w", err)
		}
		ingredients = append(ingredients, ri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipe ingredients: %w", err)
	}

	return ingredients, nil
}

// favoritedExpr and inCartExpr mirror subscribedExpr in user.go: the derived
// flag collapses to the constant 0 for anonymous viewers so no membership
// lookup happens. Callers prepend viewerID twice (once per flag) when set.

func favoritedExpr(viewerID string) string {
	if viewerID == "" {
		return `0`
	}
	return `EXISTS (SELECT 1 FROM favorites f WHERE f.user_id = ? AND f.recipe_id = recipes.id)`
}

func inCartExpr(viewerID string) string {
	if viewerID == "" {
		return `0`
	}
	return `EXISTS (SELECT 1 FROM shopping_list sl WHERE sl.user_id = ? AND sl.recipe_id = recipes.id)`
}
