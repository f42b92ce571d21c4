package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/recipe-box/internal/auth"
	"github.com/sakif/recipe-box/internal/export"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
	"github.com/sakif/recipe-box/internal/service"
)

// RecipeHandler covers the recipe catalog plus the per-user collections
// hanging off it: favorites, the shopping cart and the list download.
type RecipeHandler struct {
	recipes *service.RecipeService
	cart    *service.CartService
	logger  *slog.Logger
}

func NewRecipeHandler(recipes *service.RecipeService, cart *service.CartService, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, cart: cart, logger: logger}
}

type recipeIngredientPayload struct {
	ID     string `json:"id"     validate:"required"`
	Amount int    `json:"amount" validate:"required,min=1"`
}

type recipePayload struct {
	Name        string                    `json:"name"         validate:"required,max=200"`
	Text        string                    `json:"text"         validate:"required"`
	Image       string                    `json:"image"`
	CookingTime int                       `json:"cooking_time" validate:"required,min=1"`
	Tags        []string                  `json:"tags"         validate:"required,min=1"`
	Ingredients []recipeIngredientPayload `json:"ingredients"  validate:"required,min=1,dive"`
}

func (p *recipePayload) toInput() service.RecipeInput {
	ingredients := make([]model.IngredientAmount, 0, len(p.Ingredients))
	for _, ing := range p.Ingredients {
		ingredients = append(ingredients, model.IngredientAmount{
			IngredientID: ing.ID,
			Amount:       ing.Amount,
		})
	}
	return service.RecipeInput{
		Name:        p.Name,
		Text:        p.Text,
		Image:       p.Image,
		CookingTime: p.CookingTime,
		TagIDs:      p.Tags,
		Ingredients: ingredients,
	}
}

// HandleList returns recipes, newest first, with optional filters.
//
// HTTP: GET /api/recipes?author=&tags=&is_favorited=1&is_in_shopping_cart=1&limit=&offset=
//
// The favorited/cart filters need a viewer; for anonymous requests they are
// ignored rather than rejected, matching the "derived flags are false"
// behaviour elsewhere.
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()

	filter := repository.RecipeFilter{
		AuthorID: q.Get("author"),
		TagSlugs: q["tags"],
	}
	filter.Limit = queryInt(r, "limit", 0)
	filter.Offset = queryInt(r, "offset", 0)

	if viewerID != "" {
		if q.Get("is_favorited") == "1" {
			filter.FavoritedBy = viewerID
		}
		if q.Get("is_in_shopping_cart") == "1" {
			filter.InCartOf = viewerID
		}
	}

	recipes, err := h.recipes.List(r.Context(), filter, viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recipes)
}

// HandleGet returns one recipe with author, tags, ingredients and the
// viewer's derived flags.
//
// HTTP: GET /api/recipes/{id}
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	recipe, err := h.recipes.GetByID(r.Context(), r.PathValue("id"), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

// HandleCreate publishes a recipe authored by the caller.
//
// HTTP: POST /api/recipes (authenticated)
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var payload recipePayload
	if !decodeBody(w, r, &payload) {
		return
	}

	recipe, err := h.recipes.Create(r.Context(), userID, payload.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, recipe)
}

// HandleUpdate fully replaces a recipe. Author-only.
//
// HTTP: PATCH /api/recipes/{id} (authenticated)
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var payload recipePayload
	if !decodeBody(w, r, &payload) {
		return
	}

	recipe, err := h.recipes.Update(r.Context(), r.PathValue("id"), userID, payload.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

// HandleDelete removes a recipe. Author-only.
//
// HTTP: DELETE /api/recipes/{id} (authenticated)
func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.recipes.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAddFavorite marks a recipe as favorited. 409 if it already is.
//
// HTTP: POST /api/recipes/{id}/favorite (authenticated)
func (h *RecipeHandler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	preview, err := h.cart.AddFavorite(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, preview)
}

// HandleRemoveFavorite unmarks a favorite. 404 if it never was one.
//
// HTTP: DELETE /api/recipes/{id}/favorite (authenticated)
func (h *RecipeHandler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.cart.RemoveFavorite(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAddToCart puts a recipe in the caller's shopping cart.
//
// HTTP: POST /api/recipes/{id}/shopping_cart (authenticated)
func (h *RecipeHandler) HandleAddToCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	preview, err := h.cart.AddToCart(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, preview)
}

// HandleRemoveFromCart takes a recipe out of the cart.
//
// HTTP: DELETE /api/recipes/{id}/shopping_cart (authenticated)
func (h *RecipeHandler) HandleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.cart.RemoveFromCart(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDownloadShoppingCart renders the aggregated shopping list as a file
// attachment. Plain text by default, a printable PDF with ?format=pdf.
//
// HTTP: GET /api/recipes/download_shopping_cart (authenticated)
func (h *RecipeHandler) HandleDownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	totals, err := h.cart.ShoppingList(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "pdf" {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="shopping_list.pdf"`)
		if err := export.RenderPDF(w, totals, time.Now()); err != nil {
			h.logger.Error("failed to render shopping list PDF",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="shopping_list.txt"`)
	if err := export.RenderText(w, totals); err != nil {
		h.logger.Error("failed to render shopping list",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
	}
}
