package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/recipe-box/internal/service"
)

// CatalogHandler serves the read-only reference data: tags and ingredients.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// HandleListTags returns the whole tag vocabulary.
//
// HTTP: GET /api/tags
func (h *CatalogHandler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.ListTags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// HandleGetTag returns one tag.
//
// HTTP: GET /api/tags/{id}
func (h *CatalogHandler) HandleGetTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.catalog.GetTag(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// HandleSearchIngredients matches ingredients by name prefix for the recipe
// editor's autocomplete.
//
// HTTP: GET /api/ingredients?name=sal
func (h *CatalogHandler) HandleSearchIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.catalog.SearchIngredients(r.Context(),
		r.URL.Query().Get("name"),
		queryInt(r, "limit", 0),
		queryInt(r, "offset", 0),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredients)
}

// HandleGetIngredient returns one catalog ingredient.
//
// HTTP: GET /api/ingredients/{id}
func (h *CatalogHandler) HandleGetIngredient(w http.ResponseWriter, r *http.Request) {
	ingredient, err := h.catalog.GetIngredient(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}
