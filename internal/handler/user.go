package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/recipe-box/internal/auth"
	"github.com/sakif/recipe-box/internal/service"
)

// UserHandler serves public user profiles and the subscriptions surface.
type UserHandler struct {
	users  *service.UserService
	subs   *service.SubscriptionService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, subs *service.SubscriptionService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, subs: subs, logger: logger}
}

// queryInt reads an integer query parameter, falling back to def on absence
// or garbage. Pagination params are forgiving: a bad ?limit= never 400s.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// HandleList returns registered users.
//
// HTTP: GET /api/users?limit=&offset=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	users, err := h.users.List(r.Context(), viewerID, queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// HandleGet returns one profile. is_subscribed reflects the viewer; it is
// always false for anonymous requests.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.users.GetByID(r.Context(), r.PathValue("id"), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleSubscribe starts following an author. Responds with the author card
// in the subscriptions-listing shape.
//
// HTTP: POST /api/users/{id}/subscribe (authenticated)
func (h *UserHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	author, err := h.subs.Subscribe(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, author)
}

// HandleUnsubscribe stops following an author.
//
// HTTP: DELETE /api/users/{id}/subscribe (authenticated)
func (h *UserHandler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.subs.Unsubscribe(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSubscriptions lists the authors the caller follows, each with a
// recipe count and a preview capped by ?recipes_limit=.
//
// HTTP: GET /api/users/subscriptions (authenticated)
func (h *UserHandler) HandleSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	// -1 marks the param as absent; recipes_limit=0 is a real request for
	// author cards without any recipe previews.
	authors, err := h.subs.ListSubscriptions(r.Context(), userID,
		queryInt(r, "limit", 0),
		queryInt(r, "offset", 0),
		queryInt(r, "recipes_limit", -1),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authors)
}
