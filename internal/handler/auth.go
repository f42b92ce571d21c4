package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/recipe-box/internal/auth"
	"github.com/sakif/recipe-box/internal/service"
)

// AuthHandler covers account creation and the token lifecycle.
type AuthHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewAuthHandler(users *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger}
}

type registerRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Username  string `json:"username"   validate:"required,max=150"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name"  validate:"required,max=150"`
	Password  string `json:"password"   validate:"required,min=8,max=72"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/users
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Username, req.FirstName, req.LastName, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AuthToken string `json:"auth_token"`
}

// HandleLogin verifies credentials and issues a token.
//
// HTTP: POST /api/auth/token/login
//
// The token goes out twice: in the body for Authorization-header clients and
// as an HttpOnly cookie for browsers. HttpOnly keeps it out of reach of
// injected scripts.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(auth.DefaultTokenLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, loginResponse{AuthToken: result.Token})
}

// HandleLogout clears the token cookie. The JWT itself stays valid until it
// expires; there is no server-side revocation list.
//
// HTTP: POST /api/auth/token/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

type setPasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72"`
}

// HandleSetPassword changes the caller's password.
//
// HTTP: POST /api/users/set_password (authenticated)
func (h *AuthHandler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req setPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.users.SetPassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the caller's own profile.
//
// HTTP: GET /api/users/me (authenticated)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.users.GetByID(r.Context(), userID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
