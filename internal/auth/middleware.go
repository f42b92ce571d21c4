package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// contextKey is a private type so no other package can collide with our
// context keys, even if they use the same string value.
type contextKey string

const userIDKey contextKey = "userID"

// TokenCookieName is the cookie the login handler sets for browser clients.
const TokenCookieName = "token"

// UserIDFromContext extracts the authenticated userID from the request
// context. The bool is false for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// ContextWithUserID is exported for handler tests that need to simulate an
// authenticated request without running the middleware.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// tokenFromRequest looks for a token in the Authorization header first
// (API clients), then in the cookie (browser clients). Empty string means
// the request is anonymous.
func tokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok && after != "" {
		return after
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":"unauthorized","message":%q}`, message)
}

// RequireAuth rejects requests without a valid token with 401. Routes that
// mutate state (publishing recipes, managing the cart) sit behind this.
func (s *TokenService) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := tokenFromRequest(r)
		if tokenStr == "" {
			writeUnauthorized(w, "authentication required")
			return
		}

		userID, err := s.Validate(tokenStr)
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth populates the userID when a valid token is present but lets
// anonymous requests through. Read endpoints use it so derived fields like
// is_favorited reflect the viewer when there is one. An invalid token is
// treated as anonymous rather than rejected: a stale cookie should not
// break catalog browsing.
func (s *TokenService) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := tokenFromRequest(r)
		if tokenStr == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := s.Validate(tokenStr)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
