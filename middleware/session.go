// Package middleware resolves the session cookie into a user attached to the
// request context.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pwojcik/flashgen-api/auth"
	"github.com/pwojcik/flashgen-api/models"
	"github.com/pwojcik/flashgen-api/store"
	"go.uber.org/zap"
)

type contextKey string

const userKey contextKey = "user"

// Public paths that don't require authentication
var publicPaths = map[string]bool{
	"/api/auth/login":             true,
	"/api/auth/register":          true,
	"/api/auth/logout":            true,
	"/api/auth/password-recovery": true,
	"/api/auth/password-reset":    true,
}

// Session verifies the auth cookie on every non-public path, loads the account
// row and attaches it to the request context.
func Session(tokens *auth.Tokens, users *store.UserStore, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(auth.SessionCookieName)
			if err != nil {
				unauthorized(w)
				return
			}

			claims, err := tokens.VerifySessionToken(cookie.Value)
			if err != nil {
				log.Debug("session token rejected", zap.Error(err))
				unauthorized(w)
				return
			}

			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				log.Debug("session user not found", zap.Uint("user_id", claims.UserID), zap.Error(err))
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user attached by Session.
func UserFromContext(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userKey).(*models.User)
	return user, ok
}

// WithUser returns ctx with the user attached. Test helper for handler tests.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
