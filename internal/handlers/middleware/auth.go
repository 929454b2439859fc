package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akulikov/invauth/internal/handlers/render"
	"github.com/akulikov/invauth/internal/handlers/userctx"
	"github.com/akulikov/invauth/internal/models"
)

type authService interface {
	// Verify access token and resolve the still existing and active user
	Authenticate(ctx context.Context, access string) (models.User, error)
}

// AuthMiddleware guards a handler with bearer token authentication.
// The resolved user is attached to the request context
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := bearerToken(r)
			if !ok {
				render.ServiceError(w, "Access token required", http.StatusUnauthorized)
				return
			}

			user, err := as.Authenticate(r.Context(), access)
			if err != nil {
				render.ServiceError(w, "Invalid or inactive user", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole permits only the enumerated roles. The set is flat: ADMIN is
// not implied, callers list every role a route accepts.
// Must run after AuthMiddleware
func RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userctx.FromContext(r.Context())
			if !ok {
				render.ServiceError(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			render.ServiceError(w, "Insufficient permissions", http.StatusForbidden)
		})
	}
}

// bearerToken extracts the token from 'Authorization: Bearer <token>'
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
