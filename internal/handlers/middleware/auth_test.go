package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akulikov/invauth/internal/apperrors"
	"github.com/akulikov/invauth/internal/handlers/middleware"
	"github.com/akulikov/invauth/internal/handlers/userctx"
	"github.com/akulikov/invauth/internal/models"
)

type authFunc func(ctx context.Context, access string) (models.User, error)

func (f authFunc) Authenticate(ctx context.Context, access string) (models.User, error) {
	return f(ctx, access)
}

// echoUser replies 200 and records the user the middleware put in the context
func echoUser(into *models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := userctx.FromContext(r.Context()); ok {
			*into = user
		}
		w.WriteHeader(http.StatusOK)
	})
}

func Test_AuthMiddleware(t *testing.T) {
	t.Parallel()

	happyAuth := authFunc(func(_ context.Context, access string) (models.User, error) {
		if access != "valid-token" {
			return models.User{}, apperrors.ErrAccessTokenInvalid
		}
		return models.User{Email: "a@x.com", Role: models.RoleStaff, IsActive: true}, nil
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{
			name:       "valid bearer token",
			authHeader: "Bearer valid-token",
			wantStatus: http.StatusOK,
		},
		{
			name:       "no header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token without scheme",
			authHeader: "valid-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty token after scheme",
			authHeader: "Bearer ",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "rejected by the service",
			authHeader: "Bearer expired-token",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen models.User
			handler := middleware.AuthMiddleware(happyAuth)(echoUser(&seen))

			r := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "a@x.com", seen.Email, "resolved user must reach the next handler")
			}
		})
	}
}

func Test_RequireRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		allowed    []models.Role
		userRole   models.Role
		wantStatus int
	}{
		{
			name:       "role in the set",
			allowed:    []models.Role{models.RoleAdmin, models.RoleManager},
			userRole:   models.RoleManager,
			wantStatus: http.StatusOK,
		},
		{
			name:       "role not in the set",
			allowed:    []models.Role{models.RoleAdmin, models.RoleManager},
			userRole:   models.RoleStaff,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "admin is not implied by omission",
			allowed:    []models.Role{models.RoleStaff},
			userRole:   models.RoleAdmin,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "empty set allows nobody",
			allowed:    nil,
			userRole:   models.RoleAdmin,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen models.User
			handler := middleware.RequireRole(tt.allowed...)(echoUser(&seen))

			r := httptest.NewRequest(http.MethodGet, "/admin", nil)
			ctx := userctx.New(r.Context(), models.User{Role: tt.userRole})
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r.WithContext(ctx))

			require.Equal(t, tt.wantStatus, w.Code)
		})
	}

	t.Run("no user in context", func(t *testing.T) {
		var seen models.User
		handler := middleware.RequireRole(models.RoleAdmin)(echoUser(&seen))

		r := httptest.NewRequest(http.MethodGet, "/admin", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusUnauthorized, w.Code, "role check without auth is a misconfiguration, fail closed")
	})
}
