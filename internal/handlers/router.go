package handlers

import (
	"net/http"
	"time"

	"github.com/akulikov/invauth/internal/handlers/middleware"
	"github.com/akulikov/invauth/internal/handlers/render"
	"github.com/akulikov/invauth/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	auth *AuthHandler,
	users *UsersHandler,
	protect func(http.Handler) http.Handler,
	mws ...func(http.Handler) http.Handler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)

	// Session endpoints, public
	mux.Handle("POST /auth/register", http.HandlerFunc(auth.register))
	mux.Handle("POST /auth/login", http.HandlerFunc(auth.login))
	mux.Handle("POST /auth/refresh", http.HandlerFunc(auth.refresh))
	mux.Handle("POST /auth/logout", http.HandlerFunc(auth.logout))

	// Session endpoints requiring a live access token
	mux.Handle("POST /auth/logout-all", protect(http.HandlerFunc(auth.logoutAll)))
	mux.Handle("POST /auth/change-password", protect(http.HandlerFunc(auth.changePassword)))
	mux.Handle("GET /auth/profile", protect(http.HandlerFunc(auth.profile)))

	// User administration, manager level. Role sets are enumerated in full:
	// there is no implicit hierarchy
	manager := func(h http.Handler) http.Handler {
		return chain(h, protect, middleware.RequireRole(models.RoleAdmin, models.RoleManager))
	}
	mux.Handle("GET /users", manager(http.HandlerFunc(users.list)))
	mux.Handle("GET /users/{id}", manager(http.HandlerFunc(users.get)))
	mux.Handle("PUT /users/{id}", manager(http.HandlerFunc(users.update)))
	mux.Handle("DELETE /users/{id}", manager(http.HandlerFunc(users.deactivate)))

	return chain(mux, mws...)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	type HealthResponse struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}

	render.JSON(w, HealthResponse{Status: "OK", Timestamp: time.Now()})
}
