package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/akulikov/invauth/internal/apperrors"
	"github.com/akulikov/invauth/internal/handlers/render"
	"github.com/akulikov/invauth/internal/logger"
	"github.com/akulikov/invauth/internal/models"
	"github.com/akulikov/invauth/internal/repository"
)

type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, userID uuid.UUID) (models.User, error)
	Update(ctx context.Context, userID uuid.UUID, arg repository.UpdateUserParams) (models.User, error)
	Deactivate(ctx context.Context, userID uuid.UUID) (models.User, error)
}

// UsersHandler serves user administration routes. Route guards (auth and
// role checks) are attached by the router, not here
type UsersHandler struct {
	users  UserService
	logger logger.Logger
}

func NewUsers(users UserService, l logger.Logger) *UsersHandler {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &UsersHandler{users: users, logger: l}
}

func (h *UsersHandler) list(w http.ResponseWriter, r *http.Request) {
	type ListResponse struct {
		Users []userResponse `json:"users"`
	}

	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("user listing failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := ListResponse{Users: make([]userResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserResponse(u))
	}

	render.JSON(w, resp)
}

func (h *UsersHandler) get(w http.ResponseWriter, r *http.Request) {
	type GetResponse struct {
		User userResponse `json:"user"`
	}

	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("user lookup failed", "user_id", userID, "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, GetResponse{User: toUserResponse(user)})
}

func (h *UsersHandler) update(w http.ResponseWriter, r *http.Request) {
	type UpdateRequest struct {
		Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
		Role     *string `json:"role" validate:"omitempty,oneof=ADMIN MANAGER STAFF VIEWER"`
		IsActive *bool   `json:"isActive"`
	}
	type UpdateResponse struct {
		Message string       `json:"message"`
		User    userResponse `json:"user"`
	}

	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	data, err := render.BindAndValidate[UpdateRequest](w, r)
	if err != nil {
		return
	}

	arg := repository.UpdateUserParams{Name: data.Name, IsActive: data.IsActive}
	if data.Role != nil {
		role := models.Role(*data.Role)
		arg.Role = &role
	}

	user, err := h.users.Update(r.Context(), userID, arg)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("user update failed", "user_id", userID, "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, UpdateResponse{Message: "User updated successfully", User: toUserResponse(user)})
}

// deactivate flips is_active off instead of deleting the row. Business
// records keep referencing the user, only its sessions die
func (h *UsersHandler) deactivate(w http.ResponseWriter, r *http.Request) {
	type DeactivateResponse struct {
		Message string       `json:"message"`
		User    userResponse `json:"user"`
	}

	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.Deactivate(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("user deactivation failed", "user_id", userID, "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, DeactivateResponse{Message: "User deactivated", User: toUserResponse(user)})
}

func pathUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return userID, true
}
