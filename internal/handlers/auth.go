package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/akulikov/invauth/internal/apperrors"
	"github.com/akulikov/invauth/internal/handlers/render"
	"github.com/akulikov/invauth/internal/handlers/userctx"
	"github.com/akulikov/invauth/internal/logger"
	"github.com/akulikov/invauth/internal/models"
)

// Session lifecycle operations the handler needs
type AuthService interface {
	// Register user, start a session right away
	// Has to return apperrors.ErrUserAlreadyExists for a duplicate email
	Register(ctx context.Context, name string, email string, password string, role models.Role) (models.User, models.TokenPair, error)

	// Login with email and password
	// Every credential problem surfaces as apperrors.ErrInvalidCredentials
	Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error)

	// Rotate refresh token
	// Absent, expired or replayed tokens return apperrors.ErrRefreshTokenNotFound
	// or apperrors.ErrRefreshTokenExpired
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Drop a single refresh token, idempotent
	Logout(ctx context.Context, refresh string) error

	// Drop every refresh token the user owns
	LogoutAll(ctx context.Context, userID uuid.UUID) error

	// Verify current password, store the new one, revoke all sessions
	ChangePassword(ctx context.Context, userID uuid.UUID, current string, new string) error
}

type AuthHandler struct {
	auth   AuthService
	logger logger.Logger
}

func NewAuth(auth AuthService, l logger.Logger) *AuthHandler {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &AuthHandler{auth: auth, logger: l}
}

// Safe user projection, password hash never leaves the service
type userResponse struct {
	UserID    uuid.UUID   `json:"userId"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
	LastLogin *time.Time  `json:"lastLogin,omitempty"`
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

func toTokensResponse(pair models.TokenPair) tokensResponse {
	return tokensResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Name     string `json:"name" validate:"required,min=2,max=100"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Role     string `json:"role" validate:"omitempty,oneof=ADMIN MANAGER STAFF VIEWER"`
	}
	type RegisterSuccessResponse struct {
		Message string         `json:"message"`
		User    userResponse   `json:"user"`
		Tokens  tokensResponse `json:"tokens"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.auth.Register(r.Context(), data.Name, data.Email, data.Password, models.Role(data.Role))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User with this email already exists", http.StatusConflict)
		default:
			h.logger.Error("registration failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSONWithStatus(w, RegisterSuccessResponse{
		Message: "User registered successfully",
		User:    toUserResponse(user),
		Tokens:  toTokensResponse(pair),
	}, http.StatusCreated)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	type LoginSuccessResponse struct {
		Message string         `json:"message"`
		User    userResponse   `json:"user"`
		Tokens  tokensResponse `json:"tokens"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.auth.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
		default:
			h.logger.Error("login failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, LoginSuccessResponse{
		Message: "Login successful",
		User:    toUserResponse(user),
		Tokens:  toTokensResponse(pair),
	})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type RefreshSuccessResponse struct {
		Message string         `json:"message"`
		Tokens  tokensResponse `json:"tokens"`
	}

	data, err := render.BindAndValidate[RefreshRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.auth.Refresh(r.Context(), data.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRefreshTokenNotFound),
			errors.Is(err, apperrors.ErrRefreshTokenExpired):
			render.ServiceError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		default:
			h.logger.Error("token refresh failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, RefreshSuccessResponse{
		Message: "Token refreshed successfully",
		Tokens:  toTokensResponse(pair),
	})
}

// logout always answers 200: revealing whether the session existed would
// leak state to whoever holds a stolen token
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type LogoutRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type LogoutSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[LogoutRequest](w, r)
	if err != nil {
		return
	}

	if err := h.auth.Logout(r.Context(), data.RefreshToken); err != nil {
		h.logger.Error("logout failed", "error", err.Error())
	}

	render.JSON(w, LogoutSuccessResponse{Message: "Logout successful"})
}

func (h *AuthHandler) logoutAll(w http.ResponseWriter, r *http.Request) {
	type LogoutAllSuccessResponse struct {
		Message string `json:"message"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.auth.LogoutAll(r.Context(), user.ID); err != nil {
		h.logger.Error("logout all failed", "user_id", user.ID, "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, LogoutAllSuccessResponse{Message: "Logged out from all devices"})
}

func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	type ChangePasswordRequest struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=8"`
	}
	type ChangePasswordSuccessResponse struct {
		Message string `json:"message"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	data, err := render.BindAndValidate[ChangePasswordRequest](w, r)
	if err != nil {
		return
	}

	err = h.auth.ChangePassword(r.Context(), user.ID, data.CurrentPassword, data.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Current password is incorrect", http.StatusBadRequest)
		default:
			h.logger.Error("password change failed", "user_id", user.ID, "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, ChangePasswordSuccessResponse{Message: "Password changed successfully. Please login again."})
}

func (h *AuthHandler) profile(w http.ResponseWriter, r *http.Request) {
	type ProfileResponse struct {
		User userResponse `json:"user"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	render.JSON(w, ProfileResponse{User: toUserResponse(user)})
}
