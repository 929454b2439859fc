package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/akulikov/invauth/internal/models"
)

type CreateUserParams struct {
	Name           string
	Email          string
	HashedPassword string
	Role           models.Role
}

// Optional fields for admin driven user updates. Nil fields stay unchanged.
type UpdateUserParams struct {
	Name     *string
	Role     *models.Role
	IsActive *bool
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the same email exists has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, arg UpdateUserParams) (models.User, error)

	// Record the moment of a successful login
	SetLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error

	// Replace the stored password hash
	SetPassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token. Token strings are unique; saving a duplicate is an error
	Save(ctx context.Context, token models.RefreshToken) error

	// Get token even if it is already expired
	// If token not found must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Delete token and return the deleted row
	// Must be atomic: of two concurrent deletes of the same token exactly one
	// gets the row, the other gets apperrors.ErrRefreshTokenNotFound
	Delete(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Delete every token owned by the user, returns how many were deleted
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Storage combines repositories working over the same database
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo

	// Run fn in a single database transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
