package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/akulikov/invauth/internal/models"
	"github.com/akulikov/invauth/internal/repository"
)

// UserService covers user administration: listing accounts and changing
// role or active flag. Deactivation also revokes the user's refresh tokens
// so only already issued access tokens survive, until they expire
type UserService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *UserService {
	return &UserService{storage: storage}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.storage.User().ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}

func (s *UserService) Update(ctx context.Context, userID uuid.UUID, arg repository.UpdateUserParams) (models.User, error) {
	if arg.Role != nil && !arg.Role.Valid() {
		return models.User{}, fmt.Errorf("unknown role %q", *arg.Role)
	}

	var user models.User
	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		var err error
		user, err = store.User().UpdateUser(ctx, userID, arg)
		if err != nil {
			return err
		}

		// Deactivation kills outstanding refresh capabilities right away
		if arg.IsActive != nil && !*arg.IsActive {
			_, err = store.Refresh().DeleteAllForUser(ctx, userID)
		}
		return err
	})

	return user, err
}

func (s *UserService) Deactivate(ctx context.Context, userID uuid.UUID) (models.User, error) {
	inactive := false
	return s.Update(ctx, userID, repository.UpdateUserParams{IsActive: &inactive})
}
