package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/akulikov/invauth/internal/apperrors"
	"github.com/akulikov/invauth/internal/models"
	"github.com/akulikov/invauth/internal/repository"
	"github.com/akulikov/invauth/internal/testutil"
)

func Test_UserRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	defaultParams := repository.CreateUserParams{
		Name:           "Test User",
		Email:          "test@example.com",
		HashedPassword: "hashed_password",
		Role:           "VIEWER",
	}

	t.Run("create user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			user, err := repo.CreateUser(t.Context(), defaultParams)

			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, user.ID, "id should be generated")
			require.Equal(t, "Test User", user.Name)
			require.Equal(t, "test@example.com", user.Email)
			require.Equal(t, "hashed_password", user.HashedPassword)
			require.EqualValues(t, "VIEWER", user.Role)
			require.True(t, user.IsActive, "new users are active")
			require.Nil(t, user.LastLogin, "new users never logged in")
			require.WithinDuration(t, time.Now(), user.CreatedAt, time.Minute)
		})
	})

	t.Run("create user duplicate email", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.CreateUser(t.Context(), defaultParams)
			require.NoError(t, err)

			_, err = repo.CreateUser(t.Context(), defaultParams)
			require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})
	})

	t.Run("get user by id and email", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			created, err := repo.CreateUser(t.Context(), defaultParams)
			require.NoError(t, err)

			byID, err := repo.GetUserByID(t.Context(), created.ID)
			require.NoError(t, err)
			require.Equal(t, created.ID, byID.ID)

			byEmail, err := repo.GetUserByEmail(t.Context(), created.Email)
			require.NoError(t, err)
			require.Equal(t, created.ID, byEmail.ID)
		})
	})

	t.Run("get unknown user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.GetUserByID(t.Context(), uuid.New())
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)

			_, err = repo.GetUserByEmail(t.Context(), "nobody@example.com")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("list users", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.CreateUser(t.Context(), defaultParams)
			require.NoError(t, err)

			second := defaultParams
			second.Email = "second@example.com"
			_, err = repo.CreateUser(t.Context(), second)
			require.NoError(t, err)

			users, err := repo.ListUsers(t.Context())
			require.NoError(t, err)
			require.Len(t, users, 2)
		})
	})

	t.Run("update user role and active flag", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			created, err := repo.CreateUser(t.Context(), defaultParams)
			require.NoError(t, err)

			role := models.RoleManager
			inactive := false
			updated, err := repo.UpdateUser(t.Context(), created.ID, repository.UpdateUserParams{
				Role:     &role,
				IsActive: &inactive,
			})

			require.NoError(t, err)
			require.Equal(t, models.RoleManager, updated.Role)
			require.False(t, updated.IsActive)
			require.Equal(t, created.Name, updated.Name, "name should stay unchanged")
		})
	})

	t.Run("update unknown user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.UpdateUser(t.Context(), uuid.New(), repository.UpdateUserParams{})
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("set last login", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			created, err := repo.CreateUser(t.Context(), defaultParams)
			require.NoError(t, err)

			at := time.Now().Truncate(time.Second)
			err = repo.SetLastLogin(t.Context(), created.ID, at)
			require.NoError(t, err)

			user, err := repo.GetUserByID(t.Context(), created.ID)
			require.NoError(t, err)
			require.NotNil(t, user.LastLogin)
			require.WithinDuration(t, at, *user.LastLogin, time.Second)
		})
	})

	t.Run("set password", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			created, err := repo.CreateUser(t.Context(), defaultParams)
			require.NoError(t, err)

			err = repo.SetPassword(t.Context(), created.ID, "another_hash")
			require.NoError(t, err)

			user, err := repo.GetUserByID(t.Context(), created.ID)
			require.NoError(t, err)
			require.Equal(t, "another_hash", user.HashedPassword)
		})
	})

	t.Run("set password for unknown user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			err := repo.SetPassword(t.Context(), uuid.New(), "another_hash")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})
}
