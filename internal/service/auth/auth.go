package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akulikov/invauth/internal/apperrors"
	"github.com/akulikov/invauth/internal/logger"
	"github.com/akulikov/invauth/internal/models"
	"github.com/akulikov/invauth/internal/repository"
	"github.com/akulikov/invauth/internal/service/auth/tokenmanager"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher used during registration and login
	// Default bcrypt hasher is used if not set
	Hasher PasswordHasher

	// Logger for non fatal events like a failed last login write
	// No-op logger is used if not set
	Logger logger.Logger
}

// AuthService orchestrates the session lifecycle: login, registration,
// refresh token rotation, revocation and access token verification.
// It holds no locks itself, atomicity lives at the storage level
type AuthService struct {
	token   *tokenmanager.TokenManager
	hasher  PasswordHasher
	storage repository.Storage
	logger  logger.Logger

	// Hash compared against when login hits an unknown or inactive user, so
	// the response time doesn't reveal whether the account exists
	decoyHash string
}

func NewService(cfg Config, token *tokenmanager.TokenManager, storage repository.Storage) (*AuthService, error) {
	if token == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	decoyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("error while preparing decoy hash. Err: %w", err)
	}

	return &AuthService{
		token:     token,
		hasher:    hasher,
		storage:   storage,
		logger:    log,
		decoyHash: decoyHash,
	}, nil
}

// Register creates a user and starts a session for it right away.
// Empty role means the least privileged one
func (s *AuthService) Register(ctx context.Context, name string, email string, password string, role models.Role) (models.User, models.TokenPair, error) {
	if role == "" {
		role = models.RoleViewer
	}
	if !role.Valid() {
		return models.User{}, models.TokenPair{}, fmt.Errorf("unknown role %q", role)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err := s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		Name:           name,
		Email:          email,
		HashedPassword: hash,
		Role:           role,
	})
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return user, pair, nil
}

// Login verifies credentials and issues a token pair.
// A wrong password, an unknown email and a deactivated account all fail with
// the same ErrInvalidCredentials and roughly the same amount of work
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, email)
	if err != nil || !user.IsActive {
		_ = s.hasher.Compare(s.decoyHash, password)
		return models.User{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	// Best effort: a failed write must not fail the login
	now := time.Now()
	if err := s.storage.User().SetLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err.Error())
	} else {
		user.LastLogin = &now
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return user, pair, nil
}

// Refresh rotates the presented refresh token: the old one is consumed first
// and a brand new pair is issued. Replaying a rotated token fails because its
// row no longer exists
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	token, err := s.token.Redeem(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	// The owner must still exist and be active. The stale token row is
	// already gone thanks to redeem deleting it
	user, err := s.storage.User().GetUserByID(ctx, token.UserID)
	if err != nil || !user.IsActive {
		return models.TokenPair{}, apperrors.ErrRefreshTokenNotFound
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return pair, nil
}

// Logout drops a single refresh token. Deleting an unknown or already rotated
// token is fine: logout is idempotent and never reveals whether the session
// existed
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	_, err := s.storage.Refresh().Delete(ctx, refresh)
	if err != nil && !errors.Is(err, apperrors.ErrRefreshTokenNotFound) {
		return err
	}
	return nil
}

// LogoutAll revokes every refresh token of the user. Outstanding access
// tokens stay valid until their natural expiry
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	deleted, err := s.storage.Refresh().DeleteAllForUser(ctx, userID)
	if err != nil {
		return err
	}

	s.logger.Debug("revoked refresh tokens", "user_id", userID, "count", deleted)
	return nil
}

// ChangePassword stores a new password hash and signs the user out
// everywhere, both in one transaction
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current string, new string) error {
	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.HashedPassword, current); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(new)
	if err != nil {
		return fmt.Errorf("can't use this as password. Err: %w", err)
	}

	return s.storage.InTx(ctx, func(store repository.Storage) error {
		if err := store.User().SetPassword(ctx, userID, hash); err != nil {
			return err
		}

		_, err := store.Refresh().DeleteAllForUser(ctx, userID)
		return err
	})
}

// Authenticate verifies an access token and re-resolves its owner. The extra
// lookup bounds the staleness of a deactivation to a single request
func (s *AuthService) Authenticate(ctx context.Context, access string) (models.User, error) {
	claims, err := s.token.ParseAccess(access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.storage.User().GetUserByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, apperrors.ErrUserNotFound
	}
	if !user.IsActive {
		return models.User{}, apperrors.ErrUserInactive
	}

	return user, nil
}
