package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a server side record of an opaque refresh capability.
// The token string itself carries no data: if the row is absent or expired
// the token is dead no matter what the client presents.
type RefreshToken struct {
	Token     string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenPair issued by TokenManager on login, registration or refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
