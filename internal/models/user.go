package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a flat permission tier. There is no hierarchy: route guards
// enumerate every allowed role explicitly.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
	RoleViewer  Role = "VIEWER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff, RoleViewer:
		return true
	}
	return false
}

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Name           string
	Email          string
	HashedPassword string
	Role           Role
	IsActive       bool
	LastLogin      *time.Time // nil if user never logged in
}
