package core

import (
	"context"
	"time"
)

// User represents an authenticated system user.
type User struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

// UserService provides user lookup operations.
type UserService interface {
	// GetByUsername finds an active user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID returns a user by primary key.
	GetByID(ctx context.Context, userID int) (*User, error)
}

// Role names, strongest first. Navigation and mutating operations are gated
// by a static priority lookup rather than per-user permission rows.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleSales   = "sales"
	RoleViewer  = "viewer"
)

var rolePriority = map[string]int{
	RoleAdmin:   40,
	RoleManager: 30,
	RoleSales:   20,
	RoleViewer:  10,
}

// RoleAtLeast reports whether role carries at least the privileges of min.
// Unknown roles rank below every known role.
func RoleAtLeast(role, min string) bool {
	return rolePriority[role] >= rolePriority[min]
}
