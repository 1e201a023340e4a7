// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// Role gates what an authenticated user may see.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an account in the system.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
}

// PublicUser is the subset of a User that may be returned to clients.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role,omitempty"`
}

// Public projects u for clients, including its role.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

// NewUser carries the fields needed to insert a user row.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
}

// Session represents an issued session token.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	// CreateUser inserts a user. A username or email collision returns a
	// *StoreError of kind KindDuplicate.
	CreateUser(ctx context.Context, u NewUser) (*User, error)
	// FindActiveByLogin returns the active user whose username or email equals
	// login, or (nil, nil).
	FindActiveByLogin(ctx context.Context, login string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	// Create inserts a session. It never overwrites: an existing id returns a
	// *StoreError of kind KindDuplicate.
	Create(ctx context.Context, s Session) error
	// FindUser returns the owner of session id when the session has not
	// expired at now and the owner is active, or (nil, nil).
	FindUser(ctx context.Context, id string, now time.Time) (*User, error)
	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes sessions that expired at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
