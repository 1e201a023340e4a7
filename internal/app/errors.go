package app

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrDuplicateIdentity indicates that the username or email is already taken.
	ErrDuplicateIdentity = errors.New("username or email already exists")
	// ErrNotAuthenticated indicates a missing, expired, revoked or foreign session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionNotIssued indicates that no durable session could be stored.
	ErrSessionNotIssued = errors.New("session could not be created")
	// ErrForbidden indicates an authenticated user without the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrWeakCredential rejects passwords shorter than MinPasswordLength.
	ErrWeakCredential = &ValidationError{Message: fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength)}
	// ErrLongCredential rejects passwords bcrypt cannot hash.
	ErrLongCredential = &ValidationError{Message: fmt.Sprintf("Password must be at most %d bytes long", maxPasswordBytes)}
	// ErrInvalidEmail rejects malformed email addresses.
	ErrInvalidEmail = &ValidationError{Message: "Email address is invalid"}
)

// ValidationError is a user-correctable input problem.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// PersistenceError wraps a storage failure. Its detail is for server logs.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
