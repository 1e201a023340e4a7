// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"zerohunger/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu        sync.Mutex
	users     []*domain.User
	sessions  map[string]*domain.Session
	resources []domain.Resource

	userIDCounter     int64
	resourceIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.ResourceRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// Ping always succeeds.
func (db *DB) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (db *DB) Close() error { return nil }

// --- UserRepository ---

// CreateUser creates a new user, enforcing unique usernames and emails.
func (db *DB) CreateUser(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == nu.Username || strings.EqualFold(u.Email, nu.Email) {
			return nil, &domain.StoreError{Kind: domain.KindDuplicate, Op: "create user"}
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     nu.Username,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		FullName:     nu.FullName,
		Role:         nu.Role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return copyUser(u), nil
}

// FindActiveByLogin finds an active user by username, falling back to email.
func (db *DB) FindActiveByLogin(ctx context.Context, login string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.IsActive && u.Username == login {
			return copyUser(u), nil
		}
	}
	for _, u := range db.users {
		if u.IsActive && strings.EqualFold(u.Email, login) {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if u := db.userByID(id); u != nil {
		return copyUser(u), nil
	}
	return nil, nil
}

// TouchLastLogin sets the user's last login time.
func (db *DB) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if u := db.userByID(id); u != nil {
		t := at.UTC()
		u.LastLogin = &t
	}
	return nil
}

// SetActive toggles a user's active flag. Used by admin tooling and tests.
func (db *DB) SetActive(id int64, active bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if u := db.userByID(id); u != nil {
		u.IsActive = active
	}
}

// UserCount returns the number of stored users.
func (db *DB) UserCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users)
}

func (db *DB) userByID(id int64) *domain.User {
	for _, u := range db.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}

// --- ResourceRepository ---

// CreateResource stores a resource listing.
func (db *DB) CreateResource(ctx context.Context, r domain.Resource) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.resourceIDCounter++
	r.ID = db.resourceIDCounter
	r.SubmittedAt = r.SubmittedAt.UTC()
	db.resources = append(db.resources, r)
	return r.ID, nil
}

// ListResources lists the most recent resources.
func (db *DB) ListResources(ctx context.Context, limit int) ([]domain.Resource, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.Resource, len(db.resources))
	copy(result, db.resources)

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].SubmittedAt.Equal(result[j].SubmittedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].SubmittedAt.After(result[j].SubmittedAt)
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.sessions[s.ID]; ok {
		return &domain.StoreError{Kind: domain.KindDuplicate, Op: "create session"}
	}
	if r.db.userByID(s.UserID) == nil {
		return &domain.StoreError{Kind: domain.KindConstraintViolation, Op: "create session"}
	}
	r.db.sessions[s.ID] = &s
	return nil
}

// FindUser returns the active owner of an unexpired session.
func (r *SessionRepo) FindUser(ctx context.Context, id string, now time.Time) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[id]
	if !ok || !s.ExpiresAt.After(now) {
		return nil, nil
	}
	u := r.db.userByID(s.UserID)
	if u == nil || !u.IsActive {
		return nil, nil
	}
	return copyUser(u), nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, id)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for k, v := range r.db.sessions {
		if !v.ExpiresAt.After(now) {
			delete(r.db.sessions, k)
			n++
		}
	}
	return n, nil
}

// SessionCount returns the number of stored sessions, expired or not.
func (r *SessionRepo) SessionCount() int {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.sessions)
}
