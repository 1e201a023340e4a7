// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"zerohunger/internal/domain"
)

const userColumns = "u.id, u.username, u.email, u.password_hash, u.full_name, u.role, u.is_active, u.last_login, u.created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		role      string
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &role, &u.IsActive, &lastLogin, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

// CreateUser creates a new user.
func (d *DB) CreateUser(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"INSERT INTO users AS u (username, email, password_hash, full_name, role) VALUES ($1, $2, $3, $4, $5) RETURNING "+userColumns,
		nu.Username, nu.Email, nu.PasswordHash, nu.FullName, string(nu.Role),
	))
	if err != nil {
		return nil, storeError("create user", err)
	}
	return u, nil
}

// FindActiveByLogin retrieves an active user by username or email. A username
// match wins over an email match.
func (d *DB) FindActiveByLogin(ctx context.Context, login string) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u WHERE (u.username = $1 OR LOWER(u.email) = LOWER($1)) AND u.is_active ORDER BY (u.username = $1) DESC LIMIT 1",
		login,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find user", err)
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u WHERE u.id = $1",
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get user", err)
	}
	return u, nil
}

// TouchLastLogin records the user's last login time.
func (d *DB) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := d.sql.ExecContext(ctx, "UPDATE users SET last_login = $1 WHERE id = $2", at.UTC(), id)
	return storeError("touch last login", err)
}

// SessionRepo implements session repository operations on DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create inserts a new session. It never replaces an existing row.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		s.ID, s.UserID, s.ExpiresAt.UTC(), s.CreatedAt.UTC(),
	)
	return storeError("create session", err)
}

// FindUser returns the active owner of an unexpired session.
func (r *SessionRepo) FindUser(ctx context.Context, id string, now time.Time) (*domain.User, error) {
	u, err := scanUser(r.db.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM sessions s JOIN users u ON u.id = s.user_id WHERE s.id = $1 AND s.expires_at > $2 AND u.is_active",
		id, now.UTC(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find session", err)
	}
	return u, nil
}

// Delete deletes a session by id.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id)
	return storeError("delete session", err)
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= $1", now.UTC())
	if err != nil {
		return 0, storeError("delete expired sessions", err)
	}
	return res.RowsAffected()
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.ResourceRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)
