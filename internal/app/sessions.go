package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"zerohunger/internal/domain"
)

// DefaultSessionTTL is the fixed lifetime of a session. Sessions are not
// renewed on activity.
const DefaultSessionTTL = 7 * 24 * time.Hour

const (
	tokenBytes       = 32
	maxTokenLength   = 128
	maxCreateRetries = 3
)

// SessionManager issues, validates and revokes session tokens.
type SessionManager struct {
	repo     domain.SessionRepository
	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

// NewSessionManager creates a SessionManager whose sessions live for ttl.
func NewSessionManager(repo domain.SessionRepository, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{repo: repo, ttl: ttl, now: time.Now, newToken: generateToken}
}

// TTL returns the session lifetime.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Create stores a new session for userID and returns its token and expiry.
func (m *SessionManager) Create(ctx context.Context, userID int64) (string, time.Time, error) {
	ctx, cancel := storeContext(ctx)
	defer cancel()

	var lastErr error
	for range maxCreateRetries {
		token, err := m.newToken()
		if err != nil {
			return "", time.Time{}, persistence("generate session token", fmt.Errorf("%w: %w", ErrSessionNotIssued, err))
		}
		now := m.now()
		s := domain.Session{ID: token, UserID: userID, ExpiresAt: now.Add(m.ttl), CreatedAt: now}
		err = m.repo.Create(ctx, s)
		if err == nil {
			return token, s.ExpiresAt, nil
		}
		lastErr = err
		if !domain.IsDuplicate(err) {
			break
		}
	}
	return "", time.Time{}, persistence("create session", fmt.Errorf("%w: %w", ErrSessionNotIssued, lastErr))
}

// Validate returns the user owning token, or nil when the token is empty,
// malformed, unknown, expired, or owned by an inactive user. An error is
// returned only when the store cannot answer.
func (m *SessionManager) Validate(ctx context.Context, token string) (*domain.User, error) {
	if !wellFormedToken(token) {
		return nil, nil
	}
	ctx, cancel := storeContext(ctx)
	defer cancel()
	u, err := m.repo.FindUser(ctx, token, m.now())
	if err != nil {
		return nil, persistence("validate session", err)
	}
	return u, nil
}

// Delete revokes token. Revoking an unknown token succeeds.
func (m *SessionManager) Delete(ctx context.Context, token string) error {
	if !wellFormedToken(token) {
		return nil
	}
	ctx, cancel := storeContext(ctx)
	defer cancel()
	if err := m.repo.Delete(ctx, token); err != nil {
		return persistence("delete session", err)
	}
	return nil
}

// PruneExpired removes sessions that have already expired.
func (m *SessionManager) PruneExpired(ctx context.Context) (int64, error) {
	ctx, cancel := storeContext(ctx)
	defer cancel()
	n, err := m.repo.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, persistence("prune sessions", err)
	}
	return n, nil
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// wellFormedToken accepts base64url text of bounded length. Anything else
// cannot have been issued here.
func wellFormedToken(token string) bool {
	if token == "" || len(token) > maxTokenLength {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
