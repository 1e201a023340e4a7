package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"zerohunger/internal/adapter/memory"
	"zerohunger/internal/domain"
)

func TestGenerateToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok, err := generateToken()
		if err != nil {
			t.Fatal(err)
		}
		if len(tok) != 43 {
			t.Errorf("token length = %d, want 43", len(tok))
		}
		if !wellFormedToken(tok) {
			t.Errorf("generated token %q is not well formed", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}

func TestWellFormedToken(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"abcXYZ019-_", true},
		{"", false},
		{"abc def", false},
		{"abc=", false},
		{"abc/def", false},
		{strings.Repeat("a", 128), true},
		{strings.Repeat("a", 129), false},
	}
	for _, tt := range tests {
		if got := wellFormedToken(tt.token); got != tt.want {
			t.Errorf("wellFormedToken(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestSessionManager_CreateRetriesDuplicate(t *testing.T) {
	attempts := 0
	repo := &mockSessionRepo{
		createFn: func(ctx context.Context, s domain.Session) error {
			attempts++
			if attempts < 3 {
				return &domain.StoreError{Kind: domain.KindDuplicate, Op: "create session"}
			}
			return nil
		},
	}
	m := NewSessionManager(repo, time.Hour)

	if _, _, err := m.Create(context.Background(), 1); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestSessionManager_CreateGivesUp(t *testing.T) {
	attempts := 0
	repo := &mockSessionRepo{
		createFn: func(ctx context.Context, s domain.Session) error {
			attempts++
			return &domain.StoreError{Kind: domain.KindDuplicate, Op: "create session"}
		},
	}
	m := NewSessionManager(repo, time.Hour)

	_, _, err := m.Create(context.Background(), 1)
	if !errors.Is(err, ErrSessionNotIssued) {
		t.Errorf("expected ErrSessionNotIssued, got %v", err)
	}
	if attempts != maxCreateRetries {
		t.Errorf("attempts = %d, want %d", attempts, maxCreateRetries)
	}
}

func TestSessionManager_CreateDoesNotRetryOtherErrors(t *testing.T) {
	attempts := 0
	repo := &mockSessionRepo{
		createFn: func(ctx context.Context, s domain.Session) error {
			attempts++
			return &domain.StoreError{Kind: domain.KindUnavailable, Op: "create session"}
		},
	}
	m := NewSessionManager(repo, time.Hour)

	if _, _, err := m.Create(context.Background(), 1); !errors.Is(err, ErrSessionNotIssued) {
		t.Errorf("expected ErrSessionNotIssued, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestSessionManager_TokenGenerationFailure(t *testing.T) {
	m := NewSessionManager(&mockSessionRepo{}, time.Hour)
	m.newToken = func() (string, error) { return "", errors.New("entropy exhausted") }

	if _, _, err := m.Create(context.Background(), 1); !errors.Is(err, ErrSessionNotIssued) {
		t.Errorf("expected ErrSessionNotIssued, got %v", err)
	}
}

func TestSessionManager_Expiry(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	u, err := db.CreateUser(ctx, domain.NewUser{Username: "bob", Email: "bob@example.com", PasswordHash: "x", Role: domain.RoleUser})
	if err != nil {
		t.Fatal(err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewSessionManager(db.NewSessionRepo(), DefaultSessionTTL)
	m.now = func() time.Time { return now }

	token, expiresAt, err := m.Create(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !expiresAt.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Errorf("expiresAt = %v", expiresAt)
	}

	tests := []struct {
		at    time.Time
		valid bool
	}{
		{now, true},
		{expiresAt.Add(-time.Second), true},
		{expiresAt, false},
		{expiresAt.Add(time.Hour), false},
	}
	for _, tt := range tests {
		now = tt.at
		got, err := m.Validate(ctx, token)
		if err != nil {
			t.Fatal(err)
		}
		if (got != nil) != tt.valid {
			t.Errorf("at %v: valid = %v, want %v", tt.at, got != nil, tt.valid)
		}
	}

	n, err := m.PruneExpired(ctx)
	if err != nil || n != 1 {
		t.Errorf("PruneExpired = %d, %v; want 1, nil", n, err)
	}
}

func TestSessionManager_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	u, _ := db.CreateUser(ctx, domain.NewUser{Username: "bob", Email: "bob@example.com", PasswordHash: "x", Role: domain.RoleUser})
	repo := db.NewSessionRepo()
	m := NewSessionManager(repo, time.Hour)

	token, _, err := m.Create(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := m.Delete(ctx, token); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
	}
	if repo.SessionCount() != 0 {
		t.Errorf("expected no sessions, got %d", repo.SessionCount())
	}
	if u, _ := m.Validate(ctx, token); u != nil {
		t.Error("deleted session still validates")
	}
}

func TestSessionManager_ValidateStoreFailure(t *testing.T) {
	repo := &mockSessionRepo{
		findUserFn: func(ctx context.Context, id string, now time.Time) (*domain.User, error) {
			return nil, &domain.StoreError{Kind: domain.KindUnavailable, Op: "find session"}
		},
	}
	m := NewSessionManager(repo, time.Hour)

	_, err := m.Validate(context.Background(), "sometoken")
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Errorf("expected PersistenceError, got %v", err)
	}
}

func TestSessionManager_StoreCallSurvivesCallerCancel(t *testing.T) {
	repo := &mockSessionRepo{
		createFn: func(ctx context.Context, s domain.Session) error {
			return ctx.Err()
		},
	}
	m := NewSessionManager(repo, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := m.Create(ctx, 1); err != nil {
		t.Errorf("expected create to ignore caller cancellation, got %v", err)
	}
}

func TestSessionManager_PruneSurvivesCallerCancel(t *testing.T) {
	var hadDeadline bool
	repo := &mockSessionRepo{
		deleteExpiredFn: func(ctx context.Context, now time.Time) (int64, error) {
			_, hadDeadline = ctx.Deadline()
			return 2, ctx.Err()
		},
	}
	m := NewSessionManager(repo, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := m.PruneExpired(ctx)
	if err != nil || n != 2 {
		t.Errorf("PruneExpired = %d, %v; want 2, nil", n, err)
	}
	if !hadDeadline {
		t.Error("expected the store call to be bounded by a deadline")
	}
}
