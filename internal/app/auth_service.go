// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"zerohunger/internal/domain"
)

// AuthResult is a user together with the session issued for them.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Registration is the input to AuthService.Register.
type Registration struct {
	Username string
	Email    string
	Password string
	FullName string
}

// ExternalIdentity is a user asserted by a single sign-on provider.
type ExternalIdentity struct {
	Subject           string
	Email             string
	EmailVerified     bool
	Name              string
	PreferredUsername string
}

// AuthService handles registration, login and session lifecycle.
type AuthService struct {
	creds    *CredentialStore
	sessions *SessionManager
	log      zerolog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(creds *CredentialStore, sessions *SessionManager, logger zerolog.Logger) *AuthService {
	return &AuthService{
		creds:    creds,
		sessions: sessions,
		log:      logger,
	}
}

// SessionTTL returns the lifetime of issued sessions.
func (s *AuthService) SessionTTL() time.Duration { return s.sessions.TTL() }

// Register creates an account and a session for it. When the account is
// stored but the session is not, the user is returned alongside an error
// wrapping ErrSessionNotIssued.
func (s *AuthService) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	u, err := s.creds.CreateUser(ctx, NewAccount{
		Username: strings.TrimSpace(reg.Username),
		Email:    strings.TrimSpace(reg.Email),
		Password: reg.Password,
		FullName: strings.TrimSpace(reg.FullName),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("user registered")

	token, expiresAt, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return &AuthResult{User: u}, err
	}
	return &AuthResult{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

// Login authenticates a user and creates a session.
func (s *AuthService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	u, err := s.creds.VerifyCredentials(ctx, strings.TrimSpace(login), password)
	if err != nil {
		return nil, err
	}

	s.creds.TouchLastLogin(ctx, u.ID)

	token, expiresAt, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return &AuthResult{User: u}, err
	}
	return &AuthResult{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

// Logout invalidates a session. It is safe to call with any token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// WhoAmI resolves a session token to its user, or ErrNotAuthenticated.
func (s *AuthService) WhoAmI(ctx context.Context, token string) (*domain.User, error) {
	u, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotAuthenticated
	}
	return u, nil
}

// Authorize resolves token and requires the user to hold role.
func (s *AuthService) Authorize(ctx context.Context, token string, role domain.Role) (*domain.User, error) {
	u, err := s.WhoAmI(ctx, token)
	if err != nil {
		return nil, err
	}
	if u.Role != role {
		return nil, ErrForbidden
	}
	return u, nil
}

// LoginExternal creates a session for a user authenticated by an SSO
// provider, provisioning an account on first sight. Provisioned accounts get
// an unusable random password.
func (s *AuthService) LoginExternal(ctx context.Context, id ExternalIdentity) (*AuthResult, error) {
	if id.Email == "" || !id.EmailVerified {
		return nil, ErrInvalidCredentials
	}

	u, err := s.findActive(ctx, id.Email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		u, err = s.provision(ctx, id)
		if errors.Is(err, ErrDuplicateIdentity) {
			// Lost a race with a concurrent first login, or the username is
			// taken by an inactive account.
			u, err = s.findActive(ctx, id.Email)
			if err == nil && u == nil {
				err = ErrInvalidCredentials
			}
		}
		if err != nil {
			return nil, err
		}
	}

	s.creds.TouchLastLogin(ctx, u.ID)

	token, expiresAt, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return &AuthResult{User: u}, err
	}
	return &AuthResult{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) findActive(ctx context.Context, login string) (*domain.User, error) {
	sctx, cancel := storeContext(ctx)
	defer cancel()
	u, err := s.creds.users.FindActiveByLogin(sctx, login)
	if err != nil {
		return nil, persistence("find user", err)
	}
	return u, nil
}

func (s *AuthService) provision(ctx context.Context, id ExternalIdentity) (*domain.User, error) {
	username := id.PreferredUsername
	if username == "" {
		username, _, _ = strings.Cut(id.Email, "@")
	}
	password, err := randomPassword()
	if err != nil {
		return nil, err
	}
	u, err := s.creds.CreateUser(ctx, NewAccount{
		Username: username,
		Email:    id.Email,
		Password: password,
		FullName: id.Name,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", u.ID).Str("subject", id.Subject).Msg("user provisioned from sso")
	return u, nil
}

func randomPassword() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawStdEncoding.EncodeToString(b), nil
}
