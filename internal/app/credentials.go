package app

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"zerohunger/internal/domain"
)

// MinPasswordLength is the shortest password accepted at registration, in
// characters.
const MinPasswordLength = 6

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// NewAccount is the input to CredentialStore.CreateUser.
type NewAccount struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     domain.Role
}

// CredentialStore owns user records and password hashes.
type CredentialStore struct {
	users domain.UserRepository
	cost  int
	log   zerolog.Logger
	now   func() time.Time

	// dummyHash is compared against when no user matches, so a miss costs
	// the same bcrypt work as a wrong password.
	dummyHash []byte
}

// NewCredentialStore creates a CredentialStore hashing with the given bcrypt cost.
func NewCredentialStore(users domain.UserRepository, cost int, logger zerolog.Logger) *CredentialStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("no-such-user"), cost)
	if err != nil {
		// Only reachable when crypto/rand fails.
		panic(err)
	}
	return &CredentialStore{users: users, cost: cost, log: logger, now: time.Now, dummyHash: dummy}
}

// CreateUser validates, hashes and stores a new account.
func (c *CredentialStore) CreateUser(ctx context.Context, acct NewAccount) (*domain.User, error) {
	if utf8.RuneCountInString(acct.Password) < MinPasswordLength {
		return nil, ErrWeakCredential
	}
	if len(acct.Password) > maxPasswordBytes {
		return nil, ErrLongCredential
	}
	if _, err := mail.ParseAddress(acct.Email); err != nil || strings.ContainsAny(acct.Email, " <>") {
		return nil, ErrInvalidEmail
	}
	role := acct.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, &ValidationError{Message: "unknown role " + string(role)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(acct.Password), c.cost)
	if err != nil {
		return nil, err
	}

	ctx, cancel := storeContext(ctx)
	defer cancel()
	u, err := c.users.CreateUser(ctx, domain.NewUser{
		Username:     acct.Username,
		Email:        acct.Email,
		PasswordHash: string(hash),
		FullName:     acct.FullName,
		Role:         role,
	})
	if domain.IsDuplicate(err) {
		return nil, ErrDuplicateIdentity
	}
	if err != nil {
		return nil, persistence("create user", err)
	}
	return u, nil
}

// CreateAdmin creates an account with the admin role.
func (c *CredentialStore) CreateAdmin(ctx context.Context, username, email, password string) (*domain.User, error) {
	return c.CreateUser(ctx, NewAccount{Username: username, Email: email, Password: password, Role: domain.RoleAdmin})
}

// VerifyCredentials returns the active user matching login (username or
// email) and password. Unknown identities and wrong passwords both yield
// ErrInvalidCredentials.
func (c *CredentialStore) VerifyCredentials(ctx context.Context, login, password string) (*domain.User, error) {
	sctx, cancel := storeContext(ctx)
	u, err := c.users.FindActiveByLogin(sctx, login)
	cancel()
	if err != nil {
		return nil, persistence("find user", err)
	}

	if u == nil {
		_ = bcrypt.CompareHashAndPassword(c.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			c.log.Warn().Err(err).Int64("user_id", u.ID).Msg("password comparison failed")
		}
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// TouchLastLogin records a login time. Failures are logged, never returned.
func (c *CredentialStore) TouchLastLogin(ctx context.Context, userID int64) {
	ctx, cancel := storeContext(ctx)
	defer cancel()
	if err := c.users.TouchLastLogin(ctx, userID, c.now()); err != nil {
		c.log.Warn().Err(err).Int64("user_id", userID).Msg("last login update failed")
	}
}
