package adapthttp

import (
	"context"
	"errors"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"zerohunger/internal/app"
)

const (
	stateCookieName = "oauth_state"
	nonceCookieName = "oauth_nonce"
	ssoCookieMaxAge = 300
)

// SSO holds the OpenID Connect client used for single sign-on.
type SSO struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewSSO discovers the provider at issuer and configures the client.
func NewSSO(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*SSO, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	return &SSO{
		oauth: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (s *Server) handleSSOConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sso_enabled": s.sso != nil})
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if s.sso == nil {
		writeError(w, http.StatusNotFound, "SSO is not enabled")
		return
	}
	state := uuid.NewString()
	nonce := uuid.NewString()
	s.setSSOCookie(w, stateCookieName, state, ssoCookieMaxAge)
	s.setSSOCookie(w, nonceCookieName, nonce, ssoCookieMaxAge)
	http.Redirect(w, r, s.sso.oauth.AuthCodeURL(state, oidc.Nonce(nonce)), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if s.sso == nil {
		writeError(w, http.StatusNotFound, "SSO is not enabled")
		return
	}

	q := r.URL.Query()
	state, err := r.Cookie(stateCookieName)
	if err != nil || state.Value == "" || q.Get("state") != state.Value {
		writeError(w, http.StatusBadRequest, "Invalid SSO state")
		return
	}
	nonce, err := r.Cookie(nonceCookieName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid SSO state")
		return
	}
	s.setSSOCookie(w, stateCookieName, "", -1)
	s.setSSOCookie(w, nonceCookieName, "", -1)

	if e := q.Get("error"); e != "" {
		s.metrics.Auth("sso", "denied")
		writeError(w, http.StatusUnauthorized, "SSO login was denied")
		return
	}

	token, err := s.sso.oauth.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		s.metrics.Auth("sso", "error")
		s.writeServerError(w, r, "SSO token exchange failed", err)
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		s.metrics.Auth("sso", "error")
		s.writeServerError(w, r, "SSO token exchange failed", errors.New("no id_token in token response"))
		return
	}
	idToken, err := s.sso.verifier.Verify(r.Context(), rawIDToken)
	if err != nil || idToken.Nonce != nonce.Value {
		s.metrics.Auth("sso", "invalid")
		writeError(w, http.StatusUnauthorized, "SSO token could not be verified")
		return
	}

	var claims struct {
		Email             string `json:"email"`
		EmailVerified     bool   `json:"email_verified"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		s.metrics.Auth("sso", "invalid")
		writeError(w, http.StatusUnauthorized, "SSO token could not be verified")
		return
	}

	res, err := s.auth.LoginExternal(r.Context(), app.ExternalIdentity{
		Subject:           idToken.Subject,
		Email:             claims.Email,
		EmailVerified:     claims.EmailVerified,
		Name:              claims.Name,
		PreferredUsername: claims.PreferredUsername,
	})
	switch {
	case err == nil:
	case errors.Is(err, app.ErrInvalidCredentials):
		s.metrics.Auth("sso", "invalid")
		writeError(w, http.StatusUnauthorized, "SSO account has no verified email or is disabled")
		return
	case errors.Is(err, app.ErrSessionNotIssued):
		s.metrics.Auth("sso", "session_error")
		s.writeServerError(w, r, "Login successful but session creation failed", err)
		return
	default:
		s.metrics.Auth("sso", "error")
		s.writeServerError(w, r, "SSO login failed", err)
		return
	}

	s.metrics.Auth("sso", "success")
	s.metrics.SessionIssued()
	s.setSessionCookie(w, res.Token, res.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) setSSOCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/api/auth/sso",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		// Lax so the cookie survives the provider's cross-site redirect.
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}
