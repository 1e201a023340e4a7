// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"errors"
	"net/http"
	"strings"

	"zerohunger/internal/app"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email, and password are required")
		return
	}

	res, err := s.auth.Register(r.Context(), app.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	var verr *app.ValidationError
	switch {
	case err == nil:
	case errors.Is(err, app.ErrSessionNotIssued):
		s.metrics.Auth("register", "session_error")
		s.writeServerError(w, r, "Registration successful but session creation failed", err)
		return
	case errors.Is(err, app.ErrDuplicateIdentity):
		s.metrics.Auth("register", "duplicate")
		writeError(w, http.StatusBadRequest, "Username or email already exists")
		return
	case errors.As(err, &verr):
		s.metrics.Auth("register", "invalid")
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	default:
		s.metrics.Auth("register", "error")
		s.writeServerError(w, r, "Registration failed", err)
		return
	}

	s.metrics.Auth("register", "success")
	s.metrics.SessionIssued()
	s.setSessionCookie(w, res.Token, res.ExpiresAt)

	u := res.User.Public()
	u.Role = ""
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "User registered successfully",
		"user":    u,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	res, err := s.auth.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, app.ErrInvalidCredentials):
		s.metrics.Auth("login", "invalid")
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	case errors.Is(err, app.ErrSessionNotIssued):
		s.metrics.Auth("login", "session_error")
		s.writeServerError(w, r, "Login successful but session creation failed", err)
		return
	default:
		s.metrics.Auth("login", "error")
		s.writeServerError(w, r, "Login failed", err)
		return
	}

	s.metrics.Auth("login", "success")
	s.metrics.SessionIssued()
	s.setSessionCookie(w, res.Token, res.ExpiresAt)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"user":    res.User.Public(),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.auth.Logout(r.Context(), token); err != nil {
			s.log.Error().Err(err).Msg("logout: session delete failed")
		}
	}
	s.metrics.Auth("logout", "success")
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	u, err := s.auth.WhoAmI(r.Context(), token)
	if errors.Is(err, app.ErrNotAuthenticated) {
		s.clearSessionCookie(w)
		writeError(w, http.StatusUnauthorized, "Invalid or expired session")
		return
	}
	if err != nil {
		s.writeServerError(w, r, "Session validation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": u.Public()})
}
