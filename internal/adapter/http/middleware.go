package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"zerohunger/internal/app"
	"zerohunger/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

// userFromContext returns the user attached by requireRole.
func userFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userContextKey).(*domain.User)
	return u
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
		if s.metrics != nil {
			s.metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		}
	})
}

// requireRole admits only requests whose session belongs to a user holding role.
func (s *Server) requireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			u, err := s.auth.Authorize(r.Context(), token, role)
			switch {
			case errors.Is(err, app.ErrNotAuthenticated):
				writeError(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			case errors.Is(err, app.ErrForbidden):
				writeError(w, http.StatusForbidden, "Insufficient privileges")
				return
			case err != nil:
				s.writeServerError(w, r, "Session validation failed", err)
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
