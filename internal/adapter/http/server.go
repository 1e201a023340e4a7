package adapthttp

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"zerohunger/internal/app"
	"zerohunger/internal/domain"
	"zerohunger/internal/telemetry"
)

// Options tunes the HTTP adapter.
type Options struct {
	// Development exposes error details in 500 responses.
	Development bool
	// SecureCookies sets the Secure flag on cookies.
	SecureCookies bool
	// AllowedOrigins for CORS. Empty means "*".
	AllowedOrigins []string
	// AuthRateLimit is the number of auth requests allowed per client IP per
	// minute. Zero disables the limit.
	AuthRateLimit int
	// ResourcesAdminOnly restricts the resource listing to admins.
	ResourcesAdminOnly bool
	// TrustProxyHeaders takes the client IP from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth      *app.AuthService
	resources *app.ResourceService
	webDir    string
	opts      Options

	log     zerolog.Logger
	metrics *telemetry.Metrics
	health  Pinger
	sso     *SSO
}

// New creates a Server wired to the given application services.
func New(auth *app.AuthService, resources *app.ResourceService, webDir string, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{auth: auth, resources: resources, webDir: webDir, opts: opts, log: zerolog.Nop()}
}

// WithLogger sets the request and error logger.
func (s *Server) WithLogger(l zerolog.Logger) *Server {
	s.log = l
	return s
}

// WithMetrics records request metrics and serves them on /metrics.
func (s *Server) WithMetrics(m *telemetry.Metrics) *Server {
	s.metrics = m
	return s
}

// WithHealth makes /api/health check p.
func (s *Server) WithHealth(p Pinger) *Server {
	s.health = p
	return s
}

// WithSSO enables the single sign-on routes.
func (s *Server) WithSSO(sso *SSO) *Server {
	s.sso = sso
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	static := newStaticHandler(s.webDir, s.log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         preflightMaxAge,
	}))
	r.Use(s.preflight)

	// Anything the routes below do not match is a static asset request.
	r.NotFound(static.ServeHTTP)
	r.MethodNotAllowed(static.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(withNoCache)

		r.Get("/api/health", s.handleHealth)

		r.Post("/api/resources", s.handleResourceCreate)
		if s.opts.ResourcesAdminOnly {
			r.With(s.requireRole(domain.RoleAdmin)).Get("/api/resources", s.handleResourceList)
		} else {
			r.Get("/api/resources", s.handleResourceList)
		}

		r.Post("/api/auth/logout", s.handleLogout)
		r.Get("/api/auth/me", s.handleMe)
		r.Get("/api/auth/sso/config", s.handleSSOConfig)

		// Only routes that issue sessions are limited. Logout and me must
		// keep their contracts for a client that hit the limit.
		r.Group(func(r chi.Router) {
			if s.opts.AuthRateLimit > 0 {
				r.Use(httprate.Limit(s.opts.AuthRateLimit, time.Minute,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(rateLimited)))
			}
			r.Post("/api/auth/register", s.handleRegister)
			r.Post("/api/auth/login", s.handleLogin)
			r.Get("/api/auth/sso/login", s.handleSSOLogin)
			r.Get("/api/auth/sso/callback", s.handleSSOCallback)
		})
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return r
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.log.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
