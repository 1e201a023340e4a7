// Package config loads runtime configuration from the environment.
package config

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the server and CLI.
type Config struct {
	Addr      string `env:"ADDR,default=:3000"`
	Env       string `env:"APP_ENV,default=production"`
	PublicDir string `env:"PUBLIC_DIR,default=public"`
	Store     string `env:"STORE,default=postgres"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`

	DB DBConfig

	SessionTTL         time.Duration `env:"SESSION_TTL,default=168h"`
	BcryptCost         int           `env:"BCRYPT_COST,default=10"`
	CookieSecure       bool          `env:"COOKIE_SECURE,default=false"`
	AllowedOrigins     []string      `env:"CORS_ALLOWED_ORIGINS,default=*"`
	AuthRateLimit      int           `env:"AUTH_RATE_LIMIT,default=30"`
	ResourcesAdminOnly bool          `env:"RESOURCES_ADMIN_ONLY,default=false"`
	TrustProxyHeaders  bool          `env:"TRUST_PROXY_HEADERS,default=false"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	OIDC OIDCConfig
}

// DBConfig locates the relational store.
type DBConfig struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST,default=127.0.0.1"`
	Port     int    `env:"DB_PORT,default=5432"`
	User     string `env:"DB_USER,default=postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME,default=zerohunger"`
	SSLMode  string `env:"DB_SSLMODE,default=disable"`
	MaxConns int    `env:"DB_MAX_CONNS,default=5"`
}

// OIDCConfig configures optional single sign-on.
type OIDCConfig struct {
	Issuer       string `env:"OIDC_ISSUER"`
	ClientID     string `env:"OIDC_CLIENT_ID"`
	ClientSecret string `env:"OIDC_CLIENT_SECRET"`
	RedirectURL  string `env:"OIDC_REDIRECT_URL"`
}

// Enabled reports whether every SSO setting is present.
func (o OIDCConfig) Enabled() bool {
	return o.Issuer != "" && o.ClientID != "" && o.ClientSecret != "" && o.RedirectURL != ""
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: STORE must be postgres or memory, got %q", c.Store)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	if c.AuthRateLimit <= 0 {
		return fmt.Errorf("config: AUTH_RATE_LIMIT must be positive")
	}
	return nil
}

// IsDevelopment reports whether error details may be shown to clients.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// DSN returns the Postgres connection string, preferring DATABASE_URL.
func (d DBConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	return u.String()
}
