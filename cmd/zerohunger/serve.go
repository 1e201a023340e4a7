package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	adapthttp "zerohunger/internal/adapter/http"
	"zerohunger/internal/app"
	"zerohunger/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), e)
		},
	}
}

func serve(ctx context.Context, e *env) error {
	cfg, log := e.cfg, e.log

	shutdownTracing, err := telemetry.InitTracing(ctx, "zerohunger", cfg.OTLPEndpoint, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()
	if err := st.migrate(ctx); err != nil {
		return err
	}

	creds := app.NewCredentialStore(st.users, cfg.BcryptCost, log)
	sessions := app.NewSessionManager(st.sessions, cfg.SessionTTL)
	authSvc := app.NewAuthService(creds, sessions, log)
	resourceSvc := app.NewResourceService(st.resources)

	srv := adapthttp.New(authSvc, resourceSvc, cfg.PublicDir, adapthttp.Options{
		Development:        cfg.IsDevelopment(),
		SecureCookies:      cfg.CookieSecure,
		AllowedOrigins:     cfg.AllowedOrigins,
		AuthRateLimit:      cfg.AuthRateLimit,
		ResourcesAdminOnly: cfg.ResourcesAdminOnly,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
	}).
		WithLogger(log).
		WithMetrics(telemetry.NewMetrics()).
		WithHealth(st)

	if cfg.OIDC.Enabled() {
		sso, err := adapthttp.NewSSO(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return err
		}
		srv.WithSSO(sso)
		log.Info().Str("issuer", cfg.OIDC.Issuer).Msg("sso enabled")
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(srv.Handler(), "zerohunger"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("store", cfg.Store).Str("env", cfg.Env).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(sctx)
}
