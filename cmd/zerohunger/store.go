package main

import (
	"context"
	"fmt"

	"zerohunger/internal/adapter/memory"
	"zerohunger/internal/adapter/postgres"
	"zerohunger/internal/config"
	"zerohunger/internal/domain"
)

// store bundles the repositories of one backend.
type store struct {
	users     domain.UserRepository
	sessions  domain.SessionRepository
	resources domain.ResourceRepository
	ping      func(ctx context.Context) error
	close     func() error
	pg        *postgres.DB
}

func (s *store) Ping(ctx context.Context) error { return s.ping(ctx) }

func openStore(ctx context.Context, cfg config.Config) (*store, error) {
	switch cfg.Store {
	case "memory":
		db := memory.New()
		return &store{
			users:     db,
			sessions:  db.NewSessionRepo(),
			resources: db,
			ping:      db.Ping,
			close:     db.Close,
		}, nil
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DB.DSN(), cfg.DB.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return &store{
			users:     db,
			sessions:  postgres.NewSessionRepo(db),
			resources: db,
			ping:      db.Ping,
			close:     db.Close,
			pg:        db,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// migrate applies pending migrations. The memory store needs none.
func (s *store) migrate(ctx context.Context) error {
	if s.pg == nil {
		return nil
	}
	return s.pg.Migrate(ctx, postgres.MigrateUp)
}
