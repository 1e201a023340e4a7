package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DefaultMaxConns is the pool size used when none is configured.
const DefaultMaxConns = 5

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL and pings it. When all maxConns connections
// are busy, further statements wait for a free one.
func Open(ctx context.Context, connStr string, maxConns int) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	s.SetMaxOpenConns(maxConns)
	s.SetMaxIdleConns(maxConns)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return &DB{sql: s}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping checks that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.sql.PingContext(ctx)
}

// Migration directions accepted by Migrate.
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
)

// Migrate runs the embedded goose migrations in the given direction.
func (d *DB) Migrate(ctx context.Context, direction string) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	var err error
	switch direction {
	case MigrateUp:
		err = goose.UpContext(ctx, d.sql, "migrations")
	case MigrateDown:
		err = goose.DownContext(ctx, d.sql, "migrations")
	case MigrateStatus:
		err = goose.StatusContext(ctx, d.sql, "migrations")
	default:
		return errors.New("unknown migration direction " + direction)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	return nil
}
