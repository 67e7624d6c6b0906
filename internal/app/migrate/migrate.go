// Package migrate keeps the CMS schema in step with db/migrations.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const opTimeout = time.Minute

// Migrator applies goose SQL migrations for the users and articles schema.
// goose wants a database/sql handle, so each operation opens a short-lived
// pgx stdlib connection next to the pool the services run on.
type Migrator struct {
	pool *pgxpool.Pool
	dsn  string
	dir  string
	log  *slog.Logger
}

// New validates the migration source and returns a Migrator.
func New(pool *pgxpool.Pool, dsn, dir string, log *slog.Logger) (*Migrator, error) {
	switch {
	case pool == nil:
		return nil, errors.New("migrate: nil pool")
	case dsn == "":
		return nil, errors.New("migrate: empty dsn")
	case dir == "":
		return nil, errors.New("migrate: empty migrations dir")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrate: locate %s: %w", dir, err)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("migrate: set dialect: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Migrator{pool: pool, dsn: dsn, dir: dir, log: log}, nil
}

// Ensure brings the schema up to the latest version.
func (m *Migrator) Ensure(ctx context.Context) error {
	return m.withConn(func(db *sql.DB) error {
		runCtx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()

		m.log.Info("ensuring schema", "dir", m.dir)
		if err := goose.UpContext(runCtx, db, m.dir); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		m.log.Info("schema up to date")
		return nil
	})
}

// Status prints which migrations are applied and which are pending.
func (m *Migrator) Status(ctx context.Context) error {
	return m.withConn(func(db *sql.DB) error {
		if err := goose.Status(db, m.dir); err != nil {
			return fmt.Errorf("migrate status: %w", err)
		}
		return nil
	})
}

// Down rolls back one migration, or down to target when target > 0.
func (m *Migrator) Down(ctx context.Context, target int64) error {
	return m.withConn(func(db *sql.DB) error {
		runCtx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()

		if target > 0 {
			m.log.Info("rolling schema back", "target", target)
			if err := goose.DownToContext(runCtx, db, m.dir, target); err != nil {
				return fmt.Errorf("migrate down to %d: %w", target, err)
			}
			return nil
		}
		m.log.Info("rolling back last migration")
		if err := goose.DownContext(runCtx, db, m.dir); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		return nil
	})
}

// Ping verifies the service pool can reach the database.
func (m *Migrator) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.pool.Ping(ctx); err != nil {
		return fmt.Errorf("migrate: ping: %w", err)
	}
	return nil
}

// Close releases the service pool.
func (m *Migrator) Close() {
	m.pool.Close()
}

func (m *Migrator) withConn(fn func(*sql.DB) error) error {
	db, err := sql.Open("pgx", m.dsn)
	if err != nil {
		return fmt.Errorf("migrate: open connection: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("migrate: ping connection: %w", err)
	}
	return fn(db)
}
