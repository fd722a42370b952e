// Package credsqlite implements the credential store on an embedded SQLite
// database, the durable per-device analogue of the browser's localStorage.
package credsqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/pressly/goose/v3"
	"go.opentelemetry.io/otel/metric"

	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	slogctx "github.com/veqryn/slog-context"

	// Register the sqlite driver
	_ "modernc.org/sqlite"

	"github.com/openmall/storefront-auth/internal/autherr"
	"github.com/openmall/storefront-auth/internal/credstore"
	migrations "github.com/openmall/storefront-auth/sql"
)

const (
	driverName   = "sqlite"
	gooseDialect = "sqlite3"
)

type Store struct {
	db    *sql.DB
	stats metric.Registration
}

var _ = credstore.Store(&Store{})

// Open opens (creating if necessary) the database at path, applies pending
// migrations and registers DB stats metrics.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := otelsql.Open(driverName, dsn, otelsql.WithAttributes(semconv.DBSystemNameSQLite))
	if err != nil {
		return nil, fmt.Errorf("opening DB connection: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	stats, err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(semconv.DBSystemNameSQLite))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("registering db stats metrics: %w", err)
	}

	return &Store{db: db, stats: stats}, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if err := s.stats.Unregister(); err != nil {
		slogctx.Error(ctx, "failed to unregister db stats metrics", "error", err)
	}

	return s.db.Close()
}

func (s *Store) Put(ctx context.Context, key, value string) error {
	return s.put(ctx, key, value, nil)
}

func (s *Store) PutTransient(ctx context.Context, key, value string, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).UnixMilli()
	return s.put(ctx, key, value, &expiresAt)
}

func (s *Store) put(ctx context.Context, key, value string, expiresAt *int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at;`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("upserting credential: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM credentials WHERE key = ?;`, key)

	var value string
	var expiresAt sql.NullInt64
	if err := row.Scan(&value, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", autherr.ErrNotFound
		}

		return "", fmt.Errorf("scanning credential: %w", err)
	}

	if expiresAt.Valid && time.Now().UnixMilli() > expiresAt.Int64 {
		// Lapsed transient entry; drop it eagerly so it cannot be replayed.
		if err := s.Remove(ctx, key); err != nil {
			slogctx.Error(ctx, "failed to remove lapsed credential", "key", key, "error", err)
		}

		return "", autherr.ErrNotFound
	}

	return value, nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?;`, key); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}

	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials;`); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}

	return nil
}
