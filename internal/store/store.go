// Package store provides the SQLite storage context shared by every
// component that persists state. It owns the connection pool, the schema
// bootstrap, and the additive column migrator that runs on startup.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/martinslog/integra-backend/internal/config"
)

// Store wraps a pooled sqlx.DB connection to the SQLite database.
// It is created once at process start and injected into every component
// that needs persistence; there is no ambient global handle.
type Store struct {
	db *sqlx.DB
}

// Open creates or opens the SQLite database described by cfg.
// Parent directories are created when missing, the schema is created
// if absent, and the additive column migrator runs before Open returns.
// Any migration error is fatal to startup by design of the caller.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		return nil, errors.New("sqlite path required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	busy := int(cfg.BusyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=1&_journal_mode=WAL", path, busy)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	pingTimeout := cfg.BusyTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sqlx.DB for read paths.
func (s *Store) DB() *sqlx.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on any error. Every mutating request uses exactly one of these
// scopes so no partial write is ever visible.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
