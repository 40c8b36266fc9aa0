package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is a persistent Store backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path and
// initialises the schema. Use ":memory:" for an in-memory SQLite database.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cardvault/kv: open sqlite: %w", err)
	}

	// Each pooled connection to ":memory:" would be its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cardvault_kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cardvault/kv: create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get returns the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM cardvault_kv WHERE key = ?`, key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cardvault/kv: get %s: %w", key, err)
	}
	return value, nil
}

// Put stores value under key.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	return s.Write(ctx, new(Batch).Put(key, value))
}

// Delete removes the given keys.
func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) error {
	b := new(Batch)
	for _, k := range keys {
		b.Delete(k)
	}
	return s.Write(ctx, b)
}

// Write applies the batch inside a single transaction.
func (s *SQLiteStore) Write(ctx context.Context, b *Batch) error {
	if b.Len() == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cardvault/kv: begin: %w", err)
	}
	defer tx.Rollback()

	for _, op := range b.Ops() {
		if op.Delete() {
			_, err = tx.ExecContext(ctx, `DELETE FROM cardvault_kv WHERE key = ?`, op.Key)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO cardvault_kv (key, value, updated_at)
				VALUES (?, ?, strftime('%s', 'now'))
				ON CONFLICT(key) DO UPDATE SET
					value = excluded.value,
					updated_at = excluded.updated_at`,
				op.Key, op.Value,
			)
		}
		if err != nil {
			return fmt.Errorf("cardvault/kv: write %s: %w", op.Key, err)
		}
	}

	return tx.Commit()
}

// Close closes the underlying SQLite database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
