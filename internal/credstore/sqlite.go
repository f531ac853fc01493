package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const credentialsSchema = `
CREATE TABLE IF NOT EXISTS credentials (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

const upsertCredential = `
INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// SqliteStore keeps credentials in a sqlite table. Pair writes share one
// transaction.
type SqliteStore struct {
	db *sqlx.DB
}

func NewSqliteStore(db *sqlx.DB) (*SqliteStore, error) {
	if _, err := db.Exec(credentialsSchema); err != nil {
		return nil, fmt.Errorf("credstore: create schema: %w", err)
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM credentials WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	} else if err != nil {
		return "", fmt.Errorf("credstore: get %s: %w", key, err)
	}
	return value, nil
}

func (s *SqliteStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, upsertCredential, key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("credstore: set %s: %w", key, err)
	}
	return nil
}

func (s *SqliteStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, key); err != nil {
		return fmt.Errorf("credstore: remove %s: %w", key, err)
	}
	return nil
}

func (s *SqliteStore) SetPair(ctx context.Context, pair Pair) error {
	if !pair.Valid() {
		return ErrIncompletePair
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("credstore: begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx, upsertCredential, KeyAccessToken, pair.AccessToken, now); err != nil {
		return fmt.Errorf("credstore: set %s: %w", KeyAccessToken, err)
	}
	if _, err := tx.ExecContext(ctx, upsertCredential, KeyRefreshToken, pair.RefreshToken, now); err != nil {
		return fmt.Errorf("credstore: set %s: %w", KeyRefreshToken, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("credstore: commit: %w", err)
	}
	return nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

var _ PairStore = (*SqliteStore)(nil)
var _ StoreCloser = (*SqliteStore)(nil)
