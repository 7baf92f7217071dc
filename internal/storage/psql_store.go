package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var _ KV = (*PsqlStore)(nil)

type PsqlStore struct {
	db *pgxpool.Pool
}

func NewPsqlStore(db *pgxpool.Pool) *PsqlStore {
	return &PsqlStore{
		db: db,
	}
}

// EnsureSchema creates the key-value table if it does not exist yet.
func (s *PsqlStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS gymcoach_kv (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
	)
	return err
}

func (s *PsqlStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM gymcoach_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *PsqlStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Exec(
		ctx,
		`INSERT INTO gymcoach_kv (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at;`,
		key, value, time.Now(),
	)
	return err
}

func (s *PsqlStore) Del(ctx context.Context, key string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM gymcoach_kv WHERE key = $1`, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		log.Tracef("kv key %s not deleted, not present", key)
	}
	return nil
}
