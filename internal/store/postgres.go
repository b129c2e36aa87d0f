package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Schema for PostgresBackend. One row per collection.
const Schema = `CREATE TABLE IF NOT EXISTS entity_collections (
	collection_key TEXT PRIMARY KEY,
	payload        JSONB NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresBackend keeps collections in entity_collections. Update serialises
// writers per key with transaction-scoped advisory locks, so absent keys are
// locked as well.
type PostgresBackend struct {
	db *sql.DB
}

func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// Migrate creates the collections table.
func (p *PostgresBackend) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create entity_collections: %w", err)
	}
	return nil
}

func (p *PostgresBackend) Name() string { return "postgres" }

func (p *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT payload FROM entity_collections WHERE collection_key = $1`, key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to get collection %s: %w", key, err)
	}
	return payload, nil
}

func (p *PostgresBackend) Update(ctx context.Context, keys []string, fn func(Txn) error) (err error) {
	keys = normalizeKeys(keys)

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, k := range keys {
		if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, k); err != nil {
			return fmt.Errorf("failed to lock collection %s: %w", k, err)
		}
	}

	txn := &postgresTxn{ctx: ctx, tx: tx, keys: keys, writes: map[string][]byte{}}
	if err = fn(txn); err != nil {
		return err
	}

	for _, k := range keys {
		v, ok := txn.writes[k]
		if !ok {
			continue
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO entity_collections (collection_key, payload, updated_at)
			 VALUES ($1, $2, now())
			 ON CONFLICT (collection_key)
			 DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
			k, string(v),
		); err != nil {
			return fmt.Errorf("failed to save collection %s: %w", k, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (p *PostgresBackend) Close() error { return p.db.Close() }

type postgresTxn struct {
	ctx    context.Context
	tx     *sql.Tx
	keys   []string
	writes map[string][]byte
}

func (t *postgresTxn) Get(key string) ([]byte, error) {
	if err := checkKey(t.keys, key); err != nil {
		return nil, err
	}
	if v, ok := t.writes[key]; ok {
		return v, nil
	}
	var payload []byte
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT payload FROM entity_collections WHERE collection_key = $1`, key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to get collection %s: %w", key, err)
	}
	return payload, nil
}

func (t *postgresTxn) Set(key string, value []byte) error {
	if err := checkKey(t.keys, key); err != nil {
		return err
	}
	t.writes[key] = value
	return nil
}
