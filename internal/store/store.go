// Package store is the entity store: named collections of typed records
// persisted as JSON arrays on a pluggable Backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shethrive-data/internal/metrics"

	"go.uber.org/zap"
)

type Store struct {
	backend Backend
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func New(backend Backend, logger *zap.Logger, m *metrics.Metrics) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger, metrics: m}
}

func (s *Store) Backend() Backend { return s.backend }

// Tx multi-collection transaction handle passed to Update callbacks.
type Tx struct {
	s   *Store
	txn Txn
}

// Update runs fn atomically over keys. A non-nil error from fn discards every write.
func (s *Store) Update(ctx context.Context, keys []string, fn func(tx *Tx) error) error {
	err := s.backend.Update(ctx, keys, func(txn Txn) error {
		return fn(&Tx{s: s, txn: txn})
	})
	s.metrics.StoreTransaction(s.backend.Name(), err)
	return err
}

// Load returns every record under key. Absent and corrupt collections are
// empty; only backend I/O failures are returned.
func Load[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return decode[T](s, key, raw), nil
}

// Save atomically replaces the whole collection.
func Save[T any](ctx context.Context, s *Store, key string, records []T) error {
	return s.Update(ctx, []string{key}, func(tx *Tx) error {
		return Write(tx, key, records)
	})
}

// Mutate loads key, applies fn and writes the result, serialised against
// other writers of the same key.
func Mutate[T any](ctx context.Context, s *Store, key string, fn func([]T) ([]T, error)) error {
	return s.Update(ctx, []string{key}, func(tx *Tx) error {
		records, err := Read[T](tx, key)
		if err != nil {
			return err
		}
		out, err := fn(records)
		if err != nil {
			return err
		}
		return Write(tx, key, out)
	})
}

// Read loads key inside tx with Load's corruption rules.
func Read[T any](tx *Tx, key string) ([]T, error) {
	raw, err := tx.txn.Get(key)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return decode[T](tx.s, key, raw), nil
}

// Write replaces key inside tx.
func Write[T any](tx *Tx, key string, records []T) error {
	if records == nil {
		records = []T{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return tx.txn.Set(key, raw)
}

func decode[T any](s *Store, key string, raw []byte) []T {
	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		// data under a corrupt key is dropped on the next write
		s.logger.Warn("corrupt collection treated as empty",
			zap.String("collection", key),
			zap.Int("bytes", len(raw)),
			zap.Error(err),
		)
		s.metrics.CorruptCollection(key)
		return []T{}
	}
	if records == nil {
		records = []T{}
	}
	return records
}
