package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrMiss the collection key has never been written.
	ErrMiss = errors.New("collection miss")
	// ErrConflict optimistic transaction kept losing against concurrent writers.
	ErrConflict = errors.New("transaction conflict")
	// ErrUndeclaredKey a transaction touched a key it did not declare.
	ErrUndeclaredKey = errors.New("key not declared in transaction")
)

// Txn read-modify-write view over the keys declared in Backend.Update.
// Writes become visible to other callers only when the update function returns nil.
type Txn interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// Backend keyed blob storage with serialised per-key transactions.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	// Update runs fn with exclusive access to keys. fn may be invoked more than
	// once on optimistic backends and must not have side effects outside the Txn.
	Update(ctx context.Context, keys []string, fn func(Txn) error) error
	Close() error
}

// maxTxRetries bounds optimistic retries on redis and badger.
const maxTxRetries = 16

func normalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func checkKey(declared []string, key string) error {
	i := sort.SearchStrings(declared, key)
	if i < len(declared) && declared[i] == key {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUndeclaredKey, key)
}
