package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisBackend stores each collection as one string value under prefix+key.
// Transactions use WATCH/MULTI and are retried when a watched key changes.
type RedisBackend struct {
	c       *redis.Client
	prefix  string
	onRetry func()
}

func NewRedisBackend(c *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{c: c, prefix: prefix}
}

// OnRetry registers a callback invoked on every optimistic retry.
func (r *RedisBackend) OnRetry(f func()) { r.onRetry = f }

func (r *RedisBackend) Name() string { return "redis" }

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.c.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMiss
		}
		return nil, err
	}
	return val, nil
}

func (r *RedisBackend) Update(ctx context.Context, keys []string, fn func(Txn) error) error {
	keys = normalizeKeys(keys)
	watched := make([]string, len(keys))
	for i, k := range keys {
		watched[i] = r.prefix + k
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := r.c.Watch(ctx, func(tx *redis.Tx) error {
			txn := &redisTxn{ctx: ctx, tx: tx, prefix: r.prefix, keys: keys, writes: map[string][]byte{}}
			if err := fn(txn); err != nil {
				return err
			}
			if len(txn.writes) == 0 {
				return nil
			}
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for k, v := range txn.writes {
					pipe.Set(ctx, r.prefix+k, v, 0)
				}
				return nil
			})
			return err
		}, watched...)

		if errors.Is(err, redis.TxFailedErr) {
			if r.onRetry != nil {
				r.onRetry()
			}
			continue
		}
		return err
	}
	return fmt.Errorf("redis update %v: %w", keys, ErrConflict)
}

func (r *RedisBackend) Close() error { return r.c.Close() }

// ScanKeys lists stored collection keys matching pattern (without prefix).
func (r *RedisBackend) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		k, next, err := r.c.Scan(ctx, cursor, r.prefix+pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		for _, full := range k {
			keys = append(keys, full[len(r.prefix):])
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

type redisTxn struct {
	ctx    context.Context
	tx     *redis.Tx
	prefix string
	keys   []string
	writes map[string][]byte
}

func (t *redisTxn) Get(key string) ([]byte, error) {
	if err := checkKey(t.keys, key); err != nil {
		return nil, err
	}
	if v, ok := t.writes[key]; ok {
		return v, nil
	}
	val, err := t.tx.Get(t.ctx, t.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMiss
		}
		return nil, err
	}
	return val, nil
}

func (t *redisTxn) Set(key string, value []byte) error {
	if err := checkKey(t.keys, key); err != nil {
		return err
	}
	t.writes[key] = value
	return nil
}
