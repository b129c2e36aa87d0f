package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// BadgerConfig embedded store settings.
type BadgerConfig struct {
	// Path is ignored when InMemory is true.
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *zap.Logger
}

// badgerLogger adapts zap to badger.Logger.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.s.Infof(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }

// OpenBadger opens a badger database for BadgerBackend.
func OpenBadger(cfg BadgerConfig) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{s: cfg.Logger.Named("badger").Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

// BadgerBackend relies on badger's serializable snapshot isolation: a
// transaction whose read keys changed before commit fails with ErrConflict and
// is retried.
type BadgerBackend struct {
	db      *badger.DB
	onRetry func()
}

func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

// OnRetry registers a callback invoked on every conflict retry.
func (b *BadgerBackend) OnRetry(f func()) { b.onRetry = f }

func (b *BadgerBackend) Name() string { return "badger" }

func (b *BadgerBackend) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		v, err := badgerGet(txn, key)
		out = v
		return err
	})
	return out, err
}

func (b *BadgerBackend) Update(_ context.Context, keys []string, fn func(Txn) error) error {
	keys = normalizeKeys(keys)
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := b.db.Update(func(txn *badger.Txn) error {
			bt := &badgerTxn{txn: txn, keys: keys}
			// every declared key joins the read set so concurrent blind writes conflict too
			for _, k := range keys {
				if _, err := badgerGet(txn, k); err != nil && !errors.Is(err, ErrMiss) {
					return err
				}
			}
			return fn(bt)
		})
		if errors.Is(err, badger.ErrConflict) {
			if b.onRetry != nil {
				b.onRetry()
			}
			continue
		}
		return err
	}
	return fmt.Errorf("badger update %v: %w", keys, ErrConflict)
}

func (b *BadgerBackend) Close() error { return b.db.Close() }

func badgerGet(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

type badgerTxn struct {
	txn  *badger.Txn
	keys []string
}

func (t *badgerTxn) Get(key string) ([]byte, error) {
	if err := checkKey(t.keys, key); err != nil {
		return nil, err
	}
	return badgerGet(t.txn, key)
}

func (t *badgerTxn) Set(key string, value []byte) error {
	if err := checkKey(t.keys, key); err != nil {
		return err
	}
	return t.txn.Set([]byte(key), value)
}
