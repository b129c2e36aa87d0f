package store

import (
	"context"
	"sync"
)

// MemoryBackend process-local backend for tests and single-process demos.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data:  map[string][]byte{},
		locks: map[string]*sync.Mutex{},
	}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return append([]byte(nil), v...), nil
}

// Put writes raw bytes outside a transaction. Used to seed fixtures.
func (m *MemoryBackend) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
}

func (m *MemoryBackend) keyLock(key string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

func (m *MemoryBackend) Update(_ context.Context, keys []string, fn func(Txn) error) error {
	keys = normalizeKeys(keys)
	// sorted acquisition keeps multi-key transactions deadlock free
	for _, k := range keys {
		l := m.keyLock(k)
		l.Lock()
		defer l.Unlock()
	}

	txn := &memoryTxn{backend: m, keys: keys, writes: map[string][]byte{}}
	if err := fn(txn); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range txn.writes {
		m.data[k] = v
	}
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

type memoryTxn struct {
	backend *MemoryBackend
	keys    []string
	writes  map[string][]byte
}

func (t *memoryTxn) Get(key string) ([]byte, error) {
	if err := checkKey(t.keys, key); err != nil {
		return nil, err
	}
	if v, ok := t.writes[key]; ok {
		return append([]byte(nil), v...), nil
	}
	return t.backend.Get(context.Background(), key)
}

func (t *memoryTxn) Set(key string, value []byte) error {
	if err := checkKey(t.keys, key); err != nil {
		return err
	}
	t.writes[key] = append([]byte(nil), value...)
	return nil
}
