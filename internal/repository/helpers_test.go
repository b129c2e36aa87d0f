package repository

import (
	"bytes"
	"context"
	"testing"
	"time"

	"shethrive-data/internal/audit"
	"shethrive-data/internal/cipher"
	"shethrive-data/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func init() {
	BcryptCost = bcrypt.MinCost
}

type testEnv struct {
	Env
	backend *store.MemoryBackend
	clock   *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := store.NewMemoryBackend()
	s := store.New(backend, zap.NewNop(), nil)
	c, err := cipher.NewAEADCipher(bytes.Repeat([]byte{0x11}, cipher.MinMasterKeySize), nil)
	require.NoError(t, err)

	clock := testNow
	te := &testEnv{backend: backend, clock: &clock}
	now := func() time.Time { return *te.clock }
	trail := audit.NewTrail(s, zap.NewNop(), nil)
	trail.SetClock(now)
	te.Env = Env{Store: s, Cipher: c, Audit: trail, Logger: zap.NewNop(), Now: now}
	return te
}

func (te *testEnv) advance(d time.Duration) {
	*te.clock = te.clock.Add(d)
}

func (te *testEnv) auditActions(t *testing.T) []string {
	t.Helper()
	entries, err := te.Audit.List(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := LoadCatalog()
	require.NoError(t, err)
	return c
}
