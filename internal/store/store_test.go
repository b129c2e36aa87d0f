package store

import (
	"context"
	"errors"
	"testing"

	"shethrive-data/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestLoad_AbsentCollectionIsEmpty(t *testing.T) {
	s := New(NewMemoryBackend(), zap.NewNop(), nil)

	records, err := Load[record](context.Background(), s, "absent")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestLoad_CorruptCollectionIsEmptyAndLogged(t *testing.T) {
	backend := NewMemoryBackend()
	backend.Put("broken", []byte(`{not json`))
	core, logs := observer.New(zap.WarnLevel)
	m := metrics.New(prometheus.NewRegistry())
	s := New(backend, zap.New(core), m)

	records, err := Load[record](context.Background(), s, "broken")
	require.NoError(t, err)
	assert.Empty(t, records)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "broken", logs.All()[0].ContextMap()["collection"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CorruptCollections.WithLabelValues("broken")))
}

func TestSaveLoad(t *testing.T) {
	s := New(NewMemoryBackend(), nil, nil)
	ctx := context.Background()

	require.NoError(t, Save(ctx, s, "things", []record{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}))
	records, err := Load[record](ctx, s, "things")
	require.NoError(t, err)
	assert.Equal(t, []record{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}, records)

	// Save replaces rather than merges
	require.NoError(t, Save(ctx, s, "things", []record{{ID: "3"}}))
	records, err = Load[record](ctx, s, "things")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	require.NoError(t, Save[record](ctx, s, "things", nil))
	raw, err := s.Backend().Get(ctx, "things")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(raw))
}

func TestMutate_CorruptCollectionIsOverwritten(t *testing.T) {
	backend := NewMemoryBackend()
	backend.Put("broken", []byte(`garbage`))
	s := New(backend, nil, nil)
	ctx := context.Background()

	err := Mutate(ctx, s, "broken", func(records []record) ([]record, error) {
		assert.Empty(t, records)
		return append(records, record{ID: "1"}), nil
	})
	require.NoError(t, err)

	records, err := Load[record](ctx, s, "broken")
	require.NoError(t, err)
	assert.Equal(t, []record{{ID: "1"}}, records)
}

func TestUpdate_MultiCollectionIsAtomic(t *testing.T) {
	s := New(NewMemoryBackend(), nil, nil)
	ctx := context.Background()
	require.NoError(t, Save(ctx, s, "left", []record{{ID: "l"}}))

	boom := errors.New("boom")
	err := s.Update(ctx, []string{"left", "right"}, func(tx *Tx) error {
		left, err := Read[record](tx, "left")
		require.NoError(t, err)
		require.NoError(t, Write(tx, "left", append(left, record{ID: "l2"})))
		require.NoError(t, Write(tx, "right", []record{{ID: "r"}}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	left, err := Load[record](ctx, s, "left")
	require.NoError(t, err)
	assert.Len(t, left, 1)
	right, err := Load[record](ctx, s, "right")
	require.NoError(t, err)
	assert.Empty(t, right)
}
