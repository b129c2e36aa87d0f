// Package audit is the append-only audit trail for privacy and money relevant
// actions. Entries are never modified once written.
package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/metrics"
	"shethrive-data/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActorUser default actor for self-service actions.
const ActorUser = "User"

// Trail appends to and lists the audit collection.
type Trail struct {
	store   *store.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	sinks   []Sink
	now     func() time.Time
}

func NewTrail(s *store.Store, logger *zap.Logger, m *metrics.Metrics, sinks ...Sink) *Trail {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trail{
		store:   s,
		logger:  logger,
		metrics: m,
		sinks:   sinks,
		now:     time.Now,
	}
}

// SetClock replaces the timestamp source.
func (t *Trail) SetClock(now func() time.Time) { t.now = now }

// Append writes one entry in its own transaction and publishes it to the sinks.
func (t *Trail) Append(ctx context.Context, entry domain.AuditLogEntry) (domain.AuditLogEntry, error) {
	var out domain.AuditLogEntry
	err := t.store.Update(ctx, []string{domain.AuditKey}, func(tx *store.Tx) error {
		var err error
		out, err = t.AppendTx(tx, entry)
		return err
	})
	if err != nil {
		return domain.AuditLogEntry{}, fmt.Errorf("append audit entry: %w", err)
	}
	t.Publish(ctx, out)
	return out, nil
}

// AppendTx appends inside a caller's transaction, which must declare
// domain.AuditKey. The caller publishes the returned entry after commit.
func (t *Trail) AppendTx(tx *store.Tx, entry domain.AuditLogEntry) (domain.AuditLogEntry, error) {
	entries, err := store.Read[domain.AuditLogEntry](tx, domain.AuditKey)
	if err != nil {
		return domain.AuditLogEntry{}, err
	}

	var seq int64
	for _, e := range entries {
		if e.Seq > seq {
			seq = e.Seq
		}
	}
	entry.ID = uuid.New().String()
	entry.Seq = seq + 1
	entry.Timestamp = t.now().UTC()
	if entry.Actor == "" {
		entry.Actor = ActorUser
	}
	if entry.Status == "" {
		entry.Status = domain.AuditAllowed
	}

	if err := store.Write(tx, domain.AuditKey, append(entries, entry)); err != nil {
		return domain.AuditLogEntry{}, err
	}
	return entry, nil
}

// Publish fans committed entries out to every sink. Failures are logged and
// counted, never returned.
func (t *Trail) Publish(ctx context.Context, entries ...domain.AuditLogEntry) {
	for _, e := range entries {
		t.metrics.AuditAppended()
		for _, s := range t.sinks {
			if err := s.Publish(ctx, e); err != nil {
				t.metrics.AuditSinkFailed(s.Name())
				t.logger.Warn("audit sink publish failed",
					zap.String("sink", s.Name()),
					zap.String("action", e.Action),
					zap.String("entry_id", e.ID),
					zap.Error(err),
				)
			}
		}
	}
}

// List returns every entry, newest first. Entries sharing a timestamp keep
// reverse append order.
func (t *Trail) List(ctx context.Context) ([]domain.AuditLogEntry, error) {
	entries, err := store.Load[domain.AuditLogEntry](ctx, t.store, domain.AuditKey)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(entries)
	return entries, nil
}

// ListForUser is List filtered to one user.
func (t *Trail) ListForUser(ctx context.Context, userID string) ([]domain.AuditLogEntry, error) {
	all, err := t.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AuditLogEntry, 0, len(all))
	for _, e := range all {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func sortNewestFirst(entries []domain.AuditLogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.After(entries[j].Timestamp)
		}
		return entries[i].Seq > entries[j].Seq
	})
}
