package repository

import (
	"context"
	"fmt"
	"sort"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/store"

	"github.com/google/uuid"
)

// Reports generated insights, encrypted at rest.
type Reports struct {
	env Env
}

func NewReports(env Env) *Reports {
	return &Reports{env: env}
}

// Save stores content encrypted and returns the report with plaintext content.
func (r *Reports) Save(ctx context.Context, userID, content, reportType string) (*domain.HealthReport, error) {
	return r.save(ctx, userID, content, reportType, nil)
}

// SaveAudited is Save with entry appended in the same transaction.
func (r *Reports) SaveAudited(ctx context.Context, userID, content, reportType string, entry domain.AuditLogEntry) (*domain.HealthReport, error) {
	return r.save(ctx, userID, content, reportType, &entry)
}

func (r *Reports) save(ctx context.Context, userID, content, reportType string, entry *domain.AuditLogEntry) (*domain.HealthReport, error) {
	if reportType != domain.ReportDailyInsight && reportType != domain.ReportWeeklySummary {
		return nil, invalid("unknown report type %q", reportType)
	}
	sealed, err := r.env.Cipher.Encrypt(content, userID)
	if err != nil {
		return nil, fmt.Errorf("encrypt report: %w", err)
	}
	now := r.env.now()
	report := domain.HealthReport{
		ID:          uuid.New().String(),
		UserID:      userID,
		Date:        now.Format(domain.DateLayout),
		Content:     sealed,
		Type:        reportType,
		GeneratedAt: now,
	}
	if entry == nil {
		err = store.Mutate(ctx, r.env.Store, domain.HealthReportsKey, func(all []domain.HealthReport) ([]domain.HealthReport, error) {
			return append(all, report), nil
		})
	} else {
		err = r.env.updateWithAudit(ctx, []string{domain.HealthReportsKey}, func(tx *store.Tx, appendAudit func(domain.AuditLogEntry) error) error {
			all, err := store.Read[domain.HealthReport](tx, domain.HealthReportsKey)
			if err != nil {
				return err
			}
			if err := store.Write(tx, domain.HealthReportsKey, append(all, report)); err != nil {
				return err
			}
			return appendAudit(*entry)
		})
	}
	if err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	report.Content = content
	return &report, nil
}

// List decrypts every report, newest first.
func (r *Reports) List(ctx context.Context, userID string) ([]domain.HealthReport, error) {
	all, err := store.Load[domain.HealthReport](ctx, r.env.Store, domain.HealthReportsKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.HealthReport, 0, len(all))
	for _, rep := range all {
		if rep.UserID != userID {
			continue
		}
		rep.Content = r.env.Cipher.Decrypt(rep.Content, userID)
		out = append(out, rep)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}
