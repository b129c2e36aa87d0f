package repository

import (
	"context"
	"fmt"
	"sort"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/store"

	"github.com/google/uuid"
)

type SymptomLogRequest struct {
	Date     string   `validate:"required,datetime=2006-01-02"`
	Symptoms []string `validate:"dive,required"`
	Severity int      `validate:"min=1,max=10"`
	Mood     string   `validate:"required,oneof=Happy Sad Anxious Energetic Tired Irritable"`
	Notes    string
}

// SymptomLogs append-only daily check-ins.
type SymptomLogs struct {
	env Env
}

func NewSymptomLogs(env Env) *SymptomLogs {
	return &SymptomLogs{env: env}
}

// Create always appends, even when the date already has a log.
func (r *SymptomLogs) Create(ctx context.Context, userID string, req SymptomLogRequest) (*domain.SymptomLog, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	log := domain.SymptomLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Date:      req.Date,
		Symptoms:  append([]string{}, req.Symptoms...),
		Severity:  req.Severity,
		Mood:      domain.Mood(req.Mood),
		Notes:     req.Notes,
		CreatedAt: r.env.now(),
	}
	err := store.Mutate(ctx, r.env.Store, domain.SymptomLogsKey, func(all []domain.SymptomLog) ([]domain.SymptomLog, error) {
		return append(all, log), nil
	})
	if err != nil {
		return nil, fmt.Errorf("create symptom log: %w", err)
	}
	return &log, nil
}

// List newest date first; same-day logs newest first.
func (r *SymptomLogs) List(ctx context.Context, userID string) ([]domain.SymptomLog, error) {
	all, err := store.Load[domain.SymptomLog](ctx, r.env.Store, domain.SymptomLogsKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SymptomLog, 0, len(all))
	for _, l := range all {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *SymptomLogs) Recent(ctx context.Context, userID string, n int) ([]domain.SymptomLog, error) {
	logs, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(logs) > n {
		logs = logs[:n]
	}
	return logs, nil
}

// LatestForDate most recently saved log for date.
func (r *SymptomLogs) LatestForDate(ctx context.Context, userID, date string) (*domain.SymptomLog, error) {
	logs, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, l := range logs {
		if l.Date == date {
			return &l, nil
		}
	}
	return nil, fmt.Errorf("symptom log %s: %w", date, domain.ErrNotFound)
}
