package repository

import (
	"context"
	"fmt"
	"time"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/store"
)

const (
	MinCycleLength = 15
	MaxCycleLength = 60
)

// Cycles one cycle record per user, overwritten on save.
type Cycles struct {
	env Env
}

func NewCycles(env Env) *Cycles {
	return &Cycles{env: env}
}

// Get returns the stored record or a 28/5 default starting today.
func (r *Cycles) Get(ctx context.Context, userID string) (*domain.CycleRecord, error) {
	all, err := store.Load[domain.CycleRecord](ctx, r.env.Store, domain.CycleKey)
	if err != nil {
		return nil, err
	}
	for _, c := range all {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return &domain.CycleRecord{
		UserID:       userID,
		StartDate:    r.env.now().Format(domain.DateLayout),
		CycleLength:  domain.DefaultCycleLength,
		PeriodLength: domain.DefaultPeriodLength,
	}, nil
}

func (r *Cycles) Save(ctx context.Context, record domain.CycleRecord) (*domain.CycleRecord, error) {
	if err := ValidateCycle(record); err != nil {
		return nil, err
	}
	err := store.Mutate(ctx, r.env.Store, domain.CycleKey, func(all []domain.CycleRecord) ([]domain.CycleRecord, error) {
		i := indexOf(all, func(c domain.CycleRecord) bool { return c.UserID == record.UserID })
		if i >= 0 {
			all[i] = record
			return all, nil
		}
		return append(all, record), nil
	})
	if err != nil {
		return nil, fmt.Errorf("save cycle %s: %w", record.UserID, err)
	}
	return &record, nil
}

// ValidateCycle enforces 0 < PeriodLength < CycleLength within the supported range.
func ValidateCycle(c domain.CycleRecord) error {
	if c.UserID == "" {
		return invalid("user_id is required")
	}
	if _, err := time.Parse(domain.DateLayout, c.StartDate); err != nil {
		return invalid("start_date must be YYYY-MM-DD")
	}
	if c.CycleLength < MinCycleLength || c.CycleLength > MaxCycleLength {
		return invalid("cycle length must be between %d and %d days", MinCycleLength, MaxCycleLength)
	}
	if c.PeriodLength <= 0 || c.PeriodLength >= c.CycleLength {
		return invalid("period length must be positive and shorter than the cycle")
	}
	return nil
}
