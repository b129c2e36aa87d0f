package repository

import (
	"context"
	"fmt"
	"time"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/store"

	"github.com/google/uuid"
)

type GoalRequest struct {
	Name        string  `validate:"required"`
	Description string
	TargetValue float64 `validate:"gt=0"`
	Unit        string
	Category    string `validate:"required,oneof=hydration activity sleep nutrition mindfulness other"`
	StartDate   time.Time
	EndDate     *time.Time
}

type Goals struct {
	env Env
}

func NewGoals(env Env) *Goals {
	return &Goals{env: env}
}

func (r *Goals) Create(ctx context.Context, userID string, req GoalRequest) (*domain.Goal, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	goal := domain.Goal{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		TargetValue: req.TargetValue,
		Unit:        req.Unit,
		Category:    req.Category,
		Status:      domain.GoalActive,
		StartDate:   req.StartDate.UTC(),
		EndDate:     req.EndDate,
	}
	if req.StartDate.IsZero() {
		goal.StartDate = r.env.now()
	}
	err := store.Mutate(ctx, r.env.Store, domain.GoalsKey, func(all []domain.Goal) ([]domain.Goal, error) {
		return append(all, goal), nil
	})
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return &goal, nil
}

func (r *Goals) List(ctx context.Context, userID string) ([]domain.Goal, error) {
	all, err := store.Load[domain.Goal](ctx, r.env.Store, domain.GoalsKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Goal, 0, len(all))
	for _, g := range all {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

// UpdateProgress sets the current value directly. Negative values become 0;
// values above the target are kept.
func (r *Goals) UpdateProgress(ctx context.Context, userID, goalID string, value float64) (*domain.Goal, error) {
	if value < 0 {
		value = 0
	}
	return r.modify(ctx, userID, goalID, func(g *domain.Goal) error {
		g.CurrentValue = value
		return nil
	})
}

func (r *Goals) SetStatus(ctx context.Context, userID, goalID, status string) (*domain.Goal, error) {
	switch status {
	case domain.GoalActive, domain.GoalCompleted, domain.GoalArchived:
	default:
		return nil, invalid("unknown goal status %q", status)
	}
	return r.modify(ctx, userID, goalID, func(g *domain.Goal) error {
		g.Status = status
		return nil
	})
}

func (r *Goals) Delete(ctx context.Context, userID, goalID string) error {
	err := store.Mutate(ctx, r.env.Store, domain.GoalsKey, func(all []domain.Goal) ([]domain.Goal, error) {
		i := indexOf(all, func(g domain.Goal) bool { return g.ID == goalID && g.UserID == userID })
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		return append(all[:i], all[i+1:]...), nil
	})
	if err != nil {
		return fmt.Errorf("delete goal %s: %w", goalID, err)
	}
	return nil
}

func (r *Goals) modify(ctx context.Context, userID, goalID string, fn func(*domain.Goal) error) (*domain.Goal, error) {
	var out domain.Goal
	err := store.Mutate(ctx, r.env.Store, domain.GoalsKey, func(all []domain.Goal) ([]domain.Goal, error) {
		i := indexOf(all, func(g domain.Goal) bool { return g.ID == goalID && g.UserID == userID })
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		if err := fn(&all[i]); err != nil {
			return nil, err
		}
		out = all[i]
		return all, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update goal %s: %w", goalID, err)
	}
	return &out, nil
}
