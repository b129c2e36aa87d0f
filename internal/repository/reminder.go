package repository

import (
	"context"
	"fmt"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/store"

	"github.com/google/uuid"
)

type ReminderRequest struct {
	Name      string `validate:"required"`
	Dosage    string
	Frequency string `validate:"required,oneof=daily weekly specific_days"`
	Time      string `validate:"required,datetime=15:04"`
	// IsActive defaults to true.
	IsActive *bool
	Notes    string
}

type Reminders struct {
	env Env
}

func NewReminders(env Env) *Reminders {
	return &Reminders{env: env}
}

func (r *Reminders) Create(ctx context.Context, userID string, req ReminderRequest) (*domain.Reminder, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	rem := domain.Reminder{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      req.Name,
		Dosage:    req.Dosage,
		Frequency: req.Frequency,
		Time:      req.Time,
		IsActive:  req.IsActive == nil || *req.IsActive,
		Notes:     req.Notes,
	}
	err := store.Mutate(ctx, r.env.Store, domain.RemindersKey, func(all []domain.Reminder) ([]domain.Reminder, error) {
		return append(all, rem), nil
	})
	if err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return &rem, nil
}

func (r *Reminders) List(ctx context.Context, userID string) ([]domain.Reminder, error) {
	all, err := store.Load[domain.Reminder](ctx, r.env.Store, domain.RemindersKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Reminder, 0, len(all))
	for _, rem := range all {
		if rem.UserID == userID {
			out = append(out, rem)
		}
	}
	return out, nil
}

// ToggleActive flips IsActive in place.
func (r *Reminders) ToggleActive(ctx context.Context, userID, reminderID string) (*domain.Reminder, error) {
	var out domain.Reminder
	err := store.Mutate(ctx, r.env.Store, domain.RemindersKey, func(all []domain.Reminder) ([]domain.Reminder, error) {
		i := indexOf(all, func(rem domain.Reminder) bool { return rem.ID == reminderID && rem.UserID == userID })
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		all[i].IsActive = !all[i].IsActive
		out = all[i]
		return all, nil
	})
	if err != nil {
		return nil, fmt.Errorf("toggle reminder %s: %w", reminderID, err)
	}
	return &out, nil
}

func (r *Reminders) Delete(ctx context.Context, userID, reminderID string) error {
	err := store.Mutate(ctx, r.env.Store, domain.RemindersKey, func(all []domain.Reminder) ([]domain.Reminder, error) {
		i := indexOf(all, func(rem domain.Reminder) bool { return rem.ID == reminderID && rem.UserID == userID })
		if i < 0 {
			return nil, domain.ErrNotFound
		}
		return append(all[:i], all[i+1:]...), nil
	})
	if err != nil {
		return fmt.Errorf("delete reminder %s: %w", reminderID, err)
	}
	return nil
}
