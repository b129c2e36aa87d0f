package repository

import (
	"context"
	"fmt"
	"sort"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/store"
)

// Subscriptions at most one active subscription per user.
type Subscriptions struct {
	env Env
}

func NewSubscriptions(env Env) *Subscriptions {
	return &Subscriptions{env: env}
}

func (r *Subscriptions) List(ctx context.Context, userID string) ([]domain.Subscription, error) {
	all, err := store.Load[domain.Subscription](ctx, r.env.Store, domain.SubscriptionsKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Subscription, 0, len(all))
	for _, s := range all {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

// Active returns the user's active subscription or nil.
func (r *Subscriptions) Active(ctx context.Context, userID string) (*domain.Subscription, error) {
	all, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		if s.Status == domain.SubscriptionActive {
			return &s, nil
		}
	}
	return nil, nil
}

// Activate cancels the current active subscription, stores sub, appends
// payment and entry, all in one transaction.
func (r *Subscriptions) Activate(ctx context.Context, sub domain.Subscription, payment domain.Payment, entry domain.AuditLogEntry) (*domain.Subscription, error) {
	keys := []string{domain.SubscriptionsKey, domain.PaymentsKey}
	err := r.env.updateWithAudit(ctx, keys, func(tx *store.Tx, appendAudit func(domain.AuditLogEntry) error) error {
		subs, err := store.Read[domain.Subscription](tx, domain.SubscriptionsKey)
		if err != nil {
			return err
		}
		for i := range subs {
			if subs[i].UserID == sub.UserID && subs[i].Status == domain.SubscriptionActive {
				subs[i].Status = domain.SubscriptionCancelled
				subs[i].AutoRenew = false
			}
		}
		if err := store.Write(tx, domain.SubscriptionsKey, append(subs, sub)); err != nil {
			return err
		}

		payments, err := store.Read[domain.Payment](tx, domain.PaymentsKey)
		if err != nil {
			return err
		}
		if err := store.Write(tx, domain.PaymentsKey, append(payments, payment)); err != nil {
			return err
		}
		return appendAudit(entry)
	})
	if err != nil {
		return nil, fmt.Errorf("activate subscription: %w", err)
	}
	return &sub, nil
}

// CancelActive cancels the active subscription and appends entry. Returns nil
// without writing when nothing is active.
func (r *Subscriptions) CancelActive(ctx context.Context, userID string, entry domain.AuditLogEntry) (*domain.Subscription, error) {
	var out *domain.Subscription
	err := r.env.updateWithAudit(ctx, []string{domain.SubscriptionsKey}, func(tx *store.Tx, appendAudit func(domain.AuditLogEntry) error) error {
		out = nil
		subs, err := store.Read[domain.Subscription](tx, domain.SubscriptionsKey)
		if err != nil {
			return err
		}
		i := indexOf(subs, func(s domain.Subscription) bool { return s.UserID == userID && s.Status == domain.SubscriptionActive })
		if i < 0 {
			return nil
		}
		subs[i].Status = domain.SubscriptionCancelled
		subs[i].AutoRenew = false
		cancelled := subs[i]
		out = &cancelled
		if err := store.Write(tx, domain.SubscriptionsKey, subs); err != nil {
			return err
		}
		return appendAudit(entry)
	})
	if err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}
	return out, nil
}

// Payments append-only ledger.
type Payments struct {
	env Env
}

func NewPayments(env Env) *Payments {
	return &Payments{env: env}
}

func (r *Payments) Append(ctx context.Context, p domain.Payment) (*domain.Payment, error) {
	err := store.Mutate(ctx, r.env.Store, domain.PaymentsKey, func(all []domain.Payment) ([]domain.Payment, error) {
		return append(all, p), nil
	})
	if err != nil {
		return nil, fmt.Errorf("append payment: %w", err)
	}
	return &p, nil
}

// List newest first.
func (r *Payments) List(ctx context.Context, userID string) ([]domain.Payment, error) {
	all, err := store.Load[domain.Payment](ctx, r.env.Store, domain.PaymentsKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Payment, 0, len(all))
	for _, p := range all {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}
