package service

import (
	"context"
	"fmt"
	"time"

	"shethrive-data/internal/audit"
	"shethrive-data/internal/domain"
	"shethrive-data/internal/metrics"
	"shethrive-data/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resourceBilling = "Billing"

// BillingService plans, subscriptions and the payment ledger.
type BillingService interface {
	Plans(ctx context.Context) ([]domain.Plan, error)
	GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error)
	Payments(ctx context.Context, userID string) ([]domain.Payment, error)
	Subscribe(ctx context.Context, userID, planID string) (*domain.Subscription, error)
	CancelSubscription(ctx context.Context, userID string) (*domain.Subscription, error)
	CheckEntitlement(ctx context.Context, userID, feature string) bool
}

// BillingDeps collaborators for NewBillingService.
type BillingDeps struct {
	Plans         repository.PlanRepository
	Subscriptions repository.SubscriptionRepository
	Payments      repository.PaymentRepository
	Gateway       PaymentGateway
	Policy        PaymentPolicy
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
	Now           func() time.Time
}

type billingService struct {
	plans         repository.PlanRepository
	subscriptions repository.SubscriptionRepository
	ledger        repository.PaymentRepository
	payments      *authorizer
	metrics       *metrics.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

func NewBillingService(d BillingDeps) BillingService {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &billingService{
		plans:         d.Plans,
		subscriptions: d.Subscriptions,
		ledger:        d.Payments,
		payments:      &authorizer{gateway: d.Gateway, policy: d.Policy.withDefaults(), metrics: d.Metrics, logger: logger},
		metrics:       d.Metrics,
		logger:        logger,
		now:           now,
	}
}

func (s *billingService) Plans(ctx context.Context) ([]domain.Plan, error) {
	return s.plans.List(ctx)
}

// GetSubscription active subscription or nil.
func (s *billingService) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	return s.subscriptions.Active(ctx, userID)
}

func (s *billingService) Payments(ctx context.Context, userID string) ([]domain.Payment, error) {
	return s.ledger.List(ctx, userID)
}

// Subscribe replaces the active subscription with planID. Paid plans are
// authorized first; a declined authorization leaves a failed ledger line and
// no subscription change.
func (s *billingService) Subscribe(ctx context.Context, userID, planID string) (*domain.Subscription, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrValidation)
	}
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		s.metrics.Subscription("plan_not_found")
		return nil, err
	}

	now := s.now().UTC()
	description := "Subscription to " + plan.Name
	var authID string
	if plan.Price.Amount > 0 {
		authID, err = s.payments.authorize(ctx, AuthorizationRequest{UserID: userID, Amount: plan.Price, Description: description})
		if err != nil {
			s.metrics.Subscription("payment_failed")
			if _, lerr := s.ledger.Append(context.WithoutCancel(ctx), domain.Payment{
				ID:          uuid.New().String(),
				UserID:      userID,
				Amount:      plan.Price.Amount,
				Currency:    plan.Price.Currency,
				Status:      domain.PaymentFailed,
				Date:        now,
				Description: description,
			}); lerr != nil {
				s.logger.Error("Failed to record failed payment", zap.String("user_id", userID), zap.Error(lerr))
			}
			return nil, err
		}
	}

	end := now.AddDate(0, 1, 0)
	if plan.Interval == domain.IntervalYear {
		end = now.AddDate(1, 0, 0)
	}
	sub := domain.Subscription{
		ID:        uuid.New().String(),
		UserID:    userID,
		PlanID:    plan.ID,
		Status:    domain.SubscriptionActive,
		StartDate: now,
		EndDate:   end,
		AutoRenew: true,
	}
	payment := domain.Payment{
		ID:              uuid.New().String(),
		UserID:          userID,
		Amount:          plan.Price.Amount,
		Currency:        plan.Price.Currency,
		Status:          domain.PaymentSucceeded,
		Date:            now,
		Description:     description,
		AuthorizationID: authID,
	}
	out, err := s.subscriptions.Activate(ctx, sub, payment, domain.AuditLogEntry{
		UserID:   userID,
		Actor:    audit.ActorUser,
		Action:   domain.ActionSubscribe,
		Resource: resourceBilling,
		Status:   domain.AuditAllowed,
		Details:  "Subscribed to " + plan.Name,
	})
	if err != nil {
		s.payments.void(context.WithoutCancel(ctx), authID)
		s.metrics.Subscription("error")
		return nil, err
	}
	s.metrics.Subscription("subscribed")
	s.logger.Info("Subscription activated",
		zap.String("user_id", userID),
		zap.String("plan_id", plan.ID),
		zap.Time("end_date", end),
	)
	return out, nil
}

// CancelSubscription returns nil when nothing is active.
func (s *billingService) CancelSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	out, err := s.subscriptions.CancelActive(ctx, userID, domain.AuditLogEntry{
		UserID:   userID,
		Actor:    audit.ActorUser,
		Action:   domain.ActionCancelSubscription,
		Resource: resourceBilling,
		Status:   domain.AuditAllowed,
		Details:  "Cancelled subscription",
	})
	if err != nil {
		return nil, err
	}
	if out != nil {
		s.metrics.Subscription("cancelled")
	}
	return out, nil
}

// CheckEntitlement reports whether the active plan lists feature. Lookup
// failures deny.
func (s *billingService) CheckEntitlement(ctx context.Context, userID, feature string) bool {
	sub, err := s.subscriptions.Active(ctx, userID)
	if err != nil {
		s.logger.Warn("Entitlement check failed", zap.String("user_id", userID), zap.String("feature", feature), zap.Error(err))
		return false
	}
	if sub == nil {
		return false
	}
	plan, err := s.plans.Get(ctx, sub.PlanID)
	if err != nil {
		s.logger.Warn("Entitlement plan lookup failed", zap.String("plan_id", sub.PlanID), zap.Error(err))
		return false
	}
	return plan.HasFeature(feature)
}
