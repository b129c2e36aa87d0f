package service

import (
	"context"
	"testing"
	"time"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_PaidPlan(t *testing.T) {
	h := newHarness(t)
	svc := h.billing()
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, "u1", "plan_premium")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, sub.Status)
	assert.True(t, sub.AutoRenew)
	assert.True(t, sub.StartDate.Equal(testNow))
	assert.True(t, sub.EndDate.Equal(testNow.AddDate(0, 1, 0)))

	payments, err := svc.Payments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(999), payments[0].Amount)
	assert.Equal(t, domain.PaymentSucceeded, payments[0].Status)
	assert.Equal(t, "Subscription to Premium", payments[0].Description)
	assert.NotEmpty(t, payments[0].AuthorizationID)

	assert.Equal(t, []string{domain.ActionSubscribe}, h.auditActions(t, "u1"))
	assert.True(t, svc.CheckEntitlement(ctx, "u1", "AI Health Insights"))
	assert.False(t, svc.CheckEntitlement(ctx, "u1", "Genomic Integration"))
}

func TestSubscribe_ReplacesActive(t *testing.T) {
	h := newHarness(t)
	svc := h.billing()
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, "u1", "plan_premium")
	require.NoError(t, err)
	h.advance(time.Minute)
	second, err := svc.Subscribe(ctx, "u1", "plan_pro")
	require.NoError(t, err)

	active, err := svc.GetSubscription(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)

	all, err := h.subs.List(ctx, "u1")
	require.NoError(t, err)
	activeCount := 0
	for _, s := range all {
		if s.Status == domain.SubscriptionActive {
			activeCount++
		}
		if s.ID == first.ID {
			assert.Equal(t, domain.SubscriptionCancelled, s.Status)
		}
	}
	assert.Equal(t, 1, activeCount)

	payments, err := svc.Payments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, int64(1999), payments[0].Amount)
	assert.True(t, svc.CheckEntitlement(ctx, "u1", "Genomic Integration"))
	assert.False(t, svc.CheckEntitlement(ctx, "u1", "AI Health Insights"))
}

func TestSubscribe_PaymentFailure(t *testing.T) {
	h := newHarness(t)
	svc := h.billing()
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "u1", "plan_premium")
	require.NoError(t, err)

	h.gateway.Decline("u1")
	_, err = svc.Subscribe(ctx, "u1", "plan_pro")
	assert.ErrorIs(t, err, domain.ErrPaymentFailed)

	active, err := svc.GetSubscription(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "plan_premium", active.PlanID)

	payments, err := svc.Payments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	statuses := []string{payments[0].Status, payments[1].Status}
	assert.ElementsMatch(t, []string{domain.PaymentSucceeded, domain.PaymentFailed}, statuses)
	assert.Equal(t, []string{domain.ActionSubscribe}, h.auditActions(t, "u1"))
}

func TestSubscribe_FreePlanSkipsGateway(t *testing.T) {
	h := newHarness(t)
	svc := h.billing()

	sub, err := svc.Subscribe(context.Background(), "u1", "plan_free")
	require.NoError(t, err)
	assert.Equal(t, "plan_free", sub.PlanID)
	assert.Zero(t, h.gateway.Attempts())
	assert.True(t, svc.CheckEntitlement(context.Background(), "u1", "Cycle Tracking"))
}

func TestSubscribe_YearlyPlan(t *testing.T) {
	catalog, err := repository.ParseCatalog([]byte(`
plans:
  - id: plan_annual
    name: Annual
    price: {amount: 9999, currency: USD}
    interval: year
    features: [AI Health Insights]
`))
	require.NoError(t, err)
	h := newHarnessWithCatalog(t, catalog)

	sub, err := h.billing().Subscribe(context.Background(), "u1", "plan_annual")
	require.NoError(t, err)
	assert.True(t, sub.EndDate.Equal(testNow.AddDate(1, 0, 0)))
}

func TestSubscribe_UnknownPlan(t *testing.T) {
	h := newHarness(t)
	_, err := h.billing().Subscribe(context.Background(), "u1", "plan_nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancelSubscription(t *testing.T) {
	h := newHarness(t)
	svc := h.billing()
	ctx := context.Background()

	out, err := svc.CancelSubscription(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Empty(t, h.auditActions(t, "u1"))

	_, err = svc.Subscribe(ctx, "u1", "plan_premium")
	require.NoError(t, err)
	h.advance(time.Second)
	out, err = svc.CancelSubscription(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, domain.SubscriptionCancelled, out.Status)
	assert.False(t, out.AutoRenew)

	active, err := svc.GetSubscription(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.False(t, svc.CheckEntitlement(ctx, "u1", "AI Health Insights"))
	assert.Equal(t, []string{domain.ActionCancelSubscription, domain.ActionSubscribe}, h.auditActions(t, "u1"))
}

func TestCheckEntitlement_NoSubscription(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.billing().CheckEntitlement(context.Background(), "nobody", "AI Health Insights"))
}

func TestPlans(t *testing.T) {
	h := newHarness(t)
	plans, err := h.billing().Plans(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, 3)
}
