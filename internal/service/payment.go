package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shethrive-data/internal/domain"
	"shethrive-data/internal/metrics"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrGatewayUnavailable transient; retried.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrCardDeclined permanent; not retried.
	ErrCardDeclined = errors.New("card declined")
)

// AuthorizationRequest a hold for amount against the user's payment method.
type AuthorizationRequest struct {
	UserID      string
	Amount      domain.Money
	Description string
}

// PaymentGateway external payment processor.
type PaymentGateway interface {
	Authorize(ctx context.Context, req AuthorizationRequest) (authorizationID string, err error)
	Void(ctx context.Context, authorizationID string) error
}

// SimulatedGateway approves everything after Latency unless told otherwise.
type SimulatedGateway struct {
	Latency time.Duration

	mu        sync.Mutex
	transient int
	declined  map[string]bool
	voided    []string
	attempts  int
}

func NewSimulatedGateway(latency time.Duration) *SimulatedGateway {
	return &SimulatedGateway{Latency: latency, declined: make(map[string]bool)}
}

// FailNext makes the next n Authorize calls fail with ErrGatewayUnavailable.
func (g *SimulatedGateway) FailNext(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transient = n
}

// Decline makes every authorization for userID fail with ErrCardDeclined.
func (g *SimulatedGateway) Decline(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.declined[userID] = true
}

// Voided authorization IDs released so far.
func (g *SimulatedGateway) Voided() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.voided...)
}

// Attempts Authorize calls so far.
func (g *SimulatedGateway) Attempts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts
}

func (g *SimulatedGateway) Authorize(ctx context.Context, req AuthorizationRequest) (string, error) {
	if g.Latency > 0 {
		timer := time.NewTimer(g.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attempts++
	if g.transient > 0 {
		g.transient--
		return "", ErrGatewayUnavailable
	}
	if g.declined[req.UserID] {
		return "", ErrCardDeclined
	}
	return "auth_" + uuid.New().String(), nil
}

func (g *SimulatedGateway) Void(_ context.Context, authorizationID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.voided = append(g.voided, authorizationID)
	return nil
}

// PaymentPolicy bounds authorization retries.
type PaymentPolicy struct {
	Timeout         time.Duration
	MaxAttempts     uint
	InitialInterval time.Duration
}

func (p PaymentPolicy) withDefaults() PaymentPolicy {
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 3
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = 200 * time.Millisecond
	}
	return p
}

// authorizer retries gateway authorization with exponential backoff inside a
// bounded timeout. Any final failure is reported as domain.ErrPaymentFailed.
type authorizer struct {
	gateway PaymentGateway
	policy  PaymentPolicy
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func (a *authorizer) authorize(ctx context.Context, req AuthorizationRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.policy.Timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.policy.InitialInterval
	b.MaxInterval = 2 * time.Second

	id, err := backoff.Retry(ctx, func() (string, error) {
		id, err := a.gateway.Authorize(ctx, req)
		a.metrics.PaymentAttempt(err)
		if errors.Is(err, ErrCardDeclined) {
			return "", backoff.Permanent(err)
		}
		return id, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(a.policy.MaxAttempts),
		backoff.WithMaxElapsedTime(a.policy.Timeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			a.logger.Warn("Payment authorization failed, retrying",
				zap.String("user_id", req.UserID),
				zap.Duration("next", next),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		a.logger.Error("Payment authorization failed",
			zap.String("user_id", req.UserID),
			zap.Int64("amount", req.Amount.Amount),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}
	return id, nil
}

// void releases a hold; failures are logged only.
func (a *authorizer) void(ctx context.Context, authorizationID string) {
	if authorizationID == "" {
		return
	}
	if err := a.gateway.Void(ctx, authorizationID); err != nil {
		a.logger.Error("Failed to void payment authorization",
			zap.String("authorization_id", authorizationID),
			zap.Error(err),
		)
	}
}
