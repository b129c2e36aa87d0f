package domain

import "time"

const (
	IntervalMonth = "month"
	IntervalYear  = "year"
)

type Plan struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Price       Money    `json:"price" yaml:"price"`
	Interval    string   `json:"interval" yaml:"interval"`
	Features    []string `json:"features" yaml:"features"`
	IsFeatured  bool     `json:"is_featured,omitempty" yaml:"is_featured"`
}

// HasFeature exact, case-sensitive match.
func (p Plan) HasFeature(feature string) bool {
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}

const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionPastDue   = "past_due"
	SubscriptionTrialing  = "trialing"
)

type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PlanID    string    `json:"plan_id"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	AutoRenew bool      `json:"auto_renew"`
}

const (
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
	PaymentPending   = "pending"
)

// Payment ledger line. Append-only.
type Payment struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	Date            time.Time `json:"date"`
	Description     string    `json:"description"`
	AuthorizationID string    `json:"authorization_id,omitempty"`
}
