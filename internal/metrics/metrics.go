// Package metrics holds the prometheus collectors shared by the data layer.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shethrive"

type Metrics struct {
	StoreTransactions  *prometheus.CounterVec
	StoreRetries       *prometheus.CounterVec
	CorruptCollections *prometheus.CounterVec
	AuditAppends       prometheus.Counter
	AuditSinkFailures  *prometheus.CounterVec
	CipherFailures     *prometheus.CounterVec
	Bookings           *prometheus.CounterVec
	Subscriptions      *prometheus.CounterVec
	PaymentAttempts    *prometheus.CounterVec
	InsightRequests    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StoreTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "transactions_total",
			Help: "Entity store transactions by backend and result.",
		}, []string{"backend", "result"}),
		StoreRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "retries_total",
			Help: "Optimistic transaction retries by backend.",
		}, []string{"backend"}),
		CorruptCollections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "corrupt_collections_total",
			Help: "Collections that failed to decode and were treated as empty.",
		}, []string{"collection"}),
		AuditAppends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "audit", Name: "appends_total",
			Help: "Audit entries appended.",
		}),
		AuditSinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "audit", Name: "sink_failures_total",
			Help: "Audit fan-out publish failures by sink.",
		}, []string{"sink"}),
		CipherFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cipher", Name: "decrypt_failures_total",
			Help: "Decrypt calls that resolved to a sentinel.",
		}, []string{"reason"}),
		Bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "booking", Name: "requests_total",
			Help: "Appointment booking attempts by result.",
		}, []string{"result"}),
		Subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "billing", Name: "subscribe_total",
			Help: "Subscribe attempts by result.",
		}, []string{"result"}),
		PaymentAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "billing", Name: "authorization_attempts_total",
			Help: "Payment authorization attempts by result.",
		}, []string{"result"}),
		InsightRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "insight", Name: "requests_total",
			Help: "Insight generation requests by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.StoreTransactions,
		m.StoreRetries,
		m.CorruptCollections,
		m.AuditAppends,
		m.AuditSinkFailures,
		m.CipherFailures,
		m.Bookings,
		m.Subscriptions,
		m.PaymentAttempts,
		m.InsightRequests,
	)
	return m
}

func (m *Metrics) StoreTransaction(backend string, err error) {
	if m == nil {
		return
	}
	m.StoreTransactions.WithLabelValues(backend, resultLabel(err)).Inc()
}

func (m *Metrics) StoreRetry(backend string) {
	if m == nil {
		return
	}
	m.StoreRetries.WithLabelValues(backend).Inc()
}

func (m *Metrics) CorruptCollection(key string) {
	if m == nil {
		return
	}
	m.CorruptCollections.WithLabelValues(key).Inc()
}

func (m *Metrics) AuditAppended() {
	if m == nil {
		return
	}
	m.AuditAppends.Inc()
}

func (m *Metrics) AuditSinkFailed(sink string) {
	if m == nil {
		return
	}
	m.AuditSinkFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) CipherFailed(reason string) {
	if m == nil {
		return
	}
	m.CipherFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) Booking(result string) {
	if m == nil {
		return
	}
	m.Bookings.WithLabelValues(result).Inc()
}

func (m *Metrics) Subscription(result string) {
	if m == nil {
		return
	}
	m.Subscriptions.WithLabelValues(result).Inc()
}

func (m *Metrics) PaymentAttempt(err error) {
	if m == nil {
		return
	}
	m.PaymentAttempts.WithLabelValues(resultLabel(err)).Inc()
}

func (m *Metrics) Insight(result string) {
	if m == nil {
		return
	}
	m.InsightRequests.WithLabelValues(result).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
