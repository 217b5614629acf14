package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records inventory ledger activity.
type LedgerMetrics struct {
	transactions *prometheus.CounterVec
	alerts       *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	transactions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_transactions_total",
		Help: "Committed inventory ledger transactions.",
	}, []string{"type"})
	alerts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_alerts_opened_total",
		Help: "Inventory alerts opened on threshold crossings.",
	}, []string{"alert_type"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_transaction_duration_seconds",
		Help:    "Duration of ledger transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	reg.MustRegister(transactions, alerts, duration)
	return &LedgerMetrics{
		transactions: transactions,
		alerts:       alerts,
		duration:     duration,
	}
}

// IncTransaction increments the committed transaction counter.
func (m *LedgerMetrics) IncTransaction(txType string) {
	if m == nil || m.transactions == nil {
		return
	}
	m.transactions.WithLabelValues(normalizeLabel(txType)).Inc()
}

// IncAlert increments the opened alert counter.
func (m *LedgerMetrics) IncAlert(alertType string) {
	if m == nil || m.alerts == nil {
		return
	}
	m.alerts.WithLabelValues(normalizeLabel(alertType)).Inc()
}

// ObserveDuration records how long a ledger transaction took.
func (m *LedgerMetrics) ObserveDuration(txType string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(txType)).Observe(d.Seconds())
}

// AuthMetrics records authentication outcomes.
type AuthMetrics struct {
	attempts *prometheus.CounterVec
	lockouts prometheus.Counter
}

// NewAuthMetrics registers the auth metrics on the provided registerer.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Authentication attempts by outcome.",
	}, []string{"outcome"})
	lockouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_lockouts_total",
		Help: "Accounts locked after repeated failures.",
	})
	reg.MustRegister(attempts, lockouts)
	return &AuthMetrics{attempts: attempts, lockouts: lockouts}
}

// IncAttempt increments the attempt counter for the given outcome.
func (m *AuthMetrics) IncAttempt(outcome string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncLockout increments the lockout counter.
func (m *AuthMetrics) IncLockout() {
	if m == nil || m.lockouts == nil {
		return
	}
	m.lockouts.Inc()
}

// EventMetrics records update broadcaster delivery.
type EventMetrics struct {
	published *prometheus.CounterVec
	dropped   *prometheus.CounterVec
}

// NewEventMetrics registers the broadcaster metrics on the provided registerer.
func NewEventMetrics(reg prometheus.Registerer) *EventMetrics {
	if reg == nil {
		return &EventMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "domain_events_published_total",
		Help: "Domain events published to the broadcaster.",
	}, []string{"kind"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "domain_events_dropped_total",
		Help: "Domain events dropped for slow subscribers.",
	}, []string{"kind"})
	reg.MustRegister(published, dropped)
	return &EventMetrics{published: published, dropped: dropped}
}

// IncPublished increments the published counter for the given kind.
func (m *EventMetrics) IncPublished(kind string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncDropped increments the dropped counter for the given kind.
func (m *EventMetrics) IncDropped(kind string) {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
