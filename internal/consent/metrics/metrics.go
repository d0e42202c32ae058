package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for consent validation and persistence.
type Metrics struct {
	// Validation passes by outcome: valid, invalid, error
	ValidationOutcome *prometheus.CounterVec

	// Failed rules by field and rule code
	ValidationFailures *prometheus.CounterVec

	SubmitLatency prometheus.Histogram

	// Eligibility cache lookups by result: hit, miss, error
	EligibilityCache *prometheus.CounterVec
}

// New registers consent metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ValidationOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trialconsent_validation_outcomes_total",
			Help: "Consent validation passes by outcome",
		}, []string{"operation", "outcome"}),

		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trialconsent_validation_failures_total",
			Help: "Failed consent validation rules by field and code",
		}, []string{"field", "code"}),

		SubmitLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "trialconsent_submit_duration_seconds",
			Help:    "Duration of consent submission including validation and persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		EligibilityCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trialconsent_eligibility_cache_lookups_total",
			Help: "Eligibility cache lookups by result",
		}, []string{"result"}),
	}
}

// IncrementOutcome records one validation pass for operation (validate or submit).
func (m *Metrics) IncrementOutcome(operation, outcome string) {
	if m != nil {
		m.ValidationOutcome.WithLabelValues(operation, outcome).Inc()
	}
}

// IncrementFailure records one failed rule.
func (m *Metrics) IncrementFailure(field, code string) {
	if m != nil {
		m.ValidationFailures.WithLabelValues(field, code).Inc()
	}
}

func (m *Metrics) ObserveSubmitLatency(d time.Duration) {
	if m != nil {
		m.SubmitLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) RecordCacheHit() {
	if m != nil {
		m.EligibilityCache.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) RecordCacheMiss() {
	if m != nil {
		m.EligibilityCache.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) RecordCacheError() {
	if m != nil {
		m.EligibilityCache.WithLabelValues("error").Inc()
	}
}
