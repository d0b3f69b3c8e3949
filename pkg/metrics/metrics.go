package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ContactSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Total number of contact form submissions by outcome (count)",
		},
		[]string{"outcome", "reason"},
	)

	ContactProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_processing_duration_ms",
			Help:    "End-to-end submission processing duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"outcome"},
	)

	ContactRuleEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_rule_evaluations_total",
			Help: "Total number of custom spam rule evaluations (count)",
		},
		[]string{"rule_name", "result"},
	)

	RiskAssessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_risk_assessments_total",
			Help: "Total number of reCAPTCHA assessments by result (count)",
		},
		[]string{"result"},
	)

	RiskScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contact_risk_score",
			Help:    "Distribution of reCAPTCHA risk scores (0.0 to 1.0)",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	RiskAssessmentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contact_risk_assessment_duration_ms",
			Help:    "Duration of reCAPTCHA assessment calls in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)

	EmailDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_email_deliveries_total",
			Help: "Total number of email delivery attempts per provider (count)",
		},
		[]string{"provider", "message", "status"},
	)

	EmailDeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_email_delivery_duration_ms",
			Help:    "Duration of email provider calls in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"provider"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)
)

var (
	contactOnce        sync.Once
	circuitBreakerOnce sync.Once
	rateLimitOnce      sync.Once
)

func RegisterContactMetrics() {
	contactOnce.Do(func() {
		prometheus.MustRegister(ContactSubmissionsTotal)
		prometheus.MustRegister(ContactProcessingDuration)
		prometheus.MustRegister(ContactRuleEvaluationsTotal)
		prometheus.MustRegister(RiskAssessmentsTotal)
		prometheus.MustRegister(RiskScore)
		prometheus.MustRegister(RiskAssessmentDuration)
		prometheus.MustRegister(EmailDeliveriesTotal)
		prometheus.MustRegister(EmailDeliveryDuration)
	})
}

func RegisterCircuitBreakerMetrics() {
	circuitBreakerOnce.Do(func() {
		prometheus.MustRegister(CircuitBreakerState)
		prometheus.MustRegister(CircuitBreakerRequests)
		prometheus.MustRegister(CircuitBreakerFailures)
	})
}

func RegisterRateLimitMetrics() {
	rateLimitOnce.Do(func() {
		prometheus.MustRegister(RateLimitRequestsTotal)
	})
}

func IncSubmission(outcome, reason string) {
	ContactSubmissionsTotal.WithLabelValues(outcome, reason).Inc()
}

func ObserveProcessingDuration(outcome string, duration time.Duration) {
	ContactProcessingDuration.WithLabelValues(outcome).Observe(float64(duration.Milliseconds()))
}

func IncRuleEvaluation(ruleName, result string) {
	ContactRuleEvaluationsTotal.WithLabelValues(ruleName, result).Inc()
}

func IncRiskAssessment(result string) {
	RiskAssessmentsTotal.WithLabelValues(result).Inc()
}

func ObserveRiskScore(score float64) {
	RiskScore.Observe(score)
}

func ObserveRiskAssessmentDuration(duration time.Duration) {
	RiskAssessmentDuration.Observe(float64(duration.Milliseconds()))
}

func IncEmailDelivery(provider, message, status string) {
	EmailDeliveriesTotal.WithLabelValues(provider, message, status).Inc()
}

func ObserveEmailDeliveryDuration(provider string, duration time.Duration) {
	EmailDeliveryDuration.WithLabelValues(provider).Observe(float64(duration.Milliseconds()))
}
