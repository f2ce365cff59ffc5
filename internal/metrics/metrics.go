// Package metrics exposes engine and reload activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/swapcheck/internal/engine"
	"github.com/roach88/swapcheck/internal/ir"
)

// Metrics tracks rule matching, evaluation outcomes and rule reloads.
//
// Metrics (with namespace "swapcheck"):
//   - swapcheck_rule_matches_total: Times a rule's condition held
//   - swapcheck_rule_misses_total: Times a rule's condition did not hold
//   - swapcheck_evaluations_total: Finished evaluations by final level
//   - swapcheck_evaluation_duration_seconds: Evaluation duration
//   - swapcheck_evaluation_score: Distribution of final scores
//   - swapcheck_rules_loaded: Size of the active rule list
//   - swapcheck_rule_reloads_total: Rule reload attempts by outcome
type Metrics struct {
	ruleMatches        *prometheus.CounterVec
	ruleMisses         *prometheus.CounterVec
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	score              prometheus.Histogram
	rulesLoaded        prometheus.Gauge
	reloadsTotal       *prometheus.CounterVec
}

var _ engine.Observer = (*Metrics)(nil)

// New creates and registers the metrics with registry.
// Panics if a metric with the same name is already registered.
func New(namespace string, registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		ruleMatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_matches_total",
				Help:      "Total number of times a rule condition held",
			},
			[]string{"rule_id"},
		),

		ruleMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_misses_total",
				Help:      "Total number of times a rule condition did not hold",
			},
			[]string{"rule_id"},
		),

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Total number of evaluations by resulting compatibility level",
			},
			[]string{"level"},
		),

		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of one evaluation in seconds",
				// A rule fold over a few hundred rules is well under a millisecond
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
		),

		score: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_score",
				Help:      "Final compatibility score of evaluations",
				Buckets:   prometheus.LinearBuckets(0, 10, 11), // 0, 10, ..., 100
			},
		),

		rulesLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rules_loaded",
				Help:      "Number of rules in the active rule list",
			},
		),

		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_reloads_total",
				Help:      "Total number of rule reload attempts by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		m.ruleMatches,
		m.ruleMisses,
		m.evaluationsTotal,
		m.evaluationDuration,
		m.score,
		m.rulesLoaded,
		m.reloadsTotal,
	)

	return m
}

// RuleEvaluated implements engine.Observer.
func (m *Metrics) RuleEvaluated(ruleID string, matched bool) {
	if matched {
		m.ruleMatches.WithLabelValues(ruleID).Inc()
		return
	}
	m.ruleMisses.WithLabelValues(ruleID).Inc()
}

// EvaluationCompleted implements engine.Observer.
func (m *Metrics) EvaluationCompleted(result ir.CompatibilityResult, elapsed time.Duration) {
	m.evaluationsTotal.WithLabelValues(result.Level.String()).Inc()
	m.evaluationDuration.Observe(elapsed.Seconds())
	m.score.Observe(float64(result.Score))
}

// RecordReload records a rule reload. ruleCount is only used when err is
// nil.
func (m *Metrics) RecordReload(ruleCount int, err error) {
	if err != nil {
		m.reloadsTotal.WithLabelValues("error").Inc()
		return
	}
	m.reloadsTotal.WithLabelValues("success").Inc()
	m.rulesLoaded.Set(float64(ruleCount))
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(
		gatherer,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}
