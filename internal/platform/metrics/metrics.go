// Package metrics exposes the matching pipeline's Prometheus
// instrumentation.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hie/mpi/internal/mpi"
)

// Metrics holds the collectors for match decisions. Register one instance
// per process.
type Metrics struct {
	registry *prometheus.Registry

	MatchRequests *prometheus.CounterVec
	RuleVetoes    *prometheus.CounterVec
	Ambiguous     prometheus.Counter
	CandidateSet  prometheus.Histogram
	MatchScore    prometheus.Histogram
}

// New builds and registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		MatchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mpi",
			Name:      "match_requests_total",
			Help:      "Identity resolution requests by outcome.",
		}, []string{"outcome"}),
		RuleVetoes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mpi",
			Name:      "rule_vetoes_total",
			Help:      "Candidate pairs rejected by a business rule.",
		}, []string{"rule"}),
		Ambiguous: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mpi",
			Name:      "ambiguous_matches_total",
			Help:      "Subjects that matched more than one candidate.",
		}),
		CandidateSet: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mpi",
			Name:      "candidate_set_size",
			Help:      "Candidates retrieved per blocking-key lookup.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		MatchScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mpi",
			Name:      "match_total_score",
			Help:      "Total weighted score of evaluated pairs.",
			Buckets:   []float64{0, 2, 4, 6, 8, 8.5, 10, 14, 18, 24, 30},
		}),
	}

	reg.MustRegister(m.MatchRequests, m.RuleVetoes, m.Ambiguous, m.CandidateSet, m.MatchScore)
	return m
}

// RecordOutcome tallies one resolution: the outcome label, candidate-set
// size, and the score of every evaluated pair. A nil receiver is a no-op so
// callers built without instrumentation need no guard.
func (m *Metrics) RecordOutcome(out mpi.Outcome) {
	if m == nil {
		return
	}
	switch {
	case out.Selected < 0:
		m.MatchRequests.WithLabelValues("no_match").Inc()
	case out.Ambiguous:
		m.MatchRequests.WithLabelValues("ambiguous").Inc()
	default:
		m.MatchRequests.WithLabelValues("matched").Inc()
	}
	m.CandidateSet.Observe(float64(len(out.Verdicts)))
	for _, v := range out.Verdicts {
		m.MatchScore.Observe(v.TotalScore)
	}
}

// Sink adapts the collectors to the matcher's event interface so vetoes and
// ambiguity are counted as they happen.
func (m *Metrics) Sink() mpi.EventSink {
	return &metricsSink{m: m}
}

type metricsSink struct{ m *Metrics }

func (s *metricsSink) Notify(e mpi.Event) {
	switch e.Kind {
	case mpi.EventRuleVeto:
		s.m.RuleVetoes.WithLabelValues(e.Rule).Inc()
	case mpi.EventAmbiguousMatch:
		s.m.Ambiguous.Inc()
	}
}

// Handler serves the registry in Prometheus text exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}
