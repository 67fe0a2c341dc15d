package reconciler

import (
	"github.com/backgitup/backgitup/internal/mirrors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "backgitup"

//nolint:gochecknoglobals // prometheus collectors
var (
	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "mirror_outcomes_total",
		Help:      "Mirror synchronization outcomes.",
	}, []string{"outcome"})

	passesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "passes_total",
		Help:      "Completed passes by status.",
	}, []string{"status"})

	passDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "pass_duration_seconds",
		Help:      "Duration of a full pass.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	lastPassRepositories = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "last_pass_repositories",
		Help:      "Repositories seen in the last pass by result.",
	}, []string{"result"})

	lastPassTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "last_pass_timestamp_seconds",
		Help:      "Unix time the last pass finished.",
	})
)

func observeOutcome(outcome mirrors.Outcome) {
	outcomesTotal.WithLabelValues(string(outcome)).Inc()
}

func observePass(result *PassResult) {
	status := "clean"
	switch {
	case result.ListingErr != nil:
		status = "incomplete"
	case result.Failed > 0:
		status = "failures"
	}

	passesTotal.WithLabelValues(status).Inc()
	passDuration.Observe(result.Duration().Seconds())
	lastPassRepositories.WithLabelValues("succeeded").Set(float64(result.Succeeded))
	lastPassRepositories.WithLabelValues("failed").Set(float64(result.Failed))
	lastPassTimestamp.Set(float64(result.FinishedAt.Unix()))
}
