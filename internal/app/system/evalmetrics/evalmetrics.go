// Package evalmetrics holds the Prometheus collectors for evaluation
// reporting and exposes them over HTTP.
package evalmetrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/evalhub/internal/app/system/evalerrors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Report outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeConfig    = "config_error"
	OutcomeIntegrity = "integrity_error"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

var (
	reportsBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evalhub_reports_built_total",
		Help: "Reports assembled, by outcome",
	}, []string{"outcome"})

	reportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evalhub_report_build_duration_seconds",
		Help:    "Time to load a snapshot and assemble a report",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	dateWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evalhub_date_warnings_total",
		Help: "Inconsistent evaluation dates seen while resolving state, by code",
	}, []string{"code"})

	stateFixes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evalhub_state_fixes_total",
		Help: "State memos rewritten because they disagreed with the dates",
	})

	skippedItems = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evalhub_report_items_skipped_total",
		Help: "Template items left out of reports",
	})
)

// Outcome classifies a report build error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, evalerrors.ErrConfig):
		return OutcomeConfig
	case errors.Is(err, evalerrors.ErrIntegrity):
		return OutcomeIntegrity
	case errors.Is(err, evalerrors.ErrNotFound):
		return OutcomeNotFound
	}
	return OutcomeError
}

// ObserveReport records one report build.
func ObserveReport(took time.Duration, skipped int, err error) {
	reportsBuilt.WithLabelValues(Outcome(err)).Inc()
	reportDuration.Observe(took.Seconds())
	if skipped > 0 {
		skippedItems.Add(float64(skipped))
	}
}

// DateWarning records one date inconsistency.
func DateWarning(code string) {
	dateWarnings.WithLabelValues(code).Inc()
}

// StateFixed records a rewritten state memo.
func StateFixed() {
	stateFixes.Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
