package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// runsTotal counts finished runs by outcome (succeeded, failed).
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightflow_runs_total",
		Help: "Total pipeline runs by terminal outcome",
	}, []string{"outcome"})

	// runRejectionsTotal counts Start calls refused before a run began.
	runRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightflow_run_rejections_total",
		Help: "Total run starts rejected before execution, by reason",
	}, []string{"reason"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "insightflow_run_duration_seconds",
		Help:    "Wall-clock run duration from start to join",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~64s
	})

	remoteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightflow_remote_requests_total",
		Help: "Total analysis requests by result (ok or error kind)",
	}, []string{"result"})

	remoteRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "insightflow_remote_request_duration_seconds",
		Help:    "Analysis request latency",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~51s
	})

	stageTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightflow_stage_transitions_total",
		Help: "Total stage transitions emitted by the animator",
	}, []string{"stage"})

	probesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insightflow_connectivity_probes_total",
		Help: "Total connectivity probes by result",
	}, []string{"result"})

	backendReachable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "insightflow_backend_reachable",
		Help: "1 when the last connectivity probe succeeded, 0 otherwise",
	})
)

// ObserveRun records a finished run.
func ObserveRun(outcome string, elapsed time.Duration) {
	runsTotal.WithLabelValues(outcome).Inc()
	runDuration.Observe(elapsed.Seconds())
}

// ObserveRejection records a Start call that never became a run.
func ObserveRejection(reason string) {
	runRejectionsTotal.WithLabelValues(reason).Inc()
}

// ObserveRemoteRequest records one analysis request.
func ObserveRemoteRequest(result string, elapsed time.Duration) {
	remoteRequestsTotal.WithLabelValues(result).Inc()
	remoteRequestDuration.Observe(elapsed.Seconds())
}

// ObserveStageTransition records the animator entering stage.
func ObserveStageTransition(stage string) {
	stageTransitionsTotal.WithLabelValues(stage).Inc()
}

// ObserveProbe records a connectivity probe result.
func ObserveProbe(reachable bool) {
	if reachable {
		probesTotal.WithLabelValues("reachable").Inc()
		backendReachable.Set(1)
		return
	}
	probesTotal.WithLabelValues("unreachable").Inc()
	backendReachable.Set(0)
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
