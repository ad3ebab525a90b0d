// Package metrics declares the Prometheus collectors matchreel exports on
// /metrics and the helpers components call to update them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "matchreel"

	runsTotal             = "runs_total"
	stageDurationSeconds  = "stage_duration_seconds"
	opendotaRequestsTotal = "opendota_requests_total"
	uploadAttemptsTotal   = "upload_attempts_total"
	notificationsTotal    = "notifications_total"
	queueDepth            = "queue_depth"

	// Labels
	statusLabel   = "status"
	kindLabel     = "kind"
	stageLabel    = "stage"
	endpointLabel = "endpoint"
	outcomeLabel  = "outcome"
)

var runsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      runsTotal,
		Help:      "pipeline runs by terminal status and failure kind",
	},
	[]string{statusLabel, kindLabel},
)

var stageDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      stageDurationSeconds,
		Help:      "time spent in each pipeline stage",
		Buckets:   []float64{0.5, 1, 5, 20, 60, 300, 1800, 7200},
	},
	[]string{stageLabel},
)

var opendotaRequestsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      opendotaRequestsTotal,
		Help:      "OpenDota API requests by endpoint and outcome",
	},
	[]string{endpointLabel, outcomeLabel},
)

var uploadAttemptsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      uploadAttemptsTotal,
		Help:      "YouTube upload attempts by outcome",
	},
	[]string{outcomeLabel},
)

var notificationsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      notificationsTotal,
		Help:      "terminal notifications by outcome",
	},
	[]string{outcomeLabel},
)

var queueDepthMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      queueDepth,
		Help:      "recordings waiting for the pipeline worker",
	},
)

func IncreaseRunsTotal(status, kind string) {
	runsTotalMetric.With(prometheus.Labels{statusLabel: status, kindLabel: kind}).Inc()
}

func ObserveStageDuration(stage string, d time.Duration) {
	stageDurationMetric.With(prometheus.Labels{stageLabel: stage}).Observe(d.Seconds())
}

func IncreaseOpenDotaRequests(endpoint, outcome string) {
	opendotaRequestsMetric.With(prometheus.Labels{endpointLabel: endpoint, outcomeLabel: outcome}).Inc()
}

func IncreaseUploadAttempts(outcome string) {
	uploadAttemptsMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func IncreaseNotifications(outcome string) {
	notificationsMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func SetQueueDepth(n int) {
	queueDepthMetric.Set(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(runsTotalMetric)
	prometheus.MustRegister(stageDurationMetric)
	prometheus.MustRegister(opendotaRequestsMetric)
	prometheus.MustRegister(uploadAttemptsMetric)
	prometheus.MustRegister(notificationsMetric)
	prometheus.MustRegister(queueDepthMetric)
}
