package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	inferenceLatency   *prometheus.HistogramVec
	signalsPublished   *prometheus.CounterVec
	haltSkips          *prometheus.CounterVec
	decodeErrors       *prometheus.CounterVec
	opsCommands        *prometheus.CounterVec
	sideEffectFailures *prometheus.CounterVec
	heartbeats         *prometheus.CounterVec
	lastHeartbeat      *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		inferenceLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalops_inference_duration_seconds",
				Help:    "Duration of inference collaborator calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"worker_id"},
		),
		signalsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalops_signals_published_total",
				Help: "Total number of signals published to the signal channel",
			},
			[]string{"worker_id"},
		),
		haltSkips: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalops_halt_skips_total",
				Help: "Inference requests dropped because the global halt was active",
			},
			[]string{"worker_id"},
		),
		decodeErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalops_decode_errors_total",
				Help: "Inbound messages dropped due to decode or validation failure",
			},
			[]string{"worker_id"},
		),
		opsCommands: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalops_ops_commands_total",
				Help: "Ops commands executed by command name and response status",
			},
			[]string{"command", "status"},
		),
		sideEffectFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalops_ops_side_effect_failures_total",
				Help: "Best-effort ops side effects (event publish, notify) that failed",
			},
			[]string{"kind"},
		),
		heartbeats: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalops_heartbeats_written_total",
				Help: "Heartbeat records written by the worker control loop",
			},
			[]string{"worker_id"},
		),
		lastHeartbeat: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalops_last_heartbeat_timestamp_seconds",
				Help: "Unix timestamp of the last heartbeat written",
			},
			[]string{"worker_id"},
		),
	}
}

// ObserveInferenceLatency records the duration of one inference call.
func (r *Recorder) ObserveInferenceLatency(workerID string, seconds float64) {
	r.inferenceLatency.WithLabelValues(workerID).Observe(seconds)
}

// IncSignalsPublished records signals published to the signal channel.
func (r *Recorder) IncSignalsPublished(workerID string, count int) {
	r.signalsPublished.WithLabelValues(workerID).Add(float64(count))
}

// IncHaltSkip records a request dropped by the global-halt gate.
func (r *Recorder) IncHaltSkip(workerID string) {
	r.haltSkips.WithLabelValues(workerID).Inc()
}

// IncDecodeError records a dropped malformed message.
func (r *Recorder) IncDecodeError(workerID string) {
	r.decodeErrors.WithLabelValues(workerID).Inc()
}

// IncOpsCommand records an executed ops command.
func (r *Recorder) IncOpsCommand(command, status string) {
	r.opsCommands.WithLabelValues(command, status).Inc()
}

// IncSideEffectFailure records a failed best-effort side effect.
func (r *Recorder) IncSideEffectFailure(kind string) {
	r.sideEffectFailures.WithLabelValues(kind).Inc()
}

// RecordHeartbeat records a heartbeat write.
func (r *Recorder) RecordHeartbeat(workerID string, unixSeconds float64) {
	r.heartbeats.WithLabelValues(workerID).Inc()
	r.lastHeartbeat.WithLabelValues(workerID).Set(unixSeconds)
}
