package repository

import (
	"context"

	"SignalOps/internal/domain/models"
)

// FlagRepository reads and mutates the shared safety-flag snapshot. Each setter
// is one atomic field-level write in the underlying store; there is no
// cross-field transaction and the metadata blob belongs to whichever write
// lands last.
type FlagRepository interface {
	GetSnapshot(ctx context.Context) (models.FlagSnapshot, error)
	SetGlobalHalt(ctx context.Context, value bool, reason string) error
	SetHaltedPairs(ctx context.Context, pairs []string, reason string) error
	SetFlattenPairs(ctx context.Context, pairs []string, reason string) error
	SetLeverageScale(ctx context.Context, value float64, reason string) error
}

// Publisher sends a payload to a named broadcast channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// MessageHandler consumes one payload delivered on a subscribed channel.
type MessageHandler func(payload []byte)

// Subscriber attaches a handler to a named broadcast channel. Subscribe is
// non-blocking: delivery happens on a dedicated background listener until
// Unsubscribe, which terminates the listener within a bounded time.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler MessageHandler) error
	Unsubscribe(channel string) error
}

// AuditLogger records one audit event per recognized ops command.
type AuditLogger interface {
	Log(ctx context.Context, event string, payload map[string]string)
}

// Notifier delivers a human-readable notification (Slack, PagerDuty).
type Notifier interface {
	Notify(ctx context.Context, message, title string, fields map[string]string) error
}

// InferenceUseCase is the external collaborator that turns a request into
// signals. The whole training/backtest/publish pipeline hides behind it.
type InferenceUseCase interface {
	Execute(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error)
}

// SignalArchiver persists a signal envelope consumed from the signal channel.
type SignalArchiver interface {
	Archive(ctx context.Context, env *models.SignalEnvelope, raw []byte) error
	Close() error
}

// HeartbeatWriter records worker liveness with a TTL-expiring record.
type HeartbeatWriter interface {
	WriteHeartbeat(ctx context.Context, workerID string) error
}

// Metrics records control-plane observability counters.
type Metrics interface {
	ObserveInferenceLatency(workerID string, seconds float64)
	IncSignalsPublished(workerID string, count int)
	IncHaltSkip(workerID string)
	IncDecodeError(workerID string)
	IncOpsCommand(command, status string)
	IncSideEffectFailure(kind string)
	RecordHeartbeat(workerID string, unixSeconds float64)
}

// NopMetrics is a Metrics that records nothing. Useful in tests and CLIs.
type NopMetrics struct{}

func (NopMetrics) ObserveInferenceLatency(string, float64) {}
func (NopMetrics) IncSignalsPublished(string, int)         {}
func (NopMetrics) IncHaltSkip(string)                      {}
func (NopMetrics) IncDecodeError(string)                   {}
func (NopMetrics) IncOpsCommand(string, string)            {}
func (NopMetrics) IncSideEffectFailure(string)             {}
func (NopMetrics) RecordHeartbeat(string, float64)         {}
