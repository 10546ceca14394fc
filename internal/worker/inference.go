package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalOps/internal/domain/models"
	drepo "SignalOps/internal/domain/repository"
	"SignalOps/pkg/logger"
)

// Config holds per-worker settings.
type Config struct {
	WorkerID          string
	RequestChannel    string
	SignalChannel     string
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
}

// Worker consumes inference requests from the request channel, consults the
// safety flags, invokes the inference collaborator, and republishes signals.
// Message handling runs on the subscriber's listener goroutine, concurrently
// with the heartbeat control loop on the caller's goroutine.
type Worker struct {
	cfg       Config
	inference drepo.InferenceUseCase
	publisher drepo.Publisher
	sub       drepo.Subscriber
	flags     drepo.FlagRepository
	heartbeat drepo.HeartbeatWriter
	metrics   drepo.Metrics
	logger    *logger.Logger
	clock     func() time.Time

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// Option configures the worker.
type Option func(*Worker)

// WithClock overrides the time source. Tests use this.
func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		w.clock = clock
	}
}

// New creates an inference worker.
func New(
	cfg Config,
	inference drepo.InferenceUseCase,
	publisher drepo.Publisher,
	sub drepo.Subscriber,
	flags drepo.FlagRepository,
	heartbeat drepo.HeartbeatWriter,
	metrics drepo.Metrics,
	lgr *logger.Logger,
	opts ...Option,
) *Worker {
	w := &Worker{
		cfg:       cfg,
		inference: inference,
		publisher: publisher,
		sub:       sub,
		flags:     flags,
		heartbeat: heartbeat,
		metrics:   metrics,
		logger:    lgr.With(logger.String("worker_id", cfg.WorkerID)),
		clock:     time.Now,
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start subscribes to the request channel and runs the heartbeat control loop
// until ctx is cancelled or Stop is called. Blocks the calling goroutine.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("worker already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.ctx = runCtx
	w.cancel = cancel
	w.running = true
	w.mu.Unlock()

	w.logger.Info("starting inference worker",
		logger.String("request_channel", w.cfg.RequestChannel),
		logger.String("signal_channel", w.cfg.SignalChannel))

	if err := w.sub.Subscribe(runCtx, w.cfg.RequestChannel, w.HandleMessage); err != nil {
		w.finish()
		return fmt.Errorf("subscribe requests: %w", err)
	}

	var lastHeartbeat time.Time
	for {
		now := w.clock()
		if now.Sub(lastHeartbeat) >= w.cfg.HeartbeatInterval {
			w.writeHeartbeat(runCtx, now)
			lastHeartbeat = now
		}

		select {
		case <-runCtx.Done():
			w.logger.Info("inference worker stopped")
			w.finish()
			return nil
		case <-time.After(w.cfg.PollInterval):
		}
	}
}

// Stop cancels the control loop and unsubscribes. Cooperative: an in-flight
// HandleMessage call is not interrupted.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()

	w.logger.Info("stopping inference worker")
	if cancel != nil {
		cancel()
	}
	if err := w.sub.Unsubscribe(w.cfg.RequestChannel); err != nil {
		w.logger.Warn("unsubscribe requests", logger.Error(err))
	}
}

func (w *Worker) finish() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

func (w *Worker) writeHeartbeat(ctx context.Context, now time.Time) {
	if err := w.heartbeat.WriteHeartbeat(ctx, w.cfg.WorkerID); err != nil {
		// Missing the key is itself the liveness signal; keep running.
		w.logger.Error("heartbeat write failed", logger.Error(err))
		return
	}
	w.metrics.RecordHeartbeat(w.cfg.WorkerID, float64(now.UnixNano())/float64(time.Second))
}

// HandleMessage processes one inference request payload. Invoked on the
// subscriber's listener goroutine. Delivery is at-most-once: malformed
// messages are logged and dropped, and a true global halt always suppresses
// inference with no override path. A flag-store read failure also drops the
// message: without a readable snapshot the gate fails closed.
func (w *Worker) HandleMessage(payload []byte) {
	ctx := w.runContext()

	req, err := models.DecodeInferenceRequest(payload)
	if err != nil {
		w.metrics.IncDecodeError(w.cfg.WorkerID)
		w.logger.Error("dropping undecodable inference request", logger.Error(err))
		return
	}

	snapshot, err := w.flags.GetSnapshot(ctx)
	if err != nil {
		w.metrics.IncDecodeError(w.cfg.WorkerID)
		w.logger.Error("flag store unavailable, dropping request", logger.Error(err))
		return
	}
	if snapshot.GlobalHalt {
		w.metrics.IncHaltSkip(w.cfg.WorkerID)
		w.logger.Warn("global halt active, skipping inference",
			logger.Strings("partition_ids", req.PartitionIDs))
		return
	}

	start := w.clock()
	resp, err := w.inference.Execute(ctx, req)
	duration := w.clock().Sub(start)
	if err != nil {
		w.logger.Error("inference failed",
			logger.Strings("partition_ids", req.PartitionIDs),
			logger.Error(err))
		return
	}

	w.metrics.ObserveInferenceLatency(w.cfg.WorkerID, duration.Seconds())
	w.logger.Info("inference completed",
		logger.Strings("partition_ids", req.PartitionIDs),
		logger.Int("signals", len(resp.Signals)),
		logger.Duration("duration", duration))

	diagnostics := make(map[string]string, len(resp.Diagnostics)+2)
	for k, v := range resp.Diagnostics {
		diagnostics[k] = v
	}
	diagnostics["inference_duration_ms"] = fmt.Sprintf("%.2f", float64(duration.Microseconds())/1000.0)
	diagnostics["worker_id"] = w.cfg.WorkerID

	envelope := models.SignalEnvelope{
		Signals:     resp.Signals,
		Metadata:    req.Metadata,
		Diagnostics: diagnostics,
	}
	b, err := envelope.Encode()
	if err != nil {
		w.logger.Error("encode signal envelope", logger.Error(err))
		return
	}
	if err := w.publisher.Publish(ctx, w.cfg.SignalChannel, b); err != nil {
		w.logger.Error("publish signals", logger.Error(err))
		return
	}
	w.metrics.IncSignalsPublished(w.cfg.WorkerID, len(resp.Signals))
}

func (w *Worker) runContext() context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ctx
}
