package usecase

import (
	"context"
	"fmt"

	"SignalOps/internal/domain/models"
	drepo "SignalOps/internal/domain/repository"
	"SignalOps/pkg/logger"
)

// SignalSink is a downstream consumer of the signal channel: it decodes each
// envelope and hands it to the configured archivers (ClickHouse, Kafka).
// Archive failures are logged and the message is dropped; the channel is
// fire-and-forget and the sink never blocks the worker fleet.
type SignalSink struct {
	channel   string
	sub       drepo.Subscriber
	archivers []drepo.SignalArchiver
	logger    *logger.Logger
}

// NewSignalSink creates a sink over the given signal channel.
func NewSignalSink(channel string, sub drepo.Subscriber, archivers []drepo.SignalArchiver, lgr *logger.Logger) *SignalSink {
	return &SignalSink{
		channel:   channel,
		sub:       sub,
		archivers: archivers,
		logger:    lgr,
	}
}

// Start subscribes the sink. Non-blocking; delivery happens on the
// subscriber's listener goroutine until ctx is cancelled or Stop is called.
func (s *SignalSink) Start(ctx context.Context) error {
	if len(s.archivers) == 0 {
		s.logger.Info("signal sink disabled, no archivers configured")
		return nil
	}
	if err := s.sub.Subscribe(ctx, s.channel, func(payload []byte) {
		s.handle(ctx, payload)
	}); err != nil {
		return fmt.Errorf("subscribe signals: %w", err)
	}
	s.logger.Info("signal sink started",
		logger.String("channel", s.channel),
		logger.Int("archivers", len(s.archivers)))
	return nil
}

// Stop unsubscribes and closes the archivers.
func (s *SignalSink) Stop() {
	if len(s.archivers) == 0 {
		return
	}
	if err := s.sub.Unsubscribe(s.channel); err != nil {
		s.logger.Warn("unsubscribe signals", logger.Error(err))
	}
	for _, a := range s.archivers {
		if err := a.Close(); err != nil {
			s.logger.Warn("close archiver", logger.Error(err))
		}
	}
}

func (s *SignalSink) handle(ctx context.Context, payload []byte) {
	env, err := models.DecodeSignalEnvelope(payload)
	if err != nil {
		s.logger.Error("dropping undecodable signal envelope", logger.Error(err))
		return
	}
	for _, a := range s.archivers {
		if err := a.Archive(ctx, env, payload); err != nil {
			s.logger.Error("archive signal envelope", logger.Error(err))
		}
	}
}
