package usecase

import (
	"context"
	"fmt"
	"testing"

	"SignalOps/internal/domain/models"
	drepo "SignalOps/internal/domain/repository"
	"SignalOps/pkg/logger"
)

type sinkSubscriber struct {
	handlers map[string]drepo.MessageHandler
}

func newSinkSubscriber() *sinkSubscriber {
	return &sinkSubscriber{handlers: map[string]drepo.MessageHandler{}}
}

func (s *sinkSubscriber) Subscribe(ctx context.Context, channel string, handler drepo.MessageHandler) error {
	s.handlers[channel] = handler
	return nil
}

func (s *sinkSubscriber) Unsubscribe(channel string) error {
	delete(s.handlers, channel)
	return nil
}

type recordingArchiver struct {
	envelopes []*models.SignalEnvelope
	failure   error
	closed    bool
}

func (a *recordingArchiver) Archive(ctx context.Context, env *models.SignalEnvelope, raw []byte) error {
	if a.failure != nil {
		return a.failure
	}
	a.envelopes = append(a.envelopes, env)
	return nil
}

func (a *recordingArchiver) Close() error {
	a.closed = true
	return nil
}

func sinkPayload(t *testing.T) []byte {
	t.Helper()
	env := models.SignalEnvelope{
		Signals:     []models.Signal{},
		Metadata:    map[string]string{"run": "x"},
		Diagnostics: map[string]string{"worker_id": "w1"},
	}
	b, err := env.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

func TestSignalSinkArchivesEnvelopes(t *testing.T) {
	sub := newSinkSubscriber()
	first := &recordingArchiver{}
	second := &recordingArchiver{}
	sink := NewSignalSink("sig", sub, []drepo.SignalArchiver{first, second}, logger.Nop())

	if err := sink.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	handler := sub.handlers["sig"]
	if handler == nil {
		t.Fatalf("sink did not subscribe")
	}

	handler(sinkPayload(t))
	if len(first.envelopes) != 1 || len(second.envelopes) != 1 {
		t.Fatalf("archive counts = %d, %d", len(first.envelopes), len(second.envelopes))
	}
}

func TestSignalSinkDropsUndecodablePayload(t *testing.T) {
	sub := newSinkSubscriber()
	archiver := &recordingArchiver{}
	sink := NewSignalSink("sig", sub, []drepo.SignalArchiver{archiver}, logger.Nop())

	if err := sink.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sub.handlers["sig"]([]byte(`{broken`))
	if len(archiver.envelopes) != 0 {
		t.Fatalf("undecodable payload was archived")
	}
}

func TestSignalSinkArchiverFailureDoesNotBlockOthers(t *testing.T) {
	sub := newSinkSubscriber()
	failing := &recordingArchiver{failure: fmt.Errorf("disk full")}
	healthy := &recordingArchiver{}
	sink := NewSignalSink("sig", sub, []drepo.SignalArchiver{failing, healthy}, logger.Nop())

	if err := sink.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sub.handlers["sig"](sinkPayload(t))
	if len(healthy.envelopes) != 1 {
		t.Fatalf("healthy archiver skipped after sibling failure")
	}
}

func TestSignalSinkStopClosesArchivers(t *testing.T) {
	sub := newSinkSubscriber()
	archiver := &recordingArchiver{}
	sink := NewSignalSink("sig", sub, []drepo.SignalArchiver{archiver}, logger.Nop())

	if err := sink.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sink.Stop()
	if !archiver.closed {
		t.Fatalf("archiver not closed")
	}
	if _, still := sub.handlers["sig"]; still {
		t.Fatalf("sink still subscribed after Stop")
	}
}

func TestSignalSinkDisabledWithoutArchivers(t *testing.T) {
	sub := newSinkSubscriber()
	sink := NewSignalSink("sig", sub, nil, logger.Nop())

	if err := sink.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(sub.handlers) != 0 {
		t.Fatalf("disabled sink subscribed anyway")
	}
	sink.Stop()
}
