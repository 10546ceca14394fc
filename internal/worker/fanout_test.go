package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"SignalOps/internal/domain/models"
	drepo "SignalOps/internal/domain/repository"
	"SignalOps/pkg/logger"
	"SignalOps/pkg/messaging"
)

// Two workers on the same request channel both process every request; the
// fabric is broadcast, not a work queue.
func TestTwoWorkersBothReceiveRequests(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := messaging.NewRedisPublisher(client)
	flags := &fakeFlags{snapshot: models.DefaultFlagSnapshot()}
	heartbeat := &fakeHeartbeat{}

	makeWorker := func(id string) (*Worker, *fakePublisher) {
		out := &fakePublisher{}
		inference := &fakeInference{
			response: &models.InferenceResponse{Signals: []models.Signal{testSignal()}},
		}
		sub := messaging.NewRedisSubscriber(client, logger.Nop(), time.Second)
		w := New(
			Config{
				WorkerID:          id,
				RequestChannel:    "req",
				SignalChannel:     "sig",
				PollInterval:      time.Millisecond,
				HeartbeatInterval: time.Hour,
			},
			inference, out, sub, flags, heartbeat,
			drepo.NopMetrics{}, logger.Nop(),
		)
		return w, out
	}

	w1, out1 := makeWorker("w1")
	w2, out2 := makeWorker("w2")
	go func() { _ = w1.Start(ctx) }()
	go func() { _ = w2.Start(ctx) }()
	defer w1.Stop()
	defer w2.Stop()

	// Pub/sub drops messages published before a subscription lands, so keep
	// republishing until both workers have produced an envelope.
	deadline := time.After(5 * time.Second)
	for out1.count() == 0 || out2.count() == 0 {
		if err := pub.Publish(ctx, "req", requestPayload(t)); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		select {
		case <-deadline:
			t.Fatalf("fan-out incomplete: w1=%d w2=%d", out1.count(), out2.count())
		case <-time.After(10 * time.Millisecond):
		}
	}

	w1.Stop()
	w2.Stop()

	for _, out := range []*fakePublisher{out1, out2} {
		env, err := models.DecodeSignalEnvelope(out.payloads[0])
		if err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if len(env.Signals) != 1 {
			t.Fatalf("envelope signals = %d", len(env.Signals))
		}
	}
}
