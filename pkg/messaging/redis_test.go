package messaging

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"SignalOps/pkg/logger"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func waitFor(t *testing.T, ch <-chan []byte, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if string(got) != want {
			t.Fatalf("payload = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	pub := NewRedisPublisher(client)
	sub := NewRedisSubscriber(client, logger.Nop(), time.Second)
	defer sub.Close()

	received := make(chan []byte, 1)
	if err := sub.Subscribe(ctx, "ch", func(payload []byte) {
		received <- payload
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := pub.Publish(ctx, "ch", []byte("hello")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	waitFor(t, received, "hello")
}

func TestSubscribeFanOut(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	pub := NewRedisPublisher(client)
	subA := NewRedisSubscriber(client, logger.Nop(), time.Second)
	subB := NewRedisSubscriber(client, logger.Nop(), time.Second)
	defer subA.Close()
	defer subB.Close()

	gotA := make(chan []byte, 1)
	gotB := make(chan []byte, 1)
	if err := subA.Subscribe(ctx, "ch", func(p []byte) { gotA <- p }); err != nil {
		t.Fatalf("Subscribe A: %v", err)
	}
	if err := subB.Subscribe(ctx, "ch", func(p []byte) { gotB <- p }); err != nil {
		t.Fatalf("Subscribe B: %v", err)
	}

	if err := pub.Publish(ctx, "ch", []byte("broadcast")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	// Every subscriber receives every message, no load balancing.
	waitFor(t, gotA, "broadcast")
	waitFor(t, gotB, "broadcast")
}

func TestSubscribeDuplicateChannelRejected(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	sub := NewRedisSubscriber(client, logger.Nop(), time.Second)
	defer sub.Close()

	if err := sub.Subscribe(ctx, "ch", func([]byte) {}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := sub.Subscribe(ctx, "ch", func([]byte) {}); err == nil {
		t.Fatalf("expected duplicate subscribe to fail")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	pub := NewRedisPublisher(client)
	sub := NewRedisSubscriber(client, logger.Nop(), time.Second)

	received := make(chan []byte, 4)
	if err := sub.Subscribe(ctx, "ch", func(p []byte) { received <- p }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := sub.Unsubscribe("ch"); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	if err := pub.Publish(ctx, "ch", []byte("late")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case p := <-received:
		t.Fatalf("received %q after unsubscribe", p)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnsubscribeUnknownChannelIsNoop(t *testing.T) {
	client, _ := newTestClient(t)
	sub := NewRedisSubscriber(client, logger.Nop(), time.Second)
	if err := sub.Unsubscribe("never-subscribed"); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
}

func TestHandlerPanicDoesNotKillListener(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	pub := NewRedisPublisher(client)
	sub := NewRedisSubscriber(client, logger.Nop(), time.Second)
	defer sub.Close()

	received := make(chan []byte, 2)
	first := true
	if err := sub.Subscribe(ctx, "ch", func(p []byte) {
		if first {
			first = false
			panic("boom")
		}
		received <- p
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := pub.Publish(ctx, "ch", []byte("one")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := pub.Publish(ctx, "ch", []byte("two")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	waitFor(t, received, "two")
}

func TestContextCancelTearsDownSubscription(t *testing.T) {
	client, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub := NewRedisSubscriber(client, logger.Nop(), time.Second)
	if err := sub.Subscribe(ctx, "ch", func([]byte) {}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		sub.mu.Lock()
		_, active := sub.subs["ch"]
		sub.mu.Unlock()
		if !active {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("subscription not torn down after cancel")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestWriteHeartbeat(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	w := NewRedisHeartbeatWriter(client, "hb", 30*time.Second)
	if err := w.WriteHeartbeat(ctx, "w1"); err != nil {
		t.Fatalf("WriteHeartbeat: %v", err)
	}

	raw, err := mr.Get("hb:w1")
	if err != nil {
		t.Fatalf("heartbeat key missing: %v", err)
	}
	ts, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		t.Fatalf("heartbeat value %q not a float: %v", raw, err)
	}
	if ts <= 0 {
		t.Fatalf("heartbeat timestamp = %v", ts)
	}
	if ttl := mr.TTL("hb:w1"); ttl != 30*time.Second {
		t.Fatalf("heartbeat TTL = %v, want 30s", ttl)
	}
}
