package messaging

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"SignalOps/pkg/logger"
)

// NewRedisClient creates and pings a Redis client.
func NewRedisClient(opts ...RedisOption) (*redis.Client, error) {
	cfg := &RedisConfig{
		Addr:         "localhost:6379",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// RedisPublisher publishes payloads to Redis pub/sub channels. Every
// subscriber of a channel receives every message: fan-out, no load balancing.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a publisher over an existing client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish sends a payload to the named channel.
func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

type subscription struct {
	pubsub *redis.PubSub
	done   chan struct{}
}

// RedisSubscriber runs one background listener goroutine per subscribed
// channel. A panicking handler is logged and the listener keeps going.
type RedisSubscriber struct {
	client  *redis.Client
	logger  *logger.Logger
	timeout time.Duration

	mu   sync.Mutex
	subs map[string]*subscription
}

// NewRedisSubscriber creates a subscriber over an existing client. The timeout
// bounds subscription confirmation and unsubscribe teardown.
func NewRedisSubscriber(client *redis.Client, lgr *logger.Logger, timeout time.Duration) *RedisSubscriber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RedisSubscriber{
		client:  client,
		logger:  lgr,
		timeout: timeout,
		subs:    make(map[string]*subscription),
	}
}

// Subscribe attaches handler to channel and returns once the subscription is
// confirmed. Delivery happens on a dedicated goroutine until Unsubscribe or
// ctx cancellation.
func (s *RedisSubscriber) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error {
	s.mu.Lock()
	if _, exists := s.subs[channel]; exists {
		s.mu.Unlock()
		return fmt.Errorf("already subscribed to %s", channel)
	}
	s.mu.Unlock()

	pubsub := s.client.Subscribe(ctx, channel)

	confirmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := pubsub.Receive(confirmCtx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	sub := &subscription{pubsub: pubsub, done: make(chan struct{})}
	s.mu.Lock()
	s.subs[channel] = sub
	s.mu.Unlock()

	go s.listen(channel, sub, handler)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Unsubscribe(channel)
		case <-sub.done:
		}
	}()

	return nil
}

func (s *RedisSubscriber) listen(channel string, sub *subscription, handler func(payload []byte)) {
	defer close(sub.done)
	for msg := range sub.pubsub.Channel() {
		s.invoke(channel, handler, []byte(msg.Payload))
	}
	s.logger.Debug("listener stopped", logger.String("channel", channel))
}

func (s *RedisSubscriber) invoke(channel string, handler func(payload []byte), payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic",
				logger.String("channel", channel),
				logger.Any("panic", r))
		}
	}()
	handler(payload)
}

// Unsubscribe terminates the channel's listener. Returns once the listener
// goroutine has exited or the teardown timeout elapsed.
func (s *RedisSubscriber) Unsubscribe(channel string) error {
	s.mu.Lock()
	sub, ok := s.subs[channel]
	if ok {
		delete(s.subs, channel)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	err := sub.pubsub.Close()

	select {
	case <-sub.done:
	case <-time.After(s.timeout):
		s.logger.Warn("listener did not stop in time", logger.String("channel", channel))
	}

	if err != nil {
		return fmt.Errorf("unsubscribe %s: %w", channel, err)
	}
	return nil
}

// Close unsubscribes from every channel.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()
	channels := make([]string, 0, len(s.subs))
	for ch := range s.subs {
		channels = append(channels, ch)
	}
	s.mu.Unlock()

	var firstErr error
	for _, ch := range channels {
		if err := s.Unsubscribe(ch); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RedisHeartbeatWriter records worker liveness as a TTL-expiring key. Absence
// of the key for longer than the TTL is the liveness-failure signal for
// external monitors.
type RedisHeartbeatWriter struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisHeartbeatWriter creates a heartbeat writer with the given key
// prefix and TTL.
func NewRedisHeartbeatWriter(client *redis.Client, prefix string, ttl time.Duration) *RedisHeartbeatWriter {
	return &RedisHeartbeatWriter{client: client, prefix: prefix, ttl: ttl}
}

// WriteHeartbeat writes the current time under <prefix>:<workerID>.
func (w *RedisHeartbeatWriter) WriteHeartbeat(ctx context.Context, workerID string) error {
	key := fmt.Sprintf("%s:%s", w.prefix, workerID)
	now := float64(time.Now().UnixNano()) / float64(time.Second)
	value := strconv.FormatFloat(now, 'f', 6, 64)
	if err := w.client.SetEx(ctx, key, value, w.ttl).Err(); err != nil {
		return fmt.Errorf("write heartbeat %s: %w", key, err)
	}
	return nil
}
