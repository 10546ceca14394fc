package repository

import (
	"context"
	"fmt"

	"SignalOps/internal/domain/models"
	pkgkafka "SignalOps/pkg/kafka"
)

// KafkaSignalArchive mirrors signal envelopes to a durable Kafka topic so
// consumers that cannot keep a pub/sub subscription open can replay them.
type KafkaSignalArchive struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalArchive creates an archive writing to the given topic.
func NewKafkaSignalArchive(producer *pkgkafka.Producer, topic string) *KafkaSignalArchive {
	return &KafkaSignalArchive{producer: producer, topic: topic}
}

// Archive publishes the raw envelope keyed by the first signal's pair id, so
// a pair's envelopes stay ordered within a partition.
func (a *KafkaSignalArchive) Archive(ctx context.Context, env *models.SignalEnvelope, raw []byte) error {
	var key []byte
	if len(env.Signals) > 0 {
		key = []byte(env.Signals[0].PairID)
	}
	if err := a.producer.Publish(ctx, a.topic, key, raw); err != nil {
		return fmt.Errorf("archive envelope to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the producer.
func (a *KafkaSignalArchive) Close() error {
	return a.producer.Close()
}
