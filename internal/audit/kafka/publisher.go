// Package kafka delivers audit entries to the compliance topic. Kafka is a
// downstream consumer of the trail, not its durability boundary; delivery is
// best-effort from the Recorder's point of view.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"driveflow/internal/audit"
)

// Publisher produces audit entries as JSON records keyed by request ID, so
// one request's trail stays ordered within a partition.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// New builds a Publisher over the given brokers.
func New(brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Publisher{client: client, topic: topic}, nil
}

func (p *Publisher) Publish(ctx context.Context, entry audit.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(entry.RequestID.String()),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit entry: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Close()
}
