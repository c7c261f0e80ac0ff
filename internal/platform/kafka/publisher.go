// Package kafka publishes audit lifecycle events for downstream consumers
// (compliance archiving, notification bots). Publishing is best-effort: a
// broker outage must never fail an audit request.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher emits completed-audit events to a Kafka topic.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the given brokers and ensures the topic exists. Returns
// (nil, nil) when no brokers are configured; callers must treat a nil
// publisher as "publishing disabled".
func New(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Idempotent: creating an existing topic reports a per-topic error we
	// can ignore. Anything transport-level is worth a warning, not a crash.
	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopics(ctx, 1, 1, nil, topic); err != nil {
		logger.Warn("could not ensure kafka topic", "topic", topic, "error", err)
	}

	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// CompletedEvent is the payload published after every finished audit.
type CompletedEvent struct {
	AuditID   string `json:"audit_id"`
	Requester string `json:"requester"`
	Category  string `json:"category"`
	Score     int    `json:"score"`
	Grade     string `json:"grade"`
	GapCount  int    `json:"gap_count"`
	Timestamp string `json:"timestamp"`
}

// Publish emits one completed-audit event, keyed by requester so a consumer
// sees each requester's audits in order.
func (p *Publisher) Publish(ctx context.Context, event CompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal completed event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Requester),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce completed event: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
