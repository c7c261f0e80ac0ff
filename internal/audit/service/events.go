package service

import (
	"context"

	"finaudit/internal/audit/models"
	"finaudit/internal/platform/kafka"
)

// KafkaPublisher adapts the platform Kafka publisher to the service's
// Publisher port.
type KafkaPublisher struct {
	inner *kafka.Publisher
}

// NewKafkaPublisher wraps a platform publisher. A nil inner publisher yields
// a nil adapter, which the service treats as publishing disabled.
func NewKafkaPublisher(inner *kafka.Publisher) *KafkaPublisher {
	if inner == nil {
		return nil
	}
	return &KafkaPublisher{inner: inner}
}

func (k *KafkaPublisher) PublishCompleted(ctx context.Context, audit models.Audit) error {
	return k.inner.Publish(ctx, kafka.CompletedEvent{
		AuditID:   audit.ID.String(),
		Requester: audit.Requester.String(),
		Category:  audit.Category.String(),
		Score:     audit.Score,
		Grade:     audit.Grade.String(),
		GapCount:  len(audit.Gaps),
		Timestamp: audit.Timestamp,
	})
}
