package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/identity-service/internal/core/domain"
	"github.com/campushub/identity-service/internal/core/port"
)

// EventPublisher publishes auth events to Kafka topics derived from the event
// kind. Messages are keyed by account id so events for one account stay
// ordered within a partition.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, logger *zap.Logger) port.EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{producer: producer, logger: logger}
}

// PublishAuthEvent serializes the event and hands it to the async producer.
func (p *EventPublisher) PublishAuthEvent(_ context.Context, event domain.AuthEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal auth event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(event.Kind),
		Key:   sarama.StringEncoder(strconv.FormatInt(event.AccountID, 10)),
		Value: sarama.ByteEncoder(payload),
	}

	p.producer.Input() <- msg

	return nil
}

// Close shuts down the underlying producer.
func (p *EventPublisher) Close() error {
	return p.producer.Close()
}
