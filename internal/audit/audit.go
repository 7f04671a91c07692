// Package audit publishes lifecycle events (registrations, submissions, soft
// deletes) to Kafka. Publishing is best-effort: a failed publish is logged and
// counted, never surfaced to the caller.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/HitaloNasc/v-lab-tech-lead-test/config"
)

// Event types.
const (
	EventUserRegistered       = "user.registered"
	EventApplicationSubmitted = "application.submitted"
)

// DeletedEvent is the soft-delete event type for entity, e.g. "offer.deleted".
func DeletedEvent(entity string) string { return entity + ".deleted" }

// Event is one audit record.
type Event struct {
	Type       string            `json:"type"`
	Entity     string            `json:"entity"`
	EntityID   string            `json:"entity_id"`
	ActorID    string            `json:"actor_id,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Publisher sends audit events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// ── Kafka ──

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON events keyed by entity id.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

// NewKafkaPublisher builds a synchronous writer.
func NewKafkaPublisher(cfg *config.AuditConfig, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.EntityID),
		Value: payload,
		Time:  e.OccurredAt,
	})
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// ── log-only ──

// LogPublisher records events in the application log when Kafka is disabled.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.logger.Info("audit event",
		zap.String("type", e.Type),
		zap.String("entity", e.Entity),
		zap.String("entity_id", e.EntityID),
		zap.String("actor_id", e.ActorID),
		zap.Time("occurred_at", e.OccurredAt),
		zap.Any("attributes", e.Attributes),
	)
	return nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
