package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/pom/internal/domain"
)

// DefaultTopicPrefix используется, если префикс топиков не задан.
const DefaultTopicPrefix = "pom"

// Kafka headers с метаданными события.
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderOccurredAt    = "x-occurred-at"
)

// Envelope — JSON-представление доменного события в топике.
type Envelope struct {
	EventType     domain.EventType `json:"event_type"`
	AggregateType string           `json:"aggregate_type"`
	AggregateID   string           `json:"aggregate_id"`
	OccurredAt    time.Time        `json:"occurred_at"`
	Payload       any              `json:"payload,omitempty"`
}

// NewEnvelope упаковывает доменное событие.
func NewEnvelope(event domain.Event) Envelope {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return Envelope{
		EventType:     event.Type,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		OccurredAt:    occurredAt.UTC(),
		Payload:       event.Payload,
	}
}

// Topic возвращает топик агрегата: <prefix>.<aggregate>.events.
func Topic(prefix, aggregateType string) string {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return prefix + "." + aggregateType + ".events"
}
