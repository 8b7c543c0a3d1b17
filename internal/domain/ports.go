package domain

import (
	"context"
	"time"
)

// EventType задаёт тип доменного события.
type EventType string

const (
	EventProductCreated EventType = "product.created"
	EventProductUpdated EventType = "product.updated"
	EventProductDeleted EventType = "product.deleted"
	EventOrderCreated   EventType = "order.created"
	EventOrderUpdated   EventType = "order.updated"
	EventOrderDeleted   EventType = "order.deleted"
)

// Типы агрегатов для маршрутизации событий.
const (
	AggregateProduct = "product"
	AggregateOrder   = "order"
)

// Event — событие об изменении агрегата, публикуемое после коммита.
type Event struct {
	Type          EventType
	AggregateType string
	AggregateID   string
	Payload       any
	OccurredAt    time.Time
}

// EventPublisher передаёт доменные события наружу.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher используется, когда брокер сообщений не настроен.
type NoopPublisher struct{}

// Publish ничего не делает.
func (NoopPublisher) Publish(context.Context, Event) error { return nil }
