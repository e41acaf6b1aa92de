package shared

import (
	"context"
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each names a fact that already happened.
const (
	// Activity events
	EventActivityCreated        EventType = "activity.created"
	EventActivityProgressLogged EventType = "activity.progress_logged"
	EventActivityCompleted      EventType = "activity.completed"
	EventActivityUncompleted    EventType = "activity.uncompleted"

	// Book events
	EventBookCreated   EventType = "book.created"
	EventBookStarted   EventType = "book.started"
	EventBookFinished  EventType = "book.finished"
	EventBookAbandoned EventType = "book.abandoned"

	// Player events
	EventPlayerLeveledUp EventType = "player.leveled_up"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// UserID returns the user that owns the producing aggregate.
	UserID() ID

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	User          ID        `json:"user_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// UserID implements Event interface.
func (e BaseEvent) UserID() ID {
	return e.User
}

// NewBaseEvent creates a base event stamped with the given time.
func NewBaseEvent(eventType EventType, aggregateID, userID ID, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID.String(),
		User:        userID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	UserID        ID              `json:"user_id"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope serializes an event into an envelope.
func NewEnvelope(e Event) (EventEnvelope, error) {
	payload, err := json.Marshal(e.Payload())
	if err != nil {
		return EventEnvelope{}, err
	}
	env := EventEnvelope{
		ID:          NewID().String(),
		Type:        e.EventType(),
		AggregateID: e.AggregateID(),
		UserID:      e.UserID(),
		Timestamp:   e.OccurredAt(),
		Payload:     payload,
	}
	if b, ok := e.(interface{ Correlation() string }); ok {
		env.CorrelationID = b.Correlation()
	}
	return env, nil
}

// Correlation returns the correlation ID, if any.
func (e BaseEvent) Correlation() string {
	return e.CorrelationID
}

// EventHandler is a function that handles an event.
type EventHandler func(ctx context.Context, event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish hands events to the dispatch layer in the given order.
	Publish(ctx context.Context, events ...Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
