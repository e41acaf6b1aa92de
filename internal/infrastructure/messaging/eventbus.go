package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

var (
	// ErrEventBusClosed is returned when operations are attempted on a closed bus.
	ErrEventBusClosed = errors.New("event bus is closed")

	// ErrNilHandler is returned when subscribing a nil handler.
	ErrNilHandler = errors.New("handler cannot be nil")
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus delivers events to local subscribers synchronously, in
// subscription order.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	logger      *logger.Logger
	closed      bool
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(log *logger.Logger) *InMemoryEventBus {
	if log == nil {
		log = logger.Nop()
	}
	return &InMemoryEventBus{
		handlers: make(map[shared.EventType][]shared.EventHandler),
		logger:   log.With(logger.Component("event_bus")),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeAll registers a handler for all events.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Publish sends events to all subscribed handlers. Handler errors are joined.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.Event) error {
	var errs []error
	for _, event := range events {
		if event == nil {
			continue
		}
		handlers, err := b.handlersFor(event.EventType())
		if err != nil {
			return err
		}
		for _, h := range handlers {
			if err := h(ctx, event); err != nil {
				b.logger.Warn("subscriber failed",
					logger.EventType(string(event.EventType())),
					logger.Err(err),
				)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (b *InMemoryEventBus) handlersFor(eventType shared.EventType) ([]shared.EventHandler, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrEventBusClosed
	}
	out := make([]shared.EventHandler, 0, len(b.handlers[eventType])+len(b.allHandlers))
	out = append(out, b.handlers[eventType]...)
	return append(out, b.allHandlers...), nil
}

// Close stops accepting events.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// RedisEventBus publishes events to a Redis Pub/Sub channel and delivers
// events published by other instances to local subscribers.
type RedisEventBus struct {
	client      RedisClient
	localBus    *InMemoryEventBus
	channelName string
	instanceID  string
	logger      *logger.Logger
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.RWMutex
	closed      bool
}

// RedisClient defines the Redis operations the bus needs.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error)
	Close() error
}

// RedisMessage represents a message received from Redis Pub/Sub.
type RedisMessage struct {
	Channel string
	Payload string
	Err     error
}

// RedisEventBusConfig contains configuration for RedisEventBus.
type RedisEventBusConfig struct {
	// Client is the Redis client to use.
	Client RedisClient

	// ChannelName is the Redis channel for events (default: "valoron:events").
	ChannelName string

	// InstanceID identifies this process so it can skip its own messages.
	InstanceID string

	// Subscribe starts the listener for remote events.
	Subscribe bool

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultChannelName is the Pub/Sub channel used when none is configured.
const DefaultChannelName = "valoron:events"

// NewRedisEventBus creates a new Redis-based event bus.
func NewRedisEventBus(ctx context.Context, config RedisEventBusConfig) (*RedisEventBus, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.ChannelName == "" {
		config.ChannelName = DefaultChannelName
	}
	if config.InstanceID == "" {
		config.InstanceID = uuid.NewString()
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}

	ctx, cancel := context.WithCancel(ctx)
	bus := &RedisEventBus{
		client:      config.Client,
		localBus:    NewInMemoryEventBus(config.Logger),
		channelName: config.ChannelName,
		instanceID:  config.InstanceID,
		logger:      config.Logger.With(logger.Component("redis_event_bus")),
		cancel:      cancel,
	}

	if config.Subscribe {
		if err := bus.startSubscriber(ctx); err != nil {
			cancel()
			return nil, fmt.Errorf("start subscriber: %w", err)
		}
	}
	return bus, nil
}

// Subscribe registers a handler for remote events of a specific type.
func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.localBus.Subscribe(eventType, handler)
}

// SubscribeAll registers a handler for all remote events.
func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.localBus.SubscribeAll(handler)
}

// Publish serialises events and sends them to the Redis channel.
func (b *RedisEventBus) Publish(ctx context.Context, events ...shared.Event) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrEventBusClosed
	}

	var errs []error
	for _, event := range events {
		if event == nil {
			continue
		}
		env, err := shared.NewEnvelope(event)
		if err != nil {
			errs = append(errs, fmt.Errorf("marshal event: %w", err))
			continue
		}
		data, err := json.Marshal(wireMessage{InstanceID: b.instanceID, Event: env})
		if err != nil {
			errs = append(errs, fmt.Errorf("marshal envelope: %w", err))
			continue
		}
		if err := b.client.Publish(ctx, b.channelName, string(data)); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", event.EventType(), err))
		}
	}
	return errors.Join(errs...)
}

func (b *RedisEventBus) startSubscriber(ctx context.Context) error {
	messages, err := b.client.Subscribe(ctx, b.channelName)
	if err != nil {
		return err
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.subscriptionLoop(ctx, messages)
	}()
	return nil
}

func (b *RedisEventBus) subscriptionLoop(ctx context.Context, messages <-chan RedisMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if msg.Err != nil {
				b.logger.Error("redis subscription error", logger.Err(msg.Err))
				continue
			}
			b.handleRedisMessage(ctx, msg)
		}
	}
}

func (b *RedisEventBus) handleRedisMessage(ctx context.Context, msg RedisMessage) {
	var wire wireMessage
	if err := json.Unmarshal([]byte(msg.Payload), &wire); err != nil {
		b.logger.Error("failed to unmarshal event", logger.Err(err))
		return
	}
	if wire.InstanceID == b.instanceID {
		return
	}

	event, err := NewRemoteEvent(wire.Event)
	if err != nil {
		b.logger.Error("failed to decode event payload", logger.Err(err))
		return
	}
	if err := b.localBus.Publish(ctx, event); err != nil {
		b.logger.Error("failed to process remote event", logger.Err(err))
	}
}

// Close stops the listener and closes the client.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	_ = b.localBus.Close()
	return b.client.Close()
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRE FORMAT
// ══════════════════════════════════════════════════════════════════════════════

type wireMessage struct {
	InstanceID string               `json:"instance_id"`
	Event      shared.EventEnvelope `json:"event"`
}

// RemoteEvent is an event received from another process. Only the envelope
// data is available; it is not one of the concrete domain event types.
type RemoteEvent struct {
	envelope shared.EventEnvelope
	payload  map[string]interface{}
}

// NewRemoteEvent decodes an envelope into an Event.
func NewRemoteEvent(env shared.EventEnvelope) (*RemoteEvent, error) {
	payload := map[string]interface{}{}
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return nil, err
		}
	}
	return &RemoteEvent{envelope: env, payload: payload}, nil
}

func (e *RemoteEvent) EventType() shared.EventType     { return e.envelope.Type }
func (e *RemoteEvent) AggregateID() string             { return e.envelope.AggregateID }
func (e *RemoteEvent) UserID() shared.ID               { return e.envelope.UserID }
func (e *RemoteEvent) OccurredAt() time.Time           { return e.envelope.Timestamp }
func (e *RemoteEvent) Payload() map[string]interface{} { return e.payload }
