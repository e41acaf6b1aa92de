package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valoron/valoron/internal/domain/shared"
)

func TestInMemoryEventBus_DeliversToTypedThenCatchAll(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	var got []string

	require.NoError(t, bus.Subscribe(typeA, func(_ context.Context, e shared.Event) error {
		got = append(got, "typed:"+string(e.EventType()))
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(_ context.Context, e shared.Event) error {
		got = append(got, "all:"+string(e.EventType()))
		return nil
	}))

	require.NoError(t, bus.Publish(context.Background(), newTestEvent(typeA, "a"), newTestEvent(typeB, "b")))
	assert.Equal(t, []string{"typed:test.a", "all:test.a", "all:test.b"}, got)
}

func TestInMemoryEventBus_JoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	errFirst := errors.New("first")
	calls := 0
	require.NoError(t, bus.Subscribe(typeA, func(context.Context, shared.Event) error { return errFirst }))
	require.NoError(t, bus.Subscribe(typeA, func(context.Context, shared.Event) error {
		calls++
		return nil
	}))

	err := bus.Publish(context.Background(), newTestEvent(typeA, "a"))
	assert.ErrorIs(t, err, errFirst)
	assert.Equal(t, 1, calls)
}

func TestInMemoryEventBus_Closed(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	assert.ErrorIs(t, bus.Subscribe(typeA, nil), ErrNilHandler)
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(context.Background(), newTestEvent(typeA, "a")), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(context.Context, shared.Event) error { return nil }), ErrEventBusClosed)
}

// fakeRedis is an in-process stand-in for Redis Pub/Sub shared by several buses.
type fakeRedis struct {
	mu        sync.Mutex
	published []string
	subs      []chan RedisMessage
	closed    bool
}

func (f *fakeRedis) Publish(_ context.Context, _ string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload := message.(string)
	f.published = append(f.published, payload)
	for _, ch := range f.subs {
		ch <- RedisMessage{Channel: DefaultChannelName, Payload: payload}
	}
	return nil
}

func (f *fakeRedis) Subscribe(context.Context, ...string) (<-chan RedisMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan RedisMessage, 16)
	f.subs = append(f.subs, ch)
	return ch, nil
}

func (f *fakeRedis) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestRedisEventBus_PublishWritesEnvelope(t *testing.T) {
	client := &fakeRedis{}
	bus, err := NewRedisEventBus(context.Background(), RedisEventBusConfig{Client: client, InstanceID: "node-1"})
	require.NoError(t, err)

	event := newTestEvent(typeA, "hello")
	require.NoError(t, bus.Publish(context.Background(), event))
	require.Len(t, client.published, 1)

	var wire wireMessage
	require.NoError(t, json.Unmarshal([]byte(client.published[0]), &wire))
	assert.Equal(t, "node-1", wire.InstanceID)
	assert.Equal(t, typeA, wire.Event.Type)
	assert.Equal(t, event.AggregateID(), wire.Event.AggregateID)
	assert.Equal(t, event.UserID(), wire.Event.UserID)
	assert.JSONEq(t, `{"label":"hello"}`, string(wire.Event.Payload))

	require.NoError(t, bus.Close())
	assert.True(t, client.closed)
	assert.ErrorIs(t, bus.Publish(context.Background(), event), ErrEventBusClosed)
}

func TestRedisEventBus_DeliversRemoteEventsOnly(t *testing.T) {
	client := &fakeRedis{}
	ctx := context.Background()

	receiver, err := NewRedisEventBus(ctx, RedisEventBusConfig{Client: client, InstanceID: "receiver", Subscribe: true})
	require.NoError(t, err)
	defer receiver.Close()
	sender, err := NewRedisEventBus(ctx, RedisEventBusConfig{Client: client, InstanceID: "sender"})
	require.NoError(t, err)

	got := make(chan shared.Event, 2)
	require.NoError(t, receiver.SubscribeAll(func(_ context.Context, e shared.Event) error {
		got <- e
		return nil
	}))

	require.NoError(t, receiver.Publish(ctx, newTestEvent(typeA, "own")))
	require.NoError(t, sender.Publish(ctx, newTestEvent(typeB, "remote")))

	select {
	case e := <-got:
		assert.Equal(t, typeB, e.EventType())
		assert.Equal(t, "remote", e.Payload()["label"])
		_, isRemote := e.(*RemoteEvent)
		assert.True(t, isRemote)
	case <-time.After(2 * time.Second):
		t.Fatal("remote event not delivered")
	}

	select {
	case e := <-got:
		t.Fatalf("unexpected event %s", e.EventType())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewRedisEventBus_RequiresClient(t *testing.T) {
	_, err := NewRedisEventBus(context.Background(), RedisEventBusConfig{})
	assert.Error(t, err)
}
