package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	BaseEvent
	n int
}

func (e testEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"n": e.n}
}

func TestEntity_SameIdentity(t *testing.T) {
	id := NewID()

	assert.True(t, NewEntity(id).SameIdentity(NewEntity(id)))
	assert.False(t, NewEntity(id).SameIdentity(NewEntity(NewID())))
	assert.False(t, NewEntity(NilID).SameIdentity(NewEntity(NilID)))
	assert.False(t, NewEntity(id).SameIdentity(NewEntity(NilID)))
	assert.True(t, NewEntity(NilID).IsTransient())
}

func TestAggregateRoot_EventBuffer(t *testing.T) {
	root := NewAggregateRoot(NewID())
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	root.Record(testEvent{BaseEvent: NewBaseEvent("test.one", root.ID(), NilID, at), n: 1})
	root.Record(testEvent{BaseEvent: NewBaseEvent("test.two", root.ID(), NilID, at), n: 2})

	events := root.DomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventType("test.one"), events[0].EventType())
	assert.Equal(t, EventType("test.two"), events[1].EventType())

	// The returned slice is a copy.
	events[0] = nil
	assert.NotNil(t, root.DomainEvents()[0])

	root.ClearDomainEvents()
	assert.Empty(t, root.DomainEvents())
}

func TestDomainError_Kinds(t *testing.T) {
	err := InvalidOperation("book", "Abandon", "book is already %s", "finished")

	assert.True(t, IsInvalidOperation(err))
	assert.False(t, IsInvalidArgument(err))
	assert.Equal(t, "book.Abandon: book is already finished", err.Error())

	wrapped := WrapError("player", "Load", ErrNotFound, "player missing", err)
	assert.True(t, IsNotFound(wrapped))
	assert.True(t, IsInvalidOperation(wrapped))
}

func TestParseID(t *testing.T) {
	id := NewID()
	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("not-a-uuid")
	assert.True(t, IsInvalidArgument(err))
}

func TestNewEnvelope(t *testing.T) {
	user := NewID()
	at := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	e := testEvent{BaseEvent: NewBaseEvent("test.one", user, user, at).WithCorrelationID("corr-1"), n: 7}

	env, err := NewEnvelope(e)
	require.NoError(t, err)
	assert.Equal(t, EventType("test.one"), env.Type)
	assert.Equal(t, user, env.UserID)
	assert.Equal(t, "corr-1", env.CorrelationID)
	assert.JSONEq(t, `{"n":7}`, string(env.Payload))
}
