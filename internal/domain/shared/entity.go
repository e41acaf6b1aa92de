package shared

import "github.com/google/uuid"

// ═══════════════════════════════════════════════════════════════════════════
// Identity
// ═══════════════════════════════════════════════════════════════════════════

// ID identifies an entity. The zero value (uuid.Nil) means "not assigned yet".
type ID = uuid.UUID

// NilID is the unset identifier.
var NilID = uuid.Nil

// NewID generates a fresh random identifier.
func NewID() ID {
	return uuid.New()
}

// ParseID parses the textual form of an identifier.
func ParseID(s string) (ID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NilID, WrapError("shared", "ParseID", ErrInvalidArgument, "malformed id", err)
	}
	return id, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Entity / Aggregate root
// ═══════════════════════════════════════════════════════════════════════════

// Entity carries the identity of a domain object.
type Entity struct {
	id ID
}

// NewEntity creates an entity with the given identity.
func NewEntity(id ID) Entity {
	return Entity{id: id}
}

// ID returns the identity.
func (e Entity) ID() ID {
	return e.id
}

// IsTransient reports whether no identity has been assigned.
func (e Entity) IsTransient() bool {
	return e.id == NilID
}

// SameIdentity compares two entities by id. A transient entity equals nothing,
// not even itself.
func (e Entity) SameIdentity(other Entity) bool {
	if e.IsTransient() || other.IsTransient() {
		return false
	}
	return e.id == other.id
}

// AggregateRoot is an entity that buffers the events it emits until the
// owning use case collects them.
type AggregateRoot struct {
	Entity
	events []Event
}

// NewAggregateRoot creates an aggregate root with an empty event buffer.
func NewAggregateRoot(id ID) AggregateRoot {
	return AggregateRoot{Entity: NewEntity(id)}
}

// Record appends an event to the buffer.
func (a *AggregateRoot) Record(e Event) {
	a.events = append(a.events, e)
}

// DomainEvents returns the buffered events in emission order.
func (a *AggregateRoot) DomainEvents() []Event {
	out := make([]Event, len(a.events))
	copy(out, a.events)
	return out
}

// ClearDomainEvents empties the buffer.
func (a *AggregateRoot) ClearDomainEvents() {
	a.events = nil
}

// PullDomainEvents returns the buffered events and empties the buffer.
func (a *AggregateRoot) PullDomainEvents() []Event {
	out := a.events
	a.events = nil
	return out
}
