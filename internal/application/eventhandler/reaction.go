// Package eventhandler contains the cross-aggregate reactions: each one
// consumes an event of one aggregate, loads another aggregate by the id the
// event carries, and invokes exactly one operation on it.
package eventhandler

import (
	"context"
	"sort"

	"github.com/valoron/valoron/internal/domain/shared"
)

// Outcome is what a reaction produced.
type Outcome struct {
	// Events emitted by the mutated aggregate, in emission order.
	Events []shared.Event

	// Commit persists the mutated aggregate. Nil when nothing changed.
	Commit func(ctx context.Context) error
}

// Reaction reacts to one kind of event.
type Reaction interface {
	// Name identifies the reaction in logs and metrics.
	Name() string

	// React mutates the target aggregate in memory. It never persists;
	// the caller runs Outcome.Commit.
	React(ctx context.Context, event shared.Event) (Outcome, error)
}

// ReactionFunc adapts a function to Reaction.
type ReactionFunc struct {
	ReactionName string
	Fn           func(ctx context.Context, event shared.Event) (Outcome, error)
}

// Name implements Reaction.
func (r ReactionFunc) Name() string { return r.ReactionName }

// React implements Reaction.
func (r ReactionFunc) React(ctx context.Context, event shared.Event) (Outcome, error) {
	return r.Fn(ctx, event)
}

// Registry is the lookup table from event type to reactions.
// Reactions for one type run in registration order.
type Registry struct {
	table map[shared.EventType][]Reaction
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{table: make(map[shared.EventType][]Reaction)}
}

// Register appends a reaction for the event type.
func (r *Registry) Register(eventType shared.EventType, reaction Reaction) *Registry {
	r.table[eventType] = append(r.table[eventType], reaction)
	return r
}

// For returns the reactions registered for the event type.
func (r *Registry) For(eventType shared.EventType) []Reaction {
	return r.table[eventType]
}

// EventTypes returns the event types that have at least one reaction.
func (r *Registry) EventTypes() []shared.EventType {
	out := make([]shared.EventType, 0, len(r.table))
	for t := range r.table {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
