// Package command contains write operations (CQRS - Commands).
//
// Every handler follows the same shape: validate the command, resolve the
// acting user, load or create exactly one aggregate, invoke one operation,
// save, and hand the emitted events to the publisher. The result carries the
// aggregate id and the emitted events.
package command

import (
	"context"
	"fmt"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/book"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

// Deps are the collaborators every command handler needs.
type Deps struct {
	Publisher   shared.EventPublisher // optional
	Clock       shared.Clock
	CurrentUser shared.CurrentUser
	Logger      *logger.Logger
}

func (d Deps) withDefaults(component string) Deps {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	d.Logger = d.Logger.With(logger.Component(component))
	return d
}

// publish hands events to the dispatch layer. The aggregate is already
// saved, so a failing reaction is logged and does not fail the command.
func (d Deps) publish(ctx context.Context, events []shared.Event) {
	if d.Publisher == nil || len(events) == 0 {
		return
	}
	if err := d.Publisher.Publish(ctx, events...); err != nil {
		d.Logger.Warn("event propagation finished with errors",
			logger.Int("events", len(events)),
			logger.Err(err),
		)
	}
}

func loadOwnedActivity(ctx context.Context, repo activity.Repository, id, userID shared.ID, op string) (*activity.Activity, error) {
	a, err := repo.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	if a == nil {
		return nil, shared.NotFound("activity", op, "activity %s not found", id)
	}
	if !a.IsOwnedBy(userID) {
		return nil, shared.Unauthorized("activity", op, "activity %s belongs to another user", id)
	}
	return a, nil
}

func loadOwnedBook(ctx context.Context, repo book.Repository, id, userID shared.ID, op string) (*book.Book, error) {
	b, err := repo.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	if b == nil {
		return nil, shared.NotFound("book", op, "book %s not found", id)
	}
	if !b.IsOwnedBy(userID) {
		return nil, shared.Unauthorized("book", op, "book %s belongs to another user", id)
	}
	return b, nil
}
