package eventhandler

import (
	"context"
	"fmt"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/book"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

// OnBookCreated creates the reading activity that tracks a new book: a
// Learning activity of medium difficulty whose target is the page count.
type OnBookCreated struct {
	activities activity.Repository
	logger     *logger.Logger
}

// NewOnBookCreated creates the reaction.
func NewOnBookCreated(activities activity.Repository, log *logger.Logger) *OnBookCreated {
	return &OnBookCreated{
		activities: activities,
		logger:     log.With(logger.Component("on_book_created")),
	}
}

// Name implements Reaction.
func (h *OnBookCreated) Name() string { return "on_book_created" }

// React implements Reaction.
func (h *OnBookCreated) React(ctx context.Context, event shared.Event) (Outcome, error) {
	e, ok := event.(book.CreatedEvent)
	if !ok {
		return Outcome{}, fmt.Errorf("on_book_created: unexpected event %T", event)
	}

	measurement, err := activity.Quantifiable(activity.UnitPages, float64(e.TotalPages))
	if err != nil {
		return Outcome{}, fmt.Errorf("on_book_created: %w", err)
	}

	a, err := activity.NewActivity(activity.NewActivityParams{
		ID:          shared.NewID(),
		UserID:      e.UserID(),
		Title:       e.Title,
		Category:    activity.CategoryLearning,
		Difficulty:  activity.DifficultyMedium,
		Measurement: measurement,
		CreatedAt:   e.OccurredAt(),
		ResourceID:  e.BookID,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("on_book_created: %w", err)
	}

	h.logger.Debug("reading activity prepared",
		logger.BookID(e.BookID.String()),
		logger.ActivityID(a.ID().String()),
	)

	return Outcome{
		Events: a.PullDomainEvents(),
		Commit: func(ctx context.Context) error { return h.activities.Save(ctx, a) },
	}, nil
}
