package command

import (
	"context"
	"fmt"
	"time"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOG READING SESSION COMMAND
// Logs pages on the activity linked to a book. The book and the player are
// updated by the reactions to ActivityProgressLogged.
// ══════════════════════════════════════════════════════════════════════════════

// LogReadingSessionCommand contains the data to log a reading session.
type LogReadingSessionCommand struct {
	ActivityID shared.ID
	PagesRead  int
	Duration   time.Duration // optional
}

// Validate validates the command.
func (c LogReadingSessionCommand) Validate() error {
	if c.ActivityID == shared.NilID {
		return shared.InvalidArgument("activity", "LogReadingSession", "activity id is required")
	}
	if c.PagesRead <= 0 {
		return shared.InvalidArgument("activity", "LogReadingSession", "pages read must be greater than 0")
	}
	if c.Duration < 0 {
		return shared.InvalidArgument("activity", "LogReadingSession", "duration cannot be negative")
	}
	return nil
}

// LogReadingSessionResult contains the result of logging a session.
type LogReadingSessionResult struct {
	ActivityID shared.ID
	Events     []shared.Event
}

// LogReadingSessionHandler handles the LogReadingSessionCommand.
type LogReadingSessionHandler struct {
	activities activity.Repository
	deps       Deps
}

// NewLogReadingSessionHandler creates a new LogReadingSessionHandler.
func NewLogReadingSessionHandler(activities activity.Repository, deps Deps) *LogReadingSessionHandler {
	return &LogReadingSessionHandler{activities: activities, deps: deps.withDefaults("log_reading_session")}
}

// Handle executes the log reading session command.
func (h *LogReadingSessionHandler) Handle(ctx context.Context, cmd LogReadingSessionCommand) (*LogReadingSessionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("log_reading_session: validation failed: %w", err)
	}

	userID, err := h.deps.CurrentUser.UserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("log_reading_session: %w", err)
	}

	a, err := loadOwnedActivity(ctx, h.activities, cmd.ActivityID, userID, "LogReadingSession")
	if err != nil {
		return nil, fmt.Errorf("log_reading_session: %w", err)
	}
	if !a.HasResource() {
		return nil, fmt.Errorf("log_reading_session: %w",
			shared.InvalidOperation("activity", "LogReadingSession", "activity is not linked to a book"))
	}

	if err := a.LogProgress(float64(cmd.PagesRead), h.deps.Clock.Now(), activity.WithDuration(cmd.Duration)); err != nil {
		return nil, fmt.Errorf("log_reading_session: %w", err)
	}

	if err := h.activities.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("log_reading_session: failed to save activity: %w", err)
	}

	events := a.PullDomainEvents()
	h.deps.Logger.Debug("reading session logged",
		logger.ActivityID(a.ID().String()),
		logger.Int("pages", cmd.PagesRead),
		logger.Duration("duration", cmd.Duration),
	)
	h.deps.publish(ctx, events)

	return &LogReadingSessionResult{ActivityID: a.ID(), Events: events}, nil
}
