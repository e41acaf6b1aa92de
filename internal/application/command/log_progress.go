package command

import (
	"context"
	"fmt"
	"math"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

// LogProgressCommand logs progress on any activity. Negative deltas correct
// earlier entries.
type LogProgressCommand struct {
	ActivityID shared.ID
	Delta      float64
}

// Validate validates the command.
func (c LogProgressCommand) Validate() error {
	if c.ActivityID == shared.NilID {
		return shared.InvalidArgument("activity", "LogProgress", "activity id is required")
	}
	if math.IsNaN(c.Delta) || math.IsInf(c.Delta, 0) {
		return shared.InvalidArgument("activity", "LogProgress", "delta must be a finite number")
	}
	return nil
}

// LogProgressResult contains the result of logging progress.
type LogProgressResult struct {
	ActivityID shared.ID
	Completed  bool
	Events     []shared.Event
}

// LogProgressHandler handles the LogProgressCommand.
type LogProgressHandler struct {
	activities activity.Repository
	deps       Deps
}

// NewLogProgressHandler creates a new LogProgressHandler.
func NewLogProgressHandler(activities activity.Repository, deps Deps) *LogProgressHandler {
	return &LogProgressHandler{activities: activities, deps: deps.withDefaults("log_progress")}
}

// Handle executes the log progress command.
func (h *LogProgressHandler) Handle(ctx context.Context, cmd LogProgressCommand) (*LogProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("log_progress: validation failed: %w", err)
	}

	userID, err := h.deps.CurrentUser.UserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("log_progress: %w", err)
	}

	a, err := loadOwnedActivity(ctx, h.activities, cmd.ActivityID, userID, "LogProgress")
	if err != nil {
		return nil, fmt.Errorf("log_progress: %w", err)
	}

	if err := a.LogProgress(cmd.Delta, h.deps.Clock.Now()); err != nil {
		return nil, fmt.Errorf("log_progress: %w", err)
	}

	if err := h.activities.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("log_progress: failed to save activity: %w", err)
	}

	events := a.PullDomainEvents()
	h.deps.Logger.Debug("progress logged",
		logger.ActivityID(a.ID().String()),
		logger.Float64("delta", cmd.Delta),
		logger.Int("events", len(events)),
	)
	h.deps.publish(ctx, events)

	return &LogProgressResult{ActivityID: a.ID(), Completed: a.IsCompleted(), Events: events}, nil
}
