package command

import (
	"context"
	"fmt"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/shared"
)

// UpdateDifficultyCommand contains the data to re-rate an activity.
type UpdateDifficultyCommand struct {
	ActivityID shared.ID
	Difficulty int
}

// UpdateDifficultyResult contains the result of re-rating an activity.
type UpdateDifficultyResult struct {
	ActivityID shared.ID
	Events     []shared.Event
}

// UpdateDifficultyHandler handles the UpdateDifficultyCommand.
type UpdateDifficultyHandler struct {
	activities activity.Repository
	deps       Deps
}

// NewUpdateDifficultyHandler creates a new UpdateDifficultyHandler.
func NewUpdateDifficultyHandler(activities activity.Repository, deps Deps) *UpdateDifficultyHandler {
	return &UpdateDifficultyHandler{activities: activities, deps: deps.withDefaults("update_difficulty")}
}

// Handle executes the update difficulty command.
func (h *UpdateDifficultyHandler) Handle(ctx context.Context, cmd UpdateDifficultyCommand) (*UpdateDifficultyResult, error) {
	difficulty, err := activity.NewDifficulty(cmd.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("update_difficulty: %w", err)
	}

	userID, err := h.deps.CurrentUser.UserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("update_difficulty: %w", err)
	}

	a, err := loadOwnedActivity(ctx, h.activities, cmd.ActivityID, userID, "UpdateDifficulty")
	if err != nil {
		return nil, fmt.Errorf("update_difficulty: %w", err)
	}

	if err := a.UpdateDifficulty(difficulty); err != nil {
		return nil, fmt.Errorf("update_difficulty: %w", err)
	}

	if err := h.activities.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("update_difficulty: failed to save activity: %w", err)
	}

	events := a.PullDomainEvents()
	h.deps.publish(ctx, events)

	return &UpdateDifficultyResult{ActivityID: a.ID(), Events: events}, nil
}
