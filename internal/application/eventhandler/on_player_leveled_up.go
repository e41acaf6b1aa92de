package eventhandler

import (
	"context"
	"fmt"

	"github.com/valoron/valoron/internal/domain/player"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

// LevelUpNotifier delivers level-up notices to the user.
type LevelUpNotifier interface {
	NotifyLevelUp(ctx context.Context, userID shared.ID, newLevel int) error
}

// NotifyLevelUp tells the user about a new level. It changes no aggregate.
type NotifyLevelUp struct {
	notifier LevelUpNotifier // optional
	logger   *logger.Logger
}

// NewNotifyLevelUp creates the reaction. A nil notifier only logs.
func NewNotifyLevelUp(notifier LevelUpNotifier, log *logger.Logger) *NotifyLevelUp {
	return &NotifyLevelUp{
		notifier: notifier,
		logger:   log.With(logger.Component("notify_level_up")),
	}
}

// Name implements Reaction.
func (h *NotifyLevelUp) Name() string { return "notify_level_up" }

// React implements Reaction.
func (h *NotifyLevelUp) React(ctx context.Context, event shared.Event) (Outcome, error) {
	e, ok := event.(player.LeveledUpEvent)
	if !ok {
		return Outcome{}, fmt.Errorf("notify_level_up: unexpected event %T", event)
	}

	h.logger.Info(fmt.Sprintf("player %s leveled up to level %d", e.PlayerID, e.NewLevel),
		logger.UserID(e.PlayerID.String()),
		logger.PlayerLevel(e.NewLevel),
	)

	if h.notifier != nil {
		if err := h.notifier.NotifyLevelUp(ctx, e.PlayerID, e.NewLevel); err != nil {
			return Outcome{}, fmt.Errorf("notify_level_up: %w", err)
		}
	}
	return Outcome{}, nil
}
