package player

import (
	"time"

	"github.com/valoron/valoron/internal/domain/shared"
)

// LeveledUpEvent is emitted once per level gained, in ascending order.
type LeveledUpEvent struct {
	shared.BaseEvent
	PlayerID shared.ID `json:"player_id"`
	NewLevel int       `json:"new_level"`
}

// Payload implements Event interface.
func (e LeveledUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"player_id": e.PlayerID.String(),
		"new_level": e.NewLevel,
	}
}

// NewLeveledUpEvent creates a new LeveledUpEvent. The player id is the user id.
func NewLeveledUpEvent(playerID shared.ID, newLevel int, at time.Time) LeveledUpEvent {
	return LeveledUpEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventPlayerLeveledUp, playerID, playerID, at),
		PlayerID:  playerID,
		NewLevel:  newLevel,
	}
}
