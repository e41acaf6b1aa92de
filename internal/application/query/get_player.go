package query

import (
	"context"
	"fmt"

	"github.com/valoron/valoron/internal/domain/player"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PLAYER QUERY
// Returns the acting user's character sheet. A user who never earned XP
// gets a level 1 player with default stats.
// ══════════════════════════════════════════════════════════════════════════════

// GetPlayerQuery requests the current user's player.
type GetPlayerQuery struct{}

// PlayerDTO is the read model of a player.
type PlayerDTO struct {
	UserID        string       `json:"user_id"`
	Level         int          `json:"level"`
	XP            int          `json:"xp"`
	XPForNext     int          `json:"xp_for_next_level"`
	XPToNextLevel int          `json:"xp_to_next_level"`
	LevelProgress float64      `json:"level_progress"` // 0.0 - 1.0
	Stats         player.Stats `json:"stats"`
}

// GetPlayerHandler handles GetPlayerQuery.
type GetPlayerHandler struct {
	players player.Repository
	deps    Deps
}

// NewGetPlayerHandler creates a new GetPlayerHandler.
func NewGetPlayerHandler(players player.Repository, deps Deps) *GetPlayerHandler {
	return &GetPlayerHandler{players: players, deps: deps.withDefaults("get_player")}
}

// Handle executes the query.
func (h *GetPlayerHandler) Handle(ctx context.Context, _ GetPlayerQuery) (*PlayerDTO, error) {
	userID, err := currentUser(ctx, h.deps.CurrentUser, "get_player")
	if err != nil {
		return nil, err
	}

	p, err := h.players.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get_player: failed to load player: %w", err)
	}
	if p == nil {
		p = player.New(userID)
	}

	floor := player.RequiredXP(p.Level() - 1)
	ceiling := player.RequiredXP(p.Level())
	progress := 0.0
	if ceiling > floor {
		progress = float64(p.XP()-floor) / float64(ceiling-floor)
	}

	return &PlayerDTO{
		UserID:        userID.String(),
		Level:         p.Level(),
		XP:            p.XP(),
		XPForNext:     ceiling,
		XPToNextLevel: p.XPToNextLevel(),
		LevelProgress: progress,
		Stats:         p.Stats(),
	}, nil
}
