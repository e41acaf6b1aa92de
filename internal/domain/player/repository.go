package player

import (
	"context"

	"github.com/valoron/valoron/internal/domain/shared"
)

// Repository loads and saves players. The player id is the user id.
type Repository interface {
	// Load returns the player or (nil, nil) when none exists yet.
	Load(ctx context.Context, id shared.ID) (*Player, error)

	// Save creates or updates the player.
	Save(ctx context.Context, p *Player) error
}
