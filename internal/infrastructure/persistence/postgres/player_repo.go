package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valoron/valoron/internal/domain/player"
	"github.com/valoron/valoron/internal/domain/shared"
)

// PlayerRepository implements player.Repository for PostgreSQL.
type PlayerRepository struct {
	conn *Connection
}

// NewPlayerRepository creates a new PlayerRepository.
func NewPlayerRepository(conn *Connection) *PlayerRepository {
	return &PlayerRepository{conn: conn}
}

// Load returns the player or (nil, nil) when none exists yet.
func (r *PlayerRepository) Load(ctx context.Context, id shared.ID) (*player.Player, error) {
	var (
		xp        int
		level     int
		statsJSON []byte
	)

	err := r.conn.QueryRow(ctx, `SELECT xp, level, stats FROM players WHERE id = $1`, id).
		Scan(&xp, &level, &statsJSON)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}

	stats := player.DefaultStats()
	if err := json.Unmarshal(statsJSON, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player stats: %w", err)
	}

	return player.Restore(id, xp, level, stats), nil
}

// Save upserts the player.
func (r *PlayerRepository) Save(ctx context.Context, p *player.Player) error {
	statsJSON, err := json.Marshal(p.Stats())
	if err != nil {
		return fmt.Errorf("failed to marshal player stats: %w", err)
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO players (id, xp, level, stats, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT(id) DO UPDATE SET
			xp = EXCLUDED.xp,
			level = EXCLUDED.level,
			stats = EXCLUDED.stats,
			updated_at = NOW()
	`, p.ID(), p.XP(), p.Level(), statsJSON)
	if err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}

	return nil
}
