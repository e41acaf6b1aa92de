// Package player holds the progression engine: XP, level and stats of the
// character that belongs to each user.
package player

import (
	"math"
	"time"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/shared"
)

// Player is the gamified character of a user. Its id is the user id.
//
// Invariant: level == LevelFor(xp). Neither xp nor level ever decreases.
type Player struct {
	shared.AggregateRoot

	xp    int
	level int
	stats Stats
}

// New creates a level 1 player with no XP.
func New(userID shared.ID) *Player {
	return &Player{
		AggregateRoot: shared.NewAggregateRoot(userID),
		level:         1,
		stats:         DefaultStats(),
	}
}

// Restore rebuilds a player from storage.
func Restore(id shared.ID, xp, level int, stats Stats) *Player {
	return &Player{
		AggregateRoot: shared.NewAggregateRoot(id),
		xp:            xp,
		level:         level,
		stats:         stats,
	}
}

// XP returns the total experience.
func (p *Player) XP() int { return p.xp }

// Level returns the current level.
func (p *Player) Level() int { return p.level }

// Stats returns the current attributes.
func (p *Player) Stats() Stats { return p.stats }

// XPToNextLevel returns how much XP is missing for the next level.
func (p *Player) XPToNextLevel() int {
	return RequiredXP(p.level) - p.xp
}

// Equals compares identity. Transient players are never equal.
func (p *Player) Equals(other *Player) bool {
	if p == nil || other == nil {
		return false
	}
	return p.SameIdentity(other.Entity)
}

// AddXP adds experience and levels up as many times as the new total allows,
// recording one LeveledUpEvent per level.
func (p *Player) AddXP(amount int, now time.Time) error {
	if amount < 0 {
		return shared.InvalidArgument("player", "AddXP", "XP amount cannot be negative, got %d", amount)
	}
	if amount > MaxXPGain {
		return shared.InvalidArgument("player", "AddXP", "XP amount cannot exceed %d, got %d", MaxXPGain, amount)
	}
	if p.xp > MaxTotalXP-amount {
		return shared.InvalidArgument("player", "AddXP", "total XP cannot exceed %d", MaxTotalXP)
	}
	p.xp += amount
	for p.xp >= RequiredXP(p.level) {
		p.level++
		p.stats = p.stats.Increase(PerLevel)
		p.Record(NewLeveledUpEvent(p.ID(), p.level, now))
	}
	return nil
}

// GainXPFromActivity awards XP for logged progress. Units that earn nothing
// and non-positive results are ignored.
func (p *Player) GainXPFromActivity(unit activity.Unit, delta float64, now time.Time) error {
	if math.IsNaN(delta) || math.Abs(delta) > activity.MaxProgressDelta {
		return shared.InvalidArgument("player", "GainXPFromActivity",
			"delta must be within ±%d, got %v", activity.MaxProgressDelta, delta)
	}
	xp := XPFromProgress(unit, delta)
	if xp <= 0 {
		return nil
	}
	return p.AddXP(xp, now)
}
