package player

import (
	"math"

	"github.com/valoron/valoron/internal/domain/activity"
)

const (
	// XPPerPage is awarded for every page logged on a Pages activity.
	XPPerPage = 10

	// BookFinishedBonus is awarded once per finished book.
	BookFinishedBonus = 500

	// MaxXPGain bounds a single award.
	MaxXPGain = 10_000_000

	// MaxTotalXP bounds a player's lifetime XP.
	MaxTotalXP = 1 << 40
)

// RequiredXP returns the cumulative XP needed to advance from level to
// level+1: floor(100 * level^1.5).
func RequiredXP(level int) int {
	if level < 1 {
		return 0
	}
	return int(math.Floor(100 * math.Pow(float64(level), 1.5)))
}

// LevelFor returns the level a player with xp total experience holds.
func LevelFor(xp int) int {
	level := 1
	for xp >= RequiredXP(level) {
		level++
	}
	return level
}

// XPFromProgress converts logged progress into XP. Only pages earn XP; the
// result is truncated and may be zero or negative for corrections. Deltas
// beyond activity.MaxProgressDelta earn nothing.
func XPFromProgress(unit activity.Unit, delta float64) int {
	if math.IsNaN(delta) || math.Abs(delta) > activity.MaxProgressDelta {
		return 0
	}
	switch unit {
	case activity.UnitPages:
		return int(delta * XPPerPage)
	default:
		return 0
	}
}
