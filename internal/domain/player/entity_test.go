package player

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/shared"
)

var now = time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)

func levels(events []shared.Event) []int {
	var out []int
	for _, e := range events {
		out = append(out, e.(LeveledUpEvent).NewLevel)
	}
	return out
}

func TestRequiredXP(t *testing.T) {
	expected := map[int]int{1: 100, 2: 282, 3: 519, 4: 800, 5: 1118}
	for level, xp := range expected {
		assert.Equal(t, xp, RequiredXP(level), "level %d", level)
	}
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, 1, LevelFor(0))
	assert.Equal(t, 1, LevelFor(99))
	assert.Equal(t, 2, LevelFor(100))
	assert.Equal(t, 2, LevelFor(281))
	assert.Equal(t, 3, LevelFor(282))
	assert.Equal(t, 3, LevelFor(500))
	assert.Equal(t, 6, LevelFor(1118))
}

func TestNew(t *testing.T) {
	p := New(shared.NewID())

	assert.Equal(t, 0, p.XP())
	assert.Equal(t, 1, p.Level())
	assert.Equal(t, Stats{Strength: 1, Intellect: 1, Stamina: 1}, p.Stats())
	assert.Equal(t, 100, p.XPToNextLevel())
}

func TestAddXP_MultipleLevelUps(t *testing.T) {
	p := New(shared.NewID())

	require.NoError(t, p.AddXP(300, now))

	assert.Equal(t, 3, p.Level())
	assert.Equal(t, []int{2, 3}, levels(p.DomainEvents()))
	assert.Equal(t, Stats{Strength: 3, Intellect: 3, Stamina: 3}, p.Stats())
	for _, e := range p.DomainEvents() {
		assert.Equal(t, p.ID(), e.UserID())
	}
}

func TestAddXP_BookBonusFromFreshPlayer(t *testing.T) {
	p := New(shared.NewID())

	require.NoError(t, p.AddXP(BookFinishedBonus, now))

	assert.Equal(t, 500, p.XP())
	assert.Equal(t, 3, p.Level())
	assert.Equal(t, []int{2, 3}, levels(p.DomainEvents()))
}

func TestAddXP_Negative(t *testing.T) {
	p := New(shared.NewID())
	require.NoError(t, p.AddXP(50, now))

	err := p.AddXP(-1, now)
	assert.True(t, shared.IsInvalidArgument(err))
	assert.Equal(t, 50, p.XP())
	assert.Equal(t, 1, p.Level())
	assert.Empty(t, p.DomainEvents())
}

func TestAddXP_Bounds(t *testing.T) {
	t.Run("single award is capped", func(t *testing.T) {
		p := New(shared.NewID())
		err := p.AddXP(math.MaxInt, now)
		assert.True(t, shared.IsInvalidArgument(err))
		assert.Zero(t, p.XP())
		assert.Empty(t, p.DomainEvents())

		require.NoError(t, p.AddXP(MaxXPGain, now))
		assert.Equal(t, LevelFor(MaxXPGain), p.Level())
	})

	t.Run("lifetime total is capped", func(t *testing.T) {
		xp := MaxTotalXP - 10
		p := Restore(shared.NewID(), xp, LevelFor(xp), Stats{Strength: 1, Intellect: 1, Stamina: 1})

		err := p.AddXP(11, now)
		assert.True(t, shared.IsInvalidArgument(err))
		assert.Equal(t, xp, p.XP())

		require.NoError(t, p.AddXP(10, now))
		assert.Equal(t, MaxTotalXP, p.XP())
	})

	t.Run("oversized progress is rejected", func(t *testing.T) {
		p := New(shared.NewID())
		for _, delta := range []float64{1e9, -1e9, math.NaN()} {
			err := p.GainXPFromActivity(activity.UnitPages, delta, now)
			assert.True(t, shared.IsInvalidArgument(err), "delta %v", delta)
		}
		assert.Zero(t, p.XP())
		assert.Zero(t, XPFromProgress(activity.UnitPages, 1e18))
	})
}

func TestAddXP_LevelMatchesXP(t *testing.T) {
	p := New(shared.NewID())
	for _, amount := range []int{0, 7, 93, 150, 40, 600, 1, 2000} {
		require.NoError(t, p.AddXP(amount, now))
		assert.Equal(t, LevelFor(p.XP()), p.Level())
	}
}

func TestGainXPFromActivity(t *testing.T) {
	tests := []struct {
		name   string
		unit   activity.Unit
		delta  float64
		wantXP int
	}{
		{"pages", activity.UnitPages, 12, 120},
		{"fractional pages truncate", activity.UnitPages, 2.55, 25},
		{"minutes earn nothing", activity.UnitMinutes, 90, 0},
		{"binary earns nothing", activity.UnitNone, 1, 0},
		{"correction is ignored", activity.UnitPages, -5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(shared.NewID())
			require.NoError(t, p.GainXPFromActivity(tt.unit, tt.delta, now))
			assert.Equal(t, tt.wantXP, p.XP())
		})
	}
}

func TestPlayer_Equality(t *testing.T) {
	id := shared.NewID()
	assert.True(t, New(id).Equals(Restore(id, 900, 4, DefaultStats())))
	assert.False(t, New(shared.NilID).Equals(New(shared.NilID)))
}
