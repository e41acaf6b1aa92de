package activity

import "github.com/valoron/valoron/internal/domain/shared"

const (
	MinDifficulty = 1
	MaxDifficulty = 10
)

// Difficulty rates an activity from 1 (trivial) to 10.
type Difficulty struct {
	value int
}

// Presets.
var (
	DifficultyEasy   = Difficulty{value: 1}
	DifficultyMedium = Difficulty{value: 5}
	DifficultyHard   = Difficulty{value: 8}
)

// NewDifficulty validates the range.
func NewDifficulty(value int) (Difficulty, error) {
	if value < MinDifficulty || value > MaxDifficulty {
		return Difficulty{}, shared.InvalidArgument("activity", "NewDifficulty",
			"difficulty must be between %d and %d, got %d", MinDifficulty, MaxDifficulty, value)
	}
	return Difficulty{value: value}, nil
}

// Value returns the numeric rating.
func (d Difficulty) Value() int { return d.value }

// IsZero reports whether the difficulty is unset.
func (d Difficulty) IsZero() bool { return d.value == 0 }
