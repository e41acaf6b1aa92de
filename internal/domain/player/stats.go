package player

// Stats are the character attributes that grow with level.
type Stats struct {
	Strength  int `json:"strength"`
	Intellect int `json:"intellect"`
	Stamina   int `json:"stamina"`
}

// PerLevel is added to the stats on every level-up.
var PerLevel = Stats{Strength: 1, Intellect: 1, Stamina: 1}

// DefaultStats returns the stats of a new player.
func DefaultStats() Stats {
	return Stats{Strength: 1, Intellect: 1, Stamina: 1}
}

// Increase returns a new Stats with d added component-wise.
func (s Stats) Increase(d Stats) Stats {
	return Stats{
		Strength:  s.Strength + d.Strength,
		Intellect: s.Intellect + d.Intellect,
		Stamina:   s.Stamina + d.Stamina,
	}
}
