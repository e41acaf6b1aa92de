package activity

import (
	"fmt"
	"math"
	"strings"

	"github.com/valoron/valoron/internal/domain/shared"
)

// Unit is the unit a Measurement counts in.
type Unit string

const (
	UnitNone       Unit = "none"
	UnitMinutes    Unit = "minutes"
	UnitPages      Unit = "pages"
	UnitCount      Unit = "count"
	UnitKilometers Unit = "kilometers"
)

// IsValid reports whether the unit is one of the known units.
func (u Unit) IsValid() bool {
	switch u {
	case UnitNone, UnitMinutes, UnitPages, UnitCount, UnitKilometers:
		return true
	}
	return false
}

// IsQuantifiable reports whether the unit counts an amount.
func (u Unit) IsQuantifiable() bool {
	return u.IsValid() && u != UnitNone
}

// String returns the string representation.
func (u Unit) String() string {
	return string(u)
}

// ParseUnit parses a unit name, case-insensitively.
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if !u.IsValid() {
		return "", shared.InvalidArgument("activity", "ParseUnit", "unknown unit %q", s)
	}
	return u, nil
}

// Measurement describes how much of a goal is done. It is a value: every
// change produces a new Measurement.
type Measurement struct {
	unit    Unit
	target  float64
	current float64
}

// NewMeasurement validates and builds a measurement.
func NewMeasurement(unit Unit, target, current float64) (Measurement, error) {
	if !unit.IsValid() {
		return Measurement{}, shared.InvalidArgument("activity", "NewMeasurement", "unknown unit %q", unit)
	}
	if !(target > 0) || math.IsInf(target, 0) {
		return Measurement{}, shared.InvalidArgument("activity", "NewMeasurement", "target must be greater than 0, got %v", target)
	}
	if !(current >= 0) || math.IsInf(current, 0) {
		return Measurement{}, shared.InvalidArgument("activity", "NewMeasurement", "current must not be negative, got %v", current)
	}
	if unit == UnitNone && target != 1 {
		return Measurement{}, shared.InvalidArgument("activity", "NewMeasurement", "binary measurement must have target 1")
	}
	return Measurement{unit: unit, target: target, current: current}, nil
}

// Binary returns an unmet yes/no measurement.
func Binary() Measurement {
	return Measurement{unit: UnitNone, target: 1}
}

// Quantifiable returns an empty measurement with the given unit and target.
func Quantifiable(unit Unit, target float64) (Measurement, error) {
	if !unit.IsQuantifiable() {
		return Measurement{}, shared.InvalidArgument("activity", "Quantifiable", "unit %q is not quantifiable", unit)
	}
	return NewMeasurement(unit, target, 0)
}

// Unit returns the unit the measurement counts in.
func (m Measurement) Unit() Unit { return m.unit }

// Target returns the amount that meets the goal.
func (m Measurement) Target() float64 { return m.target }

// Current returns the amount done so far.
func (m Measurement) Current() float64 { return m.current }

// IsBinary reports whether this is a yes/no goal.
func (m Measurement) IsBinary() bool { return m.unit == UnitNone }

// Equal compares two measurements component-wise.
func (m Measurement) Equal(o Measurement) bool { return m == o }

// WithProgress returns a copy whose current value is newCurrent. Values above
// target are kept as over-achievement.
func (m Measurement) WithProgress(newCurrent float64) (Measurement, error) {
	if !(newCurrent >= 0) || math.IsInf(newCurrent, 0) {
		return m, shared.InvalidArgument("activity", "WithProgress", "progress must not be negative, got %v", newCurrent)
	}
	m.current = newCurrent
	return m, nil
}

// IsMet reports whether the goal is reached.
func (m Measurement) IsMet() bool {
	return m.current >= m.target
}

// CompletionPercentage returns progress as a fraction in [0, 1].
func (m Measurement) CompletionPercentage() float64 {
	if m.target <= 0 {
		return 0
	}
	return math.Min(m.current/m.target, 1)
}

// String returns a short human-readable form, e.g. "40/100 pages".
func (m Measurement) String() string {
	if m.IsBinary() {
		if m.IsMet() {
			return "done"
		}
		return "not done"
	}
	return fmt.Sprintf("%g/%g %s", m.current, m.target, m.unit)
}
