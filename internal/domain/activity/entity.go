package activity

import (
	"math"
	"strings"
	"time"

	"github.com/valoron/valoron/internal/domain/shared"
)

// Status is the derived lifecycle state of an activity.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// MaxProgressDelta bounds a single progress log in either direction.
const MaxProgressDelta = 100_000

// Activity is a user goal with measurable progress.
//
// Invariant: completedAt is set iff the measurement is met.
type Activity struct {
	shared.AggregateRoot

	userID      shared.ID
	title       string
	category    Category
	difficulty  Difficulty
	measurement Measurement
	createdAt   time.Time
	completedAt *time.Time
	resourceID  shared.ID
}

// NewActivityParams contains parameters for creating a new Activity.
type NewActivityParams struct {
	ID          shared.ID
	UserID      shared.ID
	Title       string
	Category    Category
	Difficulty  Difficulty
	Measurement Measurement
	CreatedAt   time.Time
	ResourceID  shared.ID // NilID when not linked
}

// NewActivity creates an activity with zero progress and records CreatedEvent.
func NewActivity(params NewActivityParams) (*Activity, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, shared.InvalidArgument("activity", "Create", "title cannot be empty")
	}
	if params.Category.IsZero() {
		return nil, shared.InvalidArgument("activity", "Create", "category is required")
	}
	if params.Difficulty.IsZero() {
		return nil, shared.InvalidArgument("activity", "Create", "difficulty is required")
	}
	if params.Measurement.Target() <= 0 {
		return nil, shared.InvalidArgument("activity", "Create", "measurement is required")
	}

	measurement, err := params.Measurement.WithProgress(0)
	if err != nil {
		return nil, err
	}

	a := &Activity{
		AggregateRoot: shared.NewAggregateRoot(params.ID),
		userID:        params.UserID,
		title:         title,
		category:      params.Category,
		difficulty:    params.Difficulty,
		measurement:   measurement,
		createdAt:     params.CreatedAt,
		resourceID:    params.ResourceID,
	}
	a.Record(NewCreatedEvent(a))
	return a, nil
}

// RestoreParams carries persisted state back into an Activity.
type RestoreParams struct {
	ID          shared.ID
	UserID      shared.ID
	Title       string
	Category    Category
	Difficulty  Difficulty
	Measurement Measurement
	CreatedAt   time.Time
	CompletedAt *time.Time
	ResourceID  shared.ID
}

// Restore rebuilds an activity from storage without recording events.
func Restore(p RestoreParams) *Activity {
	return &Activity{
		AggregateRoot: shared.NewAggregateRoot(p.ID),
		userID:        p.UserID,
		title:         p.Title,
		category:      p.Category,
		difficulty:    p.Difficulty,
		measurement:   p.Measurement,
		createdAt:     p.CreatedAt,
		completedAt:   p.CompletedAt,
		resourceID:    p.ResourceID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Getters
// ═══════════════════════════════════════════════════════════════════════════

// UserID returns the owning user.
func (a *Activity) UserID() shared.ID { return a.userID }

// Title returns the title.
func (a *Activity) Title() string { return a.title }

// Category returns the category.
func (a *Activity) Category() Category { return a.category }

// Difficulty returns the difficulty.
func (a *Activity) Difficulty() Difficulty { return a.difficulty }

// Measurement returns the current measurement.
func (a *Activity) Measurement() Measurement { return a.measurement }

// CreatedAt returns the creation time.
func (a *Activity) CreatedAt() time.Time { return a.createdAt }

// ResourceID returns the linked resource, or NilID.
func (a *Activity) ResourceID() shared.ID { return a.resourceID }

// HasResource reports whether a resource is linked.
func (a *Activity) HasResource() bool { return a.resourceID != shared.NilID }

// IsCompleted reports whether the goal is met.
func (a *Activity) IsCompleted() bool { return a.completedAt != nil }

// IsOwnedBy reports whether u owns the activity.
func (a *Activity) IsOwnedBy(u shared.ID) bool { return a.userID == u }

// CompletedAt returns the completion time, or nil while active.
func (a *Activity) CompletedAt() *time.Time {
	if a.completedAt == nil {
		return nil
	}
	t := *a.completedAt
	return &t
}

// Status returns Completed when the goal is met, Active otherwise.
func (a *Activity) Status() Status {
	if a.IsCompleted() {
		return StatusCompleted
	}
	return StatusActive
}

// Equals compares identity. Transient activities are never equal.
func (a *Activity) Equals(other *Activity) bool {
	if a == nil || other == nil {
		return false
	}
	return a.SameIdentity(other.Entity)
}

// ═══════════════════════════════════════════════════════════════════════════
// Behaviour
// ═══════════════════════════════════════════════════════════════════════════

// ProgressOption adds optional detail to a progress log.
type ProgressOption func(*progressOptions)

type progressOptions struct {
	duration time.Duration
}

// WithDuration attaches the time spent to the logged progress.
func WithDuration(d time.Duration) ProgressOption {
	return func(o *progressOptions) {
		if d > 0 {
			o.duration = d
		}
	}
}

// LogProgress adds delta to the current progress. Negative deltas model
// corrections. A completed binary activity ignores further logs.
func (a *Activity) LogProgress(delta float64, now time.Time, opts ...ProgressOption) error {
	if math.IsNaN(delta) || math.Abs(delta) > MaxProgressDelta {
		return shared.InvalidArgument("activity", "LogProgress",
			"delta must be within ±%d, got %v", MaxProgressDelta, delta)
	}
	if a.IsCompleted() && a.measurement.IsBinary() {
		return nil
	}

	var o progressOptions
	for _, opt := range opts {
		opt(&o)
	}

	next, err := a.measurement.WithProgress(a.measurement.Current() + delta)
	if err != nil {
		return shared.WrapError("activity", "LogProgress", shared.ErrInvalidArgument, "progress would become negative", err)
	}

	wasCompleted := a.IsCompleted()
	a.measurement = next
	a.Record(NewProgressLoggedEvent(a, delta, o.duration, now))

	switch {
	case !wasCompleted && next.IsMet():
		completedAt := now
		a.completedAt = &completedAt
		a.Record(NewCompletedEvent(a, now))
	case wasCompleted && !next.IsMet():
		a.completedAt = nil
		a.Record(NewUncompletedEvent(a, now))
	}
	return nil
}

// UpdateDifficulty changes the rating of an active activity.
func (a *Activity) UpdateDifficulty(d Difficulty) error {
	if d.IsZero() {
		return shared.InvalidArgument("activity", "UpdateDifficulty", "difficulty is required")
	}
	if a.IsCompleted() {
		return shared.InvalidOperation("activity", "UpdateDifficulty", "cannot change the difficulty of a completed activity")
	}
	a.difficulty = d
	return nil
}
