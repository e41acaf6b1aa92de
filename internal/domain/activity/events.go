package activity

import (
	"time"

	"github.com/valoron/valoron/internal/domain/shared"
)

func resourcePayload(id shared.ID) interface{} {
	if id == shared.NilID {
		return nil
	}
	return id.String()
}

// ═══════════════════════════════════════════════════════════════════════════
// ActivityCreated
// ═══════════════════════════════════════════════════════════════════════════

// CreatedEvent is emitted when an activity is created.
type CreatedEvent struct {
	shared.BaseEvent
	ActivityID   shared.ID `json:"activity_id"`
	Title        string    `json:"title"`
	CategoryCode string    `json:"category_code"`
	Difficulty   int       `json:"difficulty"`
	ResourceID   shared.ID `json:"resource_id"`
}

// Payload implements Event interface.
func (e CreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"activity_id":   e.ActivityID.String(),
		"user_id":       e.User.String(),
		"title":         e.Title,
		"category_code": e.CategoryCode,
		"difficulty":    e.Difficulty,
		"resource_id":   resourcePayload(e.ResourceID),
	}
}

// NewCreatedEvent creates a new CreatedEvent.
func NewCreatedEvent(a *Activity) CreatedEvent {
	return CreatedEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventActivityCreated, a.ID(), a.userID, a.createdAt),
		ActivityID:   a.ID(),
		Title:        a.title,
		CategoryCode: a.category.Code(),
		Difficulty:   a.difficulty.Value(),
		ResourceID:   a.resourceID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// ActivityProgressLogged
// ═══════════════════════════════════════════════════════════════════════════

// ProgressLoggedEvent is emitted on every accepted progress log.
type ProgressLoggedEvent struct {
	shared.BaseEvent
	ActivityID   shared.ID     `json:"activity_id"`
	ResourceID   shared.ID     `json:"resource_id"`
	Delta        float64       `json:"delta"`
	CategoryCode string        `json:"category_code"`
	Unit         Unit          `json:"unit"`
	Duration     time.Duration `json:"duration,omitempty"`
}

// Payload implements Event interface.
func (e ProgressLoggedEvent) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"activity_id":   e.ActivityID.String(),
		"user_id":       e.User.String(),
		"resource_id":   resourcePayload(e.ResourceID),
		"delta":         e.Delta,
		"category_code": e.CategoryCode,
		"unit":          e.Unit.String(),
	}
	if e.Duration > 0 {
		p["duration_seconds"] = e.Duration.Seconds()
	}
	return p
}

// HasResource reports whether the activity is linked to another aggregate.
func (e ProgressLoggedEvent) HasResource() bool {
	return e.ResourceID != shared.NilID
}

// NewProgressLoggedEvent creates a new ProgressLoggedEvent.
func NewProgressLoggedEvent(a *Activity, delta float64, duration time.Duration, at time.Time) ProgressLoggedEvent {
	return ProgressLoggedEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventActivityProgressLogged, a.ID(), a.userID, at),
		ActivityID:   a.ID(),
		ResourceID:   a.resourceID,
		Delta:        delta,
		CategoryCode: a.category.Code(),
		Unit:         a.measurement.Unit(),
		Duration:     duration,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// ActivityCompleted / ActivityUncompleted
// ═══════════════════════════════════════════════════════════════════════════

// CompletedEvent is emitted when progress first meets the target.
type CompletedEvent struct {
	shared.BaseEvent
	ActivityID shared.ID `json:"activity_id"`
	ResourceID shared.ID `json:"resource_id"`
}

// Payload implements Event interface.
func (e CompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"activity_id": e.ActivityID.String(),
		"resource_id": resourcePayload(e.ResourceID),
	}
}

// NewCompletedEvent creates a new CompletedEvent.
func NewCompletedEvent(a *Activity, at time.Time) CompletedEvent {
	return CompletedEvent{
		BaseEvent:  shared.NewBaseEvent(shared.EventActivityCompleted, a.ID(), a.userID, at),
		ActivityID: a.ID(),
		ResourceID: a.resourceID,
	}
}

// UncompletedEvent is emitted when a correction drops progress below target.
type UncompletedEvent struct {
	shared.BaseEvent
	ActivityID shared.ID `json:"activity_id"`
	ResourceID shared.ID `json:"resource_id"`
}

// Payload implements Event interface.
func (e UncompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"activity_id": e.ActivityID.String(),
		"resource_id": resourcePayload(e.ResourceID),
	}
}

// NewUncompletedEvent creates a new UncompletedEvent.
func NewUncompletedEvent(a *Activity, at time.Time) UncompletedEvent {
	return UncompletedEvent{
		BaseEvent:  shared.NewBaseEvent(shared.EventActivityUncompleted, a.ID(), a.userID, at),
		ActivityID: a.ID(),
		ResourceID: a.resourceID,
	}
}
