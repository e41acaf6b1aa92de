package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACTIVITY / LIST ACTIVITIES QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// GetActivityQuery identifies one activity.
type GetActivityQuery struct {
	ActivityID shared.ID
}

// GetActivityHandler handles GetActivityQuery.
type GetActivityHandler struct {
	activities activity.Repository
	deps       Deps
}

// NewGetActivityHandler creates a new GetActivityHandler.
func NewGetActivityHandler(activities activity.Repository, deps Deps) *GetActivityHandler {
	return &GetActivityHandler{activities: activities, deps: deps.withDefaults("get_activity")}
}

// Handle executes the query.
func (h *GetActivityHandler) Handle(ctx context.Context, q GetActivityQuery) (*ActivityDTO, error) {
	if q.ActivityID == shared.NilID {
		return nil, fmt.Errorf("get_activity: %w",
			shared.InvalidArgument("activity", "GetActivity", "activity id is required"))
	}
	userID, err := currentUser(ctx, h.deps.CurrentUser, "get_activity")
	if err != nil {
		return nil, err
	}

	a, err := h.activities.Load(ctx, q.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("get_activity: failed to load activity: %w", err)
	}
	if a == nil {
		return nil, fmt.Errorf("get_activity: %w",
			shared.NotFound("activity", "GetActivity", "activity %s not found", q.ActivityID))
	}
	if !a.IsOwnedBy(userID) {
		return nil, fmt.Errorf("get_activity: %w",
			shared.Unauthorized("activity", "GetActivity", "activity %s belongs to another user", q.ActivityID))
	}

	dto := toActivityDTO(a)
	return &dto, nil
}

// ListActivitiesQuery filters the current user's activities.
type ListActivitiesQuery struct {
	// CategoryCode restricts to one category (empty = all).
	CategoryCode string

	// OnlyActive hides completed activities.
	OnlyActive bool
}

// ListActivitiesResult is the filtered list, newest first.
type ListActivitiesResult struct {
	Activities []ActivityDTO `json:"activities"`
	Total      int           `json:"total"`
	Completed  int           `json:"completed"`
}

// ListActivitiesHandler handles ListActivitiesQuery.
type ListActivitiesHandler struct {
	activities activity.Repository
	deps       Deps
}

// NewListActivitiesHandler creates a new ListActivitiesHandler.
func NewListActivitiesHandler(activities activity.Repository, deps Deps) *ListActivitiesHandler {
	return &ListActivitiesHandler{activities: activities, deps: deps.withDefaults("list_activities")}
}

// Handle executes the query.
func (h *ListActivitiesHandler) Handle(ctx context.Context, q ListActivitiesQuery) (*ListActivitiesResult, error) {
	var category activity.Category
	if code := strings.TrimSpace(q.CategoryCode); code != "" {
		c, err := activity.CategoryFromCode(code)
		if err != nil {
			return nil, fmt.Errorf("list_activities: %w", err)
		}
		category = c
	}

	userID, err := currentUser(ctx, h.deps.CurrentUser, "list_activities")
	if err != nil {
		return nil, err
	}

	all, err := h.activities.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list_activities: failed to list activities: %w", err)
	}

	result := &ListActivitiesResult{Activities: make([]ActivityDTO, 0, len(all))}
	for _, a := range all {
		if !category.IsZero() && a.Category() != category {
			continue
		}
		if a.IsCompleted() {
			result.Completed++
			if q.OnlyActive {
				continue
			}
		}
		result.Activities = append(result.Activities, toActivityDTO(a))
	}
	result.Total = len(result.Activities)

	return result, nil
}
