package activity

import (
	"context"

	"github.com/valoron/valoron/internal/domain/shared"
)

// Repository loads and saves activities.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Load returns the activity or (nil, nil) when it does not exist.
	Load(ctx context.Context, id shared.ID) (*Activity, error)

	// Save creates or updates the activity.
	Save(ctx context.Context, a *Activity) error

	// ListByUser returns the user's activities, newest first.
	ListByUser(ctx context.Context, userID shared.ID) ([]*Activity, error)

	// FindByResource returns the activity linked to the resource, or (nil, nil).
	FindByResource(ctx context.Context, resourceID shared.ID) (*Activity, error)
}
