// Package query contains read operations (CQRS - Queries).
// Queries never mutate aggregates and never publish events.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

// Deps are the collaborators shared by query handlers.
type Deps struct {
	CurrentUser shared.CurrentUser
	Logger      *logger.Logger
}

func (d Deps) withDefaults(component string) Deps {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	d.Logger = d.Logger.With(logger.Component(component))
	return d
}

// ActivityDTO is the read model of an activity.
type ActivityDTO struct {
	ID                   string  `json:"id"`
	Title                string  `json:"title"`
	CategoryCode         string  `json:"category_code"`
	CategoryName         string  `json:"category_name"`
	Difficulty           int     `json:"difficulty"`
	Unit                 string  `json:"unit"`
	Target               float64 `json:"target"`
	Current              float64 `json:"current"`
	CompletionPercentage float64 `json:"completion_percentage"`
	Status               string  `json:"status"`
	ResourceID           *string `json:"resource_id,omitempty"`
	CreatedAt            string  `json:"created_at"`
	CompletedAt          *string `json:"completed_at,omitempty"`
}

func toActivityDTO(a *activity.Activity) ActivityDTO {
	m := a.Measurement()
	dto := ActivityDTO{
		ID:                   a.ID().String(),
		Title:                a.Title(),
		CategoryCode:         a.Category().Code(),
		CategoryName:         a.Category().Name(),
		Difficulty:           a.Difficulty().Value(),
		Unit:                 m.Unit().String(),
		Target:               m.Target(),
		Current:              m.Current(),
		CompletionPercentage: m.CompletionPercentage(),
		Status:               string(a.Status()),
		CreatedAt:            a.CreatedAt().Format(time.RFC3339),
	}
	if a.HasResource() {
		id := a.ResourceID().String()
		dto.ResourceID = &id
	}
	if at := a.CompletedAt(); at != nil {
		s := at.Format(time.RFC3339)
		dto.CompletedAt = &s
	}
	return dto
}

func currentUser(ctx context.Context, users shared.CurrentUser, name string) (shared.ID, error) {
	if users == nil {
		return shared.NilID, fmt.Errorf("%s: %w", name,
			shared.NewDomainError("query", name, shared.ErrUnauthorized, "no user resolver configured"))
	}
	id, err := users.UserID(ctx)
	if err != nil {
		return shared.NilID, fmt.Errorf("%s: %w", name, err)
	}
	return id, nil
}
