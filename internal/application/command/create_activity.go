package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/book"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

// MeasurementType selects the flavour of goal.
type MeasurementType string

const (
	MeasurementBinary       MeasurementType = "binary"
	MeasurementQuantifiable MeasurementType = "quantifiable"
)

// CreateActivityCommand contains the data to create an activity.
type CreateActivityCommand struct {
	Title           string
	CategoryCode    string
	Difficulty      int
	MeasurementType MeasurementType
	Unit            string  // quantifiable only
	Target          float64 // quantifiable only
	ResourceID      shared.ID
}

// Measurement builds the measurement the command describes.
func (c CreateActivityCommand) Measurement() (activity.Measurement, error) {
	switch MeasurementType(strings.ToLower(string(c.MeasurementType))) {
	case MeasurementBinary:
		return activity.Binary(), nil
	case MeasurementQuantifiable:
		unit, err := activity.ParseUnit(c.Unit)
		if err != nil {
			return activity.Measurement{}, err
		}
		return activity.Quantifiable(unit, c.Target)
	default:
		return activity.Measurement{}, shared.InvalidArgument("activity", "Create",
			"unknown measurement type %q", c.MeasurementType)
	}
}

// CreateActivityResult contains the result of creating an activity.
type CreateActivityResult struct {
	ActivityID shared.ID
	Events     []shared.Event
}

// CreateActivityHandler handles the CreateActivityCommand.
type CreateActivityHandler struct {
	activities activity.Repository
	books      book.Repository
	deps       Deps
}

// NewCreateActivityHandler creates a new CreateActivityHandler. Linked
// resources are resolved through books.
func NewCreateActivityHandler(activities activity.Repository, books book.Repository, deps Deps) *CreateActivityHandler {
	return &CreateActivityHandler{activities: activities, books: books, deps: deps.withDefaults("create_activity")}
}

// Handle executes the create activity command.
func (h *CreateActivityHandler) Handle(ctx context.Context, cmd CreateActivityCommand) (*CreateActivityResult, error) {
	userID, err := h.deps.CurrentUser.UserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("create_activity: %w", err)
	}

	category, err := activity.CategoryFromCode(cmd.CategoryCode)
	if err != nil {
		return nil, fmt.Errorf("create_activity: %w", err)
	}
	difficulty, err := activity.NewDifficulty(cmd.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("create_activity: %w", err)
	}
	measurement, err := cmd.Measurement()
	if err != nil {
		return nil, fmt.Errorf("create_activity: %w", err)
	}
	if cmd.ResourceID != shared.NilID {
		if _, err := loadOwnedBook(ctx, h.books, cmd.ResourceID, userID, "Create"); err != nil {
			return nil, fmt.Errorf("create_activity: %w", err)
		}
	}

	a, err := activity.NewActivity(activity.NewActivityParams{
		ID:          shared.NewID(),
		UserID:      userID,
		Title:       cmd.Title,
		Category:    category,
		Difficulty:  difficulty,
		Measurement: measurement,
		CreatedAt:   h.deps.Clock.Now(),
		ResourceID:  cmd.ResourceID,
	})
	if err != nil {
		return nil, fmt.Errorf("create_activity: %w", err)
	}

	if err := h.activities.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("create_activity: failed to save activity: %w", err)
	}

	events := a.PullDomainEvents()
	h.deps.Logger.Info("activity created",
		logger.ActivityID(a.ID().String()),
		logger.UserID(userID.String()),
		logger.String("category", category.Code()),
	)
	h.deps.publish(ctx, events)

	return &CreateActivityResult{ActivityID: a.ID(), Events: events}, nil
}
