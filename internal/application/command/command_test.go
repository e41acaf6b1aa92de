package command

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/book"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/internal/infrastructure/persistence/memory"
	"github.com/valoron/valoron/pkg/clock"
)

var start = time.Date(2024, 5, 2, 18, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	published []shared.Event
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.Event) error {
	p.published = append(p.published, events...)
	return p.err
}

type env struct {
	ctx        context.Context
	userID     shared.ID
	activities *memory.ActivityStore
	books      *memory.BookStore
	publisher  *recordingPublisher
	deps       Deps
}

func newEnv() *env {
	userID := shared.NewID()
	pub := &recordingPublisher{}
	return &env{
		ctx:        shared.WithUserID(context.Background(), userID),
		userID:     userID,
		activities: memory.NewActivityStore(),
		books:      memory.NewBookStore(),
		publisher:  pub,
		deps: Deps{
			Publisher:   pub,
			Clock:       clock.NewFixed(start),
			CurrentUser: shared.ContextUser,
		},
	}
}

func (e *env) createActivity(t *testing.T, cmd CreateActivityCommand) shared.ID {
	t.Helper()
	res, err := NewCreateActivityHandler(e.activities, e.books, e.deps).Handle(e.ctx, cmd)
	require.NoError(t, err)
	return res.ActivityID
}

func (e *env) createBook(t *testing.T, pages int) shared.ID {
	t.Helper()
	res, err := NewCreateBookHandler(e.books, e.deps).Handle(e.ctx, CreateBookCommand{Title: "Dune", Author: "Frank Herbert", TotalPages: pages})
	require.NoError(t, err)
	return res.BookID
}

func types(events []shared.Event) []shared.EventType {
	out := make([]shared.EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.EventType())
	}
	return out
}

func TestCreateActivity(t *testing.T) {
	e := newEnv()
	res, err := NewCreateActivityHandler(e.activities, e.books, e.deps).Handle(e.ctx, CreateActivityCommand{
		Title:           "  Run  ",
		CategoryCode:    "body",
		Difficulty:      6,
		MeasurementType: MeasurementQuantifiable,
		Unit:            "kilometers",
		Target:          5,
	})
	require.NoError(t, err)
	assert.Equal(t, []shared.EventType{shared.EventActivityCreated}, types(res.Events))
	assert.Equal(t, res.Events, e.publisher.published)

	a, err := e.activities.Load(e.ctx, res.ActivityID)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "Run", a.Title())
	assert.Equal(t, activity.CategoryBody, a.Category())
	assert.Equal(t, 6, a.Difficulty().Value())
	assert.Equal(t, activity.UnitKilometers, a.Measurement().Unit())
	assert.Equal(t, start, a.CreatedAt())
	assert.Equal(t, e.userID, a.UserID())
}

func TestCreateActivity_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		cmd  CreateActivityCommand
	}{
		{"unknown category", CreateActivityCommand{Title: "x", CategoryCode: "XYZ", Difficulty: 3, MeasurementType: MeasurementBinary}},
		{"difficulty out of range", CreateActivityCommand{Title: "x", CategoryCode: "ENV", Difficulty: 11, MeasurementType: MeasurementBinary}},
		{"unknown measurement", CreateActivityCommand{Title: "x", CategoryCode: "ENV", Difficulty: 3, MeasurementType: "fuzzy"}},
		{"bad unit", CreateActivityCommand{Title: "x", CategoryCode: "ENV", Difficulty: 3, MeasurementType: MeasurementQuantifiable, Unit: "parsecs", Target: 1}},
		{"zero target", CreateActivityCommand{Title: "x", CategoryCode: "ENV", Difficulty: 3, MeasurementType: MeasurementQuantifiable, Unit: "pages"}},
		{"blank title", CreateActivityCommand{Title: "  ", CategoryCode: "ENV", Difficulty: 3, MeasurementType: MeasurementBinary}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			_, err := NewCreateActivityHandler(e.activities, e.books, e.deps).Handle(e.ctx, tt.cmd)
			assert.True(t, shared.IsInvalidArgument(err), "got %v", err)
			assert.Empty(t, e.publisher.published)
		})
	}
}

func TestCreateActivity_LinkedBookMustBelongToUser(t *testing.T) {
	e := newEnv()
	bookID := e.createBook(t, 100)
	h := NewCreateActivityHandler(e.activities, e.books, e.deps)
	linked := CreateActivityCommand{
		Title: "Dune", CategoryCode: "LRN", Difficulty: 5,
		MeasurementType: MeasurementQuantifiable, Unit: "pages", Target: 100, ResourceID: bookID,
	}

	bob := shared.WithUserID(context.Background(), shared.NewID())
	_, err := h.Handle(bob, linked)
	assert.True(t, shared.IsUnauthorized(err), "got %v", err)

	found, err := e.activities.FindByResource(e.ctx, bookID)
	require.NoError(t, err)
	assert.Nil(t, found, "nothing may be linked to a foreign book")

	missing := linked
	missing.ResourceID = shared.NewID()
	_, err = h.Handle(e.ctx, missing)
	assert.True(t, shared.IsNotFound(err), "got %v", err)

	_, err = h.Handle(e.ctx, linked)
	require.NoError(t, err)

	_, err = h.Handle(e.ctx, linked)
	assert.True(t, shared.IsConflict(err), "a book links to one activity, got %v", err)
}

func TestCommands_RequireUser(t *testing.T) {
	e := newEnv()
	_, err := NewCreateBookHandler(e.books, e.deps).Handle(context.Background(), CreateBookCommand{Title: "t", Author: "a", TotalPages: 1})
	assert.True(t, shared.IsUnauthorized(err))
}

func TestLogProgress_CompletesAndUncompletes(t *testing.T) {
	e := newEnv()
	id := e.createActivity(t, CreateActivityCommand{
		Title: "Pushups", CategoryCode: "BODY", Difficulty: 4,
		MeasurementType: MeasurementQuantifiable, Unit: "count", Target: 50,
	})
	h := NewLogProgressHandler(e.activities, e.deps)

	res, err := h.Handle(e.ctx, LogProgressCommand{ActivityID: id, Delta: 60})
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, []shared.EventType{shared.EventActivityProgressLogged, shared.EventActivityCompleted}, types(res.Events))

	res, err = h.Handle(e.ctx, LogProgressCommand{ActivityID: id, Delta: -20})
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Equal(t, []shared.EventType{shared.EventActivityProgressLogged, shared.EventActivityUncompleted}, types(res.Events))

	a, err := e.activities.Load(e.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 40.0, a.Measurement().Current())

	_, err = h.Handle(e.ctx, LogProgressCommand{ActivityID: id, Delta: -100})
	assert.True(t, shared.IsInvalidArgument(err))

	_, err = h.Handle(e.ctx, LogProgressCommand{ActivityID: id, Delta: math.NaN()})
	assert.True(t, shared.IsInvalidArgument(err))

	_, err = h.Handle(e.ctx, LogProgressCommand{ActivityID: id, Delta: 1e12})
	assert.True(t, shared.IsInvalidArgument(err))
	a, err = e.activities.Load(e.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 40.0, a.Measurement().Current())
}

func TestLogProgress_NotFoundAndForeignOwner(t *testing.T) {
	e := newEnv()
	id := e.createActivity(t, CreateActivityCommand{Title: "Water plants", CategoryCode: "ENV", Difficulty: 1, MeasurementType: MeasurementBinary})
	h := NewLogProgressHandler(e.activities, e.deps)

	_, err := h.Handle(e.ctx, LogProgressCommand{ActivityID: shared.NewID(), Delta: 1})
	assert.True(t, shared.IsNotFound(err))

	stranger := shared.WithUserID(context.Background(), shared.NewID())
	_, err = h.Handle(stranger, LogProgressCommand{ActivityID: id, Delta: 1})
	assert.True(t, shared.IsUnauthorized(err))
}

func TestLogProgress_PublisherErrorDoesNotFailCommand(t *testing.T) {
	e := newEnv()
	id := e.createActivity(t, CreateActivityCommand{Title: "Water plants", CategoryCode: "ENV", Difficulty: 1, MeasurementType: MeasurementBinary})
	e.publisher.err = errors.New("reaction failed")

	res, err := NewLogProgressHandler(e.activities, e.deps).Handle(e.ctx, LogProgressCommand{ActivityID: id, Delta: 1})
	require.NoError(t, err)
	assert.True(t, res.Completed)
}

func TestLogReadingSession(t *testing.T) {
	e := newEnv()
	bookID := e.createBook(t, 412)
	linked := e.createActivity(t, CreateActivityCommand{
		Title: "Dune", CategoryCode: "LRN", Difficulty: 5,
		MeasurementType: MeasurementQuantifiable, Unit: "pages", Target: 412, ResourceID: bookID,
	})
	h := NewLogReadingSessionHandler(e.activities, e.deps)

	res, err := h.Handle(e.ctx, LogReadingSessionCommand{ActivityID: linked, PagesRead: 25, Duration: 40 * time.Minute})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	logged := res.Events[0].(activity.ProgressLoggedEvent)
	assert.Equal(t, 25.0, logged.Delta)
	assert.Equal(t, 40*time.Minute, logged.Duration)
	assert.Equal(t, bookID, logged.ResourceID)
	assert.Equal(t, "LRN", logged.CategoryCode)
}

func TestLogReadingSession_Rejections(t *testing.T) {
	e := newEnv()
	unlinked := e.createActivity(t, CreateActivityCommand{
		Title: "Notes", CategoryCode: "LRN", Difficulty: 5,
		MeasurementType: MeasurementQuantifiable, Unit: "pages", Target: 10,
	})
	h := NewLogReadingSessionHandler(e.activities, e.deps)

	_, err := h.Handle(e.ctx, LogReadingSessionCommand{ActivityID: unlinked, PagesRead: 5})
	assert.True(t, shared.IsInvalidOperation(err))

	_, err = h.Handle(e.ctx, LogReadingSessionCommand{ActivityID: unlinked, PagesRead: 0})
	assert.True(t, shared.IsInvalidArgument(err))

	_, err = h.Handle(e.ctx, LogReadingSessionCommand{ActivityID: unlinked, PagesRead: 1, Duration: -time.Second})
	assert.True(t, shared.IsInvalidArgument(err))

	_, err = h.Handle(e.ctx, LogReadingSessionCommand{ActivityID: shared.NewID(), PagesRead: 1})
	assert.True(t, shared.IsNotFound(err))
}

func TestUpdateDifficulty(t *testing.T) {
	e := newEnv()
	id := e.createActivity(t, CreateActivityCommand{Title: "Tidy desk", CategoryCode: "ENV", Difficulty: 2, MeasurementType: MeasurementBinary})
	h := NewUpdateDifficultyHandler(e.activities, e.deps)

	_, err := h.Handle(e.ctx, UpdateDifficultyCommand{ActivityID: id, Difficulty: 7})
	require.NoError(t, err)
	a, err := e.activities.Load(e.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 7, a.Difficulty().Value())

	_, err = h.Handle(e.ctx, UpdateDifficultyCommand{ActivityID: id, Difficulty: 0})
	assert.True(t, shared.IsInvalidArgument(err))

	_, err = NewLogProgressHandler(e.activities, e.deps).Handle(e.ctx, LogProgressCommand{ActivityID: id, Delta: 1})
	require.NoError(t, err)
	_, err = h.Handle(e.ctx, UpdateDifficultyCommand{ActivityID: id, Difficulty: 3})
	assert.True(t, shared.IsInvalidOperation(err))
}

func TestCreateBookAndAbandon(t *testing.T) {
	e := newEnv()
	res, err := NewCreateBookHandler(e.books, e.deps).Handle(e.ctx, CreateBookCommand{Title: "Dune", Author: "Frank Herbert", TotalPages: 412})
	require.NoError(t, err)
	assert.Equal(t, []shared.EventType{shared.EventBookCreated}, types(res.Events))

	_, err = NewCreateBookHandler(e.books, e.deps).Handle(e.ctx, CreateBookCommand{Title: "Dune", Author: "", TotalPages: 412})
	assert.True(t, shared.IsInvalidArgument(err))

	abandon := NewAbandonBookHandler(e.books, e.deps)
	stranger := shared.WithUserID(context.Background(), shared.NewID())
	_, err = abandon.Handle(stranger, AbandonBookCommand{BookID: res.BookID})
	assert.True(t, shared.IsUnauthorized(err))

	out, err := abandon.Handle(e.ctx, AbandonBookCommand{BookID: res.BookID})
	require.NoError(t, err)
	assert.Equal(t, []shared.EventType{shared.EventBookAbandoned}, types(out.Events))

	b, err := e.books.Load(e.ctx, res.BookID)
	require.NoError(t, err)
	assert.Equal(t, book.StatusAbandoned, b.Status())

	_, err = abandon.Handle(e.ctx, AbandonBookCommand{BookID: res.BookID})
	assert.True(t, shared.IsInvalidOperation(err))

	_, err = abandon.Handle(e.ctx, AbandonBookCommand{BookID: shared.NewID()})
	assert.True(t, shared.IsNotFound(err))
}
