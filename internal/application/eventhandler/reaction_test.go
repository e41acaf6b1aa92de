package eventhandler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/book"
	"github.com/valoron/valoron/internal/domain/player"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/internal/infrastructure/persistence/memory"
	"github.com/valoron/valoron/pkg/logger"
)

var now = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	activities *memory.ActivityStore
	books      *memory.BookStore
	players    *memory.PlayerStore
	userID     shared.ID
}

func newFixture() *fixture {
	return &fixture{
		activities: memory.NewActivityStore(),
		books:      memory.NewBookStore(),
		players:    memory.NewPlayerStore(),
		userID:     shared.NewID(),
	}
}

func (f *fixture) saveBook(t *testing.T, total int) *book.Book {
	t.Helper()
	b, err := book.NewBook(book.NewBookParams{
		ID:         shared.NewID(),
		UserID:     f.userID,
		Title:      "Dune",
		Author:     "Frank Herbert",
		TotalPages: total,
		CreatedAt:  now,
	})
	require.NoError(t, err)
	require.NoError(t, f.books.Save(context.Background(), b))
	return b
}

func (f *fixture) progressEvent(t *testing.T, unit activity.Unit, resource shared.ID, delta float64, d time.Duration) activity.ProgressLoggedEvent {
	t.Helper()
	m, err := activity.Quantifiable(unit, 1000)
	require.NoError(t, err)
	a, err := activity.NewActivity(activity.NewActivityParams{
		ID:          shared.NewID(),
		UserID:      f.userID,
		Title:       "Reading",
		Category:    activity.CategoryLearning,
		Difficulty:  activity.DifficultyMedium,
		Measurement: m,
		CreatedAt:   now,
		ResourceID:  resource,
	})
	require.NoError(t, err)
	a.PullDomainEvents()
	return activity.NewProgressLoggedEvent(a, delta, d, now)
}

func commit(t *testing.T, out Outcome) {
	t.Helper()
	require.NotNil(t, out.Commit)
	require.NoError(t, out.Commit(context.Background()))
}

func TestOnBookCreated_CreatesLinkedActivity(t *testing.T) {
	f := newFixture()
	b, err := book.NewBook(book.NewBookParams{
		ID: shared.NewID(), UserID: f.userID, Title: "Dune", Author: "Frank Herbert", TotalPages: 412, CreatedAt: now,
	})
	require.NoError(t, err)
	created := b.PullDomainEvents()[0]

	out, err := NewOnBookCreated(f.activities, logger.Nop()).React(context.Background(), created)
	require.NoError(t, err)
	require.Len(t, out.Events, 1)
	assert.Equal(t, shared.EventActivityCreated, out.Events[0].EventType())

	// Nothing is persisted until Commit runs.
	found, err := f.activities.FindByResource(context.Background(), b.ID())
	require.NoError(t, err)
	assert.Nil(t, found)

	commit(t, out)
	found, err = f.activities.FindByResource(context.Background(), b.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Dune", found.Title())
	assert.Equal(t, f.userID, found.UserID())
	assert.Equal(t, activity.CategoryLearning, found.Category())
	assert.Equal(t, activity.DifficultyMedium, found.Difficulty())
	assert.Equal(t, activity.UnitPages, found.Measurement().Unit())
	assert.Equal(t, 412.0, found.Measurement().Target())
	assert.Equal(t, 0.0, found.Measurement().Current())
}

func TestAwardProgressXP(t *testing.T) {
	tests := []struct {
		name      string
		unit      activity.Unit
		delta     float64
		wantXP    int
		wantLevel int
		wantSaved bool
	}{
		{name: "pages earn ten per page", unit: activity.UnitPages, delta: 20, wantXP: 200, wantLevel: 2, wantSaved: true},
		{name: "fractional pages truncate", unit: activity.UnitPages, delta: 2.55, wantXP: 25, wantLevel: 1, wantSaved: true},
		{name: "minutes earn nothing", unit: activity.UnitMinutes, delta: 30},
		{name: "corrections earn nothing", unit: activity.UnitPages, delta: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			event := f.progressEvent(t, tt.unit, shared.NilID, tt.delta, 0)

			out, err := NewAwardProgressXP(f.players, logger.Nop()).React(context.Background(), event)
			require.NoError(t, err)

			if !tt.wantSaved {
				assert.Nil(t, out.Commit)
				assert.Empty(t, out.Events)
				return
			}
			commit(t, out)
			p, err := f.players.Load(context.Background(), f.userID)
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, tt.wantXP, p.XP())
			assert.Equal(t, tt.wantLevel, p.Level())
			assert.Len(t, out.Events, tt.wantLevel-1)
		})
	}
}

func TestAwardProgressXP_ExistingPlayerAccumulates(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.players.Save(context.Background(), player.Restore(f.userID, 90, 1, player.DefaultStats())))

	out, err := NewAwardProgressXP(f.players, logger.Nop()).React(context.Background(), f.progressEvent(t, activity.UnitPages, shared.NilID, 1, 0))
	require.NoError(t, err)
	commit(t, out)

	p, err := f.players.Load(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 100, p.XP())
	assert.Equal(t, 2, p.Level())
	require.Len(t, out.Events, 1)
	assert.Equal(t, 2, out.Events[0].(player.LeveledUpEvent).NewLevel)
}

func TestAdvanceLinkedBook(t *testing.T) {
	ctx := context.Background()

	t.Run("records a session when time was spent", func(t *testing.T) {
		f := newFixture()
		b := f.saveBook(t, 100)

		out, err := NewAdvanceLinkedBook(f.books, logger.Nop()).React(ctx, f.progressEvent(t, activity.UnitPages, b.ID(), 20, 30*time.Minute))
		require.NoError(t, err)
		commit(t, out)

		got, err := f.books.Load(ctx, b.ID())
		require.NoError(t, err)
		assert.Equal(t, book.StatusReading, got.Status())
		assert.Equal(t, 20, got.CurrentPage())
		require.Len(t, got.Sessions(), 1)
		assert.Equal(t, 30*time.Minute, got.Sessions()[0].Duration())
		require.Len(t, out.Events, 1)
		assert.Equal(t, shared.EventBookStarted, out.Events[0].EventType())
	})

	t.Run("no session without duration", func(t *testing.T) {
		f := newFixture()
		b := f.saveBook(t, 100)

		out, err := NewAdvanceLinkedBook(f.books, logger.Nop()).React(ctx, f.progressEvent(t, activity.UnitPages, b.ID(), 20, 0))
		require.NoError(t, err)
		commit(t, out)

		got, err := f.books.Load(ctx, b.ID())
		require.NoError(t, err)
		assert.Empty(t, got.Sessions())
	})

	t.Run("finishing emits finished", func(t *testing.T) {
		f := newFixture()
		b := f.saveBook(t, 50)

		out, err := NewAdvanceLinkedBook(f.books, logger.Nop()).React(ctx, f.progressEvent(t, activity.UnitPages, b.ID(), 60, 0))
		require.NoError(t, err)
		commit(t, out)

		got, err := f.books.Load(ctx, b.ID())
		require.NoError(t, err)
		assert.Equal(t, book.StatusFinished, got.Status())
		assert.Equal(t, 50, got.CurrentPage())
		types := make([]shared.EventType, 0, len(out.Events))
		for _, e := range out.Events {
			types = append(types, e.EventType())
		}
		assert.Equal(t, []shared.EventType{shared.EventBookStarted, shared.EventBookFinished}, types)
	})

	t.Run("unlinked activity is ignored", func(t *testing.T) {
		f := newFixture()
		out, err := NewAdvanceLinkedBook(f.books, logger.Nop()).React(ctx, f.progressEvent(t, activity.UnitPages, shared.NilID, 20, 0))
		require.NoError(t, err)
		assert.Nil(t, out.Commit)
	})

	t.Run("corrections are not mirrored", func(t *testing.T) {
		f := newFixture()
		b := f.saveBook(t, 100)
		out, err := NewAdvanceLinkedBook(f.books, logger.Nop()).React(ctx, f.progressEvent(t, activity.UnitPages, b.ID(), -3, 0))
		require.NoError(t, err)
		assert.Nil(t, out.Commit)
	})

	t.Run("closed book rejects pages", func(t *testing.T) {
		f := newFixture()
		b := f.saveBook(t, 100)
		require.NoError(t, b.Abandon(now))
		require.NoError(t, f.books.Save(ctx, b))

		out, err := NewAdvanceLinkedBook(f.books, logger.Nop()).React(ctx, f.progressEvent(t, activity.UnitPages, b.ID(), 10, 0))
		assert.True(t, shared.IsInvalidOperation(err), "got %v", err)
		assert.Nil(t, out.Commit)
	})

	t.Run("foreign book is refused", func(t *testing.T) {
		f := newFixture()
		b := f.saveBook(t, 100)
		intruder := newFixture()

		out, err := NewAdvanceLinkedBook(f.books, logger.Nop()).React(ctx, intruder.progressEvent(t, activity.UnitPages, b.ID(), 100, 0))
		assert.True(t, shared.IsUnauthorized(err), "got %v", err)
		assert.Nil(t, out.Commit)

		got, err := f.books.Load(ctx, b.ID())
		require.NoError(t, err)
		assert.Equal(t, 0, got.CurrentPage())
		assert.Equal(t, book.StatusToRead, got.Status())
	})

	t.Run("missing book is not found", func(t *testing.T) {
		f := newFixture()
		_, err := NewAdvanceLinkedBook(f.books, logger.Nop()).React(ctx, f.progressEvent(t, activity.UnitPages, shared.NewID(), 10, 0))
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestAwardBookBonus(t *testing.T) {
	f := newFixture()
	b := f.saveBook(t, 10)
	require.NoError(t, b.Finish(now))
	var finished shared.Event
	for _, e := range b.PullDomainEvents() {
		if e.EventType() == shared.EventBookFinished {
			finished = e
		}
	}
	require.NotNil(t, finished)

	out, err := NewAwardBookBonus(f.players, logger.Nop()).React(context.Background(), finished)
	require.NoError(t, err)
	commit(t, out)

	p, err := f.players.Load(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, player.BookFinishedBonus, p.XP())
	assert.Equal(t, 3, p.Level())
	assert.Len(t, out.Events, 2)
}

type recordingNotifier struct {
	levels []int
	err    error
}

func (n *recordingNotifier) NotifyLevelUp(_ context.Context, _ shared.ID, level int) error {
	n.levels = append(n.levels, level)
	return n.err
}

func TestNotifyLevelUp(t *testing.T) {
	event := player.NewLeveledUpEvent(shared.NewID(), 3, now)

	n := &recordingNotifier{}
	out, err := NewNotifyLevelUp(n, logger.Nop()).React(context.Background(), event)
	require.NoError(t, err)
	assert.Nil(t, out.Commit)
	assert.Empty(t, out.Events)
	assert.Equal(t, []int{3}, n.levels)

	n.err = errors.New("offline")
	_, err = NewNotifyLevelUp(n, logger.Nop()).React(context.Background(), event)
	assert.ErrorIs(t, err, n.err)

	_, err = NewNotifyLevelUp(nil, logger.Nop()).React(context.Background(), event)
	assert.NoError(t, err)
}

func TestReactions_RejectForeignEvents(t *testing.T) {
	f := newFixture()
	foreign := player.NewLeveledUpEvent(f.userID, 2, now)

	reactions := []Reaction{
		NewOnBookCreated(f.activities, logger.Nop()),
		NewAwardProgressXP(f.players, logger.Nop()),
		NewAdvanceLinkedBook(f.books, logger.Nop()),
		NewAwardBookBonus(f.players, logger.Nop()),
	}
	for _, r := range reactions {
		_, err := r.React(context.Background(), foreign)
		assert.Error(t, err, r.Name())
	}
}

func TestNewProgressionRegistry(t *testing.T) {
	f := newFixture()
	reg := NewProgressionRegistry(Stores{Activities: f.activities, Books: f.books, Players: f.players}, nil)

	names := func(et shared.EventType) []string {
		var out []string
		for _, r := range reg.For(et) {
			out = append(out, r.Name())
		}
		return out
	}

	assert.Equal(t, []string{"on_book_created"}, names(shared.EventBookCreated))
	assert.Equal(t, []string{"award_progress_xp", "advance_linked_book"}, names(shared.EventActivityProgressLogged))
	assert.Equal(t, []string{"award_book_bonus"}, names(shared.EventBookFinished))
	assert.Equal(t, []string{"notify_level_up"}, names(shared.EventPlayerLeveledUp))
	assert.Empty(t, reg.For(shared.EventActivityCompleted))
	assert.Len(t, reg.EventTypes(), 4)
}
