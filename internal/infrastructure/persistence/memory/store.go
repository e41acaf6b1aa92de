// Package memory provides mutex-guarded in-memory stores. Aggregates are
// kept as snapshots and rebuilt on every load, so callers never share an
// instance.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/book"
	"github.com/valoron/valoron/internal/domain/player"
	"github.com/valoron/valoron/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// Activities
// ═══════════════════════════════════════════════════════════════════════════

// ActivityStore implements activity.Repository.
type ActivityStore struct {
	mu    sync.RWMutex
	items map[shared.ID]activity.RestoreParams
}

// NewActivityStore creates an empty store.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{items: make(map[shared.ID]activity.RestoreParams)}
}

func activitySnapshot(a *activity.Activity) activity.RestoreParams {
	return activity.RestoreParams{
		ID:          a.ID(),
		UserID:      a.UserID(),
		Title:       a.Title(),
		Category:    a.Category(),
		Difficulty:  a.Difficulty(),
		Measurement: a.Measurement(),
		CreatedAt:   a.CreatedAt(),
		CompletedAt: a.CompletedAt(),
		ResourceID:  a.ResourceID(),
	}
}

// Load implements activity.Repository.
func (s *ActivityStore) Load(ctx context.Context, id shared.ID) (*activity.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return activity.Restore(p), nil
}

// Save implements activity.Repository.
func (s *ActivityStore) Save(ctx context.Context, a *activity.Activity) error {
	if a.IsTransient() {
		return shared.InvalidArgument("activity", "Save", "cannot save an activity without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if res := a.ResourceID(); res != shared.NilID {
		for id, p := range s.items {
			if id != a.ID() && p.ResourceID == res {
				return shared.NewDomainError("activity", "Save", shared.ErrConflict,
					"resource already linked to another activity")
			}
		}
	}
	s.items[a.ID()] = activitySnapshot(a)
	return nil
}

// ListByUser implements activity.Repository.
func (s *ActivityStore) ListByUser(ctx context.Context, userID shared.ID) ([]*activity.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*activity.Activity
	for _, p := range s.items {
		if p.UserID == userID {
			out = append(out, activity.Restore(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out, nil
}

// FindByResource implements activity.Repository.
func (s *ActivityStore) FindByResource(ctx context.Context, resourceID shared.ID) (*activity.Activity, error) {
	if resourceID == shared.NilID {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.items {
		if p.ResourceID == resourceID {
			return activity.Restore(p), nil
		}
	}
	return nil, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Books
// ═══════════════════════════════════════════════════════════════════════════

// BookStore implements book.Repository.
type BookStore struct {
	mu    sync.RWMutex
	items map[shared.ID]book.RestoreParams
}

// NewBookStore creates an empty store.
func NewBookStore() *BookStore {
	return &BookStore{items: make(map[shared.ID]book.RestoreParams)}
}

func bookSnapshot(b *book.Book) book.RestoreParams {
	return book.RestoreParams{
		ID:          b.ID(),
		UserID:      b.UserID(),
		Title:       b.Title(),
		Author:      b.Author(),
		TotalPages:  b.TotalPages(),
		CurrentPage: b.CurrentPage(),
		Status:      b.Status(),
		Sessions:    b.Sessions(),
		CreatedAt:   b.CreatedAt(),
	}
}

// Load implements book.Repository.
func (s *BookStore) Load(ctx context.Context, id shared.ID) (*book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return book.Restore(p), nil
}

// Save implements book.Repository.
func (s *BookStore) Save(ctx context.Context, b *book.Book) error {
	if b.IsTransient() {
		return shared.InvalidArgument("book", "Save", "cannot save a book without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[b.ID()] = bookSnapshot(b)
	return nil
}

// ListByUser implements book.Repository.
func (s *BookStore) ListByUser(ctx context.Context, userID shared.ID) ([]*book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*book.Book
	for _, p := range s.items {
		if p.UserID == userID {
			out = append(out, book.Restore(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Players
// ═══════════════════════════════════════════════════════════════════════════

type playerRecord struct {
	xp    int
	level int
	stats player.Stats
}

// PlayerStore implements player.Repository.
type PlayerStore struct {
	mu    sync.RWMutex
	items map[shared.ID]playerRecord
}

// NewPlayerStore creates an empty store.
func NewPlayerStore() *PlayerStore {
	return &PlayerStore{items: make(map[shared.ID]playerRecord)}
}

// Load implements player.Repository.
func (s *PlayerStore) Load(ctx context.Context, id shared.ID) (*player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return player.Restore(id, r.xp, r.level, r.stats), nil
}

// Save implements player.Repository.
func (s *PlayerStore) Save(ctx context.Context, p *player.Player) error {
	if p.IsTransient() {
		return shared.InvalidArgument("player", "Save", "cannot save a player without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[p.ID()] = playerRecord{xp: p.XP(), level: p.Level(), stats: p.Stats()}
	return nil
}
