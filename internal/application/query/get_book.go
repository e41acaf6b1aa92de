package query

import (
	"context"
	"fmt"
	"time"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/book"
	"github.com/valoron/valoron/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET BOOK QUERY
// Returns reading progress of one book together with the activity that
// tracks it.
// ══════════════════════════════════════════════════════════════════════════════

// GetBookQuery identifies the book to read.
type GetBookQuery struct {
	BookID shared.ID
}

// Validate validates the query.
func (q GetBookQuery) Validate() error {
	if q.BookID == shared.NilID {
		return shared.InvalidArgument("book", "GetBook", "book id is required")
	}
	return nil
}

// ReadingSessionDTO is one logged session.
type ReadingSessionDTO struct {
	Date      string `json:"date"`
	Minutes   int    `json:"minutes"`
	PagesRead int    `json:"pages_read"`
}

// BookDTO is the read model of a book.
type BookDTO struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Author          string              `json:"author"`
	TotalPages      int                 `json:"total_pages"`
	CurrentPage     int                 `json:"current_page"`
	Status          string              `json:"status"`
	ProgressPercent float64             `json:"progress_percent"`
	PagesPerHour    *float64            `json:"pages_per_hour,omitempty"`
	TimeRemaining   *time.Duration      `json:"time_remaining,omitempty"`
	Sessions        []ReadingSessionDTO `json:"sessions"`
	Activity        *ActivityDTO        `json:"activity,omitempty"`
}

// GetBookHandler handles GetBookQuery.
type GetBookHandler struct {
	books      book.Repository
	activities activity.Repository
	deps       Deps
}

// NewGetBookHandler creates a new GetBookHandler.
func NewGetBookHandler(books book.Repository, activities activity.Repository, deps Deps) *GetBookHandler {
	return &GetBookHandler{books: books, activities: activities, deps: deps.withDefaults("get_book")}
}

// Handle executes the query.
func (h *GetBookHandler) Handle(ctx context.Context, q GetBookQuery) (*BookDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_book: %w", err)
	}
	userID, err := currentUser(ctx, h.deps.CurrentUser, "get_book")
	if err != nil {
		return nil, err
	}

	b, err := h.books.Load(ctx, q.BookID)
	if err != nil {
		return nil, fmt.Errorf("get_book: failed to load book: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("get_book: %w", shared.NotFound("book", "GetBook", "book %s not found", q.BookID))
	}
	if !b.IsOwnedBy(userID) {
		return nil, fmt.Errorf("get_book: %w", shared.Unauthorized("book", "GetBook", "book %s belongs to another user", q.BookID))
	}

	dto := toBookDTO(b)

	linked, err := h.activities.FindByResource(ctx, b.ID())
	if err != nil {
		return nil, fmt.Errorf("get_book: failed to load linked activity: %w", err)
	}
	if linked != nil {
		a := toActivityDTO(linked)
		dto.Activity = &a
	}

	return dto, nil
}

func toBookDTO(b *book.Book) *BookDTO {
	sessions := b.Sessions()
	dto := &BookDTO{
		ID:              b.ID().String(),
		Title:           b.Title(),
		Author:          b.Author(),
		TotalPages:      b.TotalPages(),
		CurrentPage:     b.CurrentPage(),
		Status:          string(b.Status()),
		ProgressPercent: float64(b.CurrentPage()) / float64(b.TotalPages()) * 100,
		PagesPerHour:    b.AverageReadingSpeed(),
		TimeRemaining:   b.EstimatedTimeRemaining(),
		Sessions:        make([]ReadingSessionDTO, 0, len(sessions)),
	}
	for _, s := range sessions {
		dto.Sessions = append(dto.Sessions, ReadingSessionDTO{
			Date:      s.Date().Format(time.RFC3339),
			Minutes:   int(s.Duration() / time.Minute),
			PagesRead: s.PagesRead(),
		})
	}
	return dto
}
