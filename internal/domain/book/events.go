package book

import (
	"time"

	"github.com/valoron/valoron/internal/domain/shared"
)

// CreatedEvent is emitted when a book is added to a user's shelf.
type CreatedEvent struct {
	shared.BaseEvent
	BookID     shared.ID `json:"book_id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	TotalPages int       `json:"total_pages"`
}

// Payload implements Event interface.
func (e CreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"book_id":     e.BookID.String(),
		"user_id":     e.User.String(),
		"title":       e.Title,
		"author":      e.Author,
		"total_pages": e.TotalPages,
	}
}

// NewCreatedEvent creates a new CreatedEvent.
func NewCreatedEvent(b *Book) CreatedEvent {
	return CreatedEvent{
		BaseEvent:  shared.NewBaseEvent(shared.EventBookCreated, b.ID(), b.userID, b.createdAt),
		BookID:     b.ID(),
		Title:      b.title,
		Author:     b.author,
		TotalPages: b.totalPages,
	}
}

// StartedEvent is emitted on the transition ToRead -> Reading.
type StartedEvent struct {
	shared.BaseEvent
	BookID shared.ID `json:"book_id"`
}

// Payload implements Event interface.
func (e StartedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"book_id": e.BookID.String(),
		"user_id": e.User.String(),
	}
}

// NewStartedEvent creates a new StartedEvent.
func NewStartedEvent(b *Book, at time.Time) StartedEvent {
	return StartedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventBookStarted, b.ID(), b.userID, at),
		BookID:    b.ID(),
	}
}

// FinishedEvent is emitted once, when the last page is reached.
type FinishedEvent struct {
	shared.BaseEvent
	BookID     shared.ID `json:"book_id"`
	TotalPages int       `json:"total_pages"`
}

// Payload implements Event interface.
func (e FinishedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"book_id":     e.BookID.String(),
		"user_id":     e.User.String(),
		"total_pages": e.TotalPages,
	}
}

// NewFinishedEvent creates a new FinishedEvent.
func NewFinishedEvent(b *Book, at time.Time) FinishedEvent {
	return FinishedEvent{
		BaseEvent:  shared.NewBaseEvent(shared.EventBookFinished, b.ID(), b.userID, at),
		BookID:     b.ID(),
		TotalPages: b.totalPages,
	}
}

// AbandonedEvent is emitted when the reader gives up on a book.
type AbandonedEvent struct {
	shared.BaseEvent
	BookID      shared.ID `json:"book_id"`
	CurrentPage int       `json:"current_page"`
}

// Payload implements Event interface.
func (e AbandonedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"book_id":      e.BookID.String(),
		"user_id":      e.User.String(),
		"current_page": e.CurrentPage,
	}
}

// NewAbandonedEvent creates a new AbandonedEvent.
func NewAbandonedEvent(b *Book, at time.Time) AbandonedEvent {
	return AbandonedEvent{
		BaseEvent:   shared.NewBaseEvent(shared.EventBookAbandoned, b.ID(), b.userID, at),
		BookID:      b.ID(),
		CurrentPage: b.currentPage,
	}
}
