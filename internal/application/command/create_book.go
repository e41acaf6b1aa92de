package command

import (
	"context"
	"fmt"

	"github.com/valoron/valoron/internal/domain/book"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE BOOK COMMAND
// Puts a book on the acting user's shelf. The BookCreated reaction links a
// reading activity to it.
// ══════════════════════════════════════════════════════════════════════════════

// CreateBookCommand contains the data to create a book.
type CreateBookCommand struct {
	Title      string
	Author     string
	TotalPages int
}

// CreateBookResult contains the result of creating a book.
type CreateBookResult struct {
	BookID shared.ID
	Events []shared.Event
}

// CreateBookHandler handles the CreateBookCommand.
type CreateBookHandler struct {
	books book.Repository
	deps  Deps
}

// NewCreateBookHandler creates a new CreateBookHandler.
func NewCreateBookHandler(books book.Repository, deps Deps) *CreateBookHandler {
	return &CreateBookHandler{books: books, deps: deps.withDefaults("create_book")}
}

// Handle executes the create book command.
func (h *CreateBookHandler) Handle(ctx context.Context, cmd CreateBookCommand) (*CreateBookResult, error) {
	userID, err := h.deps.CurrentUser.UserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("create_book: %w", err)
	}

	b, err := book.NewBook(book.NewBookParams{
		ID:         shared.NewID(),
		UserID:     userID,
		Title:      cmd.Title,
		Author:     cmd.Author,
		TotalPages: cmd.TotalPages,
		CreatedAt:  h.deps.Clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create_book: %w", err)
	}

	if err := h.books.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("create_book: failed to save book: %w", err)
	}

	events := b.PullDomainEvents()
	h.deps.Logger.Info("book created",
		logger.BookID(b.ID().String()),
		logger.UserID(userID.String()),
		logger.Int("total_pages", b.TotalPages()),
	)
	h.deps.publish(ctx, events)

	return &CreateBookResult{BookID: b.ID(), Events: events}, nil
}
