package command

import (
	"context"
	"fmt"

	"github.com/valoron/valoron/internal/domain/book"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

// AbandonBookCommand contains the data to abandon a book.
type AbandonBookCommand struct {
	BookID shared.ID
}

// AbandonBookResult contains the result of abandoning a book.
type AbandonBookResult struct {
	BookID shared.ID
	Events []shared.Event
}

// AbandonBookHandler handles the AbandonBookCommand.
type AbandonBookHandler struct {
	books book.Repository
	deps  Deps
}

// NewAbandonBookHandler creates a new AbandonBookHandler.
func NewAbandonBookHandler(books book.Repository, deps Deps) *AbandonBookHandler {
	return &AbandonBookHandler{books: books, deps: deps.withDefaults("abandon_book")}
}

// Handle executes the abandon book command. Only the owner may abandon a book.
func (h *AbandonBookHandler) Handle(ctx context.Context, cmd AbandonBookCommand) (*AbandonBookResult, error) {
	userID, err := h.deps.CurrentUser.UserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("abandon_book: %w", err)
	}

	b, err := loadOwnedBook(ctx, h.books, cmd.BookID, userID, "Abandon")
	if err != nil {
		return nil, fmt.Errorf("abandon_book: %w", err)
	}

	if err := b.Abandon(h.deps.Clock.Now()); err != nil {
		return nil, fmt.Errorf("abandon_book: %w", err)
	}

	if err := h.books.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("abandon_book: failed to save book: %w", err)
	}

	events := b.PullDomainEvents()
	h.deps.Logger.Info("book abandoned",
		logger.BookID(b.ID().String()),
		logger.Int("current_page", b.CurrentPage()),
	)
	h.deps.publish(ctx, events)

	return &AbandonBookResult{BookID: b.ID(), Events: events}, nil
}
