package book

import (
	"context"

	"github.com/valoron/valoron/internal/domain/shared"
)

// Repository loads and saves books together with their reading sessions.
type Repository interface {
	// Load returns the book or (nil, nil) when it does not exist.
	Load(ctx context.Context, id shared.ID) (*Book, error)

	// Save creates or updates the book.
	Save(ctx context.Context, b *Book) error

	// ListByUser returns the user's books, newest first.
	ListByUser(ctx context.Context, userID shared.ID) ([]*Book, error)
}
