package eventhandler

import (
	"context"
	"fmt"
	"math"

	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/book"
	"github.com/valoron/valoron/internal/domain/player"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// AWARD PROGRESS XP
// ═══════════════════════════════════════════════════════════════════════════

// AwardProgressXP converts logged pages into player XP.
type AwardProgressXP struct {
	players player.Repository
	logger  *logger.Logger
}

// NewAwardProgressXP creates the reaction.
func NewAwardProgressXP(players player.Repository, log *logger.Logger) *AwardProgressXP {
	return &AwardProgressXP{
		players: players,
		logger:  log.With(logger.Component("award_progress_xp")),
	}
}

// Name implements Reaction.
func (h *AwardProgressXP) Name() string { return "award_progress_xp" }

// React implements Reaction.
func (h *AwardProgressXP) React(ctx context.Context, event shared.Event) (Outcome, error) {
	e, ok := event.(activity.ProgressLoggedEvent)
	if !ok {
		return Outcome{}, fmt.Errorf("award_progress_xp: unexpected event %T", event)
	}
	if e.Unit != activity.UnitPages {
		return Outcome{}, nil
	}
	xp := player.XPFromProgress(e.Unit, e.Delta)
	if xp <= 0 {
		return Outcome{}, nil
	}

	p, err := loadOrCreatePlayer(ctx, h.players, e.UserID())
	if err != nil {
		return Outcome{}, fmt.Errorf("award_progress_xp: %w", err)
	}
	if err := p.GainXPFromActivity(e.Unit, e.Delta, e.OccurredAt()); err != nil {
		return Outcome{}, fmt.Errorf("award_progress_xp: %w", err)
	}

	h.logger.Debug("xp awarded",
		logger.UserID(p.ID().String()),
		logger.XPAmount(xp),
		logger.PlayerLevel(p.Level()),
	)

	return Outcome{
		Events: p.PullDomainEvents(),
		Commit: func(ctx context.Context) error { return h.players.Save(ctx, p) },
	}, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// ADVANCE LINKED BOOK
// ═══════════════════════════════════════════════════════════════════════════

// AdvanceLinkedBook mirrors pages logged on a linked activity onto the book.
// Corrections (non-positive deltas) are skipped, since a book's page count
// never goes back. Pages logged on a finished or abandoned book fail with
// InvalidOperation.
type AdvanceLinkedBook struct {
	books  book.Repository
	logger *logger.Logger
}

// NewAdvanceLinkedBook creates the reaction.
func NewAdvanceLinkedBook(books book.Repository, log *logger.Logger) *AdvanceLinkedBook {
	return &AdvanceLinkedBook{
		books:  books,
		logger: log.With(logger.Component("advance_linked_book")),
	}
}

// Name implements Reaction.
func (h *AdvanceLinkedBook) Name() string { return "advance_linked_book" }

// React implements Reaction.
func (h *AdvanceLinkedBook) React(ctx context.Context, event shared.Event) (Outcome, error) {
	e, ok := event.(activity.ProgressLoggedEvent)
	if !ok {
		return Outcome{}, fmt.Errorf("advance_linked_book: unexpected event %T", event)
	}
	if !e.HasResource() {
		return Outcome{}, nil
	}

	pages := int(math.Floor(e.Delta))
	if pages <= 0 {
		h.logger.Debug("correction not mirrored onto book",
			logger.BookID(e.ResourceID.String()),
			logger.Float64("delta", e.Delta),
		)
		return Outcome{}, nil
	}

	b, err := h.books.Load(ctx, e.ResourceID)
	if err != nil {
		return Outcome{}, fmt.Errorf("advance_linked_book: failed to load book: %w", err)
	}
	if b == nil {
		return Outcome{}, fmt.Errorf("advance_linked_book: %w",
			shared.NotFound("book", "AddPagesRead", "book %s not found", e.ResourceID))
	}
	if !b.IsOwnedBy(e.UserID()) {
		return Outcome{}, fmt.Errorf("advance_linked_book: %w",
			shared.Unauthorized("book", "AddPagesRead", "book %s belongs to another user", b.ID()))
	}

	var opts []book.ReadOption
	if e.Duration > 0 {
		opts = append(opts, book.WithSession(e.OccurredAt(), e.Duration))
	}
	if err := b.AddPagesRead(pages, e.OccurredAt(), opts...); err != nil {
		return Outcome{}, fmt.Errorf("advance_linked_book: %w", err)
	}

	return Outcome{
		Events: b.PullDomainEvents(),
		Commit: func(ctx context.Context) error { return h.books.Save(ctx, b) },
	}, nil
}

func loadOrCreatePlayer(ctx context.Context, players player.Repository, userID shared.ID) (*player.Player, error) {
	if userID == shared.NilID {
		return nil, shared.InvalidArgument("player", "Load", "event carries no user id")
	}
	p, err := players.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	if p == nil {
		p = player.New(userID)
	}
	return p, nil
}
