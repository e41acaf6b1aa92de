package eventhandler

import (
	"context"
	"fmt"

	"github.com/valoron/valoron/internal/domain/book"
	"github.com/valoron/valoron/internal/domain/player"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

// AwardBookBonus grants the flat bonus once per finished book.
type AwardBookBonus struct {
	players player.Repository
	logger  *logger.Logger
}

// NewAwardBookBonus creates the reaction.
func NewAwardBookBonus(players player.Repository, log *logger.Logger) *AwardBookBonus {
	return &AwardBookBonus{
		players: players,
		logger:  log.With(logger.Component("award_book_bonus")),
	}
}

// Name implements Reaction.
func (h *AwardBookBonus) Name() string { return "award_book_bonus" }

// React implements Reaction.
func (h *AwardBookBonus) React(ctx context.Context, event shared.Event) (Outcome, error) {
	e, ok := event.(book.FinishedEvent)
	if !ok {
		return Outcome{}, fmt.Errorf("award_book_bonus: unexpected event %T", event)
	}

	p, err := loadOrCreatePlayer(ctx, h.players, e.UserID())
	if err != nil {
		return Outcome{}, fmt.Errorf("award_book_bonus: %w", err)
	}
	if err := p.AddXP(player.BookFinishedBonus, e.OccurredAt()); err != nil {
		return Outcome{}, fmt.Errorf("award_book_bonus: %w", err)
	}

	h.logger.Info("book bonus awarded",
		logger.UserID(p.ID().String()),
		logger.BookID(e.BookID.String()),
		logger.XPAmount(player.BookFinishedBonus),
	)

	return Outcome{
		Events: p.PullDomainEvents(),
		Commit: func(ctx context.Context) error { return h.players.Save(ctx, p) },
	}, nil
}
