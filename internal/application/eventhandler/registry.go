package eventhandler

import (
	"github.com/valoron/valoron/internal/domain/activity"
	"github.com/valoron/valoron/internal/domain/book"
	"github.com/valoron/valoron/internal/domain/player"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

// Stores are the load/save ports the reactions work against.
type Stores struct {
	Activities activity.Repository
	Books      book.Repository
	Players    player.Repository
}

// NewProgressionRegistry wires the progression reactions:
//
//	BookCreated            -> create the linked reading activity
//	ActivityProgressLogged -> award XP for pages, then advance the linked book
//	BookFinished           -> award the book bonus
//	PlayerLeveledUp        -> notify
func NewProgressionRegistry(stores Stores, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return NewRegistry().
		Register(shared.EventBookCreated, NewOnBookCreated(stores.Activities, log)).
		Register(shared.EventActivityProgressLogged, NewAwardProgressXP(stores.Players, log)).
		Register(shared.EventActivityProgressLogged, NewAdvanceLinkedBook(stores.Books, log)).
		Register(shared.EventBookFinished, NewAwardBookBonus(stores.Players, log)).
		Register(shared.EventPlayerLeveledUp, NewNotifyLevelUp(nil, log))
}
