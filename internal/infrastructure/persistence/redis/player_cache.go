package redis

import (
	"context"
	"errors"
	"time"

	"github.com/valoron/valoron/internal/domain/player"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/circuitbreaker"
	"github.com/valoron/valoron/pkg/logger"
)

// KeyValue is the subset of Cache used by CachedPlayerRepository.
type KeyValue interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type cachedPlayer struct {
	XP    int          `json:"xp"`
	Level int          `json:"level"`
	Stats player.Stats `json:"stats"`
}

// CachedPlayerRepository is a write-through cache in front of a
// player.Repository. Cache failures are logged and fall back to the store;
// repeated failures open a breaker that bypasses the cache for a while.
type CachedPlayerRepository struct {
	next    player.Repository
	cache   KeyValue
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
	logger  *logger.Logger
}

// NewCachedPlayerRepository wraps next with cache.
func NewCachedPlayerRepository(next player.Repository, cache KeyValue, ttl time.Duration, log *logger.Logger) *CachedPlayerRepository {
	if ttl <= 0 {
		ttl = TTLPlayer
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("player_cache"))
	onChange := func(name string, from, to circuitbreaker.State) {
		log.Warn("cache breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}
	isFailure := func(err error) bool { return !errors.Is(err, ErrCacheMiss) }

	return &CachedPlayerRepository{
		next:    next,
		cache:   cache,
		ttl:     ttl,
		breaker: circuitbreaker.CacheBreaker(onChange, isFailure),
		logger:  log,
	}
}

// Breaker exposes the cache breaker.
func (r *CachedPlayerRepository) Breaker() *circuitbreaker.CircuitBreaker {
	return r.breaker
}

// Load implements player.Repository.
func (r *CachedPlayerRepository) Load(ctx context.Context, id shared.ID) (*player.Player, error) {
	key := PlayerKey(id.String())

	var cached cachedPlayer
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.cache.Get(ctx, key, &cached)
	})
	if err == nil {
		return player.Restore(id, cached.XP, cached.Level, cached.Stats), nil
	}
	if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		r.logger.Warn("player cache read failed", logger.UserID(id.String()), logger.Err(err))
	}

	p, err := r.next.Load(ctx, id)
	if err != nil || p == nil {
		return p, err
	}
	r.store(ctx, p)
	return p, nil
}

// Save implements player.Repository.
func (r *CachedPlayerRepository) Save(ctx context.Context, p *player.Player) error {
	if err := r.next.Save(ctx, p); err != nil {
		// The store may have partially applied the write.
		_ = r.breaker.Execute(ctx, func(ctx context.Context) error {
			return r.cache.Delete(ctx, PlayerKey(p.ID().String()))
		})
		return err
	}
	r.store(ctx, p)
	return nil
}

func (r *CachedPlayerRepository) store(ctx context.Context, p *player.Player) {
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.cache.Set(ctx, PlayerKey(p.ID().String()), cachedPlayer{
			XP:    p.XP(),
			Level: p.Level(),
			Stats: p.Stats(),
		}, r.ttl)
	})
	if err != nil && !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		r.logger.Warn("player cache write failed", logger.UserID(p.ID().String()), logger.Err(err))
	}
}

var _ player.Repository = (*CachedPlayerRepository)(nil)
