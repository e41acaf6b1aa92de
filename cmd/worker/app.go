package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/valoron/valoron/config"
	"github.com/valoron/valoron/internal/application/command"
	"github.com/valoron/valoron/internal/application/eventhandler"
	"github.com/valoron/valoron/internal/application/query"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/internal/infrastructure/messaging"
	"github.com/valoron/valoron/internal/infrastructure/persistence/memory"
	"github.com/valoron/valoron/internal/infrastructure/persistence/postgres"
	"github.com/valoron/valoron/internal/infrastructure/persistence/redis"
	"github.com/valoron/valoron/pkg/clock"
	"github.com/valoron/valoron/pkg/logger"
)

// app is the wired process: stores, dispatcher, and the use cases on top.
type app struct {
	cfg *config.Config
	log *logger.Logger

	db         *postgres.Connection // nil with the memory store
	bus        *messaging.RedisEventBus
	stores     eventhandler.Stores
	dispatcher *messaging.Dispatcher

	createBook        *command.CreateBookHandler
	createActivity    *command.CreateActivityHandler
	logReadingSession *command.LogReadingSessionHandler
	logProgress       *command.LogProgressHandler
	abandonBook       *command.AbandonBookHandler
	updateDifficulty  *command.UpdateDifficultyHandler

	getPlayer      *query.GetPlayerHandler
	getBook        *query.GetBookHandler
	getActivity    *query.GetActivityHandler
	listActivities *query.ListActivitiesHandler
}

type appOptions struct {
	// subscribe starts the Redis listener for events from other instances.
	subscribe bool
}

func newLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Log.Level)
	opts.Format = cfg.Log.Format
	return logger.New(opts).With(
		logger.String("app", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)
}

func connectPostgres(ctx context.Context, cfg *config.Config, log *logger.Logger) (*postgres.Connection, error) {
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = cfg.Database.MaxConns
	pgCfg.MinConns = cfg.Database.MinConns
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.ConnectRetries = cfg.Database.ConnectRetries
	return postgres.NewConnection(ctx, pgCfg, log)
}

func buildApp(ctx context.Context, cfg *config.Config, log *logger.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, log: log}

	switch cfg.Progression.Store {
	case config.StoreMemory:
		log.Warn("using in-memory store, state is lost on exit")
		a.stores = eventhandler.Stores{
			Activities: memory.NewActivityStore(),
			Books:      memory.NewBookStore(),
			Players:    memory.NewPlayerStore(),
		}
	default:
		db, err := connectPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.stores = eventhandler.Stores{
			Activities: postgres.NewActivityRepository(db),
			Books:      postgres.NewBookRepository(db),
			Players:    postgres.NewPlayerRepository(db),
		}
	}

	var sink shared.EventPublisher
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Addr = net.JoinHostPort(cfg.Redis.Host, strconv.Itoa(cfg.Redis.Port))
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		cache, err := redis.NewCache(ctx, redisCfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}

		bus, err := messaging.NewRedisEventBus(ctx, messaging.RedisEventBusConfig{
			Client:      cache,
			ChannelName: cfg.Redis.EventsChannel,
			Subscribe:   opts.subscribe,
			Logger:      log,
		})
		if err != nil {
			_ = cache.Close()
			a.Close()
			return nil, fmt.Errorf("redis event bus: %w", err)
		}
		a.bus = bus
		sink = bus

		a.stores.Players = redis.NewCachedPlayerRepository(a.stores.Players, cache, redis.TTLPlayer, log)
		log.Info("redis connected", logger.String("addr", redisCfg.Addr))
	}

	a.dispatcher = messaging.NewDispatcher(messaging.DispatcherConfig{
		Registry: eventhandler.NewProgressionRegistry(a.stores, log),
		MaxDepth: cfg.Progression.MaxPropagationDepth,
		Sink:     sink,
		Logger:   log,
	})

	deps := command.Deps{
		Publisher:   a.dispatcher,
		Clock:       clock.System{},
		CurrentUser: shared.ContextUser,
		Logger:      log,
	}
	a.createBook = command.NewCreateBookHandler(a.stores.Books, deps)
	a.createActivity = command.NewCreateActivityHandler(a.stores.Activities, a.stores.Books, deps)
	a.logReadingSession = command.NewLogReadingSessionHandler(a.stores.Activities, deps)
	a.logProgress = command.NewLogProgressHandler(a.stores.Activities, deps)
	a.abandonBook = command.NewAbandonBookHandler(a.stores.Books, deps)
	a.updateDifficulty = command.NewUpdateDifficultyHandler(a.stores.Activities, deps)

	qdeps := query.Deps{CurrentUser: shared.ContextUser, Logger: log}
	a.getPlayer = query.NewGetPlayerHandler(a.stores.Players, qdeps)
	a.getBook = query.NewGetBookHandler(a.stores.Books, a.stores.Activities, qdeps)
	a.getActivity = query.NewGetActivityHandler(a.stores.Activities, qdeps)
	a.listActivities = query.NewListActivitiesHandler(a.stores.Activities, qdeps)

	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	if a.bus != nil {
		errs = append(errs, a.bus.Close())
	}
	if a.db != nil {
		a.db.Close()
	}
	return errors.Join(errs...)
}
