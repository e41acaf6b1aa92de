package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

func newRunCmd() *cobra.Command {
	var metricsInterval time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the worker until SIGINT/SIGTERM",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, appOptions{subscribe: true}, func(ctx context.Context, a *app) error {
				return runWorker(ctx, a, metricsInterval)
			})
		},
	}
	cmd.Flags().DurationVar(&metricsInterval, "metrics-interval", time.Minute, "how often dispatcher metrics are logged")
	return cmd
}

func runWorker(ctx context.Context, a *app, metricsInterval time.Duration) error {
	log := a.log.With(logger.Component("worker"))

	if a.bus != nil {
		err := a.bus.SubscribeAll(func(ctx context.Context, event shared.Event) error {
			log.Info("remote event",
				logger.EventType(string(event.EventType())),
				logger.UserID(event.UserID().String()),
				logger.String("aggregate_id", event.AggregateID()),
			)
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		log.Info("redis disabled, not listening for remote events")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if a.db == nil {
			return nil
		}
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := a.db.Ping(gctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Warn("database ping failed", logger.Err(err))
				}
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(metricsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s := a.dispatcher.Metrics().Snapshot()
				log.Info("dispatcher metrics",
					logger.Int64("dispatched", s.TotalDispatched),
					logger.Int64("executions", s.TotalExecutions),
					logger.Int64("failures", s.TotalFailures),
					logger.Int64("commit_failures", s.CommitFailures),
					logger.Int64("sink_failures", s.SinkFailures),
					logger.Int64("dropped", s.Dropped),
					logger.Float64("success_rate", s.SuccessRate),
					logger.Latency(s.AverageDuration),
				)
			}
		}
	})

	log.Info("worker is running",
		logger.String("store", string(a.cfg.Progression.Store)),
		logger.Int("max_depth", a.cfg.Progression.MaxPropagationDepth),
	)

	<-gctx.Done()
	log.Info("starting graceful shutdown", logger.Duration("timeout", a.cfg.App.ShutdownTimeout))

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		log.Info("shutdown completed successfully")
		return err
	case <-time.After(a.cfg.App.ShutdownTimeout):
		return errors.New("shutdown timed out")
	}
}
