// Command worker runs the Valoron progression engine.
//
//	worker migrate            apply database migrations
//	worker run                process events from other instances until stopped
//	worker replay             create a book, read it in sessions, print the result
//	worker book|activity|player   one-shot commands and queries for a user
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valoron/valoron/config"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootFlags are shared by every subcommand.
type rootFlags struct {
	userID string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "worker",
		Short:         "Valoron progression engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.userID, "user", "", "acting user id (uuid)")

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newReplayCmd(flags))
	root.AddCommand(newBookCmd(flags))
	root.AddCommand(newActivityCmd(flags))
	root.AddCommand(newPlayerCmd(flags))
	return root
}

// withApp loads configuration, wires the process and hands it to fn.
func withApp(ctx context.Context, opts appOptions, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	a, err := buildApp(ctx, cfg, log, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("shutdown finished with errors", logger.Err(err))
		}
	}()

	return fn(logger.WithContext(ctx, log), a)
}

// userContext attaches the --user id to ctx.
func (f *rootFlags) userContext(ctx context.Context) (context.Context, error) {
	if f.userID == "" {
		return nil, fmt.Errorf("--user is required")
	}
	id, err := shared.ParseID(f.userID)
	if err != nil {
		return nil, err
	}
	return shared.WithUserID(ctx, id), nil
}
