package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/valoron/valoron/internal/application/command"
	"github.com/valoron/valoron/internal/application/query"
	"github.com/valoron/valoron/internal/domain/shared"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ══════════════════════════════════════════════════════════════════════════════
// REPLAY
// ══════════════════════════════════════════════════════════════════════════════

type replayResult struct {
	UserID string           `json:"user_id"`
	Book   *query.BookDTO   `json:"book"`
	Player *query.PlayerDTO `json:"player"`
}

func newReplayCmd(flags *rootFlags) *cobra.Command {
	var (
		title   string
		author  string
		total   int
		pages   []int
		minutes int
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Create a book, log reading sessions against it and print the outcome",
		Example: `  worker replay --total 100 --pages 20,20,60
  PROGRESSION_STORE=memory REDIS_DISABLED=true worker replay --total 300 --pages 50 --minutes 30`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.userID == "" {
				flags.userID = shared.NewID().String()
			}
			ctx, err := flags.userContext(cmd.Context())
			if err != nil {
				return err
			}

			return withApp(ctx, appOptions{}, func(ctx context.Context, a *app) error {
				res, err := replay(ctx, a, title, author, total, pages, time.Duration(minutes)*time.Minute)
				if err != nil {
					return err
				}
				res.UserID = flags.userID
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "Untitled", "book title")
	cmd.Flags().StringVar(&author, "author", "Unknown", "book author")
	cmd.Flags().IntVar(&total, "total", 0, "total pages of the book")
	cmd.Flags().IntSliceVar(&pages, "pages", nil, "pages read per session, in order")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "minutes spent per session (0 = untimed)")
	_ = cmd.MarkFlagRequired("total")
	return cmd
}

func replay(ctx context.Context, a *app, title, author string, total int, sessions []int, perSession time.Duration) (*replayResult, error) {
	created, err := a.createBook.Handle(ctx, command.CreateBookCommand{
		Title:      title,
		Author:     author,
		TotalPages: total,
	})
	if err != nil {
		return nil, err
	}

	linked, err := a.stores.Activities.FindByResource(ctx, created.BookID)
	if err != nil {
		return nil, err
	}
	if linked == nil {
		return nil, fmt.Errorf("no reading activity was created for book %s", created.BookID)
	}

	for _, n := range sessions {
		_, err := a.logReadingSession.Handle(ctx, command.LogReadingSessionCommand{
			ActivityID: linked.ID(),
			PagesRead:  n,
			Duration:   perSession,
		})
		if err != nil {
			return nil, err
		}
	}

	book, err := a.getBook.Handle(ctx, query.GetBookQuery{BookID: created.BookID})
	if err != nil {
		return nil, err
	}
	player, err := a.getPlayer.Handle(ctx, query.GetPlayerQuery{})
	if err != nil {
		return nil, err
	}
	return &replayResult{Book: book, Player: player}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// BOOK
// ══════════════════════════════════════════════════════════════════════════════

func newBookCmd(flags *rootFlags) *cobra.Command {
	book := &cobra.Command{Use: "book", Short: "Manage books"}

	var title, author string
	var total int
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a book; a linked reading activity is created for it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runForUser(cmd, flags, func(ctx context.Context, a *app) (any, error) {
				res, err := a.createBook.Handle(ctx, command.CreateBookCommand{Title: title, Author: author, TotalPages: total})
				if err != nil {
					return nil, err
				}
				return a.getBook.Handle(ctx, query.GetBookQuery{BookID: res.BookID})
			})
		},
	}
	add.Flags().StringVar(&title, "title", "", "book title")
	add.Flags().StringVar(&author, "author", "", "book author")
	add.Flags().IntVar(&total, "total", 0, "total pages")

	show := &cobra.Command{
		Use:   "show <book-id>",
		Short: "Show reading progress of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shared.ParseID(args[0])
			if err != nil {
				return err
			}
			return runForUser(cmd, flags, func(ctx context.Context, a *app) (any, error) {
				return a.getBook.Handle(ctx, query.GetBookQuery{BookID: id})
			})
		},
	}

	abandon := &cobra.Command{
		Use:   "abandon <book-id>",
		Short: "Stop reading a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shared.ParseID(args[0])
			if err != nil {
				return err
			}
			return runForUser(cmd, flags, func(ctx context.Context, a *app) (any, error) {
				if _, err := a.abandonBook.Handle(ctx, command.AbandonBookCommand{BookID: id}); err != nil {
					return nil, err
				}
				return a.getBook.Handle(ctx, query.GetBookQuery{BookID: id})
			})
		},
	}

	var readPages, readMinutes int
	read := &cobra.Command{
		Use:   "read <activity-id>",
		Short: "Log a reading session on a book's activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shared.ParseID(args[0])
			if err != nil {
				return err
			}
			return runForUser(cmd, flags, func(ctx context.Context, a *app) (any, error) {
				_, err := a.logReadingSession.Handle(ctx, command.LogReadingSessionCommand{
					ActivityID: id,
					PagesRead:  readPages,
					Duration:   time.Duration(readMinutes) * time.Minute,
				})
				if err != nil {
					return nil, err
				}
				return a.getActivity.Handle(ctx, query.GetActivityQuery{ActivityID: id})
			})
		},
	}
	read.Flags().IntVar(&readPages, "pages", 0, "pages read")
	read.Flags().IntVar(&readMinutes, "minutes", 0, "minutes spent (0 = untimed)")

	book.AddCommand(add, show, abandon, read)
	return book
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY
// ══════════════════════════════════════════════════════════════════════════════

func newActivityCmd(flags *rootFlags) *cobra.Command {
	act := &cobra.Command{Use: "activity", Short: "Manage activities"}

	var create command.CreateActivityCommand
	var measurement string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			create.MeasurementType = command.MeasurementType(measurement)
			return runForUser(cmd, flags, func(ctx context.Context, a *app) (any, error) {
				res, err := a.createActivity.Handle(ctx, create)
				if err != nil {
					return nil, err
				}
				return a.getActivity.Handle(ctx, query.GetActivityQuery{ActivityID: res.ActivityID})
			})
		},
	}
	add.Flags().StringVar(&create.Title, "title", "", "activity title")
	add.Flags().StringVar(&create.CategoryCode, "category", "", "category code (ENV, BODY, NUTR, HYG, SOC, ADM, LRN, PROJ)")
	add.Flags().IntVar(&create.Difficulty, "difficulty", 5, "difficulty 1-10")
	add.Flags().StringVar(&measurement, "measurement", "binary", "binary or quantifiable")
	add.Flags().StringVar(&create.Unit, "unit", "", "unit for quantifiable goals (minutes, pages, count, kilometers)")
	add.Flags().Float64Var(&create.Target, "target", 0, "target for quantifiable goals")

	var delta float64
	logCmd := &cobra.Command{
		Use:   "log <activity-id>",
		Short: "Log progress on an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shared.ParseID(args[0])
			if err != nil {
				return err
			}
			return runForUser(cmd, flags, func(ctx context.Context, a *app) (any, error) {
				if _, err := a.logProgress.Handle(ctx, command.LogProgressCommand{ActivityID: id, Delta: delta}); err != nil {
					return nil, err
				}
				return a.getActivity.Handle(ctx, query.GetActivityQuery{ActivityID: id})
			})
		},
	}
	logCmd.Flags().Float64Var(&delta, "delta", 1, "progress to add (negative to correct)")

	var difficulty int
	rate := &cobra.Command{
		Use:   "rate <activity-id>",
		Short: "Change the difficulty of an active activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := shared.ParseID(args[0])
			if err != nil {
				return err
			}
			return runForUser(cmd, flags, func(ctx context.Context, a *app) (any, error) {
				_, err := a.updateDifficulty.Handle(ctx, command.UpdateDifficultyCommand{ActivityID: id, Difficulty: difficulty})
				if err != nil {
					return nil, err
				}
				return a.getActivity.Handle(ctx, query.GetActivityQuery{ActivityID: id})
			})
		},
	}
	rate.Flags().IntVar(&difficulty, "difficulty", 5, "difficulty 1-10")

	var list query.ListActivitiesQuery
	ls := &cobra.Command{
		Use:   "list",
		Short: "List activities, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runForUser(cmd, flags, func(ctx context.Context, a *app) (any, error) {
				return a.listActivities.Handle(ctx, list)
			})
		},
	}
	ls.Flags().StringVar(&list.CategoryCode, "category", "", "filter by category code")
	ls.Flags().BoolVar(&list.OnlyActive, "active", false, "hide completed activities")

	act.AddCommand(add, logCmd, rate, ls)
	return act
}

// ══════════════════════════════════════════════════════════════════════════════
// PLAYER
// ══════════════════════════════════════════════════════════════════════════════

func newPlayerCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "player",
		Short: "Show level, XP and stats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runForUser(cmd, flags, func(ctx context.Context, a *app) (any, error) {
				return a.getPlayer.Handle(ctx, query.GetPlayerQuery{})
			})
		},
	}
}

// runForUser wires the app for the --user principal and prints fn's result.
func runForUser(cmd *cobra.Command, flags *rootFlags, fn func(ctx context.Context, a *app) (any, error)) error {
	ctx, err := flags.userContext(cmd.Context())
	if err != nil {
		return err
	}
	return withApp(ctx, appOptions{}, func(ctx context.Context, a *app) error {
		out, err := fn(ctx, a)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	})
}
