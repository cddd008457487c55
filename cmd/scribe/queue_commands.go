package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/logging"
	"scribe/internal/queue"
)

// withManager opens the configured store for the duration of one command.
func withManager(ctx *commandContext, fn func(context.Context, *queue.Manager) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	store, err := queue.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	manager := queue.NewManager(store, logging.NewNop(), queue.ManagerOptions{})
	return fn(context.Background(), manager)
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the job queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show queued jobs in submission order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(ctx, func(cmdCtx context.Context, manager *queue.Manager) error {
				entries, err := manager.Snapshot(cmdCtx)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
					return nil
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					filename := "<unknown>"
					submitter := ""
					enqueued := ""
					if entry.MetaOK {
						filename = entry.Meta.Filename
						submitter = strconv.FormatInt(entry.Meta.SubmitterID, 10)
						enqueued = entry.Meta.EnqueuedAt.Local().Format(time.DateTime)
					}
					rows = append(rows, []string{
						strconv.Itoa(entry.Position),
						entry.JobID,
						filename,
						submitter,
						enqueued,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Pos", "Job ID", "Filename", "Submitter", "Enqueued"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <job-id>",
		Short: "Remove one job from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(ctx, func(cmdCtx context.Context, manager *queue.Manager) error {
				if err := manager.Remove(cmdCtx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every queued job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(ctx, func(cmdCtx context.Context, manager *queue.Manager) error {
				entries, err := manager.Snapshot(cmdCtx)
				if err != nil {
					return err
				}
				for _, entry := range entries {
					if err := manager.Remove(cmdCtx, entry.JobID); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", len(entries))
				return nil
			})
		},
	}

	queueCmd.AddCommand(listCmd, removeCmd, clearCmd)
	return queueCmd
}
