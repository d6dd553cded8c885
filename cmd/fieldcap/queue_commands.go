package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fieldcap/internal/api"
	"fieldcap/internal/config"
	"fieldcap/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the capture queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newQueueListCommand(ctx))
	cmd.AddCommand(newQueueShowCommand(ctx))
	cmd.AddCommand(newQueueStatusCommand(ctx))
	cmd.AddCommand(newQueueRetryCommand(ctx))
	cmd.AddCommand(newQueueRemoveCommand(ctx))
	cmd.AddCommand(newQueueClearCommand(ctx))

	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued captures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				svc := api.NewQueueService(store)

				var statuses []queue.Status
				if trimmed := strings.TrimSpace(statusFlag); trimmed != "" {
					status, ok := queue.ParseStatus(trimmed)
					if !ok {
						return fmt.Errorf("unknown status %q", trimmed)
					}
					statuses = append(statuses, status)
				}

				items, err := svc.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						item.ID,
						item.Status,
						item.SupplierName,
						item.ModelName,
						strconv.FormatInt(item.Price, 10) + " " + item.Currency,
						strconv.Itoa(item.RetryCount),
						item.ErrorMessage,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Status", "Supplier", "Model", "Price", "Retries", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status (pending, dispatching, succeeded, failed)")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single capture in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				svc := api.NewQueueService(store)
				item, err := svc.Describe(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("entry %s not found", args[0])
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:             %s\n", item.ID)
				fmt.Fprintf(out, "Status:         %s\n", item.Status)
				fmt.Fprintf(out, "Supplier:       %s (%s)\n", item.SupplierName, item.SupplierID)
				if item.ModelName != "" {
					fmt.Fprintf(out, "Model:          %s (%s)\n", item.ModelName, item.ModelID)
				}
				fmt.Fprintf(out, "Price:          %d %s x%d\n", item.Price, item.Currency, item.Quantity)
				fmt.Fprintf(out, "Image:          %s, %d bytes\n", item.ContentType, item.FileSize)
				if item.BatchID != "" {
					fmt.Fprintf(out, "Batch:          %s\n", item.BatchID)
				}
				fmt.Fprintf(out, "Progress:       %d%%\n", item.Progress)
				fmt.Fprintf(out, "Retries:        %d\n", item.RetryCount)
				if item.NextAttemptAt != "" {
					fmt.Fprintf(out, "Next attempt:   %s\n", item.NextAttemptAt)
				}
				if item.StoragePath != "" {
					fmt.Fprintf(out, "Storage path:   %s\n", item.StoragePath)
				}
				if item.RemoteRecordID != "" {
					fmt.Fprintf(out, "Remote record:  %s\n", item.RemoteRecordID)
				}
				if item.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:          %s\n", item.ErrorMessage)
				}
				fmt.Fprintf(out, "Created:        %s\n", item.CreatedAt)
				fmt.Fprintf(out, "Updated:        %s\n", item.UpdatedAt)
				return nil
			})
		},
	}
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				svc := api.NewQueueService(store)
				stats, err := svc.Stats(cmd.Context())
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(stats))
				for _, status := range queue.AllStatuses() {
					rows = append(rows, []string{string(status), strconv.Itoa(stats[string(status)])})
				}
				rows = append(rows, []string{"total", strconv.Itoa(stats["total"])})
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Status", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "retry [id...]",
		Short: "Return failed captures to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("provide entry ids or --all")
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				var (
					affected int64
					err      error
				)
				if all {
					affected, err = store.RetryFailed(cmd.Context())
				} else {
					affected, err = store.RetryFailed(cmd.Context(), args...)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d capture(s) for retry\n", affected)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Retry every failed capture")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a capture from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				entry, err := store.GetByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if entry == nil {
					return fmt.Errorf("entry %s not found", args[0])
				}
				if entry.Status == queue.StatusDispatching {
					return fmt.Errorf("entry %s is dispatching, wait for it to settle", args[0])
				}
				if _, err := store.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var everything bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove succeeded captures (or everything with --all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				var (
					cleared int64
					err     error
				)
				if everything {
					cleared, err = store.Clear(cmd.Context())
				} else {
					cleared, err = store.ClearSucceeded(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d capture(s)\n", cleared)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&everything, "all", false, "Clear the entire queue, not just succeeded captures")
	return cmd
}
