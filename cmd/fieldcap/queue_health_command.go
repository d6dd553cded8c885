package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldcap/internal/config"
	"fieldcap/internal/queue"
)

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "queue-health",
		Short: "Check queue database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				health, err := store.CheckHealth(cmd.Context())
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database:   %s\n", health.DBPath)
				fmt.Fprintf(out, "Exists:     %v\n", health.DatabaseExists)
				fmt.Fprintf(out, "Readable:   %v\n", health.DatabaseReadable)
				fmt.Fprintf(out, "Table:      %v\n", health.TableExists)
				fmt.Fprintf(out, "Integrity:  %v\n", health.IntegrityCheck)
				fmt.Fprintf(out, "Entries:    %d\n", health.TotalEntries)
				if health.Error != "" {
					fmt.Fprintf(out, "Error:      %s\n", health.Error)
				}
				return err
			})
		},
	}
}
