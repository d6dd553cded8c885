package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldcap/internal/config"
	"fieldcap/internal/refdata"
)

func newSuppliersCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suppliers",
		Short: "List cached suppliers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRefdata(func(cfg *config.Config, store *refdata.Store, _ *refdata.Resolver) error {
				suppliers, err := store.ListSuppliers(cmd.Context(), cfg.Session.OrganizationID)
				if err != nil {
					return err
				}
				if len(suppliers) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No suppliers cached yet")
					return nil
				}

				rows := make([][]string, 0, len(suppliers))
				for _, supplier := range suppliers {
					synced := "no"
					if supplier.Synced {
						synced = "yes"
					}
					rows = append(rows, []string{supplier.ID, supplier.Name, synced, supplier.RemoteID})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Synced", "Remote ID"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Register a supplier in the local cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRefdata(func(cfg *config.Config, _ *refdata.Store, resolver *refdata.Resolver) error {
				supplier, err := resolver.ResolveSupplier(cmd.Context(), cfg.Session.OrganizationID, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Supplier %s (%s)\n", supplier.Name, supplier.ID)
				return nil
			})
		},
	})

	return cmd
}
