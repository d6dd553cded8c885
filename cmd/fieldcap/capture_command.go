package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fieldcap/internal/config"
	"fieldcap/internal/queue"
	"fieldcap/internal/refdata"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var (
		imagePath string
		supplier  string
		model     string
		price     int64
		quantity  int
		batchID   string
		currency  string
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Queue a capture for upload",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(imagePath) == "" {
				return fmt.Errorf("--image is required")
			}
			image, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			return ctx.withRefdata(func(cfg *config.Config, _ *refdata.Store, resolver *refdata.Resolver) error {
				resolvedSupplier, err := resolver.ResolveSupplier(cmd.Context(), cfg.Session.OrganizationID, supplier)
				if err != nil {
					return err
				}

				params := queue.NewCaptureParams{
					SupplierID:   resolvedSupplier.ID,
					SupplierName: resolvedSupplier.Name,
					Price:        price,
					Currency:     currency,
					Quantity:     quantity,
					Image:        image,
					BatchID:      batchID,
				}
				if params.Currency == "" {
					params.Currency = cfg.Queue.Currency
				}
				if strings.TrimSpace(model) != "" {
					resolvedModel, err := resolver.ResolveModel(cmd.Context(), cfg.Session.OrganizationID, resolvedSupplier.ID, model)
					if err != nil {
						return err
					}
					params.ModelID = resolvedModel.ID
					params.ModelName = resolvedModel.Name
				}

				store, err := queue.Open(cfg)
				if err != nil {
					return err
				}
				defer store.Close()

				entry, err := store.NewCapture(cmd.Context(), params)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued capture %s (%s, %d %s)\n",
					entry.ID, entry.SupplierName, entry.Price, entry.Currency)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "Path to the capture image (required)")
	cmd.Flags().StringVar(&supplier, "supplier", "", "Supplier name (required)")
	cmd.Flags().StringVar(&model, "model", "", "Model name")
	cmd.Flags().Int64Var(&price, "price", 0, "Unit price (required)")
	cmd.Flags().IntVar(&quantity, "quantity", 1, "Quantity")
	cmd.Flags().StringVar(&batchID, "batch", "", "Batch identifier grouping related captures")
	cmd.Flags().StringVar(&currency, "currency", "", "Currency code (defaults to configured currency)")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("supplier")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}
