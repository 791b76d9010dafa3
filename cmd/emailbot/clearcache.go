package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newClearCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Empty the processed-email ledger so messages can be re-ingested",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.ledger.Clear(ctx)
			if err != nil {
				return err
			}
			a.logger.Info("processed-email cache cleared", zap.Int64("removed", n))
			return nil
		},
	}
}
