package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newPollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Run one ingestion cycle immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			a.logger.Info("triggering instant email poll")
			if err := a.pipeline.Run(ctx); err != nil {
				return err
			}
			a.logger.Info("instant poll complete")
			return nil
		},
	}
}
