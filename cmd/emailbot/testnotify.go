package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xaenox/inbox-sentry/internal/models"
	"github.com/xaenox/inbox-sentry/internal/notify"
)

func newTestNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send test messages to verify the chat provider connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			to := models.NormalizeIdentity(a.cfg.WhatsApp.To)
			a.logger.Info("sending test messages",
				zap.String("to", to),
				zap.String("provider", a.cfg.WhatsApp.Provider))

			if err := a.notifier.Notify(ctx, to, "👋 Hello! This is a test from your inbox assistant."); err != nil {
				return err
			}

			deadline := time.Now().Add(48 * time.Hour)
			item := &models.Item{
				Title:    "Test Email: Welcome to the Bot",
				Action:   "Reply '1'",
				Summary:  "This is a test notification to verify the chat API connection is working.",
				Deadline: &deadline,
			}
			if err := a.notifier.Notify(ctx, to, notify.FormatAlert(item, 1)); err != nil {
				return err
			}

			a.logger.Info("done, check your chat")
			return nil
		},
	}
}
