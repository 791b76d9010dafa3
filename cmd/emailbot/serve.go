package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xaenox/inbox-sentry/internal/sched"
	"github.com/xaenox/inbox-sentry/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server with background polling and reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			scheduler, err := sched.New(a.logger)
			if err != nil {
				return err
			}
			if err := scheduler.Register("email-poll", a.cfg.Scheduler.PollInterval, a.pipeline); err != nil {
				return err
			}
			if err := scheduler.Register("deadline-check", a.cfg.Scheduler.ReminderInterval, a.sweep); err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()

			srv := server.New(a.engine, a.cfg.Server.VerifyToken, a.logger)

			done := make(chan os.Signal, 1)
			signal.Notify(done, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-done
				a.logger.Info("shutting down")
				srv.Shutdown()
			}()

			a.logger.Info("webhook server starting", zap.Int("port", a.cfg.Server.Port))
			return srv.Listen(a.cfg.Server.Port)
		},
	}
}
