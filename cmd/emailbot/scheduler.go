package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xaenox/inbox-sentry/internal/sched"
)

func newSchedulerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Run only the background jobs (email poll and deadline check)",
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
			a.logger.Info("scheduler running")

			done := make(chan os.Signal, 1)
			signal.Notify(done, os.Interrupt, syscall.SIGTERM)
			<-done
			return scheduler.Stop()
		},
	}
}
