package sched

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Job is one periodic task (inbox poll, reminder sweep).
type Job interface {
	Run(ctx context.Context) error
}

// Scheduler runs the ingestion pipeline and reminder sweep on independent
// timers, off the webhook handler's path.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *zap.Logger
}

func New(logger *zap.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Register schedules a job at a fixed interval.
func (s *Scheduler) Register(name string, interval time.Duration, job Job) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := job.Run(context.Background()); err != nil {
				s.logger.Error("scheduled job failed",
					zap.String("job", name),
					zap.Error(err))
			}
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	s.logger.Info("registered job",
		zap.String("job", name),
		zap.Duration("interval", interval))
	return nil
}

// Start launches the timers; it does not block.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop shuts the timers down and waits for running jobs.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
