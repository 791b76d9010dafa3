package remind

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/inbox-sentry/internal/notify"
	"github.com/xaenox/inbox-sentry/internal/store"
)

// Sweep scans every user's items and sends one reminder per item whose
// deadline falls inside the notification window. The ReminderSent flag makes
// repeated sweeps idempotent.
type Sweep struct {
	store    store.ContextStore
	locker   *store.UserLocker
	notifier notify.Notifier
	window   time.Duration
	logger   *zap.Logger

	// now is swapped in tests.
	now func() time.Time
}

func New(cs store.ContextStore, locker *store.UserLocker, notifier notify.Notifier,
	window time.Duration, logger *zap.Logger) *Sweep {
	return &Sweep{
		store:    cs,
		locker:   locker,
		notifier: notifier,
		window:   window,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one sweep over all contexts.
func (s *Sweep) Run(ctx context.Context) error {
	s.logger.Info("checking deadlines")

	contexts, err := s.store.All(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for identity := range contexts {
		s.sweepUser(ctx, identity, now)
	}
	return nil
}

// sweepUser reloads and updates one user under their lock so a concurrent
// conversation turn cannot be clobbered by the sweep's save.
func (s *Sweep) sweepUser(ctx context.Context, identity string, now time.Time) {
	unlock := s.locker.Lock(identity)
	defer unlock()

	uc, err := s.store.Load(ctx, identity)
	if err != nil {
		s.logger.Error("failed to load context for sweep",
			zap.String("user", identity), zap.Error(err))
		return
	}

	updated := false
	for slot, item := range uc.Slots {
		if item.Deadline == nil || item.ReminderSent {
			continue
		}

		remaining := item.Deadline.Sub(now)
		if remaining <= 0 || remaining > s.window {
			continue
		}

		s.logger.Info("sending deadline reminder",
			zap.String("user", identity),
			zap.Int("slot", slot),
			zap.String("title", item.Title))

		if err := s.notifier.Notify(ctx, identity, notify.FormatReminder(item, slot, s.window)); err != nil {
			s.logger.Error("failed to deliver reminder",
				zap.String("user", identity), zap.Error(err))
			// Not marked sent; the next sweep retries.
			continue
		}

		item.ReminderSent = true
		updated = true
	}

	if !updated {
		return
	}
	if err := s.store.Save(ctx, identity, uc); err != nil {
		s.logger.Error("failed to persist reminder flags",
			zap.String("user", identity), zap.Error(err))
	}
}
