package ingest

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/inbox-sentry/internal/llm"
	"github.com/xaenox/inbox-sentry/internal/mail"
	"github.com/xaenox/inbox-sentry/internal/models"
	"github.com/xaenox/inbox-sentry/internal/notify"
	"github.com/xaenox/inbox-sentry/internal/store"
)

// Pipeline polls the inbox, classifies new messages and surfaces the
// important ones into the target user's context slots, firing one alert per
// surfaced item.
type Pipeline struct {
	fetcher    mail.Fetcher
	classifier llm.Classifier
	store      store.ContextStore
	ledger     store.ProcessedLedger
	locker     *store.UserLocker
	notifier   notify.Notifier
	logger     *zap.Logger

	// identity is the user that receives alerts, already normalized.
	identity   string
	fetchCount int
	menuSize   int
}

func New(fetcher mail.Fetcher, classifier llm.Classifier, cs store.ContextStore,
	ledger store.ProcessedLedger, locker *store.UserLocker, notifier notify.Notifier,
	identity string, fetchCount, menuSize int, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		classifier: classifier,
		store:      cs,
		ledger:     ledger,
		locker:     locker,
		notifier:   notifier,
		identity:   models.NormalizeIdentity(identity),
		fetchCount: fetchCount,
		menuSize:   menuSize,
		logger:     logger,
	}
}

// Run executes one ingestion cycle. A cycle that surfaces nothing persists
// nothing.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := p.logger.With(zap.String("cycle", uuid.New().String()))
	logger.Info("polling for new emails")

	messages, err := p.fetcher.Fetch(ctx, p.fetchCount)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		logger.Info("no new emails found")
		return nil
	}

	unlock := p.locker.Lock(p.identity)
	defer unlock()

	uc, err := p.store.Load(ctx, p.identity)
	if err != nil {
		return err
	}
	uc.Normalize()

	surfaced := 0
	slot := 0
	for _, msg := range messages {
		processed, err := p.ledger.IsProcessed(ctx, msg.ID)
		if err != nil {
			logger.Error("ledger lookup failed", zap.String("id", msg.ID), zap.Error(err))
			continue
		}
		if processed {
			logger.Debug("skipping already processed email", zap.String("id", msg.ID))
			continue
		}

		// Mark before classifying: a crash or classifier failure must not
		// cause this message to be analyzed again next cycle.
		if err := p.ledger.MarkProcessed(ctx, msg.ID); err != nil {
			logger.Error("failed to mark email processed", zap.String("id", msg.ID), zap.Error(err))
			continue
		}

		analysis, err := p.classifier.ClassifyImportance(ctx, msg.Body)
		if err != nil {
			logger.Warn("classification failed", zap.String("id", msg.ID), zap.Error(err))
			continue
		}
		if analysis == nil {
			logger.Info("email not important", zap.String("id", msg.ID))
			continue
		}

		// Rotate through the small menu; old slots get overwritten.
		slot = slot%p.menuSize + 1
		item := buildItem(msg, analysis)
		uc.PutItem(slot, item)
		surfaced++

		logger.Info("surfaced important email",
			zap.String("id", msg.ID),
			zap.Int("slot", slot),
			zap.String("title", item.Title))

		if err := p.notifier.Notify(ctx, p.identity, notify.FormatAlert(item, slot)); err != nil {
			logger.Error("failed to deliver alert", zap.String("id", msg.ID), zap.Error(err))
		}
	}

	if surfaced == 0 {
		logger.Info("no new important emails")
		return nil
	}

	if err := p.store.Save(ctx, p.identity, uc); err != nil {
		return err
	}
	logger.Info("ingestion cycle complete", zap.Int("surfaced", surfaced))
	return nil
}

func buildItem(msg mail.Message, analysis *models.Analysis) *models.Item {
	return &models.Item{
		ID:                msg.ID,
		ThreadID:          msg.ThreadID,
		InternetMessageID: msg.InternetMessageID,
		From:              msg.From,
		Subject:           msg.Subject,
		Title:             analysis.Title,
		Summary:           analysis.Summary,
		Action:            analysis.Action,
		Deadline:          llm.ParseDeadline(analysis.Deadline),
		OriginalBody:      msg.Body,
	}
}
