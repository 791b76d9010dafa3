package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xaenox/inbox-sentry/internal/engine"
	"github.com/xaenox/inbox-sentry/internal/ingest"
	"github.com/xaenox/inbox-sentry/internal/llm"
	"github.com/xaenox/inbox-sentry/internal/mail"
	"github.com/xaenox/inbox-sentry/internal/notify"
	"github.com/xaenox/inbox-sentry/internal/remind"
	"github.com/xaenox/inbox-sentry/internal/store"
	"github.com/xaenox/inbox-sentry/pkg/config"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "emailbot",
		Short:         "Inbox assistant: surfaces important email over chat and drives replies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")

	root.AddCommand(
		newServeCmd(),
		newPollCmd(),
		newSchedulerCmd(),
		newClearCacheCmd(),
		newTestNotifyCmd(),
	)
	return root
}

// app bundles every constructed dependency. Built once per command
// invocation and passed down, never reached for as a global.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    store.ContextStore
	ledger   store.ProcessedLedger
	locker   *store.UserLocker
	llm      *llm.Client
	notifier notify.Notifier
	gmail    *mail.GmailClient
	engine   *engine.Engine
	pipeline *ingest.Pipeline
	sweep    *remind.Sweep
}

func buildApp(ctx context.Context) (*app, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
	}

	cs, ledger, err := buildStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	notifier, err := notify.New(cfg.WhatsApp)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	locker := store.NewUserLocker()
	llmClient := llm.NewClient(cfg.LLM, logger)
	gmail := mail.NewGmailClient(ctx, cfg.Mail, logger)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    cs,
		ledger:   ledger,
		locker:   locker,
		llm:      llmClient,
		notifier: notifier,
		gmail:    gmail,
	}

	a.engine = engine.New(cs, locker, llmClient, llmClient, gmail, notifier, logger)
	a.pipeline = ingest.New(gmail, llmClient, cs, ledger, locker, notifier,
		cfg.WhatsApp.To, cfg.Mail.FetchCount, cfg.Scheduler.MenuSize, logger)
	a.sweep = remind.New(cs, locker, notifier, cfg.Scheduler.ReminderWindow, logger)
	return a, nil
}

func buildStorage(cfg *config.Config, logger *zap.Logger) (store.ContextStore, store.ProcessedLedger, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		logger.Info("using PostgreSQL storage")
		pg, err := store.NewPostgresStore(cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return pg, pg, nil
	case "file":
		logger.Info("using file storage", zap.String("path", cfg.Storage.FilePath))
		return store.NewFileStore(cfg.Storage.FilePath), store.NewFileLedger(cfg.Storage.FilePath), nil
	case "memory":
		logger.Info("using in-memory storage")
		return store.NewMemoryStore(), store.NewMemoryLedger(), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close store", zap.Error(err))
	}
	a.logger.Sync()
}
