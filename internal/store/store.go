package store

import (
	"context"

	"github.com/xaenox/inbox-sentry/internal/models"
)

// ContextStore holds the durable per-user session state shared between the
// webhook handler, the ingestion pipeline and the reminder sweep.
type ContextStore interface {
	// Load returns the context for an identity. A missing identity yields an
	// empty context, never an error.
	Load(ctx context.Context, identity string) (*models.UserContext, error)
	// Save replaces the stored context for an identity.
	Save(ctx context.Context, identity string, uc *models.UserContext) error
	// All returns every stored context keyed by identity.
	All(ctx context.Context) (map[string]*models.UserContext, error)
	Close() error
}

// ProcessedLedger is the idempotency set of source identifiers that have
// already been through classification. A marked identifier is never
// reprocessed, even when its classification failed.
type ProcessedLedger interface {
	IsProcessed(ctx context.Context, id string) (bool, error)
	// MarkProcessed records an identifier; marking twice is not an error.
	MarkProcessed(ctx context.Context, id string) error
	// Clear empties the ledger and reports how many entries were removed.
	Clear(ctx context.Context) (int64, error)
}
