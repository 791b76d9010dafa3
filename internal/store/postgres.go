package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xaenox/inbox-sentry/internal/models"
	"github.com/xaenox/inbox-sentry/pkg/config"
)

//go:embed migrations.sql
var migrations embed.FS

// PostgresStore is the target persistence backend: one row per user, one row
// per surfaced item, plus the processed ledger. It implements both
// ContextStore and ProcessedLedger.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	s := &PostgresStore{db: db, logger: logger}
	if err := s.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}
	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, identity string) (*models.UserContext, error) {
	uc := models.NewUserContext()

	var activeItemID, pendingDraft sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT active_item_id, pending_draft FROM users WHERE phone_number = $1`,
		identity,
	).Scan(&activeItemID, &pendingDraft)
	if err == sql.ErrNoRows {
		return uc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading user %s: %w", identity, err)
	}
	uc.PendingDraft = pendingDraft.String

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, menu_index, thread_id, internet_message_id, title, subject,
		       sender_info, summary, action, deadline, original_body, reminder_sent
		FROM items
		WHERE user_phone = $1
		ORDER BY menu_index`,
		identity)
	if err != nil {
		return nil, fmt.Errorf("error loading items for %s: %w", identity, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item               models.Item
			slot               int
			threadID, intMsgID sql.NullString
			deadline           sql.NullTime
		)
		if err := rows.Scan(&item.ID, &slot, &threadID, &intMsgID, &item.Title,
			&item.Subject, &item.From, &item.Summary, &item.Action,
			&deadline, &item.OriginalBody, &item.ReminderSent); err != nil {
			return nil, fmt.Errorf("error scanning item: %w", err)
		}
		item.ThreadID = threadID.String
		item.InternetMessageID = intMsgID.String
		if deadline.Valid {
			d := deadline.Time
			item.Deadline = &d
		}
		uc.Slots[slot] = &item
		if activeItemID.Valid && item.ID == activeItemID.String {
			uc.ActiveSlot = slot
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	uc.Normalize()
	return uc, nil
}

func (s *PostgresStore) Save(ctx context.Context, identity string, uc *models.UserContext) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting save transaction: %w", err)
	}
	defer tx.Rollback()

	var activeItemID, pendingDraft sql.NullString
	if active := uc.Active(); active != nil {
		activeItemID = sql.NullString{String: active.ID, Valid: true}
	}
	if uc.PendingDraft != "" {
		pendingDraft = sql.NullString{String: uc.PendingDraft, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (phone_number, active_item_id, pending_draft)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone_number)
		DO UPDATE SET active_item_id = $2, pending_draft = $3`,
		identity, activeItemID, pendingDraft)
	if err != nil {
		return fmt.Errorf("error upserting user %s: %w", identity, err)
	}

	// Items no longer present in any slot were overwritten; drop their rows.
	keep := make([]string, 0, len(uc.Slots))
	for _, item := range uc.Slots {
		keep = append(keep, item.ID)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM items
		WHERE user_phone = $1 AND NOT (id = ANY($2))`,
		identity, pq.Array(keep)); err != nil {
		return fmt.Errorf("error pruning items for %s: %w", identity, err)
	}

	for slot, item := range uc.Slots {
		var deadline sql.NullTime
		if item.Deadline != nil {
			deadline = sql.NullTime{Time: *item.Deadline, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO items (id, user_phone, menu_index, thread_id, internet_message_id,
			                   title, subject, sender_info, summary, action, deadline,
			                   original_body, reminder_sent)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO UPDATE SET
			    user_phone = $2, menu_index = $3, thread_id = $4,
			    internet_message_id = $5, title = $6, subject = $7, sender_info = $8,
			    summary = $9, action = $10, deadline = $11, original_body = $12,
			    reminder_sent = $13`,
			item.ID, identity, slot, nullable(item.ThreadID), nullable(item.InternetMessageID),
			item.Title, item.Subject, item.From, item.Summary, item.Action,
			deadline, item.OriginalBody, item.ReminderSent); err != nil {
			return fmt.Errorf("error upserting item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing save for %s: %w", identity, err)
	}
	return nil
}

func (s *PostgresStore) All(ctx context.Context) (map[string]*models.UserContext, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT phone_number FROM users`)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	var identities []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		identities = append(identities, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	out := make(map[string]*models.UserContext, len(identities))
	for _, identity := range identities {
		uc, err := s.Load(ctx, identity)
		if err != nil {
			return nil, err
		}
		out[identity] = uc
	}
	return out, nil
}

func (s *PostgresStore) IsProcessed(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_ledger WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking ledger for %s: %w", id, err)
	}
	return exists, nil
}

func (s *PostgresStore) MarkProcessed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processed_ledger (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
	if err != nil {
		return fmt.Errorf("error marking %s processed: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM processed_ledger`)
	if err != nil {
		return 0, fmt.Errorf("error clearing ledger: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting cleared rows: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
