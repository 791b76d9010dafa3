package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/xaenox/inbox-sentry/internal/models"
	"github.com/xaenox/inbox-sentry/pkg/config"
)

// Notifier delivers a text message to a chat identity. Delivery is
// best-effort: callers log failures and move on, they never bubble one up to
// the webhook transport.
type Notifier interface {
	Notify(ctx context.Context, identity, text string) error
}

// New builds the provider selected in configuration.
func New(cfg config.WhatsAppConfig) (Notifier, error) {
	switch cfg.Provider {
	case "twilio":
		return NewTwilioNotifier(cfg), nil
	case "meta":
		return NewMetaNotifier(cfg), nil
	case "telegram":
		return NewTelegramNotifier(cfg.TelegramToken)
	default:
		return nil, fmt.Errorf("unknown whatsapp provider %q", cfg.Provider)
	}
}

// FormatAlert is the initial notification for a newly surfaced item.
func FormatAlert(item *models.Item, slot int) string {
	deadline := "N/A"
	if item.Deadline != nil {
		deadline = item.Deadline.Format("2006-01-02 15:04")
	}
	return fmt.Sprintf(
		"📩 *Email %d: %s*\n"+
			"📅 *Deadline:* %s\n"+
			"🎯 *Action:* %s\n\n"+
			"💬 Reply with *%d* to view summary and take action",
		slot, item.Title, deadline, item.Action, slot)
}

// FormatReminder is the deadline warning sent once per item.
func FormatReminder(item *models.Item, slot int, window time.Duration) string {
	return fmt.Sprintf(
		"⏰ *Deadline Reminder*\n"+
			"📌 *Title:* %s\n"+
			"⏳ *Due:* %s\n"+
			"⚠️ Less than %d hours remaining!\n"+
			"Reply *%d* to take action.",
		item.Title, item.Deadline.Format("2006-01-02 15:04"),
		int(window.Hours()), slot)
}
