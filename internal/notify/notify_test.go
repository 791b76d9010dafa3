package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/inbox-sentry/internal/models"
	"github.com/xaenox/inbox-sentry/pkg/config"
)

func TestNewSelectsProvider(t *testing.T) {
	n, err := New(config.WhatsAppConfig{Provider: "twilio"})
	require.NoError(t, err)
	assert.IsType(t, &TwilioNotifier{}, n)

	n, err = New(config.WhatsAppConfig{Provider: "meta"})
	require.NoError(t, err)
	assert.IsType(t, &MetaNotifier{}, n)

	_, err = New(config.WhatsAppConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestFormatAlert(t *testing.T) {
	deadline := time.Date(2026, 9, 1, 17, 0, 0, 0, time.UTC)
	item := &models.Item{
		Title:    "Interview invitation",
		Action:   "Confirm availability",
		Deadline: &deadline,
	}

	msg := FormatAlert(item, 2)
	assert.Contains(t, msg, "Email 2: Interview invitation")
	assert.Contains(t, msg, "2026-09-01 17:00")
	assert.Contains(t, msg, "Confirm availability")
	assert.Contains(t, msg, "Reply with *2*")
}

func TestFormatAlertWithoutDeadline(t *testing.T) {
	item := &models.Item{Title: "OTP code", Action: "Use within 10 minutes"}
	msg := FormatAlert(item, 1)
	assert.Contains(t, msg, "*Deadline:* N/A")
}

func TestFormatReminder(t *testing.T) {
	deadline := time.Date(2026, 9, 1, 17, 0, 0, 0, time.UTC)
	item := &models.Item{Title: "Interview invitation", Deadline: &deadline}

	msg := FormatReminder(item, 3, 24*time.Hour)
	assert.Contains(t, msg, "Deadline Reminder")
	assert.Contains(t, msg, "Less than 24 hours")
	assert.Contains(t, msg, "Reply *3*")
}
