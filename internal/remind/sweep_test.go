package remind

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/inbox-sentry/internal/models"
	"github.com/xaenox/inbox-sentry/internal/store"
)

type recordingNotifier struct {
	messages []string
	fail     bool
}

func (r *recordingNotifier) Notify(ctx context.Context, identity, text string) error {
	if r.fail {
		return assert.AnError
	}
	r.messages = append(r.messages, text)
	return nil
}

func seedItem(t *testing.T, cs store.ContextStore, identity string, deadline time.Time, reminderSent bool) {
	t.Helper()
	uc := models.NewUserContext()
	uc.Slots[1] = &models.Item{
		ID:           "m1",
		Title:        "Interview",
		Deadline:     &deadline,
		ReminderSent: reminderSent,
	}
	require.NoError(t, cs.Save(context.Background(), identity, uc))
}

func newSweep(cs store.ContextStore, notifier *recordingNotifier, now time.Time) *Sweep {
	s := New(cs, store.NewUserLocker(), notifier, 24*time.Hour, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestSweepSendsExactlyOneReminder(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	cs := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	seedItem(t, cs, "5551234", now.Add(6*time.Hour), false)

	sweep := newSweep(cs, notifier, now)
	require.NoError(t, sweep.Run(context.Background()))
	require.NoError(t, sweep.Run(context.Background()))

	assert.Len(t, notifier.messages, 1, "flag must suppress the second reminder")
	assert.Contains(t, notifier.messages[0], "Deadline Reminder")
	assert.Contains(t, notifier.messages[0], "Interview")

	uc, err := cs.Load(context.Background(), "5551234")
	require.NoError(t, err)
	assert.True(t, uc.Slots[1].ReminderSent)
}

func TestSweepSkipsOutsideWindow(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	cs := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	// Too far out.
	seedItem(t, cs, "5551234", now.Add(48*time.Hour), false)

	sweep := newSweep(cs, notifier, now)
	require.NoError(t, sweep.Run(context.Background()))
	assert.Empty(t, notifier.messages)

	uc, err := cs.Load(context.Background(), "5551234")
	require.NoError(t, err)
	assert.False(t, uc.Slots[1].ReminderSent)
}

func TestSweepSkipsPastDeadlines(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	cs := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	seedItem(t, cs, "5551234", now.Add(-time.Hour), false)

	sweep := newSweep(cs, notifier, now)
	require.NoError(t, sweep.Run(context.Background()))
	assert.Empty(t, notifier.messages)
}

func TestSweepSkipsAlreadyReminded(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	cs := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	seedItem(t, cs, "5551234", now.Add(6*time.Hour), true)

	sweep := newSweep(cs, notifier, now)
	require.NoError(t, sweep.Run(context.Background()))
	assert.Empty(t, notifier.messages)
}

func TestFailedDeliveryRetriesNextSweep(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	cs := store.NewMemoryStore()
	notifier := &recordingNotifier{fail: true}
	seedItem(t, cs, "5551234", now.Add(6*time.Hour), false)

	sweep := newSweep(cs, notifier, now)
	require.NoError(t, sweep.Run(context.Background()))

	uc, err := cs.Load(context.Background(), "5551234")
	require.NoError(t, err)
	assert.False(t, uc.Slots[1].ReminderSent, "failed delivery leaves the flag unset")

	notifier.fail = false
	require.NoError(t, sweep.Run(context.Background()))
	assert.Len(t, notifier.messages, 1)
}

func TestSweepCoversAllUsers(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	cs := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	seedItem(t, cs, "1110001", now.Add(3*time.Hour), false)
	seedItem(t, cs, "2220002", now.Add(5*time.Hour), false)

	sweep := newSweep(cs, notifier, now)
	require.NoError(t, sweep.Run(context.Background()))
	assert.Len(t, notifier.messages, 2)
}
