package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/inbox-sentry/internal/mail"
	"github.com/xaenox/inbox-sentry/internal/models"
	"github.com/xaenox/inbox-sentry/internal/store"
)

type fakeFetcher struct {
	messages []mail.Message
	err      error
}

func (f *fakeFetcher) Fetch(ctx context.Context, max int) ([]mail.Message, error) {
	return f.messages, f.err
}

// scriptedClassifier returns a canned verdict per body and counts calls.
type scriptedClassifier struct {
	verdicts map[string]*models.Analysis
	errs     map[string]error
	calls    []string
}

func (s *scriptedClassifier) ClassifyImportance(ctx context.Context, text string) (*models.Analysis, error) {
	s.calls = append(s.calls, text)
	if err, ok := s.errs[text]; ok {
		return nil, err
	}
	return s.verdicts[text], nil
}

func (s *scriptedClassifier) ClassifyIntent(ctx context.Context, text string) models.Intent {
	return models.IntentQuestion
}

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) Notify(ctx context.Context, identity, text string) error {
	r.messages = append(r.messages, text)
	return nil
}

func important(title string) *models.Analysis {
	return &models.Analysis{IsImportant: true, Title: title, Action: "Reply", Summary: "s"}
}

func newPipeline(fetcher *fakeFetcher, classifier *scriptedClassifier,
	cs store.ContextStore, ledger store.ProcessedLedger,
	notifier *recordingNotifier, menuSize int) *Pipeline {
	return New(fetcher, classifier, cs, ledger, store.NewUserLocker(), notifier,
		"whatsapp:+5551234", 3, menuSize, zap.NewNop())
}

func TestRunSurfacesImportantEmails(t *testing.T) {
	fetcher := &fakeFetcher{messages: []mail.Message{
		{ID: "m1", From: "a@x.com", Subject: "s1", Body: "body-1"},
		{ID: "m2", From: "b@x.com", Subject: "s2", Body: "body-2"},
	}}
	classifier := &scriptedClassifier{verdicts: map[string]*models.Analysis{
		"body-1": important("First"),
		"body-2": nil, // not important
	}}
	cs := store.NewMemoryStore()
	ledger := store.NewMemoryLedger()
	notifier := &recordingNotifier{}

	p := newPipeline(fetcher, classifier, cs, ledger, notifier, 3)
	require.NoError(t, p.Run(context.Background()))

	uc, err := cs.Load(context.Background(), "5551234")
	require.NoError(t, err)
	require.Len(t, uc.Slots, 1)
	assert.Equal(t, "m1", uc.Slots[1].ID)
	assert.Equal(t, "First", uc.Slots[1].Title)
	assert.False(t, uc.Slots[1].ReminderSent)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Email 1: First")

	for _, id := range []string{"m1", "m2"} {
		processed, err := ledger.IsProcessed(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, processed, "id=%s", id)
	}
}

func TestRunNeverReclassifiesLedgeredIDs(t *testing.T) {
	fetcher := &fakeFetcher{messages: []mail.Message{
		{ID: "m1", Body: "body-1"},
	}}
	classifier := &scriptedClassifier{verdicts: map[string]*models.Analysis{
		"body-1": important("First"),
	}}
	cs := store.NewMemoryStore()
	ledger := store.NewMemoryLedger()
	notifier := &recordingNotifier{}

	p := newPipeline(fetcher, classifier, cs, ledger, notifier, 3)
	require.NoError(t, p.Run(context.Background()))
	require.NoError(t, p.Run(context.Background()))

	assert.Len(t, classifier.calls, 1, "second cycle must skip the ledgered id")
	assert.Len(t, notifier.messages, 1)
}

func TestFailedClassificationIsNeverRetried(t *testing.T) {
	fetcher := &fakeFetcher{messages: []mail.Message{
		{ID: "m1", Body: "body-1"},
	}}
	classifier := &scriptedClassifier{errs: map[string]error{
		"body-1": errors.New("model down"),
	}}
	cs := store.NewMemoryStore()
	ledger := store.NewMemoryLedger()
	notifier := &recordingNotifier{}

	p := newPipeline(fetcher, classifier, cs, ledger, notifier, 3)
	require.NoError(t, p.Run(context.Background()))

	// Marked processed before classification, so the failure is final.
	processed, err := ledger.IsProcessed(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, processed)

	require.NoError(t, p.Run(context.Background()))
	assert.Len(t, classifier.calls, 1)
}

func TestNothingImportantPersistsNothing(t *testing.T) {
	fetcher := &fakeFetcher{messages: []mail.Message{
		{ID: "m1", Body: "body-1"},
	}}
	classifier := &scriptedClassifier{} // everything unimportant
	cs := store.NewMemoryStore()
	notifier := &recordingNotifier{}

	p := newPipeline(fetcher, classifier, cs, store.NewMemoryLedger(), notifier, 3)
	require.NoError(t, p.Run(context.Background()))

	all, err := cs.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "a cycle with zero important items persists nothing")
	assert.Empty(t, notifier.messages)
}

func TestSlotRotationInvalidatesStaleFocus(t *testing.T) {
	// The user is focused on slot 1 with a draft; a new cycle overwrites
	// slot 1, which must clear both.
	cs := store.NewMemoryStore()
	seed := models.NewUserContext()
	seed.Slots[1] = &models.Item{ID: "old", OriginalBody: "old body"}
	seed.ActiveSlot = 1
	seed.PendingDraft = "unsent draft"
	require.NoError(t, cs.Save(context.Background(), "5551234", seed))

	fetcher := &fakeFetcher{messages: []mail.Message{
		{ID: "new-1", Body: "body-1"},
	}}
	classifier := &scriptedClassifier{verdicts: map[string]*models.Analysis{
		"body-1": important("Replacement"),
	}}
	notifier := &recordingNotifier{}

	p := newPipeline(fetcher, classifier, cs, store.NewMemoryLedger(), notifier, 3)
	require.NoError(t, p.Run(context.Background()))

	uc, err := cs.Load(context.Background(), "5551234")
	require.NoError(t, err)
	assert.Equal(t, "new-1", uc.Slots[1].ID)
	assert.Zero(t, uc.ActiveSlot)
	assert.Empty(t, uc.PendingDraft)
}

func TestMenuSizeWrapsSlots(t *testing.T) {
	fetcher := &fakeFetcher{messages: []mail.Message{
		{ID: "m1", Body: "b1"},
		{ID: "m2", Body: "b2"},
		{ID: "m3", Body: "b3"},
	}}
	classifier := &scriptedClassifier{verdicts: map[string]*models.Analysis{
		"b1": important("One"),
		"b2": important("Two"),
		"b3": important("Three"),
	}}
	cs := store.NewMemoryStore()
	notifier := &recordingNotifier{}

	p := newPipeline(fetcher, classifier, cs, store.NewMemoryLedger(), notifier, 2)
	require.NoError(t, p.Run(context.Background()))

	uc, err := cs.Load(context.Background(), "5551234")
	require.NoError(t, err)
	require.Len(t, uc.Slots, 2)
	assert.Equal(t, "m3", uc.Slots[1].ID, "third item wraps onto slot 1")
	assert.Equal(t, "m2", uc.Slots[2].ID)
}

func TestFetchErrorPropagates(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("gmail unreachable")}
	p := newPipeline(fetcher, &scriptedClassifier{}, store.NewMemoryStore(),
		store.NewMemoryLedger(), &recordingNotifier{}, 3)

	assert.Error(t, p.Run(context.Background()))
}
