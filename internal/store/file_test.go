package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/inbox-sentry/internal/models"
)

func TestFileStoreMissingKeyYieldsEmptyContext(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "context.json"))

	uc, err := s.Load(context.Background(), "5551234")
	require.NoError(t, err)
	assert.Empty(t, uc.Slots)
	assert.Zero(t, uc.ActiveSlot)
	assert.Empty(t, uc.PendingDraft)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")
	s := NewFileStore(path)

	deadline := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	uc := models.NewUserContext()
	uc.Slots[1] = &models.Item{
		ID:       "m1",
		From:     "Jane <jane@example.com>",
		Subject:  "Offer",
		Title:    "Job offer",
		Deadline: &deadline,
	}
	uc.ActiveSlot = 1
	uc.PendingDraft = "Thanks!"
	require.NoError(t, s.Save(context.Background(), "5551234", uc))

	// A fresh store over the same file must see the same state.
	reopened := NewFileStore(path)
	got, err := reopened.Load(context.Background(), "5551234")
	require.NoError(t, err)
	require.Contains(t, got.Slots, 1)
	assert.Equal(t, "m1", got.Slots[1].ID)
	assert.True(t, got.Slots[1].Deadline.Equal(deadline))
	assert.Equal(t, 1, got.ActiveSlot)
	assert.Equal(t, "Thanks!", got.PendingDraft)
}

func TestFileStoreRepairsInvariantOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")
	s := NewFileStore(path)

	// A draft without a focus cannot be handed to the engine.
	uc := &models.UserContext{PendingDraft: "orphan", ActiveSlot: 9}
	require.NoError(t, s.Save(context.Background(), "5551234", uc))

	got, err := s.Load(context.Background(), "5551234")
	require.NoError(t, err)
	assert.Zero(t, got.ActiveSlot)
	assert.Empty(t, got.PendingDraft)
}

func TestFileStoreAll(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "context.json"))

	require.NoError(t, s.Save(context.Background(), "111", models.NewUserContext()))
	require.NoError(t, s.Save(context.Background(), "222", models.NewUserContext()))

	all, err := s.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFileLedger(t *testing.T) {
	dir := t.TempDir()
	l := NewFileLedger(filepath.Join(dir, "context.json"))
	ctx := context.Background()

	processed, err := l.IsProcessed(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, l.MarkProcessed(ctx, "m1"))
	require.NoError(t, l.MarkProcessed(ctx, "m1")) // idempotent
	require.NoError(t, l.MarkProcessed(ctx, "m2"))

	processed, err = l.IsProcessed(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, processed)

	n, err := l.Clear(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	processed, err = l.IsProcessed(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestMemoryStoreIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	uc := models.NewUserContext()
	uc.Slots[1] = &models.Item{ID: "m1"}
	require.NoError(t, s.Save(ctx, "111", uc))

	// Mutating the caller's copy must not leak into the store.
	uc.Slots[1].ID = "mutated"

	got, err := s.Load(ctx, "111")
	require.NoError(t, err)
	assert.Equal(t, "m1", got.Slots[1].ID)
}

func TestUserLockerSerializesPerIdentity(t *testing.T) {
	l := NewUserLocker()

	unlock := l.Lock("111")
	acquired := make(chan struct{})
	go func() {
		u := l.Lock("111")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	// A different identity must not block.
	u2 := l.Lock("222")
	u2()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock never released")
	}
}
