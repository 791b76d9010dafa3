package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdentity(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"whatsapp:+5551234", "5551234"},
		{"+5551234", "5551234"},
		{"5551234", "5551234"},
		{" whatsapp:5551234 ", "5551234"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeIdentity(tt.raw), "raw=%q", tt.raw)
	}
}

func TestPutItemInvalidatesOverwrittenFocus(t *testing.T) {
	uc := NewUserContext()
	uc.Slots[1] = &Item{ID: "old"}
	uc.ActiveSlot = 1
	uc.PendingDraft = "half-written reply"

	uc.PutItem(1, &Item{ID: "new"})

	assert.Zero(t, uc.ActiveSlot, "overwritten focus is gone")
	assert.Empty(t, uc.PendingDraft, "draft attached to the old item is gone")
	assert.Equal(t, "new", uc.Slots[1].ID)
}

func TestPutItemKeepsUnrelatedFocus(t *testing.T) {
	uc := NewUserContext()
	uc.Slots[1] = &Item{ID: "focused"}
	uc.ActiveSlot = 1
	uc.PendingDraft = "draft"

	uc.PutItem(2, &Item{ID: "other"})

	assert.Equal(t, 1, uc.ActiveSlot)
	assert.Equal(t, "draft", uc.PendingDraft)
}

func TestNormalizeRepairsDanglingState(t *testing.T) {
	uc := &UserContext{ActiveSlot: 3, PendingDraft: "orphan"}
	uc.Normalize()

	assert.NotNil(t, uc.Slots)
	assert.Zero(t, uc.ActiveSlot)
	assert.Empty(t, uc.PendingDraft, "a draft cannot exist without a focus")
}

func TestCloneIsDeep(t *testing.T) {
	deadline := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	uc := NewUserContext()
	uc.Slots[1] = &Item{ID: "a", Deadline: &deadline}
	uc.ActiveSlot = 1

	clone := uc.Clone()
	clone.Slots[1].ID = "mutated"
	*clone.Slots[1].Deadline = deadline.Add(time.Hour)

	assert.Equal(t, "a", uc.Slots[1].ID)
	assert.Equal(t, deadline, *uc.Slots[1].Deadline)
}

func TestParseIntentFallsBackToQuestion(t *testing.T) {
	assert.Equal(t, IntentDraft, ParseIntent("DRAFT"))
	assert.Equal(t, IntentSend, ParseIntent("SEND"))
	assert.Equal(t, IntentCancel, ParseIntent("CANCEL"))
	assert.Equal(t, IntentQuestion, ParseIntent("QUESTION"))
	assert.Equal(t, IntentQuestion, ParseIntent("REPLY"))
	assert.Equal(t, IntentQuestion, ParseIntent(""))
}
