package models

import "time"

// InboundMessage is one normalized chat event: who sent it and what they said.
// Provider prefixes ("whatsapp:") and the leading "+" are stripped before the
// message reaches the engine.
type InboundMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Item is one inbox message that was classified as important and surfaced to
// the user. It exists in a context only after the user has been notified.
type Item struct {
	ID                string     `json:"id"`
	ThreadID          string     `json:"thread_id,omitempty"`
	InternetMessageID string     `json:"internet_message_id,omitempty"`
	From              string     `json:"from"`
	Subject           string     `json:"subject"`
	Title             string     `json:"title"`
	Summary           string     `json:"summary"`
	Action            string     `json:"action"`
	Deadline          *time.Time `json:"deadline,omitempty"`
	OriginalBody      string     `json:"original_body"`
	ReminderSent      bool       `json:"reminder_sent"`
}

// UserContext is one user's session state. ActiveSlot of zero means no item
// is focused; an empty PendingDraft means nothing is awaiting confirmation.
type UserContext struct {
	Slots        map[int]*Item `json:"slots"`
	ActiveSlot   int           `json:"active_slot,omitempty"`
	PendingDraft string        `json:"pending_draft,omitempty"`
}

// NewUserContext returns an empty context with an allocated slot map.
func NewUserContext() *UserContext {
	return &UserContext{Slots: make(map[int]*Item)}
}

// Active returns the focused item, or nil when no valid focus exists.
func (uc *UserContext) Active() *Item {
	if uc.ActiveSlot == 0 {
		return nil
	}
	return uc.Slots[uc.ActiveSlot]
}

// ClearDraft drops any pending draft.
func (uc *UserContext) ClearDraft() {
	uc.PendingDraft = ""
}

// Focus selects a slot and drops any draft attached to the previous focus.
func (uc *UserContext) Focus(slot int) {
	uc.ActiveSlot = slot
	uc.PendingDraft = ""
}

// PutItem writes an item into a slot. Overwriting the slot the user is
// currently focused on invalidates the focus and any draft attached to it:
// the old item is gone, so state referring to it must not survive.
func (uc *UserContext) PutItem(slot int, item *Item) {
	if uc.Slots == nil {
		uc.Slots = make(map[int]*Item)
	}
	if uc.ActiveSlot == slot {
		uc.ActiveSlot = 0
		uc.PendingDraft = ""
	}
	uc.Slots[slot] = item
}

// Normalize repairs a context loaded from storage so the engine can rely on
// its invariants: a focus must point at an existing slot, and a draft must
// be attached to a focus.
func (uc *UserContext) Normalize() {
	if uc.Slots == nil {
		uc.Slots = make(map[int]*Item)
	}
	if uc.ActiveSlot != 0 {
		if _, ok := uc.Slots[uc.ActiveSlot]; !ok {
			uc.ActiveSlot = 0
		}
	}
	if uc.ActiveSlot == 0 {
		uc.PendingDraft = ""
	}
}

// Analysis is the structured result of importance classification.
type Analysis struct {
	IsImportant bool   `json:"is_important"`
	Title       string `json:"title"`
	Deadline    string `json:"deadline"`
	Action      string `json:"action"`
	Summary     string `json:"summary"`
}
