package models

// Clone returns a deep copy of the context. Stores hand out copies so a
// caller mutating its transient context cannot bypass Save.
func (uc *UserContext) Clone() *UserContext {
	out := &UserContext{
		Slots:        make(map[int]*Item, len(uc.Slots)),
		ActiveSlot:   uc.ActiveSlot,
		PendingDraft: uc.PendingDraft,
	}
	for slot, item := range uc.Slots {
		copied := *item
		if item.Deadline != nil {
			d := *item.Deadline
			copied.Deadline = &d
		}
		out.Slots[slot] = &copied
	}
	return out
}
