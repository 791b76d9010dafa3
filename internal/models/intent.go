package models

// Intent classifies what the user wants done with the focused item.
type Intent string

const (
	// IntentDraft asks for a reply to be generated.
	IntentDraft Intent = "DRAFT"
	// IntentQuestion asks something about the item; also the safe fallback.
	IntentQuestion Intent = "QUESTION"
	// IntentSend confirms the pending draft should go out.
	IntentSend Intent = "SEND"
	// IntentCancel discards the pending draft.
	IntentCancel Intent = "CANCEL"
)

// ParseIntent maps a classifier label to an Intent, falling back to
// IntentQuestion for anything unrecognized.
func ParseIntent(label string) Intent {
	switch Intent(label) {
	case IntentDraft, IntentSend, IntentCancel, IntentQuestion:
		return Intent(label)
	default:
		return IntentQuestion
	}
}
