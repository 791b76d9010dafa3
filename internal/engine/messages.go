package engine

import (
	"fmt"

	"github.com/xaenox/inbox-sentry/internal/models"
)

const (
	replySelectFirst = "🤖 Please reply with the email number (e.g., *1*) to start actions on it."

	replyCancelled = "🚫 Action cancelled. What would you like to do next?"

	replyDrafting = "✍️ Drafting your reply..."

	replyDraftFailed = "⚠️ I couldn't generate a draft right now. Please try again."

	replyNothingDrafted = "⚠️ You haven't drafted a reply yet. Tell me what to say first!"

	replySendFailed = "❌ Failed to send email. Please check logs."

	replyAnswerFailed = "I couldn't look that up right now. Please try again."

	replyInternalError = "⚠️ Something went wrong on my side. Please try again."
)

func formatNotFound(slot int) string {
	return fmt.Sprintf("⚠️ Email %d not found in recent context.", slot)
}

func formatFocused(slot int, item *models.Item) string {
	return fmt.Sprintf(
		"🎯 *Focused on Email %d*\n"+
			"📌 *Title:* %s\n"+
			"👤 *From:* %s\n\n"+
			"🤖 *How can I help?*\n"+
			"• Ask a question (e.g. \"When is the deadline?\")\n"+
			"• Draft a reply (e.g. \"Accept the interview\")",
		slot, item.Title, item.From)
}

func formatDraft(draft string) string {
	return fmt.Sprintf(
		"📝 *Draft Generated:*\n\n%s\n\n"+
			"-----------------------------\n"+
			"Reply *Send* to confirm, or give me feedback to change it.",
		draft)
}

func formatSent(deliveryID string) string {
	return fmt.Sprintf("✅ Email sent successfully! (ID: %s)", deliveryID)
}
