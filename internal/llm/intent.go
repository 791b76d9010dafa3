package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/inbox-sentry/internal/models"
)

const intentSystem = "You classify short chat messages from a user managing their email. Respond with exactly one word."

const intentPrompt = `Classify the user's message into exactly one of these intents:

DRAFT    - the user wants a reply written or rewritten (e.g. "accept the offer", "say I can't make it", "make it shorter")
SEND     - the user confirms the prepared reply should be sent (e.g. "send", "yes send it", "go ahead")
CANCEL   - the user wants to abandon the current draft or action (e.g. "cancel", "never mind", "stop")
QUESTION - the user asks about the email or anything else (e.g. "when is the deadline?", "who sent this?")

Respond with only the intent word, nothing else.

Message: "%s"`

// ClassifyIntent maps free-form user text to one intent. It never fails the
// caller: exhausted retries or an unrecognized label fall back to QUESTION,
// which the engine treats as plain chat about the focused item.
func (c *Client) ClassifyIntent(ctx context.Context, text string) models.Intent {
	prompt := fmt.Sprintf(intentPrompt, strings.TrimSpace(text))

	for attempt := 1; attempt <= c.retries; attempt++ {
		raw, err := c.complete(ctx, c.intentModel, intentSystem, prompt, false)
		if err != nil {
			c.logger.Warn("intent classification attempt failed",
				zap.Error(err),
				zap.Int("attempt", attempt))
			if !c.sleep(ctx, c.retryDelay) {
				return models.IntentQuestion
			}
			continue
		}

		label := strings.ToUpper(strings.TrimSpace(raw))
		label = strings.Trim(label, `."'`)
		intent := models.ParseIntent(label)
		c.logger.Debug("classified intent",
			zap.String("label", label),
			zap.String("intent", string(intent)))
		return intent
	}

	c.logger.Warn("intent classification exhausted retries, defaulting to QUESTION")
	return models.IntentQuestion
}
