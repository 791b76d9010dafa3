package llm

import (
	"context"
	"fmt"
	"strings"
)

const draftSystem = "You generate polite and effective email replies."

const draftPrompt = `You are an assistant that helps generate polite email replies.

Original email:
"""%s"""

User Instruction: "%s"

Write a professional email reply based on the user's instruction. Do not include placeholders like "[Your Name]". Just the body.`

// DraftReply writes a candidate reply to the original message following the
// user's instruction.
func (c *Client) DraftReply(ctx context.Context, originalBody, instruction string) (string, error) {
	prompt := fmt.Sprintf(draftPrompt, sanitizeBody(originalBody), instruction)

	raw, err := c.complete(ctx, c.model, draftSystem, prompt, false)
	if err != nil {
		return "", fmt.Errorf("drafting reply: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

const answerSystem = "You answer questions about a specific email concisely and accurately."

const answerPrompt = `Here is an email:
"""%s"""

The user asks: "%s"

Answer the question based only on the email above. If the email does not contain the answer, say so briefly.`

// AnswerQuestion answers a user question about the original message.
func (c *Client) AnswerQuestion(ctx context.Context, originalBody, question string) (string, error) {
	prompt := fmt.Sprintf(answerPrompt, sanitizeBody(originalBody), question)

	raw, err := c.complete(ctx, c.model, answerSystem, prompt, false)
	if err != nil {
		return "", fmt.Errorf("answering question: %w", err)
	}
	return strings.TrimSpace(raw), nil
}
