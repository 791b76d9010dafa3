package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/inbox-sentry/internal/models"
)

const importanceSystem = "You are an intelligent email summarizer. Always respond with valid JSON only."

const importancePrompt = `You are an assistant that processes and filters emails for chat notifications.
If the email is important (e.g., internship, interview, job offer, contest, OTP, etc.), return structured data.

CRITICAL: Respond ONLY with a valid JSON object. Do NOT include code, explanations, or markdown.

Required format:
{
  "is_important": true,
  "title": "...",
  "deadline": "...",
  "action": "...",
  "summary": "..."
}

If not important, set is_important to false.

Email:
"""%s"""

Remember: ONLY return the JSON object, nothing else.`

// ClassifyImportance asks the model whether a message is worth surfacing.
// Transient failures and malformed responses are retried with a growing
// delay; when every attempt fails the keyword heuristic decides instead, so
// the ingestion pipeline always gets a verdict.
func (c *Client) ClassifyImportance(ctx context.Context, text string) (*models.Analysis, error) {
	body := sanitizeBody(text)
	if body == "" {
		return nil, nil
	}

	prompt := fmt.Sprintf(importancePrompt, body)

	for attempt := 1; attempt <= c.retries; attempt++ {
		raw, err := c.complete(ctx, c.model, importanceSystem, prompt, true)
		if err != nil {
			c.logger.Warn("importance classification attempt failed",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Int("retries", c.retries))
			if !c.sleep(ctx, time.Duration(attempt)*c.retryDelay) {
				return nil, ctx.Err()
			}
			continue
		}

		analysis, err := extractAnalysis(raw)
		if err != nil {
			c.logger.Warn("unparseable importance response",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.String("response", truncate(raw, 200)))
			if !c.sleep(ctx, c.retryDelay) {
				return nil, ctx.Err()
			}
			continue
		}

		if !analysis.IsImportant {
			return nil, nil
		}
		return analysis, nil
	}

	c.logger.Warn("importance classification exhausted retries, using heuristic fallback")
	return heuristicAnalysis(text), nil
}

// sleep waits unless the context ends first.
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
