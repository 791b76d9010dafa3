package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/xaenox/inbox-sentry/internal/models"
)

// maxBodyLength caps how much of a message body goes into a prompt.
const maxBodyLength = 1000

var (
	errEmptyResponse = errors.New("llm: empty completion response")
	errNoJSON        = errors.New("llm: no JSON object in response")

	fenceRe  = regexp.MustCompile("```(?:json|python)?\\s*")
	objectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// extractAnalysis pulls a structured analysis out of raw model output.
// Models wrap JSON in markdown fences or chatter around it often enough that
// unmarshalling the raw string directly is a losing game.
func extractAnalysis(raw string) (*models.Analysis, error) {
	cleaned := fenceRe.ReplaceAllString(raw, "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	match := objectRe.FindString(cleaned)
	if match == "" {
		return nil, errNoJSON
	}

	// Some models emit Python-style booleans.
	match = strings.ReplaceAll(match, ": True", ": true")
	match = strings.ReplaceAll(match, ": False", ": false")

	var analysis models.Analysis
	if err := json.Unmarshal([]byte(match), &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// sanitizeBody caps a body at the prompt length limit and strips non-printable
// characters that upset some endpoints.
func sanitizeBody(body string) string {
	s := strings.TrimSpace(body)
	if len(s) > maxBodyLength {
		s = s[:maxBodyLength]
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"2 January 2006",
}

// ParseDeadline converts a model-supplied deadline string into a timestamp.
// Models answer with anything from RFC3339 to "N/A"; unparseable input is
// simply no deadline.
func ParseDeadline(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "n/a") || strings.EqualFold(s, "none") || strings.EqualFold(s, "null") {
		return nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
