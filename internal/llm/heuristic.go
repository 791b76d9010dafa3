package llm

import (
	"strings"

	"github.com/xaenox/inbox-sentry/internal/models"
)

// categoryKeywords mirrors the kinds of mail the model is asked to surface.
// The heuristic exists so an unreachable model degrades to keyword matching
// instead of dropping everything on the floor.
var categoryKeywords = map[string][]string{
	"internship": {"internship", "intern", "apply", "opening"},
	"job":        {"job", "career", "opportunity", "position"},
	"event":      {"event", "webinar", "session", "workshop"},
	"meeting":    {"meeting", "zoom", "google meet", "calendar"},
	"interview":  {"interview", "shortlisted", "selection"},
}

// heuristicAnalysis classifies by keyword when the model is unavailable.
// Returns nil when nothing matches, same contract as the model path.
func heuristicAnalysis(text string) *models.Analysis {
	lower := strings.ToLower(text)

	category := ""
	for cat, keywords := range categoryKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				category = cat
				break
			}
		}
		if category != "" {
			break
		}
	}
	if category == "" {
		return nil
	}

	summary := strings.Join(strings.Fields(text), " ")
	if len(summary) > 100 {
		summary = summary[:100]
	}

	return &models.Analysis{
		IsImportant: true,
		Title:       strings.ToUpper(category[:1]) + category[1:] + " notification",
		Action:      "Review this message",
		Summary:     summary,
	}
}
