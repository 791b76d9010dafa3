package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAnalysisPlainJSON(t *testing.T) {
	raw := `{"is_important": true, "title": "Interview", "deadline": "2026-09-01", "action": "Reply", "summary": "You are invited."}`

	analysis, err := extractAnalysis(raw)
	require.NoError(t, err)
	assert.True(t, analysis.IsImportant)
	assert.Equal(t, "Interview", analysis.Title)
	assert.Equal(t, "2026-09-01", analysis.Deadline)
}

func TestExtractAnalysisStripsMarkdownFences(t *testing.T) {
	raw := "Here is the analysis:\n```json\n{\"is_important\": true, \"title\": \"Offer\", \"summary\": \"s\"}\n```\nHope that helps!"

	analysis, err := extractAnalysis(raw)
	require.NoError(t, err)
	assert.True(t, analysis.IsImportant)
	assert.Equal(t, "Offer", analysis.Title)
}

func TestExtractAnalysisPythonBooleans(t *testing.T) {
	raw := `{"is_important": True, "title": "OTP", "summary": "code"}`

	analysis, err := extractAnalysis(raw)
	require.NoError(t, err)
	assert.True(t, analysis.IsImportant)
}

func TestExtractAnalysisRejectsGarbage(t *testing.T) {
	_, err := extractAnalysis("I'm sorry, I cannot help with that.")
	assert.ErrorIs(t, err, errNoJSON)
}

func TestSanitizeBodyTruncatesAndStrips(t *testing.T) {
	long := strings.Repeat("a", maxBodyLength+500)
	assert.Len(t, sanitizeBody(long), maxBodyLength)

	assert.Equal(t, "hello world", sanitizeBody("hello\x00 world\x07"))
}

func TestParseDeadline(t *testing.T) {
	tests := []struct {
		in   string
		want *time.Time
	}{
		{"", nil},
		{"N/A", nil},
		{"none", nil},
		{"sometime soon", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDeadline(tt.in), "in=%q", tt.in)
	}

	got := ParseDeadline("2026-09-01")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), *got)

	got = ParseDeadline("2026-09-01T15:04:05Z")
	require.NotNil(t, got)
	assert.Equal(t, 15, got.Hour())

	got = ParseDeadline("September 1, 2026")
	require.NotNil(t, got)
	assert.Equal(t, time.September, got.Month())
}

func TestHeuristicAnalysis(t *testing.T) {
	analysis := heuristicAnalysis("You have been shortlisted for the final selection round.")
	require.NotNil(t, analysis)
	assert.True(t, analysis.IsImportant)
	assert.Equal(t, "Interview notification", analysis.Title)

	assert.Nil(t, heuristicAnalysis("Your weekly newsletter digest."))
}
