// internal/assistant/formatter/formatter.go
package formatter

import (
	"strconv"
	"strings"

	"resource-scheduling/internal/models"
)

const (
	DefaultMaxRows         = 100
	DefaultMaxHistoryTurns = 3

	NoDataMessage = "No meeting data found."
	historyHeader = "Previous conversation:"
)

// FormatContext renders at most maxRows records, one line each.
func FormatContext(records []models.MeetingRecord, maxRows int) string {
	if len(records) == 0 {
		return NoDataMessage
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if len(records) > maxRows {
		records = records[:maxRows]
	}

	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, FormatRecord(r))
	}
	return strings.Join(lines, "\n")
}

// FormatRecord renders one record as
// "• person | date start-end | subject | Load: n% | summary".
// A record without a summary but with a load gets its load band
// (Very Busy, Busy, Moderate, Light) in the summary slot; with neither,
// the line ends after the load.
func FormatRecord(r models.MeetingRecord) string {
	var b strings.Builder
	b.WriteString("• ")
	b.WriteString(r.Person())
	b.WriteString(" | ")
	b.WriteString(r.Date)
	b.WriteString(" ")
	b.WriteString(r.StartTime)
	b.WriteString("-")
	b.WriteString(r.EndTime)
	b.WriteString(" | ")
	b.WriteString(r.Subject)
	b.WriteString(" | Load: ")
	b.WriteString(formatLoad(r.LoadPercentage))
	b.WriteString("%")

	switch {
	case r.Summary != "":
		b.WriteString(" | ")
		b.WriteString(r.Summary)
	case r.LoadPercentage != nil:
		b.WriteString(" | ")
		b.WriteString(r.LoadBand())
	}
	return b.String()
}

// FormatHistory renders the newest maxTurns turns for a prompt. An empty
// history renders as an empty string.
func FormatHistory(turns []models.ConversationTurn, maxTurns int) string {
	if len(turns) == 0 {
		return ""
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxHistoryTurns
	}
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	lines := []string{historyHeader}
	for _, t := range turns {
		lines = append(lines, "User: "+t.UserText, "Assistant: "+t.AssistantText)
	}
	return strings.Join(lines, "\n")
}

func formatLoad(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
