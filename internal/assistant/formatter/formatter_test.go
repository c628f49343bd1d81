package formatter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"resource-scheduling/internal/models"
)

func float(v float64) *float64 {
	return &v
}

func TestFormatContext_Empty(t *testing.T) {
	assert.Equal(t, "No meeting data found.", FormatContext(nil, DefaultMaxRows))
	assert.Equal(t, NoDataMessage, FormatContext([]models.MeetingRecord{}, 5))
}

func TestFormatRecord(t *testing.T) {
	tests := []struct {
		name     string
		record   models.MeetingRecord
		expected string
	}{
		{
			name: "with summary",
			record: models.MeetingRecord{
				UserEmail: "alice@example.com", FirstName: "Alice", Date: "2025-03-10",
				StartTime: "09:00", EndTime: "10:00", Subject: "Standup",
				LoadPercentage: float(85), Summary: "Alice is heavily booked on Monday.",
			},
			expected: "• Alice | 2025-03-10 09:00-10:00 | Standup | Load: 85% | Alice is heavily booked on Monday.",
		},
		{
			name: "email fallback and band",
			record: models.MeetingRecord{
				UserEmail: "bob@example.com", Date: "2025-03-11",
				StartTime: "13:00", EndTime: "13:30", Subject: "1:1", LoadPercentage: float(42.5),
			},
			expected: "• bob@example.com | 2025-03-11 13:00-13:30 | 1:1 | Load: 42.5% | Moderate",
		},
		{
			name: "band replaces absent summary at the top boundary",
			record: models.MeetingRecord{
				FirstName: "Dana", Date: "2025-03-13", StartTime: "10:00", EndTime: "11:00",
				Subject: "Review", LoadPercentage: float(80),
			},
			expected: "• Dana | 2025-03-13 10:00-11:00 | Review | Load: 80% | Very Busy",
		},
		{
			name: "missing load",
			record: models.MeetingRecord{
				FirstName: "Carol", Date: "2025-03-12", StartTime: "08:00", EndTime: "08:15", Subject: "Sync",
			},
			expected: "• Carol | 2025-03-12 08:00-08:15 | Sync | Load: n/a%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatRecord(tt.record))
		})
	}
}

func TestFormatContext_TruncatesToPrefix(t *testing.T) {
	var records []models.MeetingRecord
	for i := 0; i < 5; i++ {
		records = append(records, models.MeetingRecord{FirstName: fmt.Sprintf("P%d", i)})
	}

	out := FormatContext(records, 3)
	lines := strings.Split(out, "\n")

	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "• P0 |"))
	assert.True(t, strings.HasPrefix(lines[2], "• P2 |"))
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "", FormatHistory(nil, 3))

	var turns []models.ConversationTurn
	for i := 1; i <= 4; i++ {
		turns = append(turns, models.ConversationTurn{
			UserText:      fmt.Sprintf("q%d", i),
			AssistantText: fmt.Sprintf("a%d", i),
		})
	}

	expected := strings.Join([]string{
		"Previous conversation:",
		"User: q2", "Assistant: a2",
		"User: q3", "Assistant: a3",
		"User: q4", "Assistant: a4",
	}, "\n")
	assert.Equal(t, expected, FormatHistory(turns, 3))
}
