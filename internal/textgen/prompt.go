// internal/textgen/prompt.go
package textgen

import (
	"fmt"

	"resource-scheduling/internal/models"
)

const baseSystemPrompt = `You are Slipstream's Meeting Assistant. You help users understand and manage their meeting schedules.

Key behaviors:
- Answer naturally and conversationally
- Reference previous conversation when relevant
- Be specific with dates, times, and names
- If data is missing, acknowledge it clearly
- Don't apologize for being an AI
- Keep responses concise but complete`

var queryTypeGuidance = map[models.QueryType]string{
	models.QueryTypeLoadAnalysis: "\n- Focus on workload and busy periods",
	models.QueryTypeAvailability: "\n- Identify free time slots and gaps",
	models.QueryTypeComparison:   "\n- Compare schedules or patterns",
}

// SystemPrompt returns the assistant persona with any query type guidance.
func SystemPrompt(queryType models.QueryType) string {
	return baseSystemPrompt + queryTypeGuidance[queryType]
}

// UserPrompt lays out evidence, history and the question.
func UserPrompt(req Request) string {
	return fmt.Sprintf(
		"Context from database:\n%s\n\n%s\n\nCurrent question: %s\n\nProvide a helpful, natural response based on the context above.",
		req.Context, req.History, req.Utterance,
	)
}
