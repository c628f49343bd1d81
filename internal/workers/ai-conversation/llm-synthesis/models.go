// internal/workers/ai-conversation/llm-synthesis/models.go
package llmsynthesis

import "resource-scheduling/internal/models"

type Input struct {
	Utterance        string                    `json:"utterance"`
	QueryType        models.QueryType          `json:"queryType"`
	FormattedContext string                    `json:"formattedContext"`
	History          []models.ConversationTurn `json:"history,omitempty"`
}

type Output struct {
	Reply            string `json:"reply"`
	GenerationFailed bool   `json:"generationFailed"`
	Generator        string `json:"generator"`
}
