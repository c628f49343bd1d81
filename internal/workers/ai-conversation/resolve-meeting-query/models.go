// internal/workers/ai-conversation/resolve-meeting-query/models.go
package resolvemeetingquery

import (
	"resource-scheduling/internal/assistant/querybuilder"
	"resource-scheduling/internal/models"
)

// Input carries one utterance and the conversation so far. The workflow
// owns the history; the worker keeps nothing between jobs.
type Input struct {
	Utterance       string                    `json:"utterance"`
	History         []models.ConversationTurn `json:"history,omitempty"`
	HasCachedResult bool                      `json:"hasCachedResult"`
}

type Output struct {
	Intent        models.Intent           `json:"intent"`
	Filters       models.FilterSet        `json:"filters"`
	Resolution    models.Resolution       `json:"resolution,omitempty"`
	Substituted   bool                    `json:"substituted"`
	QuerySpec     *querybuilder.QuerySpec `json:"querySpec,omitempty"`
	ChitchatReply string                  `json:"chitchatReply,omitempty"`
}
