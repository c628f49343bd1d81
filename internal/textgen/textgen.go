// internal/textgen/textgen.go
package textgen

import (
	"context"
	"errors"

	"resource-scheduling/internal/models"
)

var (
	ErrLLMTimeout         = errors.New("LLM_TIMEOUT")
	ErrLLMSynthesisFailed = errors.New("LLM_SYNTHESIS_FAILED")
)

// Request is everything a generator needs to answer one turn.
type Request struct {
	QueryType models.QueryType `json:"queryType"`
	Context   string           `json:"context"`
	History   string           `json:"history"`
	Utterance string           `json:"utterance"`
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	// Name identifies the generator in user-facing error replies.
	Name() string
}
