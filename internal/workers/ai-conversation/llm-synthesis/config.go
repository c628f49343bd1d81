// internal/workers/ai-conversation/llm-synthesis/config.go
package llmsynthesis

import (
	"time"

	"resource-scheduling/internal/assistant/formatter"
)

type Config struct {
	Timeout            time.Duration
	PromptHistoryTurns int
	// FailOnError throws LLM_TIMEOUT / LLM_SYNTHESIS_FAILED instead of
	// completing the job with an error reply.
	FailOnError bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:            60 * time.Second,
		PromptHistoryTurns: formatter.DefaultMaxHistoryTurns,
	}
}
