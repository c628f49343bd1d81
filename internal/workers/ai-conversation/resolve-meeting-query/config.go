// internal/workers/ai-conversation/resolve-meeting-query/config.go
package resolvemeetingquery

import (
	"time"

	"resource-scheduling/internal/assistant"
)

type Config struct {
	Timeout   time.Duration
	Assistant assistant.Config
	// Now is the reference clock for relative dates. Nil means time.Now.
	Now func() time.Time
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   5 * time.Second,
		Assistant: assistant.DefaultConfig(),
	}
}
