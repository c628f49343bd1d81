// internal/workers/data-access/query-meetings/config.go
package querymeetings

import (
	"time"

	"resource-scheduling/internal/assistant/formatter"
)

type Config struct {
	Timeout        time.Duration
	MaxContextRows int
	// Backend names the store in logs and error details.
	Backend string
	// Index is reported in search error codes when Backend is elasticsearch.
	Index string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		MaxContextRows: formatter.DefaultMaxRows,
		Backend:        "postgres",
	}
}
