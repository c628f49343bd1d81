// internal/assistant/analyzer.go
package assistant

import (
	"time"

	"resource-scheduling/internal/assistant/entities"
	"resource-scheduling/internal/assistant/intent"
	"resource-scheduling/internal/assistant/querybuilder"
	"resource-scheduling/internal/assistant/resolver"
	"resource-scheduling/internal/common/config"
	"resource-scheduling/internal/models"
)

// Config holds the engine limits. It is copied into each component.
type Config struct {
	DefaultLimit       int
	FallbackLimit      int
	MaxContextRows     int
	HistoryCapacity    int
	PromptHistoryTurns int
	NameLookbackTurns  int
}

func DefaultConfig() Config {
	return Config{
		DefaultLimit:       querybuilder.DefaultLimit,
		FallbackLimit:      querybuilder.FallbackLimit,
		MaxContextRows:     100,
		HistoryCapacity:    10,
		PromptHistoryTurns: 3,
		NameLookbackTurns:  entities.DefaultNameLookback,
	}
}

// ConfigFrom maps the assistant section of the application config, keeping
// defaults for unset values.
func ConfigFrom(c config.AssistantConfig) Config {
	cfg := DefaultConfig()
	if c.DefaultLimit > 0 {
		cfg.DefaultLimit = c.DefaultLimit
	}
	if c.FallbackLimit > 0 {
		cfg.FallbackLimit = c.FallbackLimit
	}
	if c.MaxContextRows > 0 {
		cfg.MaxContextRows = c.MaxContextRows
	}
	if c.HistoryCapacity > 0 {
		cfg.HistoryCapacity = c.HistoryCapacity
	}
	if c.PromptHistoryTurns > 0 {
		cfg.PromptHistoryTurns = c.PromptHistoryTurns
	}
	if c.NameLookbackTurns > 0 {
		cfg.NameLookbackTurns = c.NameLookbackTurns
	}
	return cfg
}

// Analysis is everything decided about a turn before any data is fetched.
type Analysis struct {
	Intent     models.Intent           `json:"intent"`
	Extracted  models.FilterSet        `json:"extracted"`
	Resolution resolver.Resolution     `json:"resolution"`
	Spec       *querybuilder.QuerySpec `json:"querySpec,omitempty"`
	Reply      string                  `json:"chitchatReply,omitempty"`
}

// Analyzer classifies, extracts, resolves and compiles a single utterance.
// It keeps no per-session state.
type Analyzer struct {
	cfg       Config
	extractor *entities.Extractor
	builder   *querybuilder.Builder
}

func NewAnalyzer(cfg Config, now func() time.Time) *Analyzer {
	return &Analyzer{
		cfg:       cfg,
		extractor: entities.NewExtractor(now, cfg.NameLookbackTurns),
		builder:   querybuilder.NewBuilder(now),
	}
}

// Analyze runs the pure part of a turn. history is the transcript before
// this utterance; mem answers the resolver's questions about it.
func (z *Analyzer) Analyze(utterance string, history []models.ConversationTurn, mem resolver.MemoryView) (*Analysis, error) {
	in := intent.Classify(utterance)
	if in.IsChitchat() {
		return &Analysis{Intent: in, Reply: CannedReply(in.Chitchat)}, nil
	}

	extracted := z.extractor.Extract(utterance, in, history)
	res := resolver.Resolve(extracted, in.IsFollowUp, mem)

	analysis := &Analysis{Intent: in, Extracted: extracted, Resolution: res}

	switch res.Kind {
	case models.ResolutionFiltered:
		spec, err := z.builder.Build(res.Filters, z.cfg.DefaultLimit)
		if err != nil {
			return nil, err
		}
		analysis.Spec = &spec
	case models.ResolutionRecent:
		spec := z.builder.Recent(z.cfg.FallbackLimit)
		analysis.Spec = &spec
	}

	return analysis, nil
}
