// internal/assistant/assistant.go
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"resource-scheduling/internal/assistant/formatter"
	"resource-scheduling/internal/assistant/memory"
	"resource-scheduling/internal/assistant/querybuilder"
	"resource-scheduling/internal/common/logger"
	"resource-scheduling/internal/common/metrics"
	"resource-scheduling/internal/models"
	"resource-scheduling/internal/textgen"
)

var ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")

// MeetingStore executes compiled meeting queries.
type MeetingStore interface {
	FetchMeetings(ctx context.Context, spec querybuilder.QuerySpec) ([]models.MeetingRecord, error)
}

// TurnRecorder receives one observation per finished turn.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, kind, resolution, outcome string, duration time.Duration)
}

type Option func(*Assistant)

// WithClock sets the reference time for relative dates and timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

func WithRecorder(r TurnRecorder) Option {
	return func(a *Assistant) { a.recorder = r }
}

// TurnResult describes a completed turn.
type TurnResult struct {
	Turn             models.ConversationTurn `json:"turn"`
	Resolution       models.Resolution       `json:"resolution,omitempty"`
	RowCount         int                     `json:"rowCount"`
	Context          string                  `json:"context,omitempty"`
	GenerationFailed bool                    `json:"generationFailed"`
}

func (r *TurnResult) Reply() string {
	return r.Turn.AssistantText
}

// Assistant runs the turns of one conversation. It is not safe for
// concurrent use.
type Assistant struct {
	cfg       Config
	store     MeetingStore
	generator textgen.Generator
	memory    *memory.Memory
	analyzer  *Analyzer
	recorder  TurnRecorder
	now       func() time.Time
	sessionID string
	logger    logger.Logger
}

func New(cfg Config, store MeetingStore, gen textgen.Generator, log logger.Logger, opts ...Option) *Assistant {
	a := &Assistant{
		cfg:       cfg,
		store:     store,
		generator: gen,
		memory:    memory.New(cfg.HistoryCapacity),
		now:       time.Now,
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.analyzer = NewAnalyzer(cfg, a.now)
	a.logger = log.WithFields(map[string]interface{}{"sessionId": a.sessionID})
	return a
}

func (a *Assistant) SessionID() string {
	return a.sessionID
}

// History returns the recorded turns, oldest first.
func (a *Assistant) History() []models.ConversationTurn {
	return a.memory.Turns()
}

// Clear forgets the conversation, the cached result and the last filters.
func (a *Assistant) Clear() {
	a.memory.Clear()
	a.logger.Info("conversation cleared", nil)
}

// Analyze reports how an utterance would be handled without running it.
func (a *Assistant) Analyze(utterance string) (*Analysis, error) {
	return a.analyzer.Analyze(utterance, a.memory.Turns(), a.memory)
}

// ProcessTurn answers one utterance. A store failure is returned as an
// error wrapping ErrQueryExecutionFailed and the turn is not recorded; a
// generation failure becomes the reply and the turn is recorded.
func (a *Assistant) ProcessTurn(ctx context.Context, utterance string) (*TurnResult, error) {
	start := time.Now()

	analysis, err := a.Analyze(utterance)
	if err != nil {
		a.record(ctx, "query", "", "error", start)
		return nil, err
	}

	in := analysis.Intent
	a.logger.Debug("intent classified", map[string]interface{}{
		"kind":       string(in.Kind),
		"queryType":  string(in.QueryType),
		"isFollowUp": in.IsFollowUp,
	})

	if in.IsChitchat() {
		turn := a.appendTurn(utterance, analysis.Reply, in, models.FilterSet{})
		metrics.AssistantTurns.WithLabelValues(string(in.Kind), "").Inc()
		a.record(ctx, string(in.Kind), "", "ok", start)
		return &TurnResult{Turn: turn}, nil
	}

	res := analysis.Resolution
	a.logger.Debug("filters resolved", map[string]interface{}{
		"resolution":  string(res.Kind),
		"filters":     res.Filters,
		"substituted": res.Substituted,
	})

	var records []models.MeetingRecord
	switch res.Kind {
	case models.ResolutionCached:
		if last, ok := a.memory.LastResult(); ok {
			records = last.Records
		}
	default:
		records, err = a.store.FetchMeetings(ctx, *analysis.Spec)
		if err != nil {
			a.logger.Error("meeting query failed", map[string]interface{}{
				"resolution": string(res.Kind),
				"error":      err.Error(),
			})
			a.record(ctx, string(in.Kind), string(res.Kind), "error", start)
			return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
		}
		if res.Kind == models.ResolutionFiltered {
			a.memory.SetLastResult(in, records)
		}
	}

	evidence := formatter.FormatContext(records, a.cfg.MaxContextRows)
	history := formatter.FormatHistory(a.memory.Recent(a.cfg.PromptHistoryTurns), a.cfg.PromptHistoryTurns)

	a.logger.Debug("context formatted", map[string]interface{}{
		"rows":          len(records),
		"contextLength": len(evidence),
	})

	generationFailed := false
	reply, err := a.generator.Generate(ctx, textgen.Request{
		QueryType: in.QueryType,
		Context:   evidence,
		History:   history,
		Utterance: utterance,
	})
	if err != nil {
		generationFailed = true
		reply = fmt.Sprintf("Error calling %s: %v", a.generator.Name(), err)
		a.logger.Warn("generation failed", map[string]interface{}{"error": err.Error()})
	}

	turn := a.appendTurn(utterance, reply, in, res.Filters)
	a.memory.SetLastIntent(in, res.Filters)

	metrics.AssistantTurns.WithLabelValues(string(in.Kind), string(in.QueryType)).Inc()
	metrics.AssistantResolutions.WithLabelValues(string(res.Kind)).Inc()
	a.record(ctx, string(in.Kind), string(res.Kind), "ok", start)

	return &TurnResult{
		Turn:             turn,
		Resolution:       res.Kind,
		RowCount:         len(records),
		Context:          evidence,
		GenerationFailed: generationFailed,
	}, nil
}

func (a *Assistant) appendTurn(utterance, reply string, in models.Intent, filters models.FilterSet) models.ConversationTurn {
	turn := models.ConversationTurn{
		ID:            uuid.NewString(),
		UserText:      utterance,
		AssistantText: reply,
		Intent:        in,
		Filters:       filters.Clone(),
		Timestamp:     a.now(),
	}
	a.memory.Append(turn)
	return turn
}

func (a *Assistant) record(ctx context.Context, kind, resolution, outcome string, start time.Time) {
	if a.recorder != nil {
		a.recorder.RecordTurn(ctx, kind, resolution, outcome, time.Since(start))
	}
}
