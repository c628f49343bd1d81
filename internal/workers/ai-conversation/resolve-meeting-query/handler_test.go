package resolvemeetingquery

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"resource-scheduling/internal/assistant"
	"resource-scheduling/internal/assistant/querybuilder"
	"resource-scheduling/internal/common/errors"
	"resource-scheduling/internal/common/logger"
	"resource-scheduling/internal/common/validation"
	"resource-scheduling/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

// Wednesday.
var referenceTime = time.Date(2025, time.March, 5, 9, 0, 0, 0, time.UTC)

func createTestConfig() *Config {
	return &Config{
		Timeout:   5 * time.Second,
		Assistant: assistant.DefaultConfig(),
		Now:       func() time.Time { return referenceTime },
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createTestHandler(t *testing.T) *Handler {
	return NewHandler(createTestConfig(), nil, createTestLogger(t))
}

func threshold(v float64) *float64 {
	return &v
}

func aliceTurn() models.ConversationTurn {
	return models.ConversationTurn{
		ID:            "turn-1",
		UserText:      "Is Alice busy on Monday?",
		AssistantText: "Alice has two meetings.",
		Intent:        models.Intent{Kind: models.IntentQuery, QueryType: models.QueryTypeLoadAnalysis, NeedsContext: true},
		Filters:       models.FilterSet{Name: "Alice", Weekday: "Monday", LoadThreshold: threshold(70)},
		Timestamp:     referenceTime,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:  "greeting returns a canned reply and no query",
			input: &Input{Utterance: "hello"},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.IntentChitchat, output.Intent.Kind)
				assert.NotEmpty(t, output.ChitchatReply)
				assert.Nil(t, output.QuerySpec)
				assert.Empty(t, output.Resolution)
			},
		},
		{
			name:  "busiest this week is aggregate",
			input: &Input{Utterance: "who is busiest this week?"},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.QueryTypeFindBusiest, output.Intent.QueryType)
				assert.True(t, output.Filters.Aggregate)
				assert.Empty(t, output.Filters.Name)
				assert.Equal(t, models.ResolutionFiltered, output.Resolution)
				require.NotNil(t, output.QuerySpec)
				assert.Len(t, output.QuerySpec.Predicates(), 2)
			},
		},
		{
			name:  "pronoun resolves from job history",
			input: &Input{Utterance: "what about her on friday?", History: []models.ConversationTurn{aliceTurn()}},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, "Alice", output.Filters.Name)
				assert.Equal(t, "Friday", output.Filters.Weekday)
				assert.False(t, output.Substituted)
			},
		},
		{
			name:  "empty follow-up substitutes the previous filters",
			input: &Input{Utterance: "and those?", History: []models.ConversationTurn{aliceTurn()}},
			validateOutput: func(t *testing.T, output *Output) {
				assert.True(t, output.Substituted)
				assert.Equal(t, aliceTurn().Filters, output.Filters)
				require.NotNil(t, output.QuerySpec)
				assert.Equal(t, querybuilder.DefaultLimit, output.QuerySpec.Limit())
			},
		},
		{
			name:  "no filters with a cached result in the workflow",
			input: &Input{Utterance: "show me the details", History: []models.ConversationTurn{aliceTurn()}, HasCachedResult: true},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.ResolutionCached, output.Resolution)
				assert.Nil(t, output.QuerySpec)
			},
		},
		{
			name:  "no filters and no cached result",
			input: &Input{Utterance: "show me the details", History: []models.ConversationTurn{aliceTurn()}},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, models.ResolutionRecent, output.Resolution)
				require.NotNil(t, output.QuerySpec)
				assert.Equal(t, querybuilder.FallbackLimit, output.QuerySpec.Limit())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := createTestHandler(t).Execute(tt.input)
			require.NoError(t, err)
			tt.validateOutput(t, output)
		})
	}
}

func TestHandler_Execute_EmptyUtterance(t *testing.T) {
	h := createTestHandler(t)

	for _, input := range []*Input{nil, {Utterance: "   "}} {
		_, err := h.Execute(input)
		assert.ErrorIs(t, err, ErrInputValidationFailed)
	}
}

func TestHandler_OutputRoundTrip(t *testing.T) {
	output, err := createTestHandler(t).Execute(&Input{Utterance: "Is Alice busy over 80%?"})
	require.NoError(t, err)

	data, err := json.Marshal(output)
	require.NoError(t, err)

	var decoded Output
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.QuerySpec)
	assert.Equal(t, output.QuerySpec.Params(), decoded.QuerySpec.Params())
	assert.Equal(t, output.QuerySpec.Predicates(), decoded.QuerySpec.Predicates())
}

// ==========================
// Input Validation Tests
// ==========================

func TestHandler_DecodeAndExecute(t *testing.T) {
	schema := map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"utterance"},
		"properties": map[string]interface{}{
			"utterance":       map[string]interface{}{"type": "string"},
			"history":         map[string]interface{}{"type": "array"},
			"hasCachedResult": map[string]interface{}{"type": "boolean"},
		},
	}
	validator, err := validation.NewValidator(schema)
	require.NoError(t, err)
	h := NewHandler(createTestConfig(), validator, createTestLogger(t))

	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{"valid", `{"utterance": "who is free on friday", "history": []}`, false},
		{"missing utterance", `{"history": []}`, true},
		{"wrong type", `{"utterance": "hi", "hasCachedResult": "no"}`, true},
		{"malformed json", `{"utterance": `, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.decodeAndExecute(tt.variables)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputValidationFailed)
				assert.Equal(t, errors.ErrCodeInputValidationFailed, toStandardError(err).Code)
				return
			}
			assert.NoError(t, err)
		})
	}
}
