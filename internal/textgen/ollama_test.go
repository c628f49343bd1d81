package textgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"resource-scheduling/internal/common/config"
	"resource-scheduling/internal/common/logger"
	"resource-scheduling/internal/models"
)

func createTestConfig(baseURL string) config.TextGenConfig {
	return config.TextGenConfig{
		BaseURL:     baseURL,
		Model:       "llama3.2",
		Timeout:     5000,
		MaxRetries:  1,
		Temperature: 0.2,
		MaxTokens:   256,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func TestOllamaClient_Generate(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"message": {"role": "assistant", "content": "  Alice is busiest on Monday.  "}, "done": true}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(createTestConfig(srv.URL+"/"), createTestLogger(t))
	reply, err := c.Generate(context.Background(), Request{
		QueryType: models.QueryTypeLoadAnalysis,
		Context:   "• Alice | 2025-03-10 09:00-10:00 | Standup | Load: 85%",
		History:   "",
		Utterance: "is Alice busy on Monday",
	})

	require.NoError(t, err)
	assert.Equal(t, "Alice is busiest on Monday.", reply)

	assert.Equal(t, "llama3.2", captured.Model)
	assert.False(t, captured.Stream)
	assert.Equal(t, 256, captured.Options.NumPredict)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.True(t, strings.HasSuffix(captured.Messages[0].Content, "- Focus on workload and busy periods"))
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Contains(t, captured.Messages[1].Content, "Current question: is Alice busy on Monday")
}

func TestOllamaClient_RetriesThenFails(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOllamaClient(createTestConfig(srv.URL), createTestLogger(t))
	_, err := c.Generate(context.Background(), Request{Utterance: "hello?"})

	assert.ErrorIs(t, err, ErrLLMSynthesisFailed)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOllamaClient_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": {"role": "assistant", "content": ""}, "done": true}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(createTestConfig(srv.URL), createTestLogger(t))
	_, err := c.Generate(context.Background(), Request{Utterance: "anything"})

	assert.ErrorIs(t, err, ErrLLMSynthesisFailed)
}

func TestOllamaClient_Name(t *testing.T) {
	c := NewOllamaClient(createTestConfig("http://localhost:11434"), logger.NewNoOpLogger())
	assert.Equal(t, "Ollama", c.Name())
}

// ==========================
// Prompts
// ==========================

func TestSystemPrompt(t *testing.T) {
	general := SystemPrompt(models.QueryTypeGeneral)
	assert.True(t, strings.HasPrefix(general, "You are Slipstream's Meeting Assistant."))
	assert.True(t, strings.HasSuffix(general, "- Keep responses concise but complete"))

	assert.True(t, strings.HasSuffix(SystemPrompt(models.QueryTypeAvailability), "- Identify free time slots and gaps"))
	assert.True(t, strings.HasSuffix(SystemPrompt(models.QueryTypeComparison), "- Compare schedules or patterns"))
}

func TestUserPrompt(t *testing.T) {
	got := UserPrompt(Request{
		Context:   "No meeting data found.",
		History:   "Previous conversation:\nUser: hi\nAssistant: hello",
		Utterance: "who is free on Friday",
	})

	expected := "Context from database:\nNo meeting data found.\n\n" +
		"Previous conversation:\nUser: hi\nAssistant: hello\n\n" +
		"Current question: who is free on Friday\n\n" +
		"Provide a helpful, natural response based on the context above."
	assert.Equal(t, expected, got)
}
