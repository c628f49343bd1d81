// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"resource-scheduling/internal/assistant"
	"resource-scheduling/internal/common/config"
	"resource-scheduling/internal/common/logger"
	"resource-scheduling/internal/common/validation"
	"resource-scheduling/internal/models"
	"resource-scheduling/internal/store"
	"resource-scheduling/internal/textgen"

	llmsynthesis "resource-scheduling/internal/workers/ai-conversation/llm-synthesis"
	resolvemeetingquery "resource-scheduling/internal/workers/ai-conversation/resolve-meeting-query"
	querymeetings "resource-scheduling/internal/workers/data-access/query-meetings"
)

// 2025-03-05 is a Wednesday.
var referenceTime = time.Date(2025, time.March, 5, 10, 0, 0, 0, time.Local)

// ==========================
// Fixtures
// ==========================

func seedMeetings(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE meetings (
		user_email TEXT, first_name TEXT, date TEXT, weekday TEXT,
		start_time TEXT, end_time TEXT, meeting_subject TEXT,
		load_percentage REAL, summary_sentence TEXT)`)
	require.NoError(t, err)

	rows := [][]interface{}{
		{"alice@example.com", "Alice", "2025-03-10", "Monday", "09:00", "10:00", "Standup", 85.0, "Alice is fully booked."},
		{"alice@example.com", "Alice", "2025-03-10", "Monday", "14:00", "15:30", "Planning", 85.0, nil},
		{"alice@example.com", "Alice", "2025-03-12", "Wednesday", "11:00", "12:00", "Review", 40.0, nil},
		{"bob@example.com", "Bob", "2025-03-04", "Tuesday", "11:00", "12:00", "1:1", 55.0, nil},
	}
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO meetings VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, r...)
		require.NoError(t, err)
	}
}

type ollamaStub struct {
	mu       sync.Mutex
	prompts  []string
	reply    string
	failWith int
}

func (o *ollamaStub) handler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if len(req.Messages) > 0 {
		o.prompts = append(o.prompts, req.Messages[len(req.Messages)-1].Content)
	}
	if o.failWith != 0 {
		http.Error(w, "model not loaded", o.failWith)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": map[string]string{"role": "assistant", "content": o.reply},
		"done":    true,
	})
}

func (o *ollamaStub) lastPrompt() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.prompts) == 0 {
		return ""
	}
	return o.prompts[len(o.prompts)-1]
}

type environment struct {
	cfg     *config.Config
	backend *store.Backend
	redis   *miniredis.Miniredis
	ollama  *ollamaStub
	log     logger.Logger
}

func setupEnvironment(t *testing.T) *environment {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "meetings.db")
	seedMeetings(t, dbPath)

	mr := miniredis.RunT(t)

	stub := &ollamaStub{reply: "Alice has two heavy meetings on Monday."}
	srv := httptest.NewServer(http.HandlerFunc(stub.handler))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Backend:      config.BackendSQLite,
			QueryTimeout: 5000,
			SQLite:       config.SQLiteConfig{Path: dbPath},
			Redis:        config.RedisConfig{Address: mr.Addr()},
		},
		Cache: config.CacheConfig{Enabled: true, TTL: 60, KeyPrefix: "meetings:query:"},
		Assistant: config.AssistantConfig{
			Table:              "meetings",
			DefaultLimit:       200,
			FallbackLimit:      50,
			MaxContextRows:     100,
			HistoryCapacity:    10,
			PromptHistoryTurns: 3,
			NameLookbackTurns:  3,
		},
		TextGen: config.TextGenConfig{
			BaseURL:    srv.URL,
			Model:      "llama3.2",
			Timeout:    5000,
			MaxRetries: 1,
		},
	}

	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	backend, err := store.FromConfig(*cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	require.NoError(t, backend.Ping(context.Background()))

	return &environment{cfg: cfg, backend: backend, redis: mr, ollama: stub, log: log}
}

func (e *environment) newAssistant() *assistant.Assistant {
	return assistant.New(
		assistant.ConfigFrom(e.cfg.Assistant),
		e.backend.Store,
		textgen.NewOllamaClient(e.cfg.TextGen, e.log),
		e.log,
		assistant.WithClock(func() time.Time { return referenceTime }),
	)
}

// ==========================
// Interactive session
// ==========================

func TestE2E_InteractiveSession(t *testing.T) {
	env := setupEnvironment(t)

	in := strings.NewReader(strings.Join([]string{
		"hello",
		"Is Alice busy on Monday?",
		"and those?",
		"quit",
	}, "\n"))
	var out bytes.Buffer

	a := env.newAssistant()
	require.NoError(t, assistant.NewSession(a, in, &out).Run(context.Background()))

	transcript := out.String()
	assert.Contains(t, transcript, assistant.Banner)
	assert.Contains(t, transcript, "Assistant: "+assistant.CannedReply(models.ChitchatGreeting))
	assert.Contains(t, transcript, "Assistant: Alice has two heavy meetings on Monday.")
	assert.Contains(t, transcript, "Goodbye!")

	prompt := env.ollama.lastPrompt()
	assert.Contains(t, prompt, "Standup")
	assert.Contains(t, prompt, "Planning")
	assert.NotContains(t, prompt, "Review", "load threshold drops the 40% meeting")
	assert.NotContains(t, prompt, "Bob")

	history := a.History()
	require.Len(t, history, 3)
	assert.Equal(t, "Alice", history[2].Filters.Name, "follow-up reuses the previous filters")

	assert.NotEmpty(t, env.redis.Keys(), "filtered results are cached in redis")
}

func TestE2E_GenerationFailureIsReported(t *testing.T) {
	env := setupEnvironment(t)
	env.ollama.failWith = http.StatusInternalServerError

	a := env.newAssistant()
	result, err := a.ProcessTurn(context.Background(), "Is Alice busy on Monday?")
	require.NoError(t, err)

	assert.True(t, result.GenerationFailed)
	assert.True(t, strings.HasPrefix(result.Reply(), "Error calling Ollama:"))
	assert.Equal(t, 2, result.RowCount)
	assert.Len(t, a.History(), 1)
}

// ==========================
// Worker pipeline
// ==========================

func TestE2E_WorkerPipeline(t *testing.T) {
	env := setupEnvironment(t)
	ctx := context.Background()
	engineCfg := assistant.ConfigFrom(env.cfg.Assistant)

	noSchema, err := validation.NewValidator(nil)
	require.NoError(t, err)

	resolver := resolvemeetingquery.NewHandler(&resolvemeetingquery.Config{
		Timeout:   5 * time.Second,
		Assistant: engineCfg,
		Now:       func() time.Time { return referenceTime },
	}, noSchema, env.log)

	query := querymeetings.NewHandler(&querymeetings.Config{
		Timeout:        5 * time.Second,
		MaxContextRows: engineCfg.MaxContextRows,
		Backend:        env.cfg.Database.Backend,
	}, env.backend.Store, noSchema, env.log)

	synth := llmsynthesis.NewHandler(&llmsynthesis.Config{
		Timeout:            5 * time.Second,
		PromptHistoryTurns: engineCfg.PromptHistoryTurns,
	}, textgen.NewOllamaClient(env.cfg.TextGen, env.log), noSchema, env.log)

	resolved, err := resolver.Execute(&resolvemeetingquery.Input{Utterance: "Is Alice busy on Monday?"})
	require.NoError(t, err)
	require.Equal(t, models.ResolutionFiltered, resolved.Resolution)
	require.NotNil(t, resolved.QuerySpec)

	// round-trip through job variables as the engine would
	raw, err := json.Marshal(map[string]interface{}{"querySpec": resolved.QuerySpec})
	require.NoError(t, err)
	var queryInput querymeetings.Input
	require.NoError(t, json.Unmarshal(raw, &queryInput))

	fetched, err := query.Execute(ctx, &queryInput)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched.RowCount)
	assert.Contains(t, fetched.FormattedContext, "Standup")

	synthesized, err := synth.Execute(ctx, &llmsynthesis.Input{
		Utterance:        "Is Alice busy on Monday?",
		QueryType:        resolved.Intent.QueryType,
		FormattedContext: fetched.FormattedContext,
	})
	require.NoError(t, err)
	assert.False(t, synthesized.GenerationFailed)
	assert.Equal(t, "Alice has two heavy meetings on Monday.", synthesized.Reply)
	assert.Equal(t, "Ollama", synthesized.Generator)
}
