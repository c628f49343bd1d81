// internal/textgen/ollama.go
package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resource-scheduling/internal/common/config"
	httpclient "resource-scheduling/internal/common/http"
	"resource-scheduling/internal/common/logger"
	"resource-scheduling/internal/common/metrics"
)

const ollamaName = "Ollama"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// OllamaClient calls a local Ollama server's non-streaming chat endpoint.
type OllamaClient struct {
	config config.TextGenConfig
	http   *httpclient.Client
	logger logger.Logger
}

func NewOllamaClient(cfg config.TextGenConfig, log logger.Logger, opts ...httpclient.Option) *OllamaClient {
	opts = append([]httpclient.Option{httpclient.WithRetries(cfg.MaxRetries, 200*time.Millisecond)}, opts...)
	return &OllamaClient{
		config: cfg,
		http:   httpclient.NewClient(opts...),
		logger: log.WithFields(map[string]interface{}{"generator": ollamaName, "model": cfg.Model}),
	}
}

func (c *OllamaClient) Name() string {
	return ollamaName
}

func (c *OllamaClient) Generate(ctx context.Context, req Request) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.GetDuration(c.config.Timeout))
		defer cancel()
	}

	body := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(req.QueryType)},
			{Role: "user", Content: UserPrompt(req)},
		},
		Stream: false,
		Options: chatOptions{
			Temperature: c.config.Temperature,
			NumPredict:  c.config.MaxTokens,
		},
	}

	start := time.Now()
	var resp chatResponse
	err := c.http.PostJSON(ctx, strings.TrimRight(c.config.BaseURL, "/")+"/api/chat", body, &resp)
	if err != nil {
		metrics.GenerationFailures.WithLabelValues(ollamaName).Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrLLMTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrLLMSynthesisFailed, err)
	}

	content := strings.TrimSpace(resp.Message.Content)
	if content == "" {
		metrics.GenerationFailures.WithLabelValues(ollamaName).Inc()
		return "", fmt.Errorf("%w: empty response", ErrLLMSynthesisFailed)
	}

	c.logger.Debug("generation completed", map[string]interface{}{
		"queryType":  string(req.QueryType),
		"durationMs": time.Since(start).Milliseconds(),
		"chars":      len(content),
	})

	return content, nil
}
