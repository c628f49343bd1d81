// internal/workers/ai-conversation/resolve-meeting-query/handler.go
package resolvemeetingquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"resource-scheduling/internal/assistant"
	"resource-scheduling/internal/assistant/memory"
	"resource-scheduling/internal/assistant/querybuilder"
	apperrors "resource-scheduling/internal/common/errors"
	"resource-scheduling/internal/common/logger"
	"resource-scheduling/internal/common/metrics"
	"resource-scheduling/internal/common/validation"
)

const (
	TaskType = "resolve-meeting-query"
)

var (
	ErrInputValidationFailed = errors.New("INPUT_VALIDATION_FAILED")
)

type Handler struct {
	config       *Config
	analyzer     *assistant.Analyzer
	validator    *validation.Validator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the handler. validator may be nil when the registry
// declares no input schema for the task.
func NewHandler(config *Config, validator *validation.Validator, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		analyzer:     assistant.NewAnalyzer(config.Assistant, config.Now),
		validator:    validator,
		errorHandler: apperrors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.decodeAndExecute(job.Variables)
	if err != nil {
		stdErr := toStandardError(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, stdErr)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) decodeAndExecute(variables string) (*Output, error) {
	if h.validator != nil {
		result, err := h.validator.Validate(variables)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInputValidationFailed, err)
		}
		if !result.Valid {
			return nil, fmt.Errorf("%w: %s", ErrInputValidationFailed, strings.Join(result.GetErrorMessages(), "; "))
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, fmt.Errorf("%w: parse input: %v", ErrInputValidationFailed, err)
	}
	return h.execute(&input)
}

func (h *Handler) execute(input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.Utterance) == "" {
		return nil, fmt.Errorf("%w: utterance is required", ErrInputValidationFailed)
	}

	mem := memory.FromTurns(h.config.Assistant.HistoryCapacity, input.History)
	view := cachedResultView{Memory: mem, hasCachedResult: input.HasCachedResult}

	analysis, err := h.analyzer.Analyze(input.Utterance, mem.Turns(), view)
	if err != nil {
		if errors.Is(err, querybuilder.ErrInvalidQuerySpec) || errors.Is(err, querybuilder.ErrUnknownDateRange) {
			return nil, fmt.Errorf("%w: %v", ErrInputValidationFailed, err)
		}
		return nil, err
	}

	h.logger.Debug("utterance resolved", map[string]interface{}{
		"kind":       string(analysis.Intent.Kind),
		"queryType":  string(analysis.Intent.QueryType),
		"resolution": string(analysis.Resolution.Kind),
		"historyLen": mem.Len(),
	})

	return &Output{
		Intent:        analysis.Intent,
		Filters:       analysis.Resolution.Filters,
		Resolution:    analysis.Resolution.Kind,
		Substituted:   analysis.Resolution.Substituted,
		QuerySpec:     analysis.Spec,
		ChitchatReply: analysis.Reply,
	}, nil
}

// cachedResultView answers from the rebuilt memory, except that whether a
// cached result exists is decided by the workflow.
type cachedResultView struct {
	*memory.Memory
	hasCachedResult bool
}

func (v cachedResultView) HasLastResult() bool {
	return v.hasCachedResult
}

func toStandardError(err error) *apperrors.StandardError {
	if errors.Is(err, ErrInputValidationFailed) {
		return apperrors.NewInputValidationFailedError(err.Error())
	}
	return apperrors.Normalize(err)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(input *Input) (*Output, error) {
	return h.execute(input)
}
