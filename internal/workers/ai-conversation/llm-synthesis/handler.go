// internal/workers/ai-conversation/llm-synthesis/handler.go
package llmsynthesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"resource-scheduling/internal/assistant/formatter"
	apperrors "resource-scheduling/internal/common/errors"
	"resource-scheduling/internal/common/logger"
	"resource-scheduling/internal/common/metrics"
	"resource-scheduling/internal/common/validation"
	"resource-scheduling/internal/models"
	"resource-scheduling/internal/textgen"
)

const (
	TaskType = "llm-synthesis"
)

var (
	ErrInputValidationFailed = errors.New("INPUT_VALIDATION_FAILED")
)

type Handler struct {
	config       *Config
	generator    textgen.Generator
	validator    *validation.Validator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, generator textgen.Generator, validator *validation.Validator, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType, "generator": generator.Name()})
	return &Handler{
		config:       config,
		generator:    generator,
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

	output, err := h.decodeAndExecute(ctx, job.Variables)
	if err != nil {
		stdErr := toStandardError(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) decodeAndExecute(ctx context.Context, variables string) (*Output, error) {
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
	return h.execute(ctx, &input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.Utterance) == "" {
		return nil, fmt.Errorf("%w: utterance is required", ErrInputValidationFailed)
	}

	queryType := input.QueryType
	if queryType == "" {
		queryType = models.QueryTypeGeneral
	}
	evidence := input.FormattedContext
	if strings.TrimSpace(evidence) == "" {
		evidence = formatter.NoDataMessage
	}

	reply, err := h.generator.Generate(ctx, textgen.Request{
		QueryType: queryType,
		Context:   evidence,
		History:   formatter.FormatHistory(input.History, h.config.PromptHistoryTurns),
		Utterance: input.Utterance,
	})
	if err != nil {
		if h.config.FailOnError {
			return nil, err
		}
		h.logger.Warn("generation failed, replying with error", map[string]interface{}{
			"error": err.Error(),
		})
		return &Output{
			Reply:            fmt.Sprintf("Error calling %s: %v", h.generator.Name(), err),
			GenerationFailed: true,
			Generator:        h.generator.Name(),
		}, nil
	}

	return &Output{Reply: reply, Generator: h.generator.Name()}, nil
}

func toStandardError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, textgen.ErrLLMTimeout):
		return apperrors.NewLLMTimeoutError()
	case errors.Is(err, textgen.ErrLLMSynthesisFailed):
		return apperrors.NewLLMSynthesisFailedError(err)
	case errors.Is(err, ErrInputValidationFailed):
		return apperrors.NewInputValidationFailedError(err.Error())
	default:
		return apperrors.Normalize(err)
	}
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
