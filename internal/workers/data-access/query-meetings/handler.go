// internal/workers/data-access/query-meetings/handler.go
package querymeetings

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
	"resource-scheduling/internal/assistant/querybuilder"
	"resource-scheduling/internal/common/config"
	apperrors "resource-scheduling/internal/common/errors"
	"resource-scheduling/internal/common/logger"
	"resource-scheduling/internal/common/metrics"
	"resource-scheduling/internal/common/validation"
	"resource-scheduling/internal/models"
	"resource-scheduling/internal/store"
)

const (
	TaskType = "query-meetings"
)

var (
	ErrQueryExecutionFailed  = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout          = errors.New("QUERY_TIMEOUT")
	ErrInputValidationFailed = errors.New("INPUT_VALIDATION_FAILED")
)

// MeetingStore executes compiled meeting queries.
type MeetingStore interface {
	FetchMeetings(ctx context.Context, spec querybuilder.QuerySpec) ([]models.MeetingRecord, error)
}

type Handler struct {
	config       *Config
	store        MeetingStore
	validator    *validation.Validator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, store MeetingStore, validator *validation.Validator, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType, "backend": config.Backend})
	return &Handler{
		config:       config,
		store:        store,
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
		stdErr := h.toStandardError(err)
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
		if errors.Is(err, querybuilder.ErrInvalidQuerySpec) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: parse input: %v", ErrInputValidationFailed, err)
	}
	return h.execute(ctx, &input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInputValidationFailed)
	}
	if err := input.QuerySpec.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := h.store.FetchMeetings(ctx, input.QuerySpec)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrQueryTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrQueryExecutionFailed, err)
	}
	if records == nil {
		records = []models.MeetingRecord{}
	}

	maxRows := input.MaxContextRows
	if maxRows <= 0 {
		maxRows = h.config.MaxContextRows
	}

	return &Output{
		Records:            records,
		RowCount:           len(records),
		FormattedContext:   formatter.FormatContext(records, maxRows),
		QueryExecutionTime: time.Since(start).Milliseconds(),
	}, nil
}

func (h *Handler) toStandardError(err error) *apperrors.StandardError {
	if h.config.Backend == config.BackendElasticsearch {
		switch {
		case errors.Is(err, store.ErrIndexNotFound):
			return apperrors.NewIndexNotFoundError(h.config.Index)
		case errors.Is(err, ErrQueryTimeout):
			return apperrors.NewSearchTimeoutError(h.config.Index)
		case errors.Is(err, ErrQueryExecutionFailed):
			return apperrors.NewSearchQueryFailedError(h.config.Index, err)
		}
	}

	switch {
	case errors.Is(err, ErrQueryTimeout):
		return apperrors.NewQueryTimeoutError(h.config.Backend)
	case errors.Is(err, ErrQueryExecutionFailed):
		return apperrors.NewQueryExecutionFailedError(h.config.Backend, err)
	case errors.Is(err, querybuilder.ErrInvalidQuerySpec):
		return apperrors.NewInvalidQuerySpecError(err.Error())
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
