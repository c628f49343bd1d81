// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"resource-scheduling/internal/assistant"
	"resource-scheduling/internal/common/camunda"
	"resource-scheduling/internal/common/config"
	apperrors "resource-scheduling/internal/common/errors"
	"resource-scheduling/internal/common/logger"
	"resource-scheduling/internal/common/observability"
	"resource-scheduling/internal/common/validation"
	"resource-scheduling/internal/store"
	"resource-scheduling/internal/textgen"
	"resource-scheduling/pkg/registry"

	llm "resource-scheduling/internal/workers/ai-conversation/llm-synthesis"
	rmq "resource-scheduling/internal/workers/ai-conversation/resolve-meeting-query"
	qm "resource-scheduling/internal/workers/data-access/query-meetings"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// storeConnectionError tags an unreachable meeting store with the connection
// code of its backend.
func storeConnectionError(backend string, err error) *apperrors.StandardError {
	if backend == config.BackendElasticsearch {
		return apperrors.NewElasticsearchConnectionFailedError(err)
	}
	return apperrors.NewDatabaseConnectionFailedError(err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"app": cfg.App.Name})

	log.Info("Starting worker manager...", map[string]interface{}{
		"backend":     cfg.Database.Backend,
		"environment": cfg.App.Environment,
	})

	obs, err := observability.New("worker-manager")
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, camunda.ConfigFrom(cfg.Camunda), log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	log.Info("Zeebe client connected successfully", nil)

	// --- Meeting store ---
	backend, err := store.FromConfig(*cfg, log)
	if err != nil {
		connErr := storeConnectionError(cfg.Database.Backend, err)
		zapLog.Fatal("store init failed", zap.String("errorCode", string(connErr.Code)), zap.Error(connErr))
	}
	defer backend.Close()

	err = retryWithBackoff(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return backend.Ping(pingCtx)
	}, 10, 2*time.Second, log, "Meeting store connection")
	if err != nil {
		connErr := storeConnectionError(backend.Name, err)
		zapLog.Fatal("meeting store unavailable", zap.String("errorCode", string(connErr.Code)), zap.Error(connErr))
	}
	log.Info("Meeting store connected successfully", map[string]interface{}{"backend": backend.Name})

	// --- Activity registry ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		log.Warn("activity registry not loaded, input schemas disabled", map[string]interface{}{
			"path":  cfg.Registry.Path,
			"error": err.Error(),
		})
		reg = nil
	}

	validatorFor := func(taskType string) *validation.Validator {
		v, err := validation.NewValidator(reg.InputSchema(taskType))
		if err != nil {
			zapLog.Fatal("invalid input schema", zap.String("taskType", taskType), zap.Error(err))
		}
		return v
	}

	// --- Workers ---
	workers := camunda.NewWorkerSet(zeebe.GetClient(), log)
	workers.SetRecorder(obs)
	engineCfg := assistant.ConfigFrom(cfg.Assistant)

	workers.Start(rmq.TaskType, config.GetWorkerConfig(cfg, rmq.TaskType), rmq.NewHandler(
		&rmq.Config{
			Timeout:   workerTimeout(cfg, rmq.TaskType, 5*time.Second),
			Assistant: engineCfg,
		},
		validatorFor(rmq.TaskType), log,
	))

	workers.Start(qm.TaskType, config.GetWorkerConfig(cfg, qm.TaskType), qm.NewHandler(
		&qm.Config{
			Timeout:        workerTimeout(cfg, qm.TaskType, 30*time.Second),
			MaxContextRows: engineCfg.MaxContextRows,
			Backend:        backend.Name,
			Index:          cfg.Database.Elasticsearch.Index,
		},
		backend.Store, validatorFor(qm.TaskType), log,
	))

	workers.Start(llm.TaskType, config.GetWorkerConfig(cfg, llm.TaskType), llm.NewHandler(
		&llm.Config{
			Timeout:            workerTimeout(cfg, llm.TaskType, 60*time.Second),
			PromptHistoryTurns: engineCfg.PromptHistoryTurns,
		},
		textgen.NewOllamaClient(cfg.TextGen, log), validatorFor(llm.TaskType), log,
	))

	log.Info("Workers registered", map[string]interface{}{"count": workers.Len()})

	// --- Health & Metrics Server ---
	srv := newServer(cfg.Server.Port, readiness{zeebe, backend})
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("Shutdown signal received, stopping workers...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping HTTP server", map[string]interface{}{"error": err.Error()})
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing metrics", map[string]interface{}{"error": err.Error()})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("Error closing Zeebe client", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Worker manager stopped gracefully", nil)
}

func workerTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if ms := config.GetWorkerConfig(cfg, taskType).Timeout; ms > 0 {
		return config.GetDuration(ms)
	}
	return fallback
}
