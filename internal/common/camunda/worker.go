// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"resource-scheduling/internal/common/config"
	"resource-scheduling/internal/common/logger"
)

// JobHandler is implemented by every worker package's Handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobRecorder receives one observation per handled job.
type JobRecorder interface {
	RecordJob(ctx context.Context, taskType, status string, duration time.Duration)
}

// WorkerSet opens job workers on one client and closes them together.
type WorkerSet struct {
	client   zbc.Client
	logger   logger.Logger
	recorder JobRecorder
	mu       sync.Mutex
	workers  map[string]worker.JobWorker
}

func NewWorkerSet(client zbc.Client, log logger.Logger) *WorkerSet {
	return &WorkerSet{
		client:  client,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// SetRecorder makes workers started afterwards report each job's outcome.
func (s *WorkerSet) SetRecorder(r JobRecorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

// Start opens a worker for taskType unless the config disables it. It
// reports whether a worker was opened.
func (s *WorkerSet) Start(taskType string, wcfg config.WorkerConfig, handler JobHandler) bool {
	if !wcfg.Enabled {
		s.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.workers[taskType]; exists {
		s.logger.Warn("worker already started", map[string]interface{}{"taskType": taskType})
		return false
	}

	s.workers[taskType] = s.client.NewJobWorker().
		JobType(taskType).
		Handler(s.wrap(taskType, handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	s.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

func (s *WorkerSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}

// Stop closes every worker and waits for in-flight jobs to finish.
func (s *WorkerSet) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for taskType, w := range s.workers {
		w.Close()
		w.AwaitClose()
		s.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
	}
	s.workers = make(map[string]worker.JobWorker)
}

func (s *WorkerSet) wrap(taskType string, handler JobHandler) worker.JobHandler {
	recorder := s.recorder
	if recorder == nil {
		return handler.Handle
	}
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		oc := &outcomeClient{JobClient: client, status: "unanswered"}
		handler.Handle(oc, job)
		recorder.RecordJob(context.Background(), taskType, oc.status, time.Since(start))
	}
}

// outcomeClient notes which command a handler issued for its job.
type outcomeClient struct {
	worker.JobClient
	status string
}

func (c *outcomeClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.status = "completed"
	return c.JobClient.NewCompleteJobCommand()
}

func (c *outcomeClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.status = "failed"
	return c.JobClient.NewFailJobCommand()
}

func (c *outcomeClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.status = "error_thrown"
	return c.JobClient.NewThrowErrorCommand()
}
