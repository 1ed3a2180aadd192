package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler processes one job. A nil return completes the job; an error
// schedules a retry or, once the budget is spent, dead-letters it.
// Handlers run at least once per job and must tolerate replays.
type Handler func(ctx context.Context, job *Job) error

// WorkerConfig holds configuration for the queue worker
type WorkerConfig struct {
	BatchSize           int
	PollInterval        time.Duration
	MaintenanceInterval time.Duration
	CompletedRetention  time.Duration
	// VisibilityTimeout bounds how long a claimed job may sit in
	// processing before maintenance assumes its worker died and
	// redelivers it.
	VisibilityTimeout time.Duration
}

// DefaultWorkerConfig returns default configuration
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		BatchSize:           50,
		PollInterval:        5 * time.Second,
		MaintenanceInterval: 1 * time.Hour,
		CompletedRetention:  7 * 24 * time.Hour,
		VisibilityTimeout:   10 * time.Minute,
	}
}

// Worker polls the job table and runs registered handlers in the
// background. One worker goroutine drains due jobs; a second one sweeps
// expired and stale completed rows.
type Worker struct {
	repo         JobRepository
	config       WorkerConfig
	logger       *zap.Logger
	handlers     map[string]Handler
	deadHandlers map[string]Handler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a queue worker
func NewWorker(repo JobRepository, config WorkerConfig, logger *zap.Logger) *Worker {
	return &Worker{
		repo:         repo,
		config:       config,
		logger:       logger,
		handlers:     make(map[string]Handler),
		deadHandlers: make(map[string]Handler),
	}
}

// Register binds a handler to a job type. Must be called before Start.
func (w *Worker) Register(jobType string, handler Handler) {
	w.handlers[jobType] = handler
}

// RegisterDead binds a handler invoked once when a job of the given type
// moves to the dead letter set. Must be called before Start.
func (w *Worker) RegisterDead(jobType string, handler Handler) {
	w.deadHandlers[jobType] = handler
}

// Start starts the background processing
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.processLoop(ctx)

	w.wg.Add(1)
	go w.maintenanceLoop(ctx)

	w.logger.Info("queue worker started",
		zap.Int("batch_size", w.config.BatchSize),
		zap.Duration("poll_interval", w.config.PollInterval),
	)
	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("queue worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequeueDead resets a dead job and returns it to the queue. This backs
// the operator requeue endpoint.
func (w *Worker) RequeueDead(ctx context.Context, id uuid.UUID) (*Job, error) {
	job, err := w.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := job.ResetForRetry(); err != nil {
		return nil, err
	}
	if err := w.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	w.logger.Info("dead job requeued",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", job.Type),
	)
	return job, nil
}

// processLoop is the main processing loop
func (w *Worker) processLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

// processBatch claims and runs one batch of due jobs
func (w *Worker) processBatch(ctx context.Context) {
	due, err := w.repo.FindDue(ctx, time.Now(), w.config.BatchSize)
	if err != nil {
		w.logger.Error("failed to find due jobs", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}

	ids := make([]uuid.UUID, len(due))
	for i, j := range due {
		ids[i] = j.ID
	}

	claimed, err := w.repo.Claim(ctx, ids)
	if err != nil {
		w.logger.Error("failed to claim jobs", zap.Error(err))
		return
	}

	// Jobs within a batch run concurrently; status updates are per-job
	var wg sync.WaitGroup
	for _, job := range claimed {
		wg.Add(1)
		go func(job *Job) {
			defer wg.Done()
			w.runJob(ctx, job)
		}(job)
	}
	wg.Wait()
}

// runJob executes a single claimed job
func (w *Worker) runJob(ctx context.Context, job *Job) {
	handler, ok := w.handlers[job.Type]
	if !ok {
		w.failJob(ctx, job, fmt.Sprintf("no handler registered for job type %s", job.Type))
		return
	}

	if err := handler(ctx, job); err != nil {
		w.failJob(ctx, job, err.Error())
		return
	}

	job.MarkCompleted()
	if err := w.repo.Update(ctx, job); err != nil {
		w.logger.Error("failed to mark job completed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return
	}
	w.logger.Debug("job completed",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", job.Type),
	)
}

// failJob records a failure and persists the resulting state
func (w *Worker) failJob(ctx context.Context, job *Job, errMsg string) {
	job.MarkFailed(errMsg)
	if job.IsDead() {
		w.logger.Warn("job moved to dead letter set",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", job.Type),
			zap.Int("retry_count", job.RetryCount),
			zap.String("last_error", job.LastError),
		)
	} else {
		w.logger.Error("job failed, retry scheduled",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", job.Type),
			zap.Int("retry_count", job.RetryCount),
			zap.Timep("not_before", job.NotBefore),
			zap.String("error", errMsg),
		)
	}
	if err := w.repo.Update(ctx, job); err != nil {
		w.logger.Error("failed to update job", zap.Error(err))
		return
	}

	if job.IsDead() {
		if deadHandler, ok := w.deadHandlers[job.Type]; ok {
			if err := deadHandler(ctx, job); err != nil {
				w.logger.Error("dead letter handler failed",
					zap.String("job_id", job.ID.String()),
					zap.String("job_type", job.Type),
					zap.Error(err),
				)
			}
		}
	}
}

// maintenanceLoop periodically expires overdue jobs and prunes old
// completed ones
func (w *Worker) maintenanceLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.MaintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.maintain(ctx)
		}
	}
}

// maintain runs one maintenance sweep
func (w *Worker) maintain(ctx context.Context) {
	now := time.Now()

	reclaimed, err := w.repo.ReclaimStale(ctx, now.Add(-w.config.VisibilityTimeout))
	if err != nil {
		w.logger.Error("failed to reclaim stale jobs", zap.Error(err))
	} else if reclaimed > 0 {
		w.logger.Warn("reclaimed jobs from lost workers", zap.Int64("count", reclaimed))
	}

	expired, err := w.repo.ExpireOverdue(ctx, now)
	if err != nil {
		w.logger.Error("failed to expire overdue jobs", zap.Error(err))
	} else if expired > 0 {
		w.logger.Warn("expired overdue jobs", zap.Int64("count", expired))
	}

	cutoff := now.Add(-w.config.CompletedRetention)
	deleted, err := w.repo.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		w.logger.Error("failed to prune completed jobs", zap.Error(err))
	} else if deleted > 0 {
		w.logger.Info("pruned completed jobs",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
