package worker

import (
	"context"
	"time"

	"gorm.io/gorm"

	repojobs "github.com/yungbote/notescribe-backend/internal/data/repos/jobs"
	"github.com/yungbote/notescribe-backend/internal/jobs/runtime"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
)

// Policy controls the pool size and retry behavior of the worker.
type Policy struct {
	Concurrency  int
	MaxAttempts  int
	RetryDelay   time.Duration
	StaleRunning time.Duration
}

type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repojobs.JobRunRepo
	registry *runtime.Registry
	policy   Policy
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repojobs.JobRunRepo, registry *runtime.Registry, policy Policy) *Worker {
	if policy.Concurrency < 1 {
		policy.Concurrency = 1
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 3
	}
	if policy.RetryDelay <= 0 {
		policy.RetryDelay = 30 * time.Second
	}
	if policy.StaleRunning <= 0 {
		policy.StaleRunning = 30 * time.Minute
	}
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		policy:   policy,
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Starting job worker pool", "concurrency", w.policy.Concurrency)

	for i := 0; i < w.policy.Concurrency; i++ {
		workerID := i + 1
		go w.runLoop(ctx, workerID)
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	maxAttempts := w.policy.MaxAttempts
	retryDelay := w.policy.RetryDelay
	staleRunning := w.policy.StaleRunning

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			job, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, maxAttempts, retryDelay, staleRunning)
			if err != nil {
				w.log.Warn("ClaimNextRunnable failed", "worker_id", workerID, "error", err)
				continue
			}
			if job == nil {
				continue
			}

			h, ok := w.registry.Get(job.JobType)
			jc := runtime.NewContext(ctx, w.db, job, w.repo)

			if !ok {
				w.log.Warn("No handler registered for job_type",
					"worker_id", workerID,
					"job_type", job.JobType,
					"job_id", job.ID,
				)
				jc.Fail("dispatch", &missingHandlerError{JobType: job.JobType})
				continue
			}

			func() {
				defer func() {
					if r := recover(); r != nil {
						w.log.Error("Job handler panic",
							"worker_id", workerID,
							"job_id", job.ID,
							"job_type", job.JobType,
							"panic", r,
						)
						jc.Fail("panic", &panicError{Val: r})
					}
				}()

				if runErr := h.Run(jc); runErr != nil {
					// Handlers normally call jc.Fail themselves; safety net.
					jc.Fail("run", runErr)
				}
			}()
		}
	}
}

type missingHandlerError struct{ JobType string }

func (e *missingHandlerError) Error() string { return "no handler registered for job_type=" + e.JobType }

type panicError struct{ Val any }

func (e *panicError) Error() string { return "panic: unexpected error" }
