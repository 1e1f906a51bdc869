package jobs

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
)

type JobRunRepo interface {
	Create(dbc dbctx.Context, run *domain.JobRun) (*domain.JobRun, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.JobRun, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}, blockedStatuses ...string) error
	Heartbeat(dbc dbctx.Context, id uuid.UUID) error

	// ClaimNextRunnable atomically picks one runnable job and marks it
	// running with attempts incremented. A job is runnable when it is
	// queued, failed with retry budget left and its backoff elapsed, or
	// running but with a heartbeat older than staleRunning (worker died).
	ClaimNextRunnable(dbc dbctx.Context, maxAttempts int, retryDelay, staleRunning time.Duration) (*domain.JobRun, error)
}

type jobRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return &jobRunRepo{
		db:  db,
		log: baseLog.With("repo", "JobRunRepo"),
	}
}

func (r *jobRunRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *jobRunRepo) Create(dbc dbctx.Context, run *domain.JobRun) (*domain.JobRun, error) {
	if run == nil {
		return nil, fmt.Errorf("nil job run")
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = domain.JobStatusQueued
	}
	if run.Stage == "" {
		run.Stage = "queued"
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *jobRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.JobRun, error) {
	var run domain.JobRun
	err := r.handle(dbc).WithContext(dbc.Ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *jobRunRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.JobRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *jobRunRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}, blockedStatuses ...string) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	q := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.JobRun{}).
		Where("id = ?", id)
	if len(blockedStatuses) > 0 {
		q = q.Where("status NOT IN ?", blockedStatuses)
	}
	return q.Updates(updates).Error
}

func (r *jobRunRepo) Heartbeat(dbc dbctx.Context, id uuid.UUID) error {
	now := time.Now()
	return r.UpdateFields(dbc, id, map[string]interface{}{
		"heartbeat_at": &now,
	})
}

func (r *jobRunRepo) ClaimNextRunnable(dbc dbctx.Context, maxAttempts int, retryDelay, staleRunning time.Duration) (*domain.JobRun, error) {
	now := time.Now()
	retryBefore := now.Add(-retryDelay)
	staleBefore := now.Add(-staleRunning)

	var claimed *domain.JobRun
	err := r.handle(dbc).WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		var run domain.JobRun
		runnable := `
status = ?
OR (status = ? AND attempts < ? AND (last_error_at IS NULL OR last_error_at < ?))
OR (status = ? AND (heartbeat_at IS NULL OR heartbeat_at < ?) AND (locked_at IS NULL OR locked_at < ?))`
		q := tx.
			Where(runnable,
				domain.JobStatusQueued,
				domain.JobStatusFailed, maxAttempts, retryBefore,
				domain.JobStatusRunning, staleBefore, staleBefore).
			Order("created_at ASC")
		// SKIP LOCKED keeps concurrent workers off the same row; the
		// sqlite dialect used in tests has no row locks, single worker only.
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		err := q.First(&run).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":       domain.JobStatusRunning,
			"attempts":     run.Attempts + 1,
			"locked_at":    &now,
			"heartbeat_at": &now,
			"updated_at":   now,
		}
		if err := tx.Model(&domain.JobRun{}).Where("id = ?", run.ID).Updates(updates).Error; err != nil {
			return err
		}
		run.Status = domain.JobStatusRunning
		run.Attempts++
		run.LockedAt = &now
		run.HeartbeatAt = &now
		claimed = &run
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}
