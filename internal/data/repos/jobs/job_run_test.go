package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/notescribe-backend/internal/data/repos/testutil"
	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
)

func TestJobRunRepo_CreateDefaults(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	run, err := repo.Create(dbc, &domain.JobRun{
		JobType: "note_transcribe",
		Payload: datatypes.JSON([]byte(`{"audio_id":1}`)),
	})
	if err != nil {
		t.Fatalf("create job run: %v", err)
	}
	if run.ID == uuid.Nil {
		t.Fatalf("expected generated uuid")
	}
	if run.Status != domain.JobStatusQueued {
		t.Fatalf("expected queued, got %s", run.Status)
	}
}

func TestJobRunRepo_ClaimQueuedOldestFirst(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	older := &domain.JobRun{JobType: "note_transcribe", CreatedAt: time.Now().Add(-2 * time.Minute)}
	newer := &domain.JobRun{JobType: "note_summarize", CreatedAt: time.Now().Add(-1 * time.Minute)}
	if _, err := repo.Create(dbc, older); err != nil {
		t.Fatalf("create older: %v", err)
	}
	if _, err := repo.Create(dbc, newer); err != nil {
		t.Fatalf("create newer: %v", err)
	}

	claimed, err := repo.ClaimNextRunnable(dbc, 3, time.Minute, 5*time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed == nil {
		t.Fatalf("expected a claim, got none")
	}
	if claimed.ID != older.ID {
		t.Fatalf("expected oldest job first, got %s", claimed.JobType)
	}
	if claimed.Status != domain.JobStatusRunning {
		t.Fatalf("claim did not mark running: %s", claimed.Status)
	}
	if claimed.Attempts != 1 {
		t.Fatalf("expected attempts=1, got %d", claimed.Attempts)
	}
	if claimed.LockedAt == nil || claimed.HeartbeatAt == nil {
		t.Fatalf("claim did not stamp lock/heartbeat")
	}
}

func TestJobRunRepo_ClaimSkipsHealthyRunning(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now()
	running := &domain.JobRun{
		JobType:     "form_generate",
		Status:      domain.JobStatusRunning,
		LockedAt:    &now,
		HeartbeatAt: &now,
	}
	if _, err := repo.Create(dbc, running); err != nil {
		t.Fatalf("create running: %v", err)
	}

	claimed, err := repo.ClaimNextRunnable(dbc, 3, time.Minute, 5*time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed != nil {
		t.Fatalf("claimed a healthy running job %s", claimed.ID)
	}
}

func TestJobRunRepo_ClaimReclaimsStaleRunning(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	stale := time.Now().Add(-time.Hour)
	dead := &domain.JobRun{
		JobType:     "form_generate",
		Status:      domain.JobStatusRunning,
		Attempts:    1,
		LockedAt:    &stale,
		HeartbeatAt: &stale,
	}
	if _, err := repo.Create(dbc, dead); err != nil {
		t.Fatalf("create stale running: %v", err)
	}

	claimed, err := repo.ClaimNextRunnable(dbc, 3, time.Minute, 5*time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed == nil || claimed.ID != dead.ID {
		t.Fatalf("expected to reclaim stale job")
	}
	if claimed.Attempts != 2 {
		t.Fatalf("expected attempts=2 after reclaim, got %d", claimed.Attempts)
	}
}

func TestJobRunRepo_ClaimHonorsRetryBudgetAndBackoff(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	recent := time.Now()
	backingOff := &domain.JobRun{
		JobType:     "note_transcribe",
		Status:      domain.JobStatusFailed,
		Attempts:    1,
		LastErrorAt: &recent,
	}
	if _, err := repo.Create(dbc, backingOff); err != nil {
		t.Fatalf("create backing off: %v", err)
	}
	exhausted := &domain.JobRun{
		JobType:     "note_transcribe",
		Status:      domain.JobStatusFailed,
		Attempts:    3,
		LastErrorAt: func() *time.Time { t := time.Now().Add(-time.Hour); return &t }(),
	}
	if _, err := repo.Create(dbc, exhausted); err != nil {
		t.Fatalf("create exhausted: %v", err)
	}

	claimed, err := repo.ClaimNextRunnable(dbc, 3, time.Minute, 5*time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed != nil {
		t.Fatalf("claimed a job that should wait or stay dead: %s", claimed.ID)
	}

	old := time.Now().Add(-2 * time.Minute)
	if err := repo.UpdateFields(dbc, backingOff.ID, map[string]interface{}{"last_error_at": &old}); err != nil {
		t.Fatalf("age failure: %v", err)
	}
	claimed, err = repo.ClaimNextRunnable(dbc, 3, time.Minute, 5*time.Minute)
	if err != nil {
		t.Fatalf("claim after backoff: %v", err)
	}
	if claimed == nil || claimed.ID != backingOff.ID {
		t.Fatalf("expected retry of failed job after backoff")
	}
}

func TestJobRunRepo_UpdateFieldsUnlessStatus(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	run, err := repo.Create(dbc, &domain.JobRun{JobType: "note_summarize", Status: domain.JobStatusSucceeded})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.UpdateFieldsUnlessStatus(dbc, run.ID, map[string]interface{}{
		"stage": "should_not_land",
	}, domain.JobStatusSucceeded); err != nil {
		t.Fatalf("guarded update: %v", err)
	}
	got, err := repo.GetByID(dbc, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stage == "should_not_land" {
		t.Fatalf("guarded update modified a terminal job")
	}
}
