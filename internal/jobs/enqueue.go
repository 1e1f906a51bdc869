// Package jobs names the pipeline's job types and provides the Enqueuer
// used by HTTP handlers and by earlier pipeline stages to chain the next
// stage. A job is durable once the insert commits.
package jobs

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	repojobs "github.com/yungbote/notescribe-backend/internal/data/repos/jobs"
	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
)

const (
	TypeNoteTranscribe = "note_transcribe"
	TypeNoteSummarize  = "note_summarize"
	TypeFormGenerate   = "form_generate"
)

const (
	EntityNote  = "note"
	EntityAudio = "audio"
)

type Enqueuer struct {
	repo repojobs.JobRunRepo
	log  *logger.Logger
}

func NewEnqueuer(repo repojobs.JobRunRepo, baseLog *logger.Logger) *Enqueuer {
	return &Enqueuer{
		repo: repo,
		log:  baseLog.With("component", "Enqueuer"),
	}
}

func (e *Enqueuer) EnqueueTranscribe(dbc dbctx.Context, audioID int64) (*domain.JobRun, error) {
	return e.enqueue(dbc, TypeNoteTranscribe, EntityAudio, audioID, map[string]any{
		"audio_id": audioID,
	})
}

func (e *Enqueuer) EnqueueSummarize(dbc dbctx.Context, noteID int64) (*domain.JobRun, error) {
	return e.enqueue(dbc, TypeNoteSummarize, EntityNote, noteID, map[string]any{
		"note_id": noteID,
	})
}

// EnqueueFormGenerate carries the combined transcript in the payload so
// the generation handler never re-reads audio rows mid-flight.
func (e *Enqueuer) EnqueueFormGenerate(dbc dbctx.Context, noteID int64, formID string, transcript string) (*domain.JobRun, error) {
	if formID == "" {
		return nil, fmt.Errorf("empty form id")
	}
	return e.enqueue(dbc, TypeFormGenerate, EntityNote, noteID, map[string]any{
		"note_id":    noteID,
		"form_id":    formID,
		"transcript": transcript,
	})
}

func (e *Enqueuer) enqueue(dbc dbctx.Context, jobType string, entityType string, entityID int64, payload map[string]any) (*domain.JobRun, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	run, err := e.repo.Create(dbc, &domain.JobRun{
		JobType:    jobType,
		EntityType: entityType,
		EntityID:   &entityID,
		Status:     domain.JobStatusQueued,
		Stage:      "queued",
		Payload:    datatypes.JSON(raw),
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("Enqueued job", "job_type", jobType, "job_id", run.ID, "entity_type", entityType, "entity_id", entityID)
	return run, nil
}
