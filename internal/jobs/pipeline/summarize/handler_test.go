package summarize

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"gorm.io/gorm"

	repojobs "github.com/yungbote/notescribe-backend/internal/data/repos/jobs"
	"github.com/yungbote/notescribe-backend/internal/data/repos/notes"
	"github.com/yungbote/notescribe-backend/internal/data/repos/testutil"
	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/jobs"
	"github.com/yungbote/notescribe-backend/internal/jobs/runtime"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
)

type fakeLLM struct {
	title   string
	summary string
	err     error
}

func (f *fakeLLM) TranscribeAudio(_ context.Context, _ []byte, _ string, _ string) (string, error) {
	return "", fmt.Errorf("not a transcription test")
}

func (f *fakeLLM) GenerateJSON(_ context.Context, _ string, _ string, _ string, _ map[string]any) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return map[string]any{"title": f.title, "summary": f.summary}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []domain.NoteStatus
}

func (r *recordingNotifier) NoteCreated(_ context.Context, _ *domain.Note) {}

func (r *recordingNotifier) NoteUpdated(_ context.Context, note *domain.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, note.Status)
}

func seedTranscribedNote(t *testing.T, tx *gorm.DB, transcripts ...string) *domain.Note {
	t.Helper()
	patient := testutil.SeedPatient(t, tx)
	note := testutil.SeedNote(t, tx, patient.ID)
	for _, text := range transcripts {
		text := text
		audio := &domain.Audio{NoteID: note.ID, Path: "/tmp/seg.mp3", MimeType: "audio/mpeg", Transcript: &text}
		if err := tx.Create(audio).Error; err != nil {
			t.Fatalf("seed audio: %v", err)
		}
	}
	if err := tx.Model(&domain.Note{}).Where("id = ?", note.ID).
		Update("status", domain.StatusTranscribed).Error; err != nil {
		t.Fatalf("set status: %v", err)
	}
	return note
}

func runJob(t *testing.T, tx *gorm.DB, h *Handler, noteID int64) *domain.JobRun {
	t.Helper()
	jobRepo := repojobs.NewJobRunRepo(tx, testutil.Logger(t))
	run, err := jobRepo.Create(dbctx.Context{Ctx: context.Background()}, &domain.JobRun{
		JobType: jobs.TypeNoteSummarize,
		Status:  domain.JobStatusRunning,
		Payload: []byte(fmt.Sprintf(`{"note_id":%d}`, noteID)),
	})
	if err != nil {
		t.Fatalf("create job run: %v", err)
	}
	jc := runtime.NewContext(context.Background(), tx, run, jobRepo)
	if err := h.Run(jc); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return run
}

func TestRun_WritesTitleSummaryAndReady(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)
	noteRepo := notes.NewNoteRepo(tx, log)
	notify := &recordingNotifier{}
	note := seedTranscribedNote(t, tx, "patient reports pain level 3")

	h := NewHandler(log, noteRepo, &fakeLLM{title: "Pain follow-up visit", summary: "Patient reports pain level 3."}, notify)
	run := runJob(t, tx, h, note.ID)

	if run.Status != domain.JobStatusSucceeded {
		t.Fatalf("expected succeeded run, got %s (%s)", run.Status, run.Error)
	}

	got, err := noteRepo.GetByID(dbctx.Context{Ctx: context.Background()}, note.ID)
	if err != nil {
		t.Fatalf("reload note: %v", err)
	}
	if got.Status != domain.StatusReady {
		t.Fatalf("expected READY, got %s", got.Status)
	}
	if got.Title == nil || *got.Title != "Pain follow-up visit" {
		t.Fatalf("title not written: %v", got.Title)
	}
	if got.Summary == nil || *got.Summary != "Patient reports pain level 3." {
		t.Fatalf("summary not written: %v", got.Summary)
	}
	if len(notify.statuses) != 2 || notify.statuses[0] != domain.StatusProcessing || notify.statuses[1] != domain.StatusReady {
		t.Fatalf("unexpected status broadcasts: %v", notify.statuses)
	}
}

func TestRun_ConcatenatesTranscriptsInCreationOrder(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)
	noteRepo := notes.NewNoteRepo(tx, log)
	note := seedTranscribedNote(t, tx, "first segment", "second segment")

	var seen string
	llm := &captureLLM{fn: func(user string) { seen = user }}
	h := NewHandler(log, noteRepo, llm, &recordingNotifier{})
	run := runJob(t, tx, h, note.ID)

	if run.Status != domain.JobStatusSucceeded {
		t.Fatalf("expected succeeded run, got %s (%s)", run.Status, run.Error)
	}
	if seen != "first segment\n\nsecond segment" {
		t.Fatalf("combined transcript out of order: %q", seen)
	}
}

type captureLLM struct {
	fn func(user string)
}

func (c *captureLLM) TranscribeAudio(_ context.Context, _ []byte, _ string, _ string) (string, error) {
	return "", fmt.Errorf("not a transcription test")
}

func (c *captureLLM) GenerateJSON(_ context.Context, _ string, user string, _ string, _ map[string]any) (map[string]any, error) {
	c.fn(user)
	return map[string]any{"title": "t", "summary": "s"}, nil
}

func TestRun_GenerationFailureMarksError(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)
	noteRepo := notes.NewNoteRepo(tx, log)
	note := seedTranscribedNote(t, tx, "patient reports pain level 3")

	h := NewHandler(log, noteRepo, &fakeLLM{err: fmt.Errorf("model overloaded")}, &recordingNotifier{})
	run := runJob(t, tx, h, note.ID)

	if run.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed run, got %s", run.Status)
	}
	got, err := noteRepo.GetByID(dbctx.Context{Ctx: context.Background()}, note.ID)
	if err != nil {
		t.Fatalf("reload note: %v", err)
	}
	if got.Status != domain.StatusError {
		t.Fatalf("expected ERROR, got %s", got.Status)
	}
}

func TestRun_NoTranscriptsMarksError(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)
	noteRepo := notes.NewNoteRepo(tx, log)
	note := seedTranscribedNote(t, tx)

	h := NewHandler(log, noteRepo, &fakeLLM{title: "t", summary: "s"}, &recordingNotifier{})
	run := runJob(t, tx, h, note.ID)

	if run.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed run, got %s", run.Status)
	}
	if run.Stage != "transcript" {
		t.Fatalf("expected transcript stage, got %s", run.Stage)
	}
}
