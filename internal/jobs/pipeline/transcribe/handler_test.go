package transcribe

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
	"github.com/yungbote/notescribe-backend/internal/services"
	"github.com/yungbote/notescribe-backend/internal/storage"
)

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _ string, _ string) (string, error) {
	return f.text, f.err
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

type fixture struct {
	tx        *gorm.DB
	noteRepo  notes.NoteRepo
	audioRepo notes.AudioRepo
	jobRepo   repojobs.JobRunRepo
	blobs     storage.BlobStore
	notify    *recordingNotifier
	enqueuer  *jobs.Enqueuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)
	blobs, err := storage.NewLocal(log, t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	jobRepo := repojobs.NewJobRunRepo(tx, log)
	return &fixture{
		tx:        tx,
		noteRepo:  notes.NewNoteRepo(tx, log),
		audioRepo: notes.NewAudioRepo(tx, log),
		jobRepo:   jobRepo,
		blobs:     blobs,
		notify:    &recordingNotifier{},
		enqueuer:  jobs.NewEnqueuer(jobRepo, log),
	}
}

func (f *fixture) handler(t *testing.T, tr services.Transcriber) *Handler {
	t.Helper()
	return NewHandler(testutil.Logger(t), f.noteRepo, f.audioRepo, f.blobs, tr, f.enqueuer, f.notify)
}

func (f *fixture) seedNoteWithAudio(t *testing.T) (*domain.Note, *domain.Audio) {
	t.Helper()
	patient := testutil.SeedPatient(t, f.tx)
	note := testutil.SeedNote(t, f.tx, patient.ID)
	path, err := f.blobs.Save(context.Background(), "visit.mp3", []byte("fake audio bytes"), "audio/mpeg")
	if err != nil {
		t.Fatalf("save blob: %v", err)
	}
	audio := &domain.Audio{NoteID: note.ID, Path: path, MimeType: "audio/mpeg"}
	if err := f.tx.Create(audio).Error; err != nil {
		t.Fatalf("seed audio: %v", err)
	}
	return note, audio
}

func (f *fixture) runJob(t *testing.T, h *Handler, payload string) *domain.JobRun {
	t.Helper()
	run, err := f.jobRepo.Create(dbctx.Context{Ctx: context.Background()}, &domain.JobRun{
		JobType: jobs.TypeNoteTranscribe,
		Status:  domain.JobStatusRunning,
		Payload: []byte(payload),
	})
	if err != nil {
		t.Fatalf("create job run: %v", err)
	}
	jc := runtime.NewContext(context.Background(), f.tx, run, f.jobRepo)
	if err := h.Run(jc); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return run
}

func (f *fixture) countJobs(t *testing.T, jobType string) int64 {
	t.Helper()
	var n int64
	if err := f.tx.Model(&domain.JobRun{}).Where("job_type = ?", jobType).Count(&n).Error; err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	return n
}

func TestRun_TranscribesAndChainsSummarize(t *testing.T) {
	f := newFixture(t)
	note, audio := f.seedNoteWithAudio(t)
	h := f.handler(t, &fakeTranscriber{text: "patient reports pain level 3"})

	run := f.runJob(t, h, fmt.Sprintf(`{"audio_id":%d}`, audio.ID))

	if run.Status != domain.JobStatusSucceeded {
		t.Fatalf("expected succeeded run, got %s (%s)", run.Status, run.Error)
	}

	got, err := f.noteRepo.GetByID(dbctx.Context{Ctx: context.Background()}, note.ID)
	if err != nil {
		t.Fatalf("reload note: %v", err)
	}
	if got.Status != domain.StatusTranscribed {
		t.Fatalf("expected TRANSCRIBED, got %s", got.Status)
	}
	if got.Audios[0].Transcript == nil || *got.Audios[0].Transcript != "patient reports pain level 3" {
		t.Fatalf("transcript not persisted: %v", got.Audios[0].Transcript)
	}
	if n := f.countJobs(t, jobs.TypeNoteSummarize); n != 1 {
		t.Fatalf("expected 1 summarize job, got %d", n)
	}

	// TRANSCRIBING then TRANSCRIBED, both broadcast.
	if len(f.notify.statuses) != 2 ||
		f.notify.statuses[0] != domain.StatusTranscribing ||
		f.notify.statuses[1] != domain.StatusTranscribed {
		t.Fatalf("unexpected status broadcasts: %v", f.notify.statuses)
	}
}

func TestRun_TranscriptionFailureMarksErrorAndStopsChain(t *testing.T) {
	f := newFixture(t)
	note, audio := f.seedNoteWithAudio(t)
	h := f.handler(t, &fakeTranscriber{err: fmt.Errorf("speech provider unavailable")})

	run := f.runJob(t, h, fmt.Sprintf(`{"audio_id":%d}`, audio.ID))

	if run.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed run, got %s", run.Status)
	}

	got, err := f.noteRepo.GetByID(dbctx.Context{Ctx: context.Background()}, note.ID)
	if err != nil {
		t.Fatalf("reload note: %v", err)
	}
	if got.Status != domain.StatusError {
		t.Fatalf("expected ERROR, got %s", got.Status)
	}
	if got.Audios[0].Transcript != nil {
		t.Fatalf("transcript should remain unset, got %q", *got.Audios[0].Transcript)
	}
	if n := f.countJobs(t, jobs.TypeNoteSummarize); n != 0 {
		t.Fatalf("no summarize job should be enqueued, got %d", n)
	}
}

func TestRun_MissingAudioFailsJob(t *testing.T) {
	f := newFixture(t)
	h := f.handler(t, &fakeTranscriber{text: "unused"})

	run := f.runJob(t, h, `{"audio_id":424242}`)

	if run.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed run, got %s", run.Status)
	}
	if run.Stage != "load_audio" {
		t.Fatalf("expected load_audio stage, got %s", run.Stage)
	}
}

func TestRun_MalformedPayloadFailsBeforeAnyWork(t *testing.T) {
	f := newFixture(t)
	h := f.handler(t, &fakeTranscriber{text: "unused"})

	run := f.runJob(t, h, `{}`)

	if run.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed run, got %s", run.Status)
	}
	if run.Stage != "payload" {
		t.Fatalf("expected payload stage, got %s", run.Stage)
	}
}
