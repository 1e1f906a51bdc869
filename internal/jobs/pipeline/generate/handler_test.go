package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"gorm.io/gorm"

	repojobs "github.com/yungbote/notescribe-backend/internal/data/repos/jobs"
	"github.com/yungbote/notescribe-backend/internal/data/repos/notes"
	"github.com/yungbote/notescribe-backend/internal/data/repos/testutil"
	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/forms"
	"github.com/yungbote/notescribe-backend/internal/generation"
	"github.com/yungbote/notescribe-backend/internal/jobs"
	"github.com/yungbote/notescribe-backend/internal/jobs/runtime"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
)

// fakeLLM answers wrapped subtree calls with a value derived from the
// rendered schema, optionally failing named subtrees.
type fakeLLM struct {
	mu      sync.Mutex
	failing map[string]bool
}

func (f *fakeLLM) TranscribeAudio(_ context.Context, _ []byte, _ string, _ string) (string, error) {
	return "", fmt.Errorf("not a transcription test")
}

func (f *fakeLLM) GenerateJSON(_ context.Context, _ string, _ string, name string, wrapper map[string]any) (map[string]any, error) {
	f.mu.Lock()
	fail := f.failing[name]
	f.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("simulated failure for %s", name)
	}
	props, _ := wrapper["properties"].(map[string]any)
	inner, _ := props[name].(map[string]any)
	return map[string]any{name: answerFor(inner)}, nil
}

func answerFor(node map[string]any) any {
	if node == nil {
		return nil
	}
	if props, ok := node["properties"].(map[string]any); ok {
		out := make(map[string]any, len(props))
		for key, child := range props {
			childNode, _ := child.(map[string]any)
			out[key] = answerFor(childNode)
		}
		return out
	}
	if values, ok := node["enum"].([]any); ok && len(values) > 0 {
		return values[0]
	}
	switch t := node["type"]; {
	case t == "boolean":
		return true
	case t == "number":
		return float64(1)
	default:
		return "answer"
	}
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

func seedReadyNote(t *testing.T, tx *gorm.DB) *domain.Note {
	t.Helper()
	patient := testutil.SeedPatient(t, tx)
	note := testutil.SeedNote(t, tx, patient.ID)
	if err := tx.Model(&domain.Note{}).Where("id = ?", note.ID).
		Update("status", domain.StatusReady).Error; err != nil {
		t.Fatalf("set status: %v", err)
	}
	return note
}

func runJob(t *testing.T, tx *gorm.DB, h *Handler, noteID int64, formID string) *domain.JobRun {
	t.Helper()
	jobRepo := repojobs.NewJobRunRepo(tx, testutil.Logger(t))
	payload := fmt.Sprintf(`{"note_id":%d,"form_id":%q,"transcript":"patient reports pain level 3"}`, noteID, formID)
	run, err := jobRepo.Create(dbctx.Context{Ctx: context.Background()}, &domain.JobRun{
		JobType: jobs.TypeFormGenerate,
		Status:  domain.JobStatusRunning,
		Payload: []byte(payload),
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

func newHandler(t *testing.T, tx *gorm.DB, llm *fakeLLM, notify *recordingNotifier) (*Handler, notes.NoteRepo) {
	t.Helper()
	log := testutil.Logger(t)
	noteRepo := notes.NewNoteRepo(tx, log)
	gen := generation.New(log, llm, generation.DefaultMaxDepth, 1)
	return NewHandler(log, noteRepo, gen, notify), noteRepo
}

func decodeForms(t *testing.T, note *domain.Note) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(note.Forms, &out); err != nil {
		t.Fatalf("decode forms: %v", err)
	}
	return out
}

func TestRun_GeneratesFormAndReachesReady(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	notify := &recordingNotifier{}
	h, noteRepo := newHandler(t, tx, &fakeLLM{}, notify)
	note := seedReadyNote(t, tx)

	run := runJob(t, tx, h, note.ID, forms.OASISID)

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

	oasis, ok := decodeForms(t, got)[forms.OASISID].(map[string]any)
	if !ok {
		t.Fatalf("oasis response missing or not an object")
	}
	sectionG, ok := oasis["G"].(map[string]any)
	if !ok {
		t.Fatalf("section G missing: %v", oasis)
	}
	if sectionG["M1800"] == nil {
		t.Fatalf("M1800 should be populated")
	}

	if len(notify.statuses) != 2 || notify.statuses[0] != domain.StatusProcessing || notify.statuses[1] != domain.StatusReady {
		t.Fatalf("unexpected status broadcasts: %v", notify.statuses)
	}
}

func TestRun_UnaddressedFieldComesBackNullSiblingsPopulated(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	h, noteRepo := newHandler(t, tx, &fakeLLM{failing: map[string]bool{"G_M1800": true}}, &recordingNotifier{})
	note := seedReadyNote(t, tx)

	run := runJob(t, tx, h, note.ID, forms.OASISID)

	if run.Status != domain.JobStatusSucceeded {
		t.Fatalf("a contained leaf failure must not fail the job, got %s (%s)", run.Status, run.Error)
	}

	got, err := noteRepo.GetByID(dbctx.Context{Ctx: context.Background()}, note.ID)
	if err != nil {
		t.Fatalf("reload note: %v", err)
	}
	if got.Status != domain.StatusReady {
		t.Fatalf("expected READY, got %s", got.Status)
	}

	sectionG := decodeForms(t, got)[forms.OASISID].(map[string]any)["G"].(map[string]any)
	if sectionG["M1800"] != nil {
		t.Fatalf("failed grooming field should be null, got %v", sectionG["M1800"])
	}
	if sectionG["M1810"] == nil {
		t.Fatalf("sibling field should be populated")
	}
}

func TestRun_TwoFormsMergeWithoutOverwriting(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	h, noteRepo := newHandler(t, tx, &fakeLLM{}, &recordingNotifier{})
	note := seedReadyNote(t, tx)

	if run := runJob(t, tx, h, note.ID, forms.OASISID); run.Status != domain.JobStatusSucceeded {
		t.Fatalf("oasis run failed: %s", run.Error)
	}
	if run := runJob(t, tx, h, note.ID, forms.VisitID); run.Status != domain.JobStatusSucceeded {
		t.Fatalf("visit run failed: %s", run.Error)
	}

	got, err := noteRepo.GetByID(dbctx.Context{Ctx: context.Background()}, note.ID)
	if err != nil {
		t.Fatalf("reload note: %v", err)
	}
	all := decodeForms(t, got)
	if _, ok := all[forms.OASISID].(map[string]any); !ok {
		t.Fatalf("oasis response lost after second generation")
	}
	if _, ok := all[forms.VisitID].(map[string]any); !ok {
		t.Fatalf("visit response missing")
	}
}

func TestRun_UnknownFormMarksError(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	h, noteRepo := newHandler(t, tx, &fakeLLM{}, &recordingNotifier{})
	note := seedReadyNote(t, tx)

	run := runJob(t, tx, h, note.ID, "no-such-form")

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
