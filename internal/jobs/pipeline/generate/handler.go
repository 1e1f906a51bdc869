// Package generate handles form_generate jobs: run the recursive form
// generator for one requested form and merge the result into the note.
package generate

import (
	"fmt"

	"github.com/yungbote/notescribe-backend/internal/data/repos/notes"
	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/forms"
	"github.com/yungbote/notescribe-backend/internal/generation"
	"github.com/yungbote/notescribe-backend/internal/jobs"
	"github.com/yungbote/notescribe-backend/internal/jobs/runtime"
	"github.com/yungbote/notescribe-backend/internal/platform/apierr"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
	"github.com/yungbote/notescribe-backend/internal/services"
)

const basePrompt = `You are a clinical documentation assistant helping home health nurses complete structured assessments based on encounter transcripts.
TASK: Form filling. Using only evidence from the transcript, choose the correct code for every item in the form. If a field is not addressed, leave it as null.`

type Handler struct {
	log       *logger.Logger
	noteRepo  notes.NoteRepo
	generator *generation.Generator
	notify    services.NoteNotifier
}

func NewHandler(baseLog *logger.Logger, noteRepo notes.NoteRepo, generator *generation.Generator, notify services.NoteNotifier) *Handler {
	return &Handler{
		log:       baseLog.With("handler", jobs.TypeFormGenerate),
		noteRepo:  noteRepo,
		generator: generator,
		notify:    notify,
	}
}

func (h *Handler) Type() string { return jobs.TypeFormGenerate }

func (h *Handler) Run(jc *runtime.Context) error {
	noteID, ok := jc.PayloadInt64("note_id")
	if !ok {
		jc.Fail("payload", apierr.Validation("missing note_id"))
		return nil
	}
	formID, _ := jc.PayloadString("form_id")
	transcript, _ := jc.PayloadString("transcript")
	dbc := dbctx.Context{Ctx: jc.Ctx}

	form, registered := forms.Get(formID)
	if !registered {
		h.markError(dbc, noteID)
		jc.Fail("payload", apierr.Validation("unknown form id %q", formID))
		return nil
	}
	if transcript == "" {
		h.markError(dbc, noteID)
		jc.Fail("payload", apierr.Validation("empty transcript for note %d", noteID))
		return nil
	}

	note, err := h.noteRepo.GetByID(dbc, noteID)
	if err != nil || note == nil {
		if err == nil {
			err = apierr.NotFound(fmt.Sprintf("note %d", noteID))
		}
		jc.Fail("load_note", err)
		return nil
	}

	jc.Progress("generating")
	if err := h.setStatus(dbc, noteID, domain.StatusProcessing); err != nil {
		jc.Fail("status_processing", err)
		return nil
	}

	// Build never fails as a whole; unanswerable subtrees come back null.
	prompt := basePrompt + "\n" + form.Prompt
	response := h.generator.Build(jc.Ctx, form.Schema, prompt, transcript)

	if _, err := h.noteRepo.MergeForms(dbc, noteID, map[string]any{formID: response}); err != nil {
		h.markError(dbc, noteID)
		jc.Fail("merge_forms", err)
		return nil
	}

	if err := h.setStatus(dbc, noteID, domain.StatusReady); err != nil {
		jc.Fail("status_ready", err)
		return nil
	}

	jc.Succeed("generated", map[string]any{
		"note_id": noteID,
		"form_id": formID,
	})
	return nil
}

func (h *Handler) setStatus(dbc dbctx.Context, noteID int64, status domain.NoteStatus) error {
	updated, err := h.noteRepo.UpdateStatus(dbc, noteID, status, nil)
	if err != nil {
		return err
	}
	h.notify.NoteUpdated(dbc.Ctx, updated)
	return nil
}

func (h *Handler) markError(dbc dbctx.Context, noteID int64) {
	if err := h.setStatus(dbc, noteID, domain.StatusError); err != nil {
		h.log.Error("Failed to mark note ERROR", "note_id", noteID, "error", err)
	}
}
