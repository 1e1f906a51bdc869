// Package summarize handles note_summarize jobs: one structured call
// producing the note's title and summary from the combined transcript.
package summarize

import (
	"fmt"

	"github.com/yungbote/notescribe-backend/internal/data/repos/notes"
	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/jobs"
	"github.com/yungbote/notescribe-backend/internal/jobs/runtime"
	"github.com/yungbote/notescribe-backend/internal/platform/apierr"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
	"github.com/yungbote/notescribe-backend/internal/platform/openai"
	"github.com/yungbote/notescribe-backend/internal/schema"
	"github.com/yungbote/notescribe-backend/internal/services"
)

const prompt = "Generate a title and summary for a home health nursing note based on the transcript. The title should be concise and descriptive, while the summary should be in 2-4 clinical sentences and provide a brief overview of the patient encounter. Do not come up with any new information that is not in the transcript."

const maxTitleLen = 100

type Handler struct {
	log      *logger.Logger
	noteRepo notes.NoteRepo
	llm      openai.Client
	notify   services.NoteNotifier
}

func NewHandler(baseLog *logger.Logger, noteRepo notes.NoteRepo, llm openai.Client, notify services.NoteNotifier) *Handler {
	return &Handler{
		log:      baseLog.With("handler", jobs.TypeNoteSummarize),
		noteRepo: noteRepo,
		llm:      llm,
		notify:   notify,
	}
}

func (h *Handler) Type() string { return jobs.TypeNoteSummarize }

func responseSchema() map[string]any {
	return schema.Object(
		schema.F("title", schema.StringMax(maxTitleLen)),
		schema.F("summary", schema.String()),
	).JSONSchema()
}

func (h *Handler) Run(jc *runtime.Context) error {
	noteID, ok := jc.PayloadInt64("note_id")
	if !ok {
		jc.Fail("payload", apierr.Validation("missing note_id"))
		return nil
	}
	dbc := dbctx.Context{Ctx: jc.Ctx}

	note, err := h.noteRepo.GetByID(dbc, noteID)
	if err != nil || note == nil {
		if err == nil {
			err = apierr.NotFound(fmt.Sprintf("note %d", noteID))
		}
		jc.Fail("load_note", err)
		return nil
	}

	jc.Progress("summarizing")
	if err := h.setStatus(dbc, noteID, domain.StatusProcessing, nil); err != nil {
		jc.Fail("status_processing", err)
		return nil
	}

	transcript := services.CombinedTranscript(note)
	if transcript == "" {
		h.markError(dbc, noteID)
		jc.Fail("transcript", apierr.Validation("note %d has no transcripts", noteID))
		return nil
	}

	resp, err := h.llm.GenerateJSON(jc.Ctx, prompt, transcript, "note_summary", responseSchema())
	if err != nil {
		h.markError(dbc, noteID)
		jc.Fail("generate", apierr.RemoteService("generation", err))
		return nil
	}

	title, _ := resp["title"].(string)
	summary, _ := resp["summary"].(string)
	if title == "" || summary == "" {
		h.markError(dbc, noteID)
		jc.Fail("generate", fmt.Errorf("generation returned empty title or summary"))
		return nil
	}
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}

	if err := h.setStatus(dbc, noteID, domain.StatusReady, map[string]interface{}{
		"title":   &title,
		"summary": &summary,
	}); err != nil {
		jc.Fail("status_ready", err)
		return nil
	}

	jc.Succeed("summarized", map[string]any{"note_id": noteID})
	return nil
}

func (h *Handler) setStatus(dbc dbctx.Context, noteID int64, status domain.NoteStatus, extra map[string]interface{}) error {
	updated, err := h.noteRepo.UpdateStatus(dbc, noteID, status, extra)
	if err != nil {
		return err
	}
	h.notify.NoteUpdated(dbc.Ctx, updated)
	return nil
}

func (h *Handler) markError(dbc dbctx.Context, noteID int64) {
	if err := h.setStatus(dbc, noteID, domain.StatusError, nil); err != nil {
		h.log.Error("Failed to mark note ERROR", "note_id", noteID, "error", err)
	}
}
