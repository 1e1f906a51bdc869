// Package transcribe handles note_transcribe jobs: load one audio
// segment, run speech-to-text, persist the transcript, and chain the
// summarization stage.
package transcribe

import (
	"fmt"
	"path/filepath"

	"github.com/yungbote/notescribe-backend/internal/data/repos/notes"
	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/jobs"
	"github.com/yungbote/notescribe-backend/internal/jobs/runtime"
	"github.com/yungbote/notescribe-backend/internal/platform/apierr"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
	"github.com/yungbote/notescribe-backend/internal/services"
	"github.com/yungbote/notescribe-backend/internal/storage"
)

type Handler struct {
	log         *logger.Logger
	noteRepo    notes.NoteRepo
	audioRepo   notes.AudioRepo
	blobs       storage.BlobStore
	transcriber services.Transcriber
	enqueuer    *jobs.Enqueuer
	notify      services.NoteNotifier
}

func NewHandler(
	baseLog *logger.Logger,
	noteRepo notes.NoteRepo,
	audioRepo notes.AudioRepo,
	blobs storage.BlobStore,
	transcriber services.Transcriber,
	enqueuer *jobs.Enqueuer,
	notify services.NoteNotifier,
) *Handler {
	return &Handler{
		log:         baseLog.With("handler", jobs.TypeNoteTranscribe),
		noteRepo:    noteRepo,
		audioRepo:   audioRepo,
		blobs:       blobs,
		transcriber: transcriber,
		enqueuer:    enqueuer,
		notify:      notify,
	}
}

func (h *Handler) Type() string { return jobs.TypeNoteTranscribe }

func (h *Handler) Run(jc *runtime.Context) error {
	audioID, ok := jc.PayloadInt64("audio_id")
	if !ok {
		jc.Fail("payload", apierr.Validation("missing audio_id"))
		return nil
	}
	dbc := dbctx.Context{Ctx: jc.Ctx}

	audio, err := h.audioRepo.GetByID(dbc, audioID)
	if err != nil {
		jc.Fail("load_audio", err)
		return nil
	}
	if audio == nil {
		jc.Fail("load_audio", apierr.NotFound(fmt.Sprintf("audio %d", audioID)))
		return nil
	}

	note, err := h.noteRepo.GetByID(dbc, audio.NoteID)
	if err != nil || note == nil {
		if err == nil {
			err = apierr.NotFound(fmt.Sprintf("note %d", audio.NoteID))
		}
		jc.Fail("load_note", err)
		return nil
	}

	jc.Progress("transcribing")
	if err := h.setStatus(dbc, note.ID, domain.StatusTranscribing); err != nil {
		jc.Fail("status_transcribing", err)
		return nil
	}

	data, err := h.blobs.Open(jc.Ctx, audio.Path)
	if err != nil {
		h.markError(dbc, note.ID)
		jc.Fail("read_audio", err)
		return nil
	}

	text, err := h.transcriber.Transcribe(jc.Ctx, data, audio.MimeType, filepath.Base(audio.Path))
	if err != nil {
		h.markError(dbc, note.ID)
		jc.Fail("transcribe", apierr.RemoteService("transcription", err))
		return nil
	}

	if err := h.audioRepo.UpdateFields(dbc, audio.ID, map[string]interface{}{
		"transcript": &text,
	}); err != nil {
		h.markError(dbc, note.ID)
		jc.Fail("save_transcript", err)
		return nil
	}

	if err := h.setStatus(dbc, note.ID, domain.StatusTranscribed); err != nil {
		jc.Fail("status_transcribed", err)
		return nil
	}

	// Summarization is only enqueued after the transcript write commits,
	// which is what orders the stages.
	if _, err := h.enqueuer.EnqueueSummarize(dbc, note.ID); err != nil {
		jc.Fail("enqueue_summarize", err)
		return nil
	}

	jc.Succeed("transcribed", map[string]any{
		"note_id":         note.ID,
		"audio_id":        audio.ID,
		"transcript_size": len(text),
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

// markError is the best-effort terminal write on failure. Only the status
// column changes; transcript and form data already persisted stay put.
func (h *Handler) markError(dbc dbctx.Context, noteID int64) {
	if err := h.setStatus(dbc, noteID, domain.StatusError); err != nil {
		h.log.Error("Failed to mark note ERROR", "note_id", noteID, "error", err)
	}
}
