package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/yungbote/notescribe-backend/internal/data/repos/notes"
	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/forms"
	"github.com/yungbote/notescribe-backend/internal/jobs"
	"github.com/yungbote/notescribe-backend/internal/platform/apierr"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
	"github.com/yungbote/notescribe-backend/internal/storage"
)

// NoteService is the write path for notes: audio intake, user form edits,
// and form generation requests. All pipeline advancement past "enqueued"
// happens in job handlers, not here.
type NoteService struct {
	log       *logger.Logger
	noteRepo  notes.NoteRepo
	audioRepo notes.AudioRepo
	blobs     storage.BlobStore
	enqueuer  *jobs.Enqueuer
	notify    NoteNotifier
}

func NewNoteService(
	baseLog *logger.Logger,
	noteRepo notes.NoteRepo,
	audioRepo notes.AudioRepo,
	blobs storage.BlobStore,
	enqueuer *jobs.Enqueuer,
	notify NoteNotifier,
) *NoteService {
	return &NoteService{
		log:       baseLog.With("service", "NoteService"),
		noteRepo:  noteRepo,
		audioRepo: audioRepo,
		blobs:     blobs,
		enqueuer:  enqueuer,
		notify:    notify,
	}
}

func (s *NoteService) validateUpload(mimeType string, size int) error {
	if !domain.MimeTypeAllowed(mimeType) {
		return apierr.Validation("unsupported audio type %q", mimeType)
	}
	if size == 0 {
		return apierr.Validation("empty audio upload")
	}
	if size > domain.MaxAudioFileSize {
		return apierr.Validation("audio exceeds %d byte limit", domain.MaxAudioFileSize)
	}
	return nil
}

func blobName(filename string) string {
	return fmt.Sprintf("%d%s", time.Now().UnixMilli(), filepath.Ext(filename))
}

// CreateNoteWithAudio creates a PENDING note with its first audio segment
// and enqueues transcription.
func (s *NoteService) CreateNoteWithAudio(ctx context.Context, patientID int64, filename string, mimeType string, data []byte) (*domain.Note, error) {
	if err := s.validateUpload(mimeType, len(data)); err != nil {
		return nil, err
	}

	path, err := s.blobs.Save(ctx, blobName(filename), data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("store audio: %w", err)
	}

	dbc := dbctx.Context{Ctx: ctx}
	note, err := s.noteRepo.Create(dbc, &domain.Note{
		PatientID: patientID,
		Status:    domain.StatusPending,
	})
	if err != nil {
		return nil, err
	}
	audio, err := s.audioRepo.Create(dbc, &domain.Audio{
		NoteID:   note.ID,
		Path:     path,
		MimeType: mimeType,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.enqueuer.EnqueueTranscribe(dbc, audio.ID); err != nil {
		return nil, err
	}

	created, err := s.noteRepo.GetByID(dbc, note.ID)
	if err != nil {
		return nil, err
	}
	s.notify.NoteCreated(ctx, created)
	s.log.Info("Note created", "note_id", note.ID, "audio_id", audio.ID)
	return created, nil
}

// AppendAudio attaches another recording to a READY note and re-enters
// the transcription pipeline.
func (s *NoteService) AppendAudio(ctx context.Context, noteID int64, filename string, mimeType string, data []byte) (*domain.Audio, error) {
	if err := s.validateUpload(mimeType, len(data)); err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	note, err := s.noteRepo.GetByID(dbc, noteID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, apierr.NotFound(fmt.Sprintf("note %d", noteID))
	}
	if note.Status != domain.StatusReady {
		return nil, apierr.Validation("note %d not ready for audio upload (status %s)", noteID, note.Status)
	}

	path, err := s.blobs.Save(ctx, blobName(filename), data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("store audio: %w", err)
	}
	audio, err := s.audioRepo.Create(dbc, &domain.Audio{
		NoteID:   noteID,
		Path:     path,
		MimeType: mimeType,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.enqueuer.EnqueueTranscribe(dbc, audio.ID); err != nil {
		return nil, err
	}

	updated, err := s.noteRepo.GetByID(dbc, noteID)
	if err != nil {
		return nil, err
	}
	s.notify.NoteUpdated(ctx, updated)
	return audio, nil
}

func (s *NoteService) GetNote(ctx context.Context, noteID int64) (*domain.Note, error) {
	note, err := s.noteRepo.GetByID(dbctx.Context{Ctx: ctx}, noteID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, apierr.NotFound(fmt.Sprintf("note %d", noteID))
	}
	return note, nil
}

func (s *NoteService) ListNotes(ctx context.Context) ([]*domain.Note, error) {
	return s.noteRepo.ListAll(dbctx.Context{Ctx: ctx})
}

func (s *NoteService) ListNotesForPatient(ctx context.Context, patientID int64) ([]*domain.Note, error) {
	return s.noteRepo.ListByPatient(dbctx.Context{Ctx: ctx}, patientID)
}

// GetAudioContent loads an audio row and its stored bytes for serving.
func (s *NoteService) GetAudioContent(ctx context.Context, audioID int64) (*domain.Audio, []byte, error) {
	audio, err := s.audioRepo.GetByID(dbctx.Context{Ctx: ctx}, audioID)
	if err != nil {
		return nil, nil, err
	}
	if audio == nil {
		return nil, nil, apierr.NotFound(fmt.Sprintf("audio %d", audioID))
	}
	data, err := s.blobs.Open(ctx, audio.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open audio blob: %w", err)
	}
	return audio, data, nil
}

// MergeUserForms applies a user's partial form edits. Only registered
// form ids are accepted at the top level.
func (s *NoteService) MergeUserForms(ctx context.Context, noteID int64, partial map[string]any) (*domain.Note, error) {
	for formID := range partial {
		if _, ok := forms.Get(formID); !ok {
			return nil, apierr.Validation("unknown form id %q", formID)
		}
	}

	dbc := dbctx.Context{Ctx: ctx}
	note, err := s.noteRepo.GetByID(dbc, noteID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, apierr.NotFound(fmt.Sprintf("note %d", noteID))
	}

	updated, err := s.noteRepo.MergeForms(dbc, noteID, partial)
	if err != nil {
		return nil, err
	}
	s.notify.NoteUpdated(ctx, updated)
	return updated, nil
}

// RequestForm marks a form as requested (null marker in the forms map)
// and enqueues its generation with the combined transcript.
func (s *NoteService) RequestForm(ctx context.Context, noteID int64, formID string) (*domain.Note, error) {
	if _, ok := forms.Get(formID); !ok {
		return nil, apierr.Validation("unknown form id %q", formID)
	}

	dbc := dbctx.Context{Ctx: ctx}
	note, err := s.noteRepo.GetByID(dbc, noteID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, apierr.NotFound(fmt.Sprintf("note %d", noteID))
	}
	if note.Status != domain.StatusReady {
		return nil, apierr.Validation("note %d not ready for form generation (status %s)", noteID, note.Status)
	}

	transcript := CombinedTranscript(note)
	if transcript == "" {
		return nil, apierr.Validation("note %d has no transcripts", noteID)
	}

	updated, err := s.noteRepo.MergeForms(dbc, noteID, map[string]any{formID: nil})
	if err != nil {
		return nil, err
	}
	s.notify.NoteUpdated(ctx, updated)

	if _, err := s.enqueuer.EnqueueFormGenerate(dbc, noteID, formID, transcript); err != nil {
		return nil, err
	}
	return updated, nil
}

// CombinedTranscript concatenates all transcribed segments in creation
// order, which is the order GetByID preloads them in.
func CombinedTranscript(note *domain.Note) string {
	if note == nil {
		return ""
	}
	parts := make([]string, 0, len(note.Audios))
	for _, a := range note.Audios {
		if a.Transcript != nil && strings.TrimSpace(*a.Transcript) != "" {
			parts = append(parts, *a.Transcript)
		}
	}
	return strings.Join(parts, "\n\n")
}
