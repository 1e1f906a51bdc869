package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/notescribe-backend/internal/platform/logger"
	"github.com/yungbote/notescribe-backend/internal/services"
)

type NoteHandler struct {
	log *logger.Logger
	svc *services.NoteService
}

func NewNoteHandler(baseLog *logger.Logger, svc *services.NoteService) *NoteHandler {
	return &NoteHandler{
		log: baseLog.With("handler", "NoteHandler"),
		svc: svc,
	}
}

func paramInt64(c *gin.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

func readUpload(c *gin.Context) (filename string, mimeType string, data []byte, err error) {
	fh, err := c.FormFile("audio")
	if err != nil {
		return "", "", nil, fmt.Errorf("missing audio file")
	}
	f, err := fh.Open()
	if err != nil {
		return "", "", nil, err
	}
	defer f.Close()
	data, err = io.ReadAll(f)
	if err != nil {
		return "", "", nil, err
	}
	return fh.Filename, fh.Header.Get("Content-Type"), data, nil
}

// CreateWithAudio handles POST /notes/audio: first upload creates the
// note and starts the pipeline. Responds 202, the work is asynchronous.
func (h *NoteHandler) CreateWithAudio(c *gin.Context) {
	patientID, err := strconv.ParseInt(c.PostForm("patientId"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", fmt.Errorf("invalid patientId"))
		return
	}
	filename, mimeType, data, err := readUpload(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	note, err := h.svc.CreateNoteWithAudio(c.Request.Context(), patientID, filename, mimeType, data)
	if err != nil {
		RespondAPIErr(c, err)
		return
	}
	c.JSON(http.StatusAccepted, note)
}

// AppendAudio handles POST /notes/:id/audio for additional recordings on
// a READY note.
func (h *NoteHandler) AppendAudio(c *gin.Context) {
	noteID, err := paramInt64(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	filename, mimeType, data, err := readUpload(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	audio, err := h.svc.AppendAudio(c.Request.Context(), noteID, filename, mimeType, data)
	if err != nil {
		RespondAPIErr(c, err)
		return
	}
	c.JSON(http.StatusAccepted, audio)
}

func (h *NoteHandler) List(c *gin.Context) {
	out, err := h.svc.ListNotes(c.Request.Context())
	if err != nil {
		RespondAPIErr(c, err)
		return
	}
	RespondOK(c, out)
}

func (h *NoteHandler) ListForPatient(c *gin.Context) {
	patientID, err := paramInt64(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	out, err := h.svc.ListNotesForPatient(c.Request.Context(), patientID)
	if err != nil {
		RespondAPIErr(c, err)
		return
	}
	RespondOK(c, out)
}

func (h *NoteHandler) Get(c *gin.Context) {
	noteID, err := paramInt64(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	note, err := h.svc.GetNote(c.Request.Context(), noteID)
	if err != nil {
		RespondAPIErr(c, err)
		return
	}
	RespondOK(c, note)
}

// Patch handles PATCH /notes/:id: user edits to generated form data,
// deep-merged into the stored forms.
func (h *NoteHandler) Patch(c *gin.Context) {
	noteID, err := paramInt64(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	note, err := h.svc.MergeUserForms(c.Request.Context(), noteID, body)
	if err != nil {
		RespondAPIErr(c, err)
		return
	}
	RespondOK(c, note)
}

// GetAudio handles GET /notes/audio/:audioId and streams the stored blob.
func (h *NoteHandler) GetAudio(c *gin.Context) {
	audioID, err := paramInt64(c, "audioId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	audio, data, err := h.svc.GetAudioContent(c.Request.Context(), audioID)
	if err != nil {
		RespondAPIErr(c, err)
		return
	}
	mimeType := audio.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	c.Data(http.StatusOK, mimeType, data)
}

// RequestForm handles POST /notes/:id/form: marks the form requested and
// enqueues its generation.
func (h *NoteHandler) RequestForm(c *gin.Context) {
	noteID, err := paramInt64(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var body struct {
		Form string `json:"form" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	note, err := h.svc.RequestForm(c.Request.Context(), noteID, body.Form)
	if err != nil {
		RespondAPIErr(c, err)
		return
	}
	c.JSON(http.StatusAccepted, note)
}
