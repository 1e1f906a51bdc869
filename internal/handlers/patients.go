package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/notescribe-backend/internal/data/repos/notes"
	"github.com/yungbote/notescribe-backend/internal/domain"
	"github.com/yungbote/notescribe-backend/internal/platform/dbctx"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
)

type PatientHandler struct {
	log  *logger.Logger
	repo notes.PatientRepo
}

func NewPatientHandler(baseLog *logger.Logger, repo notes.PatientRepo) *PatientHandler {
	return &PatientHandler{
		log:  baseLog.With("handler", "PatientHandler"),
		repo: repo,
	}
}

func (h *PatientHandler) Create(c *gin.Context) {
	var body struct {
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		DOB       string `json:"dob"`
		Address   string `json:"address"`
		MRN       string `json:"mrn"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	patient := &domain.Patient{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Address:   body.Address,
		MRN:       body.MRN,
	}
	if body.DOB != "" {
		dob, err := time.Parse("2006-01-02", body.DOB)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		patient.DOB = dob
	}

	created, err := h.repo.Create(dbctx.Context{Ctx: c.Request.Context()}, patient)
	if err != nil {
		RespondAPIErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *PatientHandler) List(c *gin.Context) {
	out, err := h.repo.ListAll(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		RespondAPIErr(c, err)
		return
	}
	RespondOK(c, out)
}

func (h *PatientHandler) Get(c *gin.Context) {
	id, err := paramInt64(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	patient, err := h.repo.GetByID(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		RespondAPIErr(c, err)
		return
	}
	if patient == nil {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("patient %d not found", id))
		return
	}
	RespondOK(c, patient)
}
