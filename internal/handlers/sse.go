package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/notescribe-backend/internal/platform/logger"
	"github.com/yungbote/notescribe-backend/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.Hub
}

func NewSSEHandler(baseLog *logger.Logger, hub *sse.Hub) *SSEHandler {
	return &SSEHandler{
		log: baseLog.With("handler", "SSEHandler"),
		hub: hub,
	}
}

// Stream handles GET /sse/stream?patientId=N: subscribes the client to
// that patient's room and streams note events until it disconnects.
func (h *SSEHandler) Stream(c *gin.Context) {
	patientID, err := strconv.ParseInt(c.Query("patientId"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	client := h.hub.NewClient()
	h.hub.AddChannel(client, sse.PatientChannel(patientID))
	defer h.hub.CloseClient(client)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
