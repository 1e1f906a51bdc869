package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/notescribe-backend/internal/handlers"
	"github.com/yungbote/notescribe-backend/internal/platform/envutil"
)

type RouterConfig struct {
	NoteHandler    *handlers.NoteHandler
	PatientHandler *handlers.PatientHandler
	SSEHandler     *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			envutil.Str("CORS_ORIGIN", "http://localhost:5173"),
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Patients
		api.POST("/patients", cfg.PatientHandler.Create)
		api.GET("/patients", cfg.PatientHandler.List)
		api.GET("/patients/:id", cfg.PatientHandler.Get)

		// Notes
		api.POST("/notes/audio", cfg.NoteHandler.CreateWithAudio)
		api.GET("/notes", cfg.NoteHandler.List)
		api.GET("/notes/patient/:id", cfg.NoteHandler.ListForPatient)
		api.GET("/notes/audio/:audioId", cfg.NoteHandler.GetAudio)
		api.GET("/notes/:id", cfg.NoteHandler.Get)
		api.PATCH("/notes/:id", cfg.NoteHandler.Patch)
		api.POST("/notes/:id/audio", cfg.NoteHandler.AppendAudio)
		api.POST("/notes/:id/form", cfg.NoteHandler.RequestForm)

		// SSE
		api.GET("/sse/stream", cfg.SSEHandler.Stream)
	}

	return router
}
