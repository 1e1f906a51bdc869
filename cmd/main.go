package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	repojobs "github.com/yungbote/notescribe-backend/internal/data/repos/jobs"
	reponotes "github.com/yungbote/notescribe-backend/internal/data/repos/notes"

	redisclient "github.com/yungbote/notescribe-backend/internal/clients/redis"
	"github.com/yungbote/notescribe-backend/internal/config"
	"github.com/yungbote/notescribe-backend/internal/db"
	"github.com/yungbote/notescribe-backend/internal/generation"
	"github.com/yungbote/notescribe-backend/internal/handlers"
	"github.com/yungbote/notescribe-backend/internal/jobs"
	"github.com/yungbote/notescribe-backend/internal/jobs/pipeline/generate"
	"github.com/yungbote/notescribe-backend/internal/jobs/pipeline/summarize"
	"github.com/yungbote/notescribe-backend/internal/jobs/pipeline/transcribe"
	"github.com/yungbote/notescribe-backend/internal/jobs/runtime"
	"github.com/yungbote/notescribe-backend/internal/jobs/worker"
	"github.com/yungbote/notescribe-backend/internal/platform/envutil"
	"github.com/yungbote/notescribe-backend/internal/platform/gcp"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
	"github.com/yungbote/notescribe-backend/internal/platform/openai"
	"github.com/yungbote/notescribe-backend/internal/server"
	"github.com/yungbote/notescribe-backend/internal/services"
	"github.com/yungbote/notescribe-backend/internal/sse"
	"github.com/yungbote/notescribe-backend/internal/storage"
)

func main() {
	// Logger
	logMode := envutil.Str("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	noteRepo := reponotes.NewNoteRepo(thePG, log)
	audioRepo := reponotes.NewAudioRepo(thePG, log)
	patientRepo := reponotes.NewPatientRepo(thePG, log)
	jobRunRepo := repojobs.NewJobRunRepo(thePG, log)

	// SSE hub + redis bus
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewHub(log)
	var noteBus redisclient.NoteBus
	if envutil.Str("REDIS_ADDR", "") != "" {
		noteBus, err = redisclient.NewNoteBus(log)
		if err != nil {
			log.Fatal("Could not init redis note bus", "error", err)
		}
	} else {
		log.Warn("REDIS_ADDR not set; note events stay process-local")
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if noteBus != nil {
		if err := noteBus.StartForwarder(rootCtx, func(m sse.Message) {
			sseHub.Broadcast(m)
		}); err != nil {
			log.Fatal("Could not start note bus forwarder", "error", err)
		}
	}

	// Clients
	log.Info("Setting up clients from main...")
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Fatal("Could not init OpenAI client", "error", err)
	}
	var speechClient gcp.Speech
	if envutil.Str("TRANSCRIBE_PROVIDER", "openai") == "gcp" {
		speechClient, err = gcp.NewSpeech(log)
		if err != nil {
			log.Fatal("Could not init GCP speech client", "error", err)
		}
		defer speechClient.Close()
	}
	blobStore, err := storage.NewFromEnv(log)
	if err != nil {
		log.Fatal("Could not init blob store", "error", err)
	}

	// Services
	log.Info("Setting up services from main...")
	notifier := services.NewNoteNotifier(log, noteBus, sseHub)
	transcriber, err := services.NewTranscriptionService(log, openaiClient, speechClient)
	if err != nil {
		log.Fatal("Could not init transcription service", "error", err)
	}
	enqueuer := jobs.NewEnqueuer(jobRunRepo, log)
	noteService := services.NewNoteService(log, noteRepo, audioRepo, blobStore, enqueuer, notifier)
	generator := generation.New(log, openaiClient, cfg.Generation.MaxDepth, cfg.Generation.Concurrency)

	// Job handlers + worker
	log.Info("Registering job handlers from main...")
	registry := runtime.NewRegistry()
	mustRegister := func(h runtime.Handler) {
		if err := registry.Register(h); err != nil {
			log.Fatal("Handler registration failed", "error", err)
		}
	}
	mustRegister(transcribe.NewHandler(log, noteRepo, audioRepo, blobStore, transcriber, enqueuer, notifier))
	mustRegister(summarize.NewHandler(log, noteRepo, openaiClient, notifier))
	mustRegister(generate.NewHandler(log, noteRepo, generator, notifier))

	jobWorker := worker.NewWorker(thePG, log, jobRunRepo, registry, worker.Policy{
		Concurrency:  cfg.Worker.Concurrency,
		MaxAttempts:  cfg.Worker.MaxAttempts,
		RetryDelay:   time.Duration(cfg.Worker.RetryDelaySeconds) * time.Second,
		StaleRunning: time.Duration(cfg.Worker.StaleRunningMinutes) * time.Minute,
	})
	jobWorker.Start(rootCtx)

	// Handlers + router
	log.Info("Setting up handlers from main...")
	noteHandler := handlers.NewNoteHandler(log, noteService)
	patientHandler := handlers.NewPatientHandler(log, patientRepo)
	sseHandler := handlers.NewSSEHandler(log, sseHub)

	router := server.NewRouter(server.RouterConfig{
		NoteHandler:    noteHandler,
		PatientHandler: patientHandler,
		SSEHandler:     sseHandler,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", "error", err)
		}
	}()

	// Graceful shutdown: stop accepting requests, stop the worker pool,
	// close the bus.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown error", "error", err)
	}
	if noteBus != nil {
		if err := noteBus.Close(); err != nil {
			log.Warn("Note bus close error", "error", err)
		}
	}
	log.Info("Shutdown complete")
}
