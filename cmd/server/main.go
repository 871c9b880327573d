// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardio-wsi-back/internal/config"
	"cardio-wsi-back/internal/database"
	"cardio-wsi-back/internal/handlers"
	"cardio-wsi-back/internal/intake"
	"cardio-wsi-back/internal/observability/logging"
	"cardio-wsi-back/internal/observability/metrics"
	"cardio-wsi-back/internal/pipeline"
	"cardio-wsi-back/internal/repository"
	"cardio-wsi-back/internal/service"
	"cardio-wsi-back/internal/storage"
	"cardio-wsi-back/internal/websocket"
	"cardio-wsi-back/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger := logging.NewJSONLogger("cardio-wsi-back", cfg.Log.Level)
	slog.SetDefault(logger)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newContentStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize content store", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPServerMetrics(registry, "cardio-wsi-back")
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	p := pipeline.New(
		pipeline.WithScheduler(clockwork.NewRealClock()),
		pipeline.WithRandomSource(pipeline.NewRandomSource(cfg.Pipeline.Seed)),
		pipeline.WithTickInterval(cfg.Pipeline.TickInterval),
		pipeline.WithLogger(logger),
	)

	in := intake.New(store, p, intake.Limits{
		MaxFiles:    cfg.Upload.MaxFiles,
		MaxFileSize: cfg.Upload.MaxFileSize,
	}, logger)
	in.OnAccepted = pipelineMetrics.AddUploadedFiles

	svc := service.NewAnalysisService(p, in, logger)

	hub := websocket.NewHub(svc.Snapshot, logger)
	go hub.Run(ctx)

	svc.Subscribe(pipelineMetrics.Observe)
	svc.Subscribe(hub.Observe)

	deps := handlers.RouterDeps{
		Service:        svc,
		Hub:            hub,
		Metrics:        httpMetrics,
		Logger:         logger,
		AllowedOrigins: cfg.Server.CORSOrigins,
		UploadsPerMin:  cfg.Upload.RatePerMinute,
		MaxUploadBytes: handlers.UploadBodyLimit(cfg.Upload.MaxFiles, cfg.Upload.MaxFileSize),
	}

	var archiver *worker.ArchiveWorker
	if cfg.Database.DSN != "" {
		// Initialize database
		db, err := database.InitDB(cfg.Database.DSN)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}

		// Auto-migrate models
		if err := database.MigrateDB(db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}

		repo := repository.NewRunRepository(db)
		archiver = worker.NewArchiveWorker(repo, logger, 16)
		go archiver.Run(context.WithoutCancel(ctx))
		svc.Subscribe(archiver.Observe)
		deps.History = repo
	} else {
		logger.Info("database not configured, run history disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handlers.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}

	// Pending ticks stop here, before the archive queue is drained.
	svc.Restart(shutdownCtx)

	if archiver != nil {
		archiver.Close()
		select {
		case <-archiver.Done():
		case <-shutdownCtx.Done():
			logger.Warn("archive worker did not drain before timeout")
		}
	}
}

func newContentStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ContentStore, error) {
	if !cfg.MinIO.Enabled {
		logger.Info("minio disabled, keeping uploads in memory")
		return storage.NewMemoryStore(), nil
	}
	client, err := storage.NewMinIOClient(ctx, cfg.MinIO)
	if err != nil {
		return nil, err
	}
	logger.Info("minio content store ready", "endpoint", cfg.MinIO.Endpoint, "bucket", cfg.MinIO.Bucket)
	return client, nil
}
