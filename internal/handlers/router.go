// internal/handlers/router.go
package handlers

import (
	"log/slog"
	"net/http"

	"cardio-wsi-back/internal/middleware"
	"cardio-wsi-back/internal/observability/metrics"
	"cardio-wsi-back/internal/service"
	ws "cardio-wsi-back/internal/websocket"

	"github.com/gin-gonic/gin"
)

const serviceName = "cardio-wsi-back"

type RouterDeps struct {
	Service        *service.AnalysisService
	Hub            *ws.Hub
	History        HistoryReader
	Metrics        *metrics.HTTPServerMetrics
	Logger         *slog.Logger
	AllowedOrigins []string
	UploadsPerMin  int
	MaxUploadBytes int64
}

func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.CORSMiddleware(deps.AllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware(serviceName))
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := middleware.NewRateLimiter(deps.UploadsPerMin)

	api := r.Group("/api")
	{
		api.GET("/categories", GetCategories)
		api.GET("/uploads/formats", GetUploadFormats)
		api.POST("/uploads", limiter.Middleware(), UploadFiles(deps.Service, deps.MaxUploadBytes))
		api.GET("/files/:id/content", GetFileContent(deps.Service))

		api.GET("/analysis", GetAnalysis(deps.Service))
		api.POST("/analysis/start", StartAnalysis(deps.Service))
		api.POST("/analysis/restart", RestartAnalysis(deps.Service))
		api.GET("/analysis/log", GetLog(deps.Service))
		api.GET("/predictions/:index", GetPrediction(deps.Service))

		if deps.Hub != nil {
			api.GET("/analysis/stream", StreamAnalysis(deps.Hub, deps.AllowedOrigins))
		}
		if deps.History != nil {
			api.GET("/history", GetHistory(deps.History))
			api.GET("/history/:runID", GetHistoryRun(deps.History))
		}
	}

	return r
}
