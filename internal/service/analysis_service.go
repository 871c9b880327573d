// internal/service/analysis_service.go
package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"cardio-wsi-back/internal/intake"
	"cardio-wsi-back/internal/models"
	"cardio-wsi-back/internal/pipeline"
)

// AnalysisService is the single entry point used by the HTTP API and the
// terminal UI. It pairs the upload intake with the pipeline so restart
// clears both.
type AnalysisService struct {
	pipeline *pipeline.Pipeline
	intake   *intake.Intake
	logger   *slog.Logger

	// selection orders uploads and restarts: a restart never lands between
	// an upload storing its files and handing them to the pipeline.
	selection sync.Mutex
}

func NewAnalysisService(p *pipeline.Pipeline, in *intake.Intake, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{pipeline: p, intake: in, logger: logger}
}

func (s *AnalysisService) Upload(ctx context.Context, sources []intake.Source) (intake.UploadResult, error) {
	s.selection.Lock()
	defer s.selection.Unlock()
	return s.intake.Select(ctx, sources)
}

func (s *AnalysisService) Start() error {
	return s.pipeline.Start()
}

func (s *AnalysisService) Restart(ctx context.Context) {
	s.selection.Lock()
	defer s.selection.Unlock()
	s.pipeline.Restart()
	s.intake.Reset(ctx)
}

func (s *AnalysisService) Snapshot() models.Snapshot {
	return s.pipeline.Snapshot()
}

func (s *AnalysisService) Prediction(index int) (models.PredictionRecord, error) {
	return s.pipeline.Prediction(index)
}

func (s *AnalysisService) OpenFile(ctx context.Context, id string) (io.ReadCloser, models.UploadedFile, error) {
	return s.intake.OpenContent(ctx, id)
}

func (s *AnalysisService) Subscribe(l pipeline.Listener) func() {
	return s.pipeline.Subscribe(l)
}
