// internal/repository/run_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cardio-wsi-back/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultHistoryLimit = 50

// RunRepository archives completed runs for the history view. Archived
// runs are never loaded back into the pipeline.
type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Save(ctx context.Context, snap models.Snapshot) error {
	if snap.RunID == "" || snap.Status != models.StatusComplete {
		return fmt.Errorf("archive run: %w: run is not complete", models.ErrInvalidInput)
	}

	names := make([]string, 0, len(snap.Files))
	for _, f := range snap.Files {
		names = append(names, f.Name)
	}

	run := models.AnalysisRun{
		RunID:           snap.RunID,
		FileCount:       len(snap.Files),
		FileNames:       strings.Join(names, "\n"),
		PredictionCount: len(snap.Predictions),
	}
	if snap.StartedAt != nil {
		run.StartedAt = *snap.StartedAt
	}
	if snap.CompletedAt != nil {
		run.CompletedAt = *snap.CompletedAt
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&run).Error; err != nil {
			return fmt.Errorf("failed to create analysis run: %w", err)
		}
		if len(snap.Predictions) == 0 {
			return nil
		}

		rows := make([]models.ArchivedPrediction, 0, len(snap.Predictions))
		for i, p := range snap.Predictions {
			rows = append(rows, models.ArchivedPrediction{
				AnalysisRunID: run.ID,
				CategoryID:    p.CategoryID,
				FileName:      p.FileName,
				Label:         p.Label,
				Confidence:    p.Confidence,
				Position:      i,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to create archived predictions: %w", err)
		}
		return nil
	})
}

func (r *RunRepository) List(ctx context.Context, limit int) ([]models.AnalysisRun, error) {
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	var runs []models.AnalysisRun
	if err := r.db.WithContext(ctx).Order("completed_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	return runs, nil
}

func (r *RunRepository) Get(ctx context.Context, runID string) (*models.AnalysisRun, error) {
	var run models.AnalysisRun
	err := r.db.WithContext(ctx).
		Preload("Predictions", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("run_id = ?", runID).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("run %s: %w", runID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run: %w", err)
	}
	return &run, nil
}
