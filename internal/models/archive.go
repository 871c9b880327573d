// internal/models/archive.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// AnalysisRun is the history record written when a run completes.
type AnalysisRun struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	RunID           string         `gorm:"uniqueIndex;not null" json:"run_id"`
	FileCount       int            `gorm:"not null" json:"file_count"`
	FileNames       string         `gorm:"type:text" json:"file_names"`
	PredictionCount int            `gorm:"not null" json:"prediction_count"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     time.Time      `json:"completed_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Predictions []ArchivedPrediction `gorm:"foreignKey:AnalysisRunID" json:"predictions,omitempty"`
}

type ArchivedPrediction struct {
	ID            uint    `gorm:"primarykey" json:"id"`
	AnalysisRunID uint    `gorm:"not null;index" json:"analysis_run_id"`
	CategoryID    string  `gorm:"not null;index" json:"category_id"`
	FileName      string  `json:"file_name"`
	Label         string  `json:"label"`
	Confidence    float64 `gorm:"not null" json:"confidence"`
	Position      int     `gorm:"not null" json:"position"`
}
