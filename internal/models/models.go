// internal/models/models.go
package models

import (
	"time"
)

type UploadedFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentRef  string `json:"content_ref"`
	DisplayURL  string `json:"display_url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type LogEntry struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Kind      LogKind   `json:"kind"`
}

type PredictionRecord struct {
	ImageRef   string         `json:"image_ref"`
	FileName   string         `json:"file_name"`
	Label      string         `json:"label"`
	Confidence float64        `json:"confidence"`
	Band       ConfidenceBand `json:"band"`
	CategoryID string         `json:"category_id"`
}

type Category struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Categories is the fixed classification set, in display order.
var Categories = []Category{
	{ID: "1r1a", Title: "1R1A", Description: "Grade 1A rejection"},
	{ID: "1r2", Title: "1R2", Description: "Grade 2 rejection"},
	{ID: "healing", Title: "Healing", Description: "Healing tissue"},
	{ID: "normal", Title: "Normal", Description: "Normal tissue"},
}

func IsCategory(id string) bool {
	for _, c := range Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// CategoryGroup is one category with the predictions assigned to it.
type CategoryGroup struct {
	Category    Category           `json:"category"`
	Predictions []PredictionRecord `json:"predictions"`
}

// GroupByCategory buckets predictions in static category order. Every
// category is present, possibly with no predictions.
func GroupByCategory(predictions []PredictionRecord) []CategoryGroup {
	groups := make([]CategoryGroup, len(Categories))
	index := make(map[string]int, len(Categories))
	for i, c := range Categories {
		groups[i] = CategoryGroup{Category: c, Predictions: []PredictionRecord{}}
		index[c.ID] = i
	}
	for _, p := range predictions {
		if i, ok := index[p.CategoryID]; ok {
			groups[i].Predictions = append(groups[i].Predictions, p)
		}
	}
	return groups
}

// Snapshot is a point-in-time copy of the pipeline state.
type Snapshot struct {
	Seq          uint64             `json:"seq"`
	RunID        string             `json:"run_id,omitempty"`
	Status       Status             `json:"status"`
	Stage        Stage              `json:"stage"`
	Progress     float64            `json:"progress"`
	IsProcessing bool               `json:"is_processing"`
	Files        []UploadedFile     `json:"files"`
	Log          []LogEntry         `json:"log"`
	Predictions  []PredictionRecord `json:"predictions"`
	StartedAt    *time.Time         `json:"started_at,omitempty"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
}
