// internal/pipeline/predictions.go
package pipeline

import (
	"fmt"
	"math"

	"cardio-wsi-back/internal/models"
)

const (
	maxPerCategory = 8
	confidenceMin  = 0.55
	confidenceMax  = 0.95
)

// GeneratePredictions draws between 0 and 8 mock predictions for every
// category, picking source files uniformly with replacement. Output is
// ordered by category, then by draw.
func GeneratePredictions(rng RandomSource, files []models.UploadedFile) []models.PredictionRecord {
	if len(files) == 0 {
		return []models.PredictionRecord{}
	}

	var out []models.PredictionRecord
	for _, category := range models.Categories {
		k := rng.IntN(maxPerCategory + 1)
		for i := 0; i < k; i++ {
			file := files[rng.IntN(len(files))]
			confidence := confidenceMin + rng.Float64()*(confidenceMax-confidenceMin)
			if confidence >= confidenceMax {
				confidence = math.Nextafter(confidenceMax, 0)
			}
			out = append(out, models.PredictionRecord{
				ImageRef:   file.DisplayURL,
				FileName:   file.Name,
				Label:      fmt.Sprintf("%s - %s Region %d", file.Name, category.Title, i+1),
				Confidence: confidence,
				Band:       models.BandFor(confidence),
				CategoryID: category.ID,
			})
		}
	}
	if out == nil {
		out = []models.PredictionRecord{}
	}
	return out
}
