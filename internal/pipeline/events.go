// internal/pipeline/events.go
package pipeline

import "cardio-wsi-back/internal/models"

type EventType string

const (
	EventLog      EventType = "log"
	EventProgress EventType = "progress"
	EventStatus   EventType = "status"
	EventFinished EventType = "finished"
	EventReset    EventType = "reset"
)

// Event is delivered to subscribers in the order state changes happen.
type Event struct {
	Type        EventType                 `json:"type"`
	Seq         uint64                    `json:"seq"`
	RunID       string                    `json:"run_id,omitempty"`
	Status      models.Status             `json:"status"`
	Stage       models.Stage              `json:"stage"`
	Progress    float64                   `json:"progress"`
	Log         *models.LogEntry          `json:"log,omitempty"`
	Predictions []models.PredictionRecord `json:"predictions,omitempty"`
	Run         *models.Snapshot          `json:"-"`
}

// Listener is invoked synchronously while the pipeline holds its lock.
// Listeners must return quickly and must not call back into the pipeline.
type Listener func(Event)
