// internal/websocket/messages.go
package websocket

import (
	"cardio-wsi-back/internal/models"
	"cardio-wsi-back/internal/pipeline"
)

// WebSocket message types
const (
	MessageTypeSnapshot = "snapshot"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
)

// Message represents a generic WebSocket message
type Message struct {
	Type string `json:"type"`
}

// SnapshotMessage is sent once when a client connects
type SnapshotMessage struct {
	Type   string                 `json:"type"`
	State  models.Snapshot        `json:"state"`
	Groups []models.CategoryGroup `json:"groups"`
}

// EventMessage carries a pipeline event
type EventMessage struct {
	Type        string                    `json:"type"`
	Seq         uint64                    `json:"seq"`
	RunID       string                    `json:"run_id,omitempty"`
	Status      models.Status             `json:"status"`
	Stage       models.Stage              `json:"stage"`
	Progress    float64                   `json:"progress"`
	Log         *models.LogEntry          `json:"log,omitempty"`
	Predictions []models.PredictionRecord `json:"predictions,omitempty"`
}

func newEventMessage(ev pipeline.Event) EventMessage {
	return EventMessage{
		Type:        string(ev.Type),
		Seq:         ev.Seq,
		RunID:       ev.RunID,
		Status:      ev.Status,
		Stage:       ev.Stage,
		Progress:    ev.Progress,
		Log:         ev.Log,
		Predictions: ev.Predictions,
	}
}
