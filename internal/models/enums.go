// internal/models/enums.go
package models

import (
	"encoding/json"
	"fmt"
)

// LogKind classifies an analysis log entry.
type LogKind uint8

const (
	LogInfo LogKind = iota
	LogProcessing
	LogSuccess
	LogError
)

var logKindNames = [...]string{
	LogInfo:       "info",
	LogProcessing: "processing",
	LogSuccess:    "success",
	LogError:      "error",
}

func (k LogKind) String() string {
	if int(k) < len(logKindNames) {
		return logKindNames[k]
	}
	return fmt.Sprintf("LogKind(%d)", uint8(k))
}

func (k LogKind) Valid() bool {
	return int(k) < len(logKindNames)
}

func ParseLogKind(s string) (LogKind, error) {
	for i, name := range logKindNames {
		if name == s {
			return LogKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown log kind %q", s)
}

func (k LogKind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid log kind %d", uint8(k))
	}
	return json.Marshal(k.String())
}

func (k *LogKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLogKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Status is the pipeline lifecycle state.
type Status uint8

const (
	StatusIdle Status = iota
	StatusUploaded
	StatusRunning
	StatusComplete
)

var statusNames = [...]string{
	StatusIdle:     "idle",
	StatusUploaded: "uploaded",
	StatusRunning:  "running",
	StatusComplete: "complete",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) MarshalJSON() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range statusNames {
		if n == name {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", name)
}

// Stage is the coarse four-step indicator shown by the stepper.
// StageNone (-1) means no run has begun.
type Stage int

const (
	StageNone        Stage = -1
	StageLoadWSI     Stage = 0
	StageAutoFilter  Stage = 1
	StageRunModel    Stage = 2
	StagePredictions Stage = 3
)

// Stages lists the stepper labels in order.
var Stages = []StageInfo{
	{Stage: StageLoadWSI, Label: "Load WSI"},
	{Stage: StageAutoFilter, Label: "Auto Filter"},
	{Stage: StageRunModel, Label: "Run Model"},
	{Stage: StagePredictions, Label: "Predictions"},
}

type StageInfo struct {
	Stage Stage  `json:"stage"`
	Label string `json:"label"`
}

func (s Stage) Label() string {
	for _, info := range Stages {
		if info.Stage == s {
			return info.Label
		}
	}
	return ""
}

// ConfidenceBand buckets a confidence value for display.
type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "high"
	ConfidenceMedium ConfidenceBand = "medium"
	ConfidenceLow    ConfidenceBand = "low"
)

func BandFor(confidence float64) ConfidenceBand {
	switch {
	case confidence >= 0.8:
		return ConfidenceHigh
	case confidence >= 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
