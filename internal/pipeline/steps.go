// internal/pipeline/steps.go
package pipeline

import (
	"time"

	"cardio-wsi-back/internal/models"
)

// DefaultTickInterval is the delay between step descriptors.
const DefaultTickInterval = 800 * time.Millisecond

type StepDescriptor struct {
	Progress float64
	Message  string
	Kind     models.LogKind
	// Stage, when set, moves the coarse stepper forward.
	Stage *models.Stage
}

func stagePtr(s models.Stage) *models.Stage { return &s }

// Steps is the fixed sequence applied one per tick.
var Steps = []StepDescriptor{
	{Progress: 15, Message: "Scanning image metadata and headers...", Kind: models.LogProcessing},
	{Progress: 30, Message: "Applying tissue detection filters...", Kind: models.LogProcessing},
	{Progress: 45, Message: "Identifying regions of interest...", Kind: models.LogProcessing},
	{Progress: 60, Message: "Segmenting cardiac tissue structures...", Kind: models.LogProcessing, Stage: stagePtr(models.StageRunModel)},
	{Progress: 75, Message: "Loading deep learning model weights...", Kind: models.LogProcessing},
	{Progress: 85, Message: "Running inference on tissue regions...", Kind: models.LogProcessing},
	{Progress: 95, Message: "Calculating prediction confidences...", Kind: models.LogProcessing},
	{Progress: 100, Message: "Analysis complete!", Kind: models.LogSuccess},
}

const (
	InitialLogMessage   = "System initialized. Waiting for input..."
	initializingMessage = "Initializing analysis pipeline..."
	generatingMessage   = "Generating prediction results..."
	completedMessage    = "Analysis pipeline completed. Results are ready for review."
	readyMessage        = "Files ready for analysis. Start the pipeline to begin."
	uploadedMessageFmt  = "Successfully loaded %d whole slide image(s)."
	summaryMessageFmt   = "Generated %d predictions across %d categories."
)
