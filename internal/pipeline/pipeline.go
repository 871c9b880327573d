// internal/pipeline/pipeline.go
package pipeline

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cardio-wsi-back/internal/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Pipeline is the mock analysis state machine. All operations and timer
// ticks are serialised by one mutex.
type Pipeline struct {
	mu sync.Mutex

	scheduler Scheduler
	rng       RandomSource
	interval  time.Duration
	logger    *slog.Logger
	newID     func() string

	listeners  map[int]Listener
	listenerID int

	// generation invalidates ticks scheduled before a restart.
	generation uint64
	pending    clockwork.Timer
	// seq numbers every emitted event; snapshots carry the last one.
	seq uint64

	runID       string
	status      models.Status
	stage       models.Stage
	progress    float64
	processing  bool
	nextStep    int
	files       []models.UploadedFile
	log         []models.LogEntry
	predictions []models.PredictionRecord
	startedAt   time.Time
	completedAt time.Time
}

type Option func(*Pipeline)

func WithScheduler(s Scheduler) Option {
	return func(p *Pipeline) { p.scheduler = s }
}

func WithRandomSource(r RandomSource) Option {
	return func(p *Pipeline) { p.rng = r }
}

func WithTickInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) { p.newID = fn }
}

func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		scheduler: clockwork.NewRealClock(),
		interval:  DefaultTickInterval,
		logger:    slog.Default(),
		newID:     uuid.NewString,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = NewRandomSource(0)
	}
	p.resetLocked()
	return p
}

// Subscribe registers a listener and returns a func that removes it.
func (p *Pipeline) Subscribe(l Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listenerID++
	id := p.listenerID
	p.listeners[id] = l
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Select stores the uploaded files and moves the pipeline to Uploaded.
// A selection may replace an earlier one until the run is started.
func (p *Pipeline) Select(files []models.UploadedFile) error {
	if len(files) == 0 {
		return fmt.Errorf("select: %w", models.ErrEmptySelection)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status != models.StatusIdle && p.status != models.StatusUploaded {
		return fmt.Errorf("select: %w: pipeline is %s", models.ErrInvalidState, p.status)
	}

	p.files = append([]models.UploadedFile(nil), files...)
	if p.runID == "" {
		p.runID = p.newID()
	}
	p.stage = models.StageLoadWSI
	p.setStatusLocked(models.StatusUploaded)
	p.appendLogLocked(fmt.Sprintf(uploadedMessageFmt, len(files)), models.LogSuccess)
	p.appendLogLocked(readyMessage, models.LogInfo)

	p.logger.Info("files selected", "run_id", p.runID, "count", len(files))
	return nil
}

// Start begins the timed step sequence. It returns immediately; progress
// is observed through Snapshot or subscribed listeners.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.status {
	case models.StatusUploaded:
	case models.StatusRunning:
		return fmt.Errorf("start: %w", models.ErrAlreadyRunning)
	case models.StatusIdle:
		return fmt.Errorf("start: %w: no uploaded files", models.ErrInvalidState)
	default:
		return fmt.Errorf("start: %w: pipeline is %s, restart first", models.ErrInvalidState, p.status)
	}
	if len(p.files) == 0 {
		return fmt.Errorf("start: %w: no uploaded files", models.ErrInvalidState)
	}

	p.processing = true
	p.progress = 0
	p.nextStep = 0
	p.stage = models.StageAutoFilter
	p.startedAt = p.now()
	p.setStatusLocked(models.StatusRunning)
	p.appendLogLocked(initializingMessage, models.LogInfo)
	p.scheduleLocked()

	p.logger.Info("analysis started", "run_id", p.runID, "files", len(p.files), "interval", p.interval)
	return nil
}

// Restart drops every run-scoped value and cancels pending ticks. It is
// valid from any state.
func (p *Pipeline) Restart() {
	p.mu.Lock()
	defer p.mu.Unlock()

	runID := p.runID
	p.resetLocked()
	seed := p.log[0]
	p.emitLocked(Event{Type: EventReset, Log: &seed})

	p.logger.Info("pipeline restarted", "previous_run_id", runID)
}

func (p *Pipeline) Snapshot() models.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Prediction returns the record at index for the detail view.
func (p *Pipeline) Prediction(index int) (models.PredictionRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.predictions) {
		return models.PredictionRecord{}, fmt.Errorf("prediction %d: %w", index, models.ErrNotFound)
	}
	return p.predictions[index], nil
}

func (p *Pipeline) tick(generation uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if generation != p.generation || p.status != models.StatusRunning {
		return
	}
	p.pending = nil

	step := Steps[p.nextStep]
	p.nextStep++
	p.progress = step.Progress
	if step.Stage != nil {
		p.stage = *step.Stage
	}
	p.appendLogLocked(step.Message, step.Kind)
	p.emitLocked(Event{Type: EventProgress})

	p.logger.Debug("analysis step applied", "run_id", p.runID, "step", p.nextStep, "progress", step.Progress)

	if p.nextStep == len(Steps) {
		p.completeLocked()
		return
	}
	p.scheduleLocked()
}

func (p *Pipeline) completeLocked() {
	p.processing = false
	p.appendLogLocked(generatingMessage, models.LogInfo)

	p.predictions = GeneratePredictions(p.rng, p.files)
	p.appendLogLocked(fmt.Sprintf(summaryMessageFmt, len(p.predictions), len(models.Categories)), models.LogSuccess)
	p.appendLogLocked(completedMessage, models.LogInfo)

	p.stage = models.StagePredictions
	p.completedAt = p.now()
	p.setStatusLocked(models.StatusComplete)

	snap := p.snapshotLocked()
	p.emitLocked(Event{Type: EventFinished, Predictions: snap.Predictions, Run: &snap})

	p.logger.Info("analysis completed", "run_id", p.runID, "predictions", len(p.predictions))
}

func (p *Pipeline) scheduleLocked() {
	generation := p.generation
	p.pending = p.scheduler.AfterFunc(p.interval, func() { p.tick(generation) })
}

func (p *Pipeline) resetLocked() {
	p.generation++
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
	p.runID = ""
	p.status = models.StatusIdle
	p.stage = models.StageNone
	p.progress = 0
	p.processing = false
	p.nextStep = 0
	p.files = nil
	p.predictions = nil
	p.startedAt = time.Time{}
	p.completedAt = time.Time{}
	p.log = []models.LogEntry{{
		Text:      InitialLogMessage,
		Timestamp: p.now(),
		Kind:      models.LogInfo,
	}}
}

func (p *Pipeline) setStatusLocked(s models.Status) {
	p.status = s
	p.emitLocked(Event{Type: EventStatus})
}

func (p *Pipeline) appendLogLocked(text string, kind models.LogKind) {
	ts := p.now()
	if n := len(p.log); n > 0 && ts.Before(p.log[n-1].Timestamp) {
		ts = p.log[n-1].Timestamp
	}
	p.log = append(p.log, models.LogEntry{Text: text, Timestamp: ts, Kind: kind})
	entry := p.log[len(p.log)-1]
	p.emitLocked(Event{Type: EventLog, Log: &entry})
}

func (p *Pipeline) emitLocked(ev Event) {
	p.seq++
	if len(p.listeners) == 0 {
		return
	}
	ev.Seq = p.seq
	ev.RunID = p.runID
	ev.Status = p.status
	ev.Stage = p.stage
	ev.Progress = p.progress
	for _, l := range p.listeners {
		l(ev)
	}
}

func (p *Pipeline) now() time.Time {
	return p.scheduler.Now().UTC()
}

func (p *Pipeline) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{
		Seq:          p.seq,
		RunID:        p.runID,
		Status:       p.status,
		Stage:        p.stage,
		Progress:     p.progress,
		IsProcessing: p.processing,
		Files:        append([]models.UploadedFile{}, p.files...),
		Log:          append([]models.LogEntry{}, p.log...),
		Predictions:  append([]models.PredictionRecord{}, p.predictions...),
	}
	if !p.startedAt.IsZero() {
		t := p.startedAt
		snap.StartedAt = &t
	}
	if !p.completedAt.IsZero() {
		t := p.completedAt
		snap.CompletedAt = &t
	}
	return snap
}
