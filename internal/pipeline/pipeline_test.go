package pipeline

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"cardio-wsi-back/internal/models"
	"cardio-wsi-back/internal/pipeline/pipelinetest"

	"github.com/jonboulle/clockwork"
)

func TestNewPipelineStartsIdle(t *testing.T) {
	p := newTestPipeline(pipelinetest.NewClock(), NewRandomSource(1))
	snap := p.Snapshot()

	if snap.Status != models.StatusIdle || snap.Stage != models.StageNone {
		t.Fatalf("unexpected initial state: %s stage %d", snap.Status, snap.Stage)
	}
	if len(snap.Log) != 1 || snap.Log[0].Text != InitialLogMessage || snap.Log[0].Kind != models.LogInfo {
		t.Fatalf("unexpected initial log: %+v", snap.Log)
	}
	if !snap.Log[0].Timestamp.Equal(pipelinetest.Epoch) {
		t.Fatalf("expected log stamped by the injected clock, got %s", snap.Log[0].Timestamp)
	}
}

func TestSelectAppendsTwoLogEntries(t *testing.T) {
	p := newTestPipeline(pipelinetest.NewClock(), NewRandomSource(1))

	if err := p.Select(testFiles("a.svs", "b.svs")); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	snap := p.Snapshot()
	if snap.Status != models.StatusUploaded {
		t.Fatalf("expected uploaded, got %s", snap.Status)
	}
	if snap.Stage != models.StageLoadWSI {
		t.Fatalf("expected stage %d, got %d", models.StageLoadWSI, snap.Stage)
	}
	if len(snap.Log) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(snap.Log))
	}
	if snap.Log[1].Kind != models.LogSuccess || snap.Log[1].Text != "Successfully loaded 2 whole slide image(s)." {
		t.Fatalf("unexpected success entry: %+v", snap.Log[1])
	}
	if snap.Log[2].Kind != models.LogInfo {
		t.Fatalf("expected info readiness entry, got %+v", snap.Log[2])
	}
	if snap.RunID == "" {
		t.Fatal("expected run id after select")
	}
}

func TestSelectEmptyIsRejectedWithoutMutation(t *testing.T) {
	p := newTestPipeline(pipelinetest.NewClock(), NewRandomSource(1))
	before := p.Snapshot()

	err := p.Select(nil)
	if !errors.Is(err, models.ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	if after := p.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed on rejected select:\n%+v\n%+v", before, after)
	}
}

func TestSelectWhileRunningIsRejected(t *testing.T) {
	p := newTestPipeline(pipelinetest.NewClock(), NewRandomSource(1))
	if err := p.Select(testFiles("a.svs")); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	err := p.Select(testFiles("b.svs"))
	if !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if got := p.Snapshot().Files; len(got) != 1 || got[0].Name != "a.svs" {
		t.Fatalf("files changed: %+v", got)
	}
}

func TestStartBeforeUploadIsRejected(t *testing.T) {
	clock := pipelinetest.NewClock()
	p := newTestPipeline(clock, NewRandomSource(1))
	before := p.Snapshot()

	err := p.Start()
	if !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if errors.Is(err, models.ErrAlreadyRunning) {
		t.Fatalf("did not expect ErrAlreadyRunning: %v", err)
	}
	if after := p.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatal("state changed on rejected start")
	}
	pipelinetest.NoTickScheduled(t, clock)
}

func TestStartWhileRunningIsRejected(t *testing.T) {
	clock := pipelinetest.NewClock()
	p := newTestPipeline(clock, NewRandomSource(1))
	if err := p.Select(testFiles("a.svs")); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	pipelinetest.Ticks(t, clock, p, DefaultTickInterval, 1)
	logLen := len(p.Snapshot().Log)

	err := p.Start()
	if !errors.Is(err, models.ErrAlreadyRunning) || !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if got := len(p.Snapshot().Log); got != logLen {
		t.Fatalf("log grew on rejected start: %d -> %d", logLen, got)
	}

	// A second tick chain would apply two steps per interval.
	snap := pipelinetest.Ticks(t, clock, p, DefaultTickInterval, 1)
	if snap.Progress != Steps[1].Progress {
		t.Fatalf("expected progress %v after two ticks, got %v", Steps[1].Progress, snap.Progress)
	}
}

// progressRecorder collects progress events from the tick goroutines.
type progressRecorder struct {
	mu           sync.Mutex
	progress     []float64
	stageAtSixty models.Stage
}

func (r *progressRecorder) observe(ev Event) {
	if ev.Type != EventProgress {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, ev.Progress)
	if ev.Progress == 60 {
		r.stageAtSixty = ev.Stage
	}
}

func (r *progressRecorder) values() ([]float64, models.Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.progress...), r.stageAtSixty
}

func TestStartDrivesStepsInOrder(t *testing.T) {
	clock := pipelinetest.NewClock()
	p := newTestPipeline(clock, NewRandomSource(3))

	rec := &progressRecorder{}
	p.Subscribe(rec.observe)

	if err := p.Select(testFiles("a.svs", "b.svs")); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	snap := p.Snapshot()
	if snap.Status != models.StatusRunning || !snap.IsProcessing || snap.Progress != 0 {
		t.Fatalf("unexpected state after start: %+v", snap)
	}
	if snap.Stage != models.StageAutoFilter {
		t.Fatalf("expected auto filter stage, got %d", snap.Stage)
	}

	clock.Advance(DefaultTickInterval - time.Millisecond)
	if got, _ := rec.values(); len(got) != 0 {
		t.Fatalf("tick fired early: %v", got)
	}
	clock.Advance(time.Millisecond)
	pipelinetest.WaitFor(t, p, func(s models.Snapshot) bool { return s.Progress == 15 })

	snap = pipelinetest.Ticks(t, clock, p, DefaultTickInterval, len(Steps)-1)

	progress, stageAtSixty := rec.values()
	want := []float64{15, 30, 45, 60, 75, 85, 95, 100}
	if !reflect.DeepEqual(progress, want) {
		t.Fatalf("progress = %v, want %v", progress, want)
	}
	if stageAtSixty != models.StageRunModel {
		t.Fatalf("expected run model stage at 60%%, got %d", stageAtSixty)
	}

	if snap.Status != models.StatusComplete || snap.IsProcessing {
		t.Fatalf("expected complete and not processing, got %s processing=%v", snap.Status, snap.IsProcessing)
	}
	if snap.Progress != 100 || snap.Stage != models.StagePredictions {
		t.Fatalf("unexpected final progress/stage: %v/%d", snap.Progress, snap.Stage)
	}
	pipelinetest.NoTickScheduled(t, clock)
}

func TestStepLogEntriesUseDescriptorKinds(t *testing.T) {
	clock := pipelinetest.NewClock()
	p := newTestPipeline(clock, NewRandomSource(3))
	_ = p.Select(testFiles("a.svs"))
	_ = p.Start()

	log := pipelinetest.Ticks(t, clock, p, DefaultTickInterval, len(Steps)).Log
	// seed + 2 upload + init precede the step entries
	steps := log[4 : 4+len(Steps)]
	for i, entry := range steps {
		if entry.Text != Steps[i].Message || entry.Kind != Steps[i].Kind {
			t.Fatalf("step %d entry = %+v, want %q/%s", i, entry, Steps[i].Message, Steps[i].Kind)
		}
	}
	for i := 1; i < len(log); i++ {
		if log[i].Timestamp.Before(log[i-1].Timestamp) {
			t.Fatalf("log timestamps decrease at %d", i)
		}
	}
	last := log[len(log)-1].Timestamp
	if want := pipelinetest.Epoch.Add(time.Duration(len(Steps)) * DefaultTickInterval); !last.Equal(want) {
		t.Fatalf("last entry stamped %s, want %s", last, want)
	}
	for _, entry := range log {
		if entry.Kind == models.LogError {
			t.Fatalf("unexpected error entry: %+v", entry)
		}
	}
}

func TestRestartResetsState(t *testing.T) {
	clock := pipelinetest.NewClock()
	p := newTestPipeline(clock, NewRandomSource(5))
	_ = p.Select(testFiles("a.svs", "b.svs"))
	_ = p.Start()
	pipelinetest.Ticks(t, clock, p, DefaultTickInterval, len(Steps))

	p.Restart()
	snap := p.Snapshot()

	if snap.Status != models.StatusIdle || snap.Stage != models.StageNone {
		t.Fatalf("unexpected state after restart: %s/%d", snap.Status, snap.Stage)
	}
	if snap.Progress != 0 || snap.IsProcessing || snap.RunID != "" {
		t.Fatalf("run state not cleared: %+v", snap)
	}
	if len(snap.Files) != 0 || len(snap.Predictions) != 0 {
		t.Fatalf("files/predictions not cleared: %+v", snap)
	}
	if len(snap.Log) != 1 || snap.Log[0].Text != InitialLogMessage || snap.Log[0].Kind != models.LogInfo {
		t.Fatalf("unexpected log after restart: %+v", snap.Log)
	}
}

func TestRestartCancelsPendingTicks(t *testing.T) {
	clock := pipelinetest.NewClock()
	p := newTestPipeline(clock, NewRandomSource(5))
	_ = p.Select(testFiles("a.svs"))
	_ = p.Start()
	pipelinetest.Ticks(t, clock, p, DefaultTickInterval, 2)

	p.Restart()
	pipelinetest.NoTickScheduled(t, clock)

	clock.Advance(time.Minute)
	snap := p.Snapshot()
	if len(snap.Log) != 1 || snap.Progress != 0 || snap.Status != models.StatusIdle {
		t.Fatalf("state mutated after restart: %+v", snap)
	}
}

// leakyClock ignores Stop so the generation guard alone must discard
// ticks that outlive a restart. fired receives once per finished callback.
type leakyClock struct {
	*clockwork.FakeClock
	fired chan struct{}
}

type leakyTimer struct{ clockwork.Timer }

func (leakyTimer) Stop() bool { return false }

func (c leakyClock) AfterFunc(d time.Duration, f func()) clockwork.Timer {
	return leakyTimer{c.FakeClock.AfterFunc(d, func() {
		f()
		c.fired <- struct{}{}
	})}
}

func TestStaleTickAfterRestartIsNoop(t *testing.T) {
	clock := leakyClock{FakeClock: pipelinetest.NewClock(), fired: make(chan struct{}, 1)}
	p := newTestPipeline(clock, NewRandomSource(5))
	_ = p.Select(testFiles("a.svs"))
	_ = p.Start()

	p.Restart()
	_ = p.Select(testFiles("b.svs"))
	clock.Advance(time.Minute)

	select {
	case <-clock.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("stale tick never ran")
	}

	snap := p.Snapshot()
	if snap.Status != models.StatusUploaded || snap.Progress != 0 {
		t.Fatalf("stale tick mutated new run: %s progress=%v", snap.Status, snap.Progress)
	}
	if len(snap.Log) != 3 {
		t.Fatalf("expected seed + 2 upload entries, got %d", len(snap.Log))
	}
}

func TestRestartIsIdempotent(t *testing.T) {
	clock := pipelinetest.NewClock()
	p := newTestPipeline(clock, NewRandomSource(5))
	_ = p.Select(testFiles("a.svs"))
	_ = p.Start()
	pipelinetest.Ticks(t, clock, p, DefaultTickInterval, 1)

	p.Restart()
	once := p.Snapshot()
	p.Restart()
	twice := p.Snapshot()

	if twice.Seq != once.Seq+1 {
		t.Fatalf("expected one reset event, seq %d -> %d", once.Seq, twice.Seq)
	}
	once.Seq, twice.Seq = 0, 0
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("second restart changed state:\n%+v\n%+v", once, twice)
	}
}

func TestEventsAreNumberedInOrder(t *testing.T) {
	clock := pipelinetest.NewClock()
	p := newTestPipeline(clock, NewRandomSource(5))

	var mu sync.Mutex
	var seqs []uint64
	p.Subscribe(func(ev Event) {
		mu.Lock()
		seqs = append(seqs, ev.Seq)
		mu.Unlock()
	})

	_ = p.Select(testFiles("a.svs"))
	_ = p.Start()
	snap := pipelinetest.Ticks(t, clock, p, DefaultTickInterval, 2)

	mu.Lock()
	defer mu.Unlock()
	for i, seq := range seqs {
		if seq != uint64(i+1) {
			t.Fatalf("event %d has seq %d", i, seq)
		}
	}
	if snap.Seq != uint64(len(seqs)) {
		t.Fatalf("snapshot seq %d, emitted %d events", snap.Seq, len(seqs))
	}
}

func TestEndToEndRun(t *testing.T) {
	clock := pipelinetest.NewClock()
	p := newTestPipeline(clock, NewRandomSource(42))

	var mu sync.Mutex
	var finished []Event
	p.Subscribe(func(ev Event) {
		if ev.Type == EventFinished {
			mu.Lock()
			finished = append(finished, ev)
			mu.Unlock()
		}
	})

	files := testFiles("slide-1.svs", "slide-2.ndpi", "slide-3.tiff")
	if err := p.Select(files); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	snap := pipelinetest.Ticks(t, clock, p, DefaultTickInterval, len(Steps))

	// seed + 2 upload + init + 8 steps + generating + summary + completed
	if len(snap.Log) != 15 {
		t.Fatalf("expected 15 log entries, got %d", len(snap.Log))
	}
	if snap.Progress != 100 {
		t.Fatalf("expected progress 100, got %v", snap.Progress)
	}
	mu.Lock()
	if len(finished) != 1 {
		t.Fatalf("expected one finished event, got %d", len(finished))
	}
	if len(finished[0].Predictions) != len(snap.Predictions) {
		t.Fatalf("finished event carries %d predictions, snapshot has %d", len(finished[0].Predictions), len(snap.Predictions))
	}
	mu.Unlock()

	groups := models.GroupByCategory(snap.Predictions)
	if len(groups) != 4 {
		t.Fatalf("expected 4 groups, got %d", len(groups))
	}
	total := 0
	for _, g := range groups {
		if len(g.Predictions) > 8 {
			t.Fatalf("category %s has %d predictions", g.Category.ID, len(g.Predictions))
		}
		total += len(g.Predictions)
	}
	if total != len(snap.Predictions) {
		t.Fatalf("grouped total %d != %d", total, len(snap.Predictions))
	}

	// the same seed reproduces the same set
	replay := GeneratePredictions(NewRandomSource(42), snap.Files)
	if !reflect.DeepEqual(replay, snap.Predictions) {
		t.Fatal("predictions not reproducible with the same seed")
	}

	summary := snap.Log[len(snap.Log)-2]
	if summary.Kind != models.LogSuccess {
		t.Fatalf("expected success summary, got %+v", summary)
	}
}

func TestPredictionLookup(t *testing.T) {
	clock := pipelinetest.NewClock()
	rng := &scriptedRandom{ints: []int{1, 0, 0, 0, 0}, floats: []float64{0.5}}
	p := newTestPipeline(clock, rng)
	_ = p.Select(testFiles("a.svs"))
	_ = p.Start()
	pipelinetest.Ticks(t, clock, p, DefaultTickInterval, len(Steps))

	got, err := p.Prediction(0)
	if err != nil {
		t.Fatalf("Prediction(0) error = %v", err)
	}
	if got.Label != "a.svs - 1R1A Region 1" {
		t.Fatalf("unexpected label %q", got.Label)
	}
	if _, err := p.Prediction(1); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	p := newTestPipeline(pipelinetest.NewClock(), NewRandomSource(1))
	count := 0
	unsubscribe := p.Subscribe(func(Event) { count++ })

	_ = p.Select(testFiles("a.svs"))
	seen := count
	if seen == 0 {
		t.Fatal("expected events from select")
	}
	unsubscribe()
	p.Restart()
	if count != seen {
		t.Fatalf("listener called after unsubscribe: %d -> %d", seen, count)
	}
}
