// internal/tui/model.go
package tui

import (
	"context"
	"fmt"

	"cardio-wsi-back/internal/intake"
	"cardio-wsi-back/internal/models"
	"cardio-wsi-back/internal/pipeline"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// Analysis is the part of the analysis service the terminal UI drives.
type Analysis interface {
	Upload(ctx context.Context, sources []intake.Source) (intake.UploadResult, error)
	Start() error
	Restart(ctx context.Context)
	Snapshot() models.Snapshot
	Prediction(index int) (models.PredictionRecord, error)
	Subscribe(l pipeline.Listener) func()
}

type viewMode int

const (
	modeMain viewMode = iota
	modeDetail
)

// stateChangedMsg tells the model to re-read the pipeline snapshot.
type stateChangedMsg struct{}

type Model struct {
	svc     Analysis
	paths   []string
	changes chan struct{}

	snap   models.Snapshot
	cursor int
	mode   viewMode
	detail models.PredictionRecord

	bar           progress.Model
	width         int
	height        int
	statusMessage string
	statusIsError bool
}

// New subscribes to svc. paths are re-read when the user presses u.
func New(svc Analysis, paths []string) Model {
	m := Model{
		svc:     svc,
		paths:   paths,
		changes: make(chan struct{}, 1),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
	changes := m.changes
	svc.Subscribe(func(pipeline.Event) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	m.snap = svc.Snapshot()
	return m
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return stateChangedMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if w := msg.Width - 20; w > 10 {
			m.bar.Width = w
		}
		return m, nil
	case stateChangedMsg:
		m.refresh()
		return m, waitForChange(m.changes)
	case tea.KeyMsg:
		if m.mode == modeDetail {
			return m.updateDetail(msg)
		}
		return m.updateMain(msg)
	}
	return m, nil
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "s":
		if err := m.svc.Start(); err != nil {
			m.setError(err)
		} else {
			m.setStatus("analysis started")
		}
		m.refresh()
	case "r":
		m.svc.Restart(context.Background())
		m.cursor = 0
		m.setStatus("pipeline reset")
		m.refresh()
	case "u":
		m.reload()
		m.refresh()
	case "up", "k", "left", "h":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j", "right", "l":
		if m.cursor < len(m.snap.Predictions)-1 {
			m.cursor++
		}
	case "enter":
		rec, err := m.svc.Prediction(m.cursor)
		if err != nil {
			m.setStatus("no prediction selected")
			return m, nil
		}
		m.detail = rec
		m.mode = modeDetail
	}
	return m, nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "enter", "q":
		m.mode = modeMain
	}
	return m, nil
}

func (m *Model) reload() {
	if len(m.paths) == 0 {
		m.setStatus("no files given on the command line")
		return
	}
	sources, err := intake.FromPaths(m.paths)
	if err != nil {
		m.setError(err)
		return
	}
	res, err := m.svc.Upload(context.Background(), sources)
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus(fmt.Sprintf("loaded %d file(s)", res.Count))
}

func (m *Model) refresh() {
	m.snap = m.svc.Snapshot()
	if m.cursor >= len(m.snap.Predictions) {
		m.cursor = 0
	}
	if m.snap.Status != models.StatusComplete && m.mode == modeDetail {
		m.mode = modeMain
	}
}

func (m *Model) setStatus(s string) {
	m.statusMessage = s
	m.statusIsError = false
}

func (m *Model) setError(err error) {
	m.statusMessage = "error: " + err.Error()
	m.statusIsError = true
}
