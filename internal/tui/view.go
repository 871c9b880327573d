// internal/tui/view.go
package tui

import (
	"fmt"
	"strings"

	"cardio-wsi-back/internal/models"

	"github.com/charmbracelet/lipgloss"
)

const (
	appTitle   = "Heart Tissue Segmentation & Prediction"
	logLines   = 10
	helpBrowse = "u load files • s start • r restart • ←/→ select • enter details • q quit"
	helpDetail = "esc close • ctrl+c quit"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	selStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
	modalStyle   = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("62")).Padding(1, 2)
)

var bandStyles = map[models.ConfidenceBand]lipgloss.Style{
	models.ConfidenceHigh:   okStyle,
	models.ConfidenceMedium: workingStyle,
	models.ConfidenceLow:    errorStyle,
}

var logStyles = map[models.LogKind]lipgloss.Style{
	models.LogInfo:       mutedStyle,
	models.LogProcessing: workingStyle,
	models.LogSuccess:    okStyle,
	models.LogError:      errorStyle,
}

func (m Model) View() string {
	if m.mode == modeDetail {
		return m.viewDetail()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(appTitle))
	b.WriteString("\n\n")
	b.WriteString(renderStepper(m.snap.Stage))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.snap.Progress / 100))
	b.WriteString(fmt.Sprintf(" %3.0f%%  %s", m.snap.Progress, m.snap.Status))
	if label := m.snap.Stage.Label(); label != "" {
		b.WriteString(mutedStyle.Render("  Stage: " + label))
	}
	b.WriteString("\n\n")
	b.WriteString(renderFiles(m.snap.Files))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(renderLog(m.snap.Log)))
	b.WriteString("\n")

	if m.snap.Status == models.StatusComplete {
		b.WriteString(m.renderResults())
		b.WriteString("\n")
	}

	if m.statusMessage != "" {
		if m.statusIsError {
			b.WriteString(errorStyle.Render(m.statusMessage))
		} else {
			b.WriteString(okStyle.Render(m.statusMessage))
		}
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(helpBrowse))
	return b.String()
}

func renderStepper(current models.Stage) string {
	parts := make([]string, 0, len(models.Stages))
	for _, st := range models.Stages {
		switch {
		case st.Stage < current:
			parts = append(parts, okStyle.Render("✓ "+st.Label))
		case st.Stage == current:
			parts = append(parts, selStyle.Render("● "+st.Label))
		default:
			parts = append(parts, mutedStyle.Render("○ "+st.Label))
		}
	}
	return strings.Join(parts, mutedStyle.Render(" ─ "))
}

func renderFiles(files []models.UploadedFile) string {
	if len(files) == 0 {
		return mutedStyle.Render("No slides selected.") + "\n"
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return fmt.Sprintf("Slides (%d): %s\n", len(files), strings.Join(names, ", "))
}

func renderLog(entries []models.LogEntry) string {
	if len(entries) > logLines {
		entries = entries[len(entries)-logLines:]
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		style, ok := logStyles[e.Kind]
		if !ok {
			style = mutedStyle
		}
		lines = append(lines, mutedStyle.Render(e.Timestamp.Format("15:04:05"))+" "+style.Render(e.Text))
	}
	return strings.Join(lines, "\n")
}

// renderResults lists cards per category. Predictions are stored in
// category order, so the flat cursor walks the cards top to bottom.
func (m Model) renderResults() string {
	if len(m.snap.Predictions) == 0 {
		return mutedStyle.Render("No regions predicted.")
	}

	var b strings.Builder
	index := 0
	for _, group := range models.GroupByCategory(m.snap.Predictions) {
		if len(group.Predictions) == 0 {
			continue
		}
		b.WriteString(titleStyle.Render(group.Category.Title))
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s (%d)", group.Category.Description, len(group.Predictions))))
		b.WriteString("\n")
		for _, rec := range group.Predictions {
			line := fmt.Sprintf("  %-48s %s", rec.Label, renderConfidence(rec))
			if index == m.cursor {
				line = selStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
			index++
		}
	}
	return b.String()
}

func renderConfidence(rec models.PredictionRecord) string {
	style, ok := bandStyles[rec.Band]
	if !ok {
		style = mutedStyle
	}
	return style.Render(fmt.Sprintf("%5.1f%% %s", rec.Confidence*100, rec.Band))
}

func (m Model) viewDetail() string {
	rec := m.detail
	category := rec.CategoryID
	for _, c := range models.Categories {
		if c.ID == rec.CategoryID {
			category = c.Title + " (" + c.Description + ")"
			break
		}
	}

	body := strings.Join([]string{
		titleStyle.Render(rec.Label),
		"",
		"File:       " + rec.FileName,
		"Category:   " + category,
		"Confidence: " + renderConfidence(rec),
		"Image:      " + rec.ImageRef,
		"",
		mutedStyle.Render(helpDetail),
	}, "\n")
	return modalStyle.Render(body)
}
