package metrics

import (
	"cardio-wsi-back/internal/models"
	"cardio-wsi-back/internal/pipeline"

	"github.com/prometheus/client_golang/prometheus"
)

type PipelineMetrics struct {
	transitionsTotal *prometheus.CounterVec
	stepsTotal       prometheus.Counter
	predictionsTotal *prometheus.CounterVec
	restartsTotal    prometheus.Counter
	uploadedFiles    prometheus.Counter
	progress         prometheus.Gauge
	runDuration      prometheus.Histogram
}

func NewPipelineMetrics(registry *prometheus.Registry) *PipelineMetrics {
	m := &PipelineMetrics{
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wsi",
				Subsystem: "pipeline",
				Name:      "transitions_total",
				Help:      "Pipeline status transitions by target status.",
			},
			[]string{"status"},
		),
		stepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wsi",
			Subsystem: "pipeline",
			Name:      "steps_applied_total",
			Help:      "Step descriptors applied across all runs.",
		}),
		predictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wsi",
				Subsystem: "pipeline",
				Name:      "predictions_total",
				Help:      "Mock predictions generated by category.",
			},
			[]string{"category"},
		),
		restartsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wsi",
			Subsystem: "pipeline",
			Name:      "restarts_total",
			Help:      "Pipeline restarts.",
		}),
		uploadedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wsi",
			Subsystem: "intake",
			Name:      "files_total",
			Help:      "Files accepted by the upload intake.",
		}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wsi",
			Subsystem: "pipeline",
			Name:      "progress_percent",
			Help:      "Progress of the current run.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wsi",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Time from start to completion of a run.",
			Buckets:   []float64{1, 2, 5, 7.5, 10, 15, 30, 60},
		}),
	}
	registry.MustRegister(
		m.transitionsTotal,
		m.stepsTotal,
		m.predictionsTotal,
		m.restartsTotal,
		m.uploadedFiles,
		m.progress,
		m.runDuration,
	)
	return m
}

// Observe is a pipeline.Listener.
func (m *PipelineMetrics) Observe(ev pipeline.Event) {
	switch ev.Type {
	case pipeline.EventStatus:
		m.transitionsTotal.WithLabelValues(ev.Status.String()).Inc()
		m.progress.Set(ev.Progress)
	case pipeline.EventProgress:
		m.stepsTotal.Inc()
		m.progress.Set(ev.Progress)
	case pipeline.EventFinished:
		for _, p := range ev.Predictions {
			m.predictionsTotal.WithLabelValues(p.CategoryID).Inc()
		}
		if ev.Run != nil && ev.Run.StartedAt != nil && ev.Run.CompletedAt != nil {
			m.runDuration.Observe(ev.Run.CompletedAt.Sub(*ev.Run.StartedAt).Seconds())
		}
	case pipeline.EventReset:
		m.restartsTotal.Inc()
		m.progress.Set(0)
	}
}

func (m *PipelineMetrics) AddUploadedFiles(files []models.UploadedFile) {
	m.uploadedFiles.Add(float64(len(files)))
}
