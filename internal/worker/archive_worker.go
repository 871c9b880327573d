// internal/worker/archive_worker.go
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cardio-wsi-back/internal/models"
	"cardio-wsi-back/internal/pipeline"
)

type RunArchiver interface {
	Save(ctx context.Context, snap models.Snapshot) error
}

// ArchiveWorker writes finished runs to the history store off the
// pipeline's critical section.
type ArchiveWorker struct {
	repo    RunArchiver
	logger  *slog.Logger
	queue   chan models.Snapshot
	timeout time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

func NewArchiveWorker(repo RunArchiver, logger *slog.Logger, buffer int) *ArchiveWorker {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveWorker{
		repo:    repo,
		logger:  logger,
		queue:   make(chan models.Snapshot, buffer),
		timeout: 10 * time.Second,
		done:    make(chan struct{}),
	}
}

// Observe is a pipeline.Listener. It never blocks; when the queue is full
// the run is dropped from history.
func (w *ArchiveWorker) Observe(ev pipeline.Event) {
	if ev.Type != pipeline.EventFinished || ev.Run == nil {
		return
	}
	select {
	case w.queue <- *ev.Run:
	default:
		w.logger.Warn("archive queue full, dropping run", "run_id", ev.RunID)
	}
}

// Run drains the queue until ctx is cancelled or Close is called.
func (w *ArchiveWorker) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-w.queue:
			if !ok {
				return
			}
			w.archive(ctx, snap)
		}
	}
}

func (w *ArchiveWorker) Close() {
	w.closeOnce.Do(func() { close(w.queue) })
}

// Done is closed once Run has returned.
func (w *ArchiveWorker) Done() <-chan struct{} {
	return w.done
}

func (w *ArchiveWorker) archive(ctx context.Context, snap models.Snapshot) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.repo.Save(ctx, snap); err != nil {
		w.logger.Error("failed to archive run", "run_id", snap.RunID, "error", err)
		return
	}
	w.logger.Info("run archived", "run_id", snap.RunID, "predictions", len(snap.Predictions))
}
