package pipeline

import (
	"fmt"
	"io"
	"log/slog"

	"cardio-wsi-back/internal/models"
)

type scriptedRandom struct {
	ints   []int
	floats []float64
	i, f   int
}

func (r *scriptedRandom) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[r.i%len(r.ints)]
	r.i++
	return v % n
}

func (r *scriptedRandom) Float64() float64 {
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[r.f%len(r.floats)]
	r.f++
	return v
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(sched Scheduler, rng RandomSource) *Pipeline {
	n := 0
	return New(
		WithScheduler(sched),
		WithRandomSource(rng),
		WithTickInterval(DefaultTickInterval),
		WithLogger(discardLogger()),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("run-%d", n)
		}),
	)
}

func testFiles(names ...string) []models.UploadedFile {
	files := make([]models.UploadedFile, 0, len(names))
	for i, name := range names {
		files = append(files, models.UploadedFile{
			ID:         fmt.Sprintf("f%d", i),
			Name:       name,
			ContentRef: "uploads/" + name,
			DisplayURL: "/api/files/f" + fmt.Sprint(i) + "/content",
		})
	}
	return files
}
