// cmd/demo/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"cardio-wsi-back/internal/intake"
	"cardio-wsi-back/internal/observability/logging"
	"cardio-wsi-back/internal/pipeline"
	"cardio-wsi-back/internal/service"
	"cardio-wsi-back/internal/storage"
	"cardio-wsi-back/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	tick := fs.Duration("tick", pipeline.DefaultTickInterval, "delay between pipeline steps")
	seed := fs.Uint64("seed", 0, "prediction seed (0 = time based)")
	logPath := fs.String("log", "", "write JSON logs to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := logging.NewJSONLoggerTo(logOut, "cardio-wsi-demo", "debug")

	p := pipeline.New(
		pipeline.WithScheduler(clockwork.NewRealClock()),
		pipeline.WithRandomSource(pipeline.NewRandomSource(*seed)),
		pipeline.WithTickInterval(*tick),
		pipeline.WithLogger(logger),
	)
	in := intake.New(storage.NewMemoryStore(), p, intake.Limits{}, logger)
	svc := service.NewAnalysisService(p, in, logger)

	paths := fs.Args()
	if len(paths) > 0 {
		sources, err := intake.FromPaths(paths)
		if err != nil {
			return err
		}
		if _, err := svc.Upload(context.Background(), sources); err != nil {
			return err
		}
	}

	program := tea.NewProgram(tui.New(svc, paths), tea.WithAltScreen())
	_, err := program.Run()
	svc.Restart(context.Background())
	return err
}
