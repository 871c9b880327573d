// Package pipelinetest drives a pipeline on a clockwork fake clock.
//
// clockwork runs AfterFunc callbacks on their own goroutine, and each
// pipeline tick schedules the next one from inside its callback, so the
// clock has to be advanced one tick at a time.
package pipelinetest

import (
	"context"
	"testing"
	"time"

	"cardio-wsi-back/internal/models"

	"github.com/jonboulle/clockwork"
)

const waitTimeout = 2 * time.Second

// Epoch is the fake clock start used across tests.
var Epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type Snapshotter interface {
	Snapshot() models.Snapshot
}

func NewClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(Epoch)
}

// Tick waits until a tick is scheduled and advances the clock by interval.
func Tick(t testing.TB, clock *clockwork.FakeClock, interval time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("no tick scheduled: %v", err)
	}
	clock.Advance(interval)
}

// Ticks fires n ticks and waits until each of them has appended its log
// entry. A tick that completes the run is fully applied on return.
func Ticks(t testing.TB, clock *clockwork.FakeClock, s Snapshotter, interval time.Duration, n int) models.Snapshot {
	t.Helper()
	want := len(s.Snapshot().Log) + n
	for i := 0; i < n; i++ {
		Tick(t, clock, interval)
	}
	return WaitFor(t, s, func(snap models.Snapshot) bool { return len(snap.Log) >= want })
}

// WaitFor polls the snapshot until cond holds.
func WaitFor(t testing.TB, s Snapshotter, cond func(models.Snapshot) bool) models.Snapshot {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for {
		snap := s.Snapshot()
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not reached, last snapshot: status=%s progress=%v log=%d", snap.Status, snap.Progress, len(snap.Log))
		}
		time.Sleep(time.Millisecond)
	}
}

// NoTickScheduled fails when a timer is still pending on clock.
func NoTickScheduled(t testing.TB, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err == nil {
		t.Fatal("expected no scheduled tick")
	}
}
