// internal/pipeline/scheduler.go
package pipeline

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler runs callbacks after a delay and stamps log entries. Both
// clockwork.NewRealClock() and *clockwork.FakeClock satisfy it.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) clockwork.Timer
	Now() time.Time
}
