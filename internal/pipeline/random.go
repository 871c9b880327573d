// internal/pipeline/random.go
package pipeline

import (
	"math/rand/v2"
	"time"
)

// RandomSource supplies the draws used for mock predictions.
type RandomSource interface {
	// IntN returns a uniform integer in [0, n).
	IntN(n int) int
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
}

// NewRandomSource returns a PCG-backed source. A zero seed picks one
// from the current time.
func NewRandomSource(seed uint64) RandomSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
