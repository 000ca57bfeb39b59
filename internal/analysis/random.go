package analysis

import (
	"math/rand/v2"
	"sync"
	"time"
)

// RandomSource supplies uniform values in [0, 1)
type RandomSource interface {
	Float64() float64
}

// lockedSource serializes access to a PCG generator so one source can be shared by concurrent analyses
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource returns a concurrency-safe source. A zero seed is replaced by the current time.
func NewRandomSource(seed uint64) RandomSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Float64 implements RandomSource
func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func uniform(src RandomSource, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}
