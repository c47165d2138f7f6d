package prediction

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource supplies the jitter stream for local market adjustments.
// Pinning the source makes a whole forecast reproducible.
type RandomSource interface {
	Float64() float64
}

// seededSource wraps math/rand behind a mutex so one engine can serve
// concurrent requests.
type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource returns a source seeded with the given value. A zero seed
// falls back to the clock.
func NewSeededSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &seededSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// FixedSource always yields Value. A value of 0.5 makes the jitter term
// exactly zero.
type FixedSource struct {
	Value float64
}

func (f FixedSource) Float64() float64 {
	return f.Value
}
