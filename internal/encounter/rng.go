package encounter

import (
	"math/rand/v2"

	"lukechampine.com/frand"
)

// RandomSource yields uniform draws in [0, 1).
type RandomSource interface {
	Float64() float64
}

// frand source: default generation method
type frandRNG struct{}

func (frandRNG) Float64() float64 { return frand.Float64() }

// DefaultRNG returns the process-wide CSPRNG-backed source.
func DefaultRNG() RandomSource { return frandRNG{} }

// Replicable RNG (tests, Monte Carlo, seeded requests)
type seededRNG struct{ r *rand.Rand }

// NewSeededRNG returns a deterministic source. Not safe for concurrent use.
func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) Float64() float64 { return s.r.Float64() }

// pickIndex maps one draw onto [0, n). n must be > 0.
func pickIndex(rng RandomSource, n int) int {
	i := int(rng.Float64() * float64(n))
	if i < 0 {
		return 0
	}
	if i >= n {
		// guards sources that return exactly 1
		return n - 1
	}
	return i
}
