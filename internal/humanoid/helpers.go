// internal/humanoid/helpers.go
package humanoid

import (
	"math"
	"math/rand"
	"time"
)

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// clampProbability keeps derived probabilities inside [0,1].
func clampProbability(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return clamp(p, 0, 1)
}

func sampleGaussian(rng *rand.Rand, mean, stdDev float64) float64 {
	if rng == nil {
		return mean
	}
	return mean + rng.NormFloat64()*stdDev
}

// uniform draws from [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// uniformDuration draws a duration from [lo, hi).
func uniformDuration(rng *rand.Rand, lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rng.Int63n(int64(hi-lo)))
}

// chance returns true with probability p.
func chance(rng *rand.Rand, p float64) bool {
	p = clampProbability(p)
	if p == 0 {
		return false
	}
	return rng.Float64() < p
}

// secondsToDuration converts fractional seconds, never going negative.
func secondsToDuration(s float64) time.Duration {
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

// floorDuration applies a positive floor to a computed delay.
func floorDuration(d, min time.Duration) time.Duration {
	if d < min {
		return min
	}
	return d
}

// newSeededRand builds the session random source. A zero seed draws from the clock.
func newSeededRand(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), seed
}
