// internal/humanoid/noise.go
package humanoid

import (
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"
)

// Standard Perlin noise parameters.
const (
	perlinAlpha = 2.0
	perlinBeta  = 2.0
	perlinN     = int32(3)
)

// speedNoise produces a smooth multiplicative speed modulation along a path.
// The Perlin generator is seeded from the generator's random source so runs
// with the same seed repeat exactly.
type speedNoise struct {
	p *perlin.Perlin
}

func newSpeedNoise(rng *rand.Rand) *speedNoise {
	return &speedNoise{p: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinN, rng.Int63())}
}

// factor returns 1 +/- amplitude for position x along the noise field.
func (n *speedNoise) factor(x, amplitude float64) float64 {
	// Noise1D is roughly within [-0.5, 0.5] for these parameters.
	v := clamp(n.p.Noise1D(x)*2, -1, 1)
	return 1 + v*amplitude
}

// PinkNoiseGenerator implements the stochastic Voss-McCartney algorithm for
// 1/f noise. It drives the slow wander of an idle hand during a dwell.
type PinkNoiseGenerator struct {
	rng    *rand.Rand
	values []float64
	p      []float64
	pink   float64
	n      int
	scale  float64
}

// NewPinkNoiseGenerator creates a generator with n sources (12 when n <= 0).
func NewPinkNoiseGenerator(rng *rand.Rand, n int) *PinkNoiseGenerator {
	if n <= 0 {
		n = 12
	}
	g := &PinkNoiseGenerator{
		rng:    rng,
		values: make([]float64, n),
		p:      make([]float64, n),
		n:      n,
		scale:  1.0 / math.Sqrt(float64(n)),
	}

	// Update probabilities follow a geometric progression.
	total := 0.0
	for i := 0; i < n; i++ {
		g.p[i] = math.Pow(2, float64(-i))
		total += g.p[i]
	}
	for i := 0; i < n; i++ {
		g.p[i] /= total
		g.values[i] = g.white()
		g.pink += g.values[i]
	}
	return g
}

func (g *PinkNoiseGenerator) white() float64 {
	return g.rng.Float64()*2.0 - 1.0
}

// Next returns the next normalized sample.
func (g *PinkNoiseGenerator) Next() float64 {
	r := g.rng.Float64()
	cumulative := 0.0
	idx := g.n - 1
	for i := 0; i < g.n; i++ {
		cumulative += g.p[i]
		if r < cumulative {
			idx = i
			break
		}
	}

	old := g.values[idx]
	g.values[idx] = g.white()
	g.pink += g.values[idx] - old
	return g.pink * g.scale
}
