// internal/humanoid/curve.go
package humanoid

import (
	"math"
	"sort"
)

// bezierPoint evaluates the Bezier curve defined by ctrl at t using
// de Casteljau's algorithm. scratch must have len(ctrl) capacity.
func bezierPoint(ctrl []Vector2D, t float64, scratch []Vector2D) Vector2D {
	pts := append(scratch[:0], ctrl...)
	for k := len(pts) - 1; k > 0; k-- {
		for i := 0; i < k; i++ {
			pts[i] = pts[i].Lerp(pts[i+1], t)
		}
	}
	return pts[0]
}

// arcLengthSamples walks the curve and returns points spaced evenly by arc
// length, at most maxStep apart. The first and last points are exactly the
// first and last control points.
func arcLengthSamples(ctrl []Vector2D, maxStep float64) []Vector2D {
	start, end := ctrl[0], ctrl[len(ctrl)-1]
	chord := start.Dist(end)

	lutSize := int(math.Max(64, chord/2))
	lut := make([]Vector2D, lutSize+1)
	cum := make([]float64, lutSize+1)
	scratch := make([]Vector2D, len(ctrl))
	for j := 0; j <= lutSize; j++ {
		lut[j] = bezierPoint(ctrl, float64(j)/float64(lutSize), scratch)
		if j > 0 {
			cum[j] = cum[j-1] + lut[j].Dist(lut[j-1])
		}
	}
	lut[0], lut[lutSize] = start, end

	total := cum[lutSize]
	if total < 1e-9 {
		return []Vector2D{start, end}
	}
	steps := int(math.Ceil(total / maxStep))
	if steps < 1 {
		steps = 1
	}

	pts := make([]Vector2D, steps+1)
	pts[0] = start
	for i := 1; i < steps; i++ {
		target := total * float64(i) / float64(steps)
		j := sort.SearchFloat64s(cum, target)
		if j == 0 {
			pts[i] = lut[0]
			continue
		}
		seg := cum[j] - cum[j-1]
		frac := 0.0
		if seg > 1e-12 {
			frac = (target - cum[j-1]) / seg
		}
		pts[i] = lut[j-1].Lerp(lut[j], frac)
	}
	pts[steps] = end
	return pts
}

// velocityProfile is the bell-shaped relative speed along a stroke: slow when
// leaving and approaching, fastest mid-flight.
func velocityProfile(s float64) float64 {
	return 0.35 + 0.65*math.Sin(math.Pi*clamp(s, 0, 1))
}

// rampWeight attenuates jitter linearly over the first and last ramp samples.
func rampWeight(i, n, ramp int) float64 {
	if ramp < 1 {
		ramp = 1
	}
	w := math.Min(float64(i), float64(n-1-i)) / float64(ramp)
	return clamp(w, 0, 1)
}
