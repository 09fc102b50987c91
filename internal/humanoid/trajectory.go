// internal/humanoid/trajectory.go
package humanoid

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

// Sample is one pointer position and the wait before it is emitted.
type Sample struct {
	Point Vector2D      `json:"point"`
	Delay time.Duration `json:"delay"`
}

// Trajectory is the ordered, timed path of a single move.
type Trajectory struct {
	Samples   []Sample `json:"samples"`
	Overshot  bool     `json:"overshot"`
	Hesitated bool     `json:"hesitated"`
}

// Duration sums the declared delays.
func (t Trajectory) Duration() time.Duration {
	var total time.Duration
	for _, s := range t.Samples {
		total += s.Delay
	}
	return total
}

// End returns the final point, or the zero vector for an empty trajectory.
func (t Trajectory) End() Vector2D {
	if len(t.Samples) == 0 {
		return Vector2D{}
	}
	return t.Samples[len(t.Samples)-1].Point
}

// TrajectoryConfig tunes the pointer model.
type TrajectoryConfig struct {
	// BaseInterval is the inter-sample interval at speed 1.0.
	BaseInterval time.Duration
	MinDelay     time.Duration
	// MaxStep bounds the arc length between consecutive samples, in device units.
	MaxStep float64

	ShortMoveDistance float64
	LongMoveDistance  float64
	ShortMoveSpeed    float64
	LongMoveSpeed     float64
	// SpeedNoise is the half-width of the uniform speed perturbation.
	SpeedNoise     float64
	FatigueDamping float64
	// PerlinSpeedAmplitude is the depth of the smooth speed modulation.
	PerlinSpeedAmplitude float64

	CurveIntensityShort float64
	CurveIntensityLong  float64

	JitterMin  float64
	JitterMax  float64
	JitterRamp float64

	OvershootMinDistance float64
	OvershootMin         float64
	OvershootMax         float64
	OvershootPauseMin    time.Duration
	OvershootPauseMax    time.Duration

	HesitationMin time.Duration
	HesitationMax time.Duration
}

// DefaultTrajectoryConfig returns the standard pointer model.
func DefaultTrajectoryConfig() TrajectoryConfig {
	return TrajectoryConfig{
		BaseInterval:         8 * time.Millisecond,
		MinDelay:             2 * time.Millisecond,
		MaxStep:              3.0,
		ShortMoveDistance:    50,
		LongMoveDistance:     500,
		ShortMoveSpeed:       0.6,
		LongMoveSpeed:        1.4,
		SpeedNoise:           0.3,
		FatigueDamping:       0.5,
		PerlinSpeedAmplitude: 0.1,
		CurveIntensityShort:  0.04,
		CurveIntensityLong:   0.14,
		JitterMin:            0.5,
		JitterMax:            1.0,
		JitterRamp:           0.15,
		OvershootMinDistance: 20,
		OvershootMin:         3,
		OvershootMax:         20,
		OvershootPauseMin:    40 * time.Millisecond,
		OvershootPauseMax:    120 * time.Millisecond,
		HesitationMin:        50 * time.Millisecond,
		HesitationMax:        400 * time.Millisecond,
	}
}

// Validate checks the pointer model parameters.
func (c TrajectoryConfig) Validate() error {
	invalid := func(field, msg string) error {
		return &ConfigurationError{Field: "trajectory." + field, Err: errors.New(msg)}
	}
	switch {
	case c.BaseInterval <= 0:
		return invalid("base_interval", "must be a positive duration")
	case c.MinDelay <= 0:
		return invalid("min_delay", "must be a positive duration")
	case c.MaxStep <= 0:
		return invalid("max_step", "must be positive")
	case c.ShortMoveDistance <= 0 || c.LongMoveDistance <= c.ShortMoveDistance:
		return invalid("long_move_distance", "must exceed short_move_distance")
	case c.ShortMoveSpeed <= 0 || c.LongMoveSpeed <= 0:
		return invalid("move_speed", "tier multipliers must be positive")
	case c.SpeedNoise < 0 || c.SpeedNoise >= 1:
		return invalid("speed_noise", "must be in [0, 1)")
	case c.FatigueDamping < 0 || c.FatigueDamping >= 1:
		return invalid("fatigue_damping", "must be in [0, 1)")
	case c.PerlinSpeedAmplitude < 0 || c.PerlinSpeedAmplitude >= 1:
		return invalid("perlin_speed_amplitude", "must be in [0, 1)")
	case c.JitterMin < 0 || c.JitterMax < c.JitterMin:
		return invalid("jitter_max", "must be >= jitter_min >= 0")
	case c.JitterRamp <= 0 || c.JitterRamp > 0.5:
		return invalid("jitter_ramp", "must be in (0, 0.5]")
	case c.OvershootMin <= 0 || c.OvershootMax < c.OvershootMin:
		return invalid("overshoot_max", "must be >= overshoot_min > 0")
	case c.OvershootPauseMin < 0 || c.OvershootPauseMax < c.OvershootPauseMin:
		return invalid("overshoot_pause_max", "must be >= overshoot_pause_min >= 0")
	case c.HesitationMin < 0 || c.HesitationMax < c.HesitationMin:
		return invalid("hesitation_max", "must be >= hesitation_min >= 0")
	}
	return nil
}

// TrajectoryGenerator turns a (start, end) pair into a timed, hand-guided path.
// It never sleeps; every wait is declared on the samples it returns.
type TrajectoryGenerator struct {
	cfg    TrajectoryConfig
	bounds Bounds
	rng    *rand.Rand
	noise  *speedNoise
	// noiseX advances along the Perlin field so successive moves differ.
	noiseX float64
}

// NewTrajectoryGenerator creates a generator drawing all randomness from rng.
func NewTrajectoryGenerator(cfg TrajectoryConfig, bounds Bounds, rng *rand.Rand) (*TrajectoryGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := bounds.Validate(); err != nil {
		return nil, &ConfigurationError{Field: "bounds", Err: err}
	}
	if rng == nil {
		return nil, &ConfigurationError{Field: "rng", Err: errors.New("random source is required")}
	}
	return &TrajectoryGenerator{
		cfg:    cfg,
		bounds: bounds,
		rng:    rng,
		noise:  newSpeedNoise(rng),
		noiseX: rng.Float64() * 100,
	}, nil
}

// Bounds returns the screen the generator clamps to.
func (g *TrajectoryGenerator) Bounds() Bounds { return g.bounds }

// strokeParams are the per-call values derived from profile, fatigue and history.
type strokeParams struct {
	steady    bool
	precision float64
	fatigue   float64
	speed     float64
	// curveScale shrinks the arc of corrective sub-paths.
	curveScale float64
}

// Generate produces a trajectory from start to end. The target must lie on
// screen; start is clamped. The path ends exactly on end, after any overshoot
// correction. On success the move is recorded in state.
func (g *TrajectoryGenerator) Generate(state *BehaviorState, start, end Vector2D, steady bool) (Trajectory, error) {
	if !g.bounds.Contains(end) {
		return Trajectory{}, &BoundsError{Target: end, Bounds: g.bounds}
	}
	start = g.bounds.Clamp(start)
	profile := state.Profile()
	fatigue := state.CurrentFatigue()

	var traj Trajectory
	var hesitation time.Duration
	if chance(g.rng, profile.HesitationChance) {
		hesitation = uniformDuration(g.rng, g.cfg.HesitationMin, g.cfg.HesitationMax)
		traj.Hesitated = true
	}

	d := start.Dist(end)
	if d < 1e-9 {
		traj.Samples = []Sample{{Point: end, Delay: hesitation}}
		state.recordAt(ActionTypeMove, &end)
		return traj, nil
	}

	heading := end.Sub(start)
	params := strokeParams{
		steady:     steady,
		precision:  profile.Precision,
		fatigue:    fatigue,
		speed:      g.speed(state, profile, fatigue, d, heading),
		curveScale: 1,
	}
	samples := g.stroke(start, end, params)
	samples[0].Delay = hesitation

	overshootP := profile.OvershootChance * (1 + fatigue)
	if !steady && d >= g.cfg.OvershootMinDistance && chance(g.rng, overshootP) {
		if extra := g.overshoot(end, heading, params); len(extra) > 0 {
			samples = append(samples, extra...)
			traj.Overshot = true
		}
	}

	traj.Samples = samples
	state.recordAt(ActionTypeMove, &end)
	return traj, nil
}

// speed composes the speed multiplier for a stroke of length d.
func (g *TrajectoryGenerator) speed(state *BehaviorState, profile Profile, fatigue, d float64, heading Vector2D) float64 {
	tier := 1.0
	switch {
	case d < g.cfg.ShortMoveDistance:
		tier = g.cfg.ShortMoveSpeed
	case d > g.cfg.LongMoveDistance:
		tier = g.cfg.LongMoveSpeed
	}
	noise := uniform(g.rng, 1-g.cfg.SpeedNoise, 1+g.cfg.SpeedNoise)
	damping := 1 - fatigue*g.cfg.FatigueDamping
	s := profile.SpeedMult * tier * noise * state.MomentumBias(heading) * damping
	return math.Max(s, 0.05)
}

// stroke synthesizes one curve+jitter path with its delays. The first sample
// carries no delay; the last point is exactly end.
func (g *TrajectoryGenerator) stroke(start, end Vector2D, p strokeParams) []Sample {
	var ctrl []Vector2D
	if p.steady {
		ctrl = []Vector2D{start, end}
	} else {
		ctrl = g.controlPoints(start, end, p.precision, p.curveScale)
	}
	pts := arcLengthSamples(ctrl, g.cfg.MaxStep)
	n := len(pts)

	if !p.steady && n > 2 {
		sigma := g.jitterSigma(p.precision, p.fatigue)
		ramp := int(float64(n) * g.cfg.JitterRamp)
		for i := 1; i < n-1; i++ {
			w := rampWeight(i, n, ramp)
			pts[i] = pts[i].Add(Vector2D{
				X: g.rng.NormFloat64() * sigma * w,
				Y: g.rng.NormFloat64() * sigma * w,
			})
		}
	}

	samples := make([]Sample, n)
	g.noiseX += 3
	for i := range pts {
		samples[i].Point = g.bounds.Clamp(pts[i])
		if i == 0 {
			continue
		}
		s := float64(i) / float64(n-1)
		v := velocityProfile(s) * g.noise.factor(g.noiseX+s*3, g.cfg.PerlinSpeedAmplitude)
		delay := time.Duration(float64(g.cfg.BaseInterval) / (p.speed * v))
		samples[i].Delay = floorDuration(delay, g.cfg.MinDelay)
	}
	samples[0].Point = start
	samples[n-1].Point = end
	return samples
}

// controlPoints places 2-6 interior control points along the chord, pushed to
// one side by a bounded uniform offset. Longer and less precise moves get
// more points and a stronger arc.
func (g *TrajectoryGenerator) controlPoints(start, end Vector2D, precision, scale float64) []Vector2D {
	chord := end.Sub(start)
	d := chord.Mag()
	dir := chord.Normalize()
	perp := dir.Perp()

	count := 2 + int(d/400)
	if precision < 0.5 {
		count++
	}
	if count > 6 {
		count = 6
	}

	t := clamp((d-g.cfg.ShortMoveDistance)/(g.cfg.LongMoveDistance-g.cfg.ShortMoveDistance), 0, 1)
	intensity := (g.cfg.CurveIntensityShort + (g.cfg.CurveIntensityLong-g.cfg.CurveIntensityShort)*t) * (1.5 - precision) * scale

	side := 1.0
	if g.rng.Intn(2) == 0 {
		side = -1.0
	}

	ctrl := make([]Vector2D, 0, count+2)
	ctrl = append(ctrl, start)
	for i := 1; i <= count; i++ {
		frac := clamp(float64(i)/float64(count+1)+uniform(g.rng, -0.05, 0.05), 0.05, 0.95)
		offset := side * d * intensity * uniform(g.rng, 0.3, 1.0) * math.Sin(math.Pi*frac)
		ctrl = append(ctrl, start.Add(dir.Mul(d*frac)).Add(perp.Mul(offset)))
	}
	return append(ctrl, end)
}

// jitterSigma grows from JitterMin to JitterMax as precision drops and fatigue rises.
func (g *TrajectoryGenerator) jitterSigma(precision, fatigue float64) float64 {
	k := clamp(1-precision+fatigue, 0, 1)
	return g.cfg.JitterMin + (g.cfg.JitterMax-g.cfg.JitterMin)*k
}

// overshoot returns the excursion past end followed by the corrective
// sub-path back to it. Corrections are plain strokes and are never overshot.
func (g *TrajectoryGenerator) overshoot(end, heading Vector2D, p strokeParams) []Sample {
	mag := uniform(g.rng, g.cfg.OvershootMin, g.cfg.OvershootMax)
	dir := heading.Normalize().Rotate(uniform(g.rng, -0.5, 0.5))
	peak := g.bounds.Clamp(end.Add(dir.Mul(mag)))
	if peak.Dist(end) < 1 {
		// Pinned against a screen edge; nothing to overshoot into.
		return nil
	}

	out := make([]Sample, 0, 32)
	// The hand is still carrying its speed past the target, then brakes.
	excursion := arcLengthSamples([]Vector2D{end, peak}, g.cfg.MaxStep)
	for i := 1; i < len(excursion); i++ {
		s := float64(i) / float64(len(excursion)-1)
		delay := time.Duration(float64(g.cfg.BaseInterval) / (p.speed * (1 - 0.6*s)))
		out = append(out, Sample{Point: excursion[i], Delay: floorDuration(delay, g.cfg.MinDelay)})
	}

	corr := p
	corr.steady = false
	corr.curveScale = 0.5
	corr.speed = p.speed * 0.7
	back := g.stroke(peak, end, corr)[1:]
	back[0].Delay += uniformDuration(g.rng, g.cfg.OvershootPauseMin, g.cfg.OvershootPauseMax)
	return append(out, back...)
}

// Dwell keeps the pointer near center for roughly duration with small 1/f
// wander, ending exactly on center. It is used for hovering.
func (g *TrajectoryGenerator) Dwell(state *BehaviorState, center Vector2D, duration time.Duration) Trajectory {
	center = g.bounds.Clamp(center)
	if duration <= 0 {
		return Trajectory{Samples: []Sample{{Point: center}}}
	}
	profile := state.Profile()
	amp := 1.5 * (1.5 - profile.Precision) * (1 + state.CurrentFatigue())
	nx := NewPinkNoiseGenerator(g.rng, 8)
	ny := NewPinkNoiseGenerator(g.rng, 8)

	var samples []Sample
	var elapsed time.Duration
	for {
		step := uniformDuration(g.rng, 40*time.Millisecond, 120*time.Millisecond)
		if elapsed+step >= duration {
			break
		}
		elapsed += step
		p := center.Add(Vector2D{X: nx.Next() * amp, Y: ny.Next() * amp})
		samples = append(samples, Sample{Point: g.bounds.Clamp(p), Delay: step})
	}
	samples = append(samples, Sample{Point: center, Delay: floorDuration(duration-elapsed, g.cfg.MinDelay)})
	state.recordAt(ActionTypeHover, &center)
	return Trajectory{Samples: samples}
}

// Jitter perturbs a resting point with the same Gaussian tremor used mid-flight.
func (g *TrajectoryGenerator) Jitter(state *BehaviorState, p Vector2D) Vector2D {
	sigma := g.jitterSigma(state.Profile().Precision, state.CurrentFatigue())
	return g.bounds.Clamp(p.Add(Vector2D{
		X: g.rng.NormFloat64() * sigma,
		Y: g.rng.NormFloat64() * sigma,
	}))
}
