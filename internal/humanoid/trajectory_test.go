// internal/humanoid/trajectory_test.go
package humanoid

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBounds = Bounds{Width: 1920, Height: 1080}

func newTestTrajectoryGenerator(t *testing.T, seed int64) *TrajectoryGenerator {
	t.Helper()
	g, err := NewTrajectoryGenerator(DefaultTrajectoryConfig(), testBounds, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return g
}

// stateWithProfile builds a frozen-clock state around a custom profile.
func stateWithProfile(t *testing.T, p Profile, start time.Time) *BehaviorState {
	t.Helper()
	s, err := NewBehaviorState(p, DefaultStateConfig(),
		WithClock(fixedClock(testEpoch)),
		WithSessionStart(start))
	require.NoError(t, err)
	return s
}

func TestTrajectoryConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultTrajectoryConfig().Validate())

	cfg := DefaultTrajectoryConfig()
	cfg.LongMoveDistance = cfg.ShortMoveDistance
	var cfgErr *ConfigurationError
	require.True(t, errors.As(cfg.Validate(), &cfgErr))
	assert.Equal(t, "trajectory.long_move_distance", cfgErr.Field)

	cfg = DefaultTrajectoryConfig()
	cfg.FatigueDamping = 1
	assert.Error(t, cfg.Validate())

	cfg = DefaultTrajectoryConfig()
	cfg.JitterMax = cfg.JitterMin - 0.1
	assert.Error(t, cfg.Validate())

	_, err := NewTrajectoryGenerator(DefaultTrajectoryConfig(), Bounds{}, rand.New(rand.NewSource(1)))
	assert.True(t, errors.Is(err, ErrInvalidBounds))
}

func TestGenerate_StartEqualsEnd(t *testing.T) {
	g := newTestTrajectoryGenerator(t, 7)
	s := newTestState(t, "normal")
	p := Vector2D{X: 300, Y: 200}

	traj, err := g.Generate(s, p, p, false)
	require.NoError(t, err)
	require.Len(t, traj.Samples, 1)
	assert.Equal(t, p, traj.Samples[0].Point)
	assert.False(t, traj.Overshot)
}

func TestGenerate_TargetOffScreen(t *testing.T) {
	g := newTestTrajectoryGenerator(t, 7)
	s := newTestState(t, "normal")

	_, err := g.Generate(s, Vector2D{X: 10, Y: 10}, Vector2D{X: 2500, Y: 10}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidBounds))
	var boundsErr *BoundsError
	require.True(t, errors.As(err, &boundsErr))
	assert.Equal(t, Vector2D{X: 2500, Y: 10}, boundsErr.Target)
	assert.Empty(t, s.History(), "a rejected move is not recorded")
}

func TestGenerate_StartIsClamped(t *testing.T) {
	g := newTestTrajectoryGenerator(t, 3)
	s := newTestState(t, "normal")

	traj, err := g.Generate(s, Vector2D{X: -40, Y: -40}, Vector2D{X: 100, Y: 100}, false)
	require.NoError(t, err)
	assert.Equal(t, Vector2D{X: 0, Y: 0}, traj.Samples[0].Point)
}

// A 500 unit horizontal move from the corner across every profile and many
// seeds: the path stays on screen, is finely sampled and lands exactly.
func TestGenerate_LongMoveInvariants(t *testing.T) {
	start, end := Vector2D{X: 0, Y: 0}, Vector2D{X: 500, Y: 0}
	cfg := DefaultTrajectoryConfig()

	for _, name := range []string{"careful", "normal", "fast", "erratic", "gaming"} {
		for seed := int64(1); seed <= 25; seed++ {
			g := newTestTrajectoryGenerator(t, seed)
			s := newTestState(t, name)

			traj, err := g.Generate(s, start, end, false)
			require.NoError(t, err)
			require.Greater(t, len(traj.Samples), 100, "profile %s seed %d", name, seed)
			assert.Equal(t, end, traj.End(), "profile %s seed %d must end exactly on target", name, seed)
			assert.Equal(t, start, traj.Samples[0].Point)

			for i, smp := range traj.Samples {
				assert.True(t, testBounds.Contains(smp.Point), "sample %d %s off screen", i, smp.Point)
				assert.GreaterOrEqual(t, smp.Delay, time.Duration(0))
				if i > 0 {
					assert.GreaterOrEqual(t, smp.Delay, cfg.MinDelay)
				}
			}
		}
	}
}

func TestGenerate_SamplesAreClose(t *testing.T) {
	p := presets[1]
	p.OvershootChance = 0
	g := newTestTrajectoryGenerator(t, 11)
	s := stateWithProfile(t, p, testEpoch)

	traj, err := g.Generate(s, Vector2D{X: 100, Y: 900}, Vector2D{X: 1500, Y: 150}, false)
	require.NoError(t, err)
	for i := 1; i < len(traj.Samples); i++ {
		step := traj.Samples[i].Point.Dist(traj.Samples[i-1].Point)
		// MaxStep plus room for two jitter offsets.
		assert.Less(t, step, 15.0, "step %d", i)
	}
}

func TestGenerate_SteadyIsDirect(t *testing.T) {
	p := presets[3]
	p.OvershootChance = 1
	g := newTestTrajectoryGenerator(t, 5)
	s := stateWithProfile(t, p, testEpoch)

	start, end := Vector2D{X: 100, Y: 400}, Vector2D{X: 900, Y: 400}
	traj, err := g.Generate(s, start, end, true)
	require.NoError(t, err)
	assert.False(t, traj.Overshot, "steady moves never overshoot")
	for _, smp := range traj.Samples {
		assert.InDelta(t, 400.0, smp.Point.Y, 1e-9, "steady moves stay on the chord")
	}
	assert.Equal(t, end, traj.End())
}

func TestGenerate_OvershootAndCorrect(t *testing.T) {
	p := presets[1]
	p.OvershootChance = 1
	p.HesitationChance = 0

	for seed := int64(1); seed <= 20; seed++ {
		g := newTestTrajectoryGenerator(t, seed)
		s := stateWithProfile(t, p, testEpoch)
		target := Vector2D{X: 960, Y: 540}

		traj, err := g.Generate(s, Vector2D{X: 200, Y: 300}, target, false)
		require.NoError(t, err)
		require.True(t, traj.Overshot, "seed %d", seed)
		assert.Equal(t, target, traj.End())

		// The path passes beyond the target before settling.
		maxX := 0.0
		for _, smp := range traj.Samples {
			maxX = math.Max(maxX, smp.Point.X)
		}
		assert.Greater(t, maxX, target.X, "seed %d", seed)
	}
}

func TestGenerate_NoOvershootOnTinyMoves(t *testing.T) {
	p := presets[1]
	p.OvershootChance = 1
	g := newTestTrajectoryGenerator(t, 9)
	s := stateWithProfile(t, p, testEpoch)

	traj, err := g.Generate(s, Vector2D{X: 500, Y: 500}, Vector2D{X: 510, Y: 500}, false)
	require.NoError(t, err)
	assert.False(t, traj.Overshot)
}

func TestGenerate_Hesitation(t *testing.T) {
	p := presets[1]
	p.HesitationChance = 1
	cfg := DefaultTrajectoryConfig()
	g := newTestTrajectoryGenerator(t, 2)
	s := stateWithProfile(t, p, testEpoch)

	traj, err := g.Generate(s, Vector2D{X: 10, Y: 10}, Vector2D{X: 400, Y: 300}, false)
	require.NoError(t, err)
	assert.True(t, traj.Hesitated)
	assert.GreaterOrEqual(t, traj.Samples[0].Delay, cfg.HesitationMin)
	assert.Less(t, traj.Samples[0].Delay, cfg.HesitationMax)
}

func TestGenerate_FatigueSlowsMovement(t *testing.T) {
	p := presets[1]
	p.OvershootChance = 0
	p.HesitationChance = 0

	fresh := stateWithProfile(t, p, testEpoch)
	tired := stateWithProfile(t, p, testEpoch.Add(-3*time.Hour))
	require.Greater(t, tired.CurrentFatigue(), 0.0)

	start, end := Vector2D{X: 100, Y: 100}, Vector2D{X: 1200, Y: 700}
	a, err := newTestTrajectoryGenerator(t, 77).Generate(fresh, start, end, false)
	require.NoError(t, err)
	b, err := newTestTrajectoryGenerator(t, 77).Generate(tired, start, end, false)
	require.NoError(t, err)

	assert.Greater(t, b.Duration(), a.Duration())
}

func TestGenerate_Deterministic(t *testing.T) {
	run := func() []Trajectory {
		g := newTestTrajectoryGenerator(t, 424242)
		s := newTestState(t, "erratic")
		var out []Trajectory
		for _, target := range []Vector2D{{X: 800, Y: 600}, {X: 30, Y: 900}, {X: 1900, Y: 10}} {
			traj, err := g.Generate(s, lastEnd(out), target, false)
			require.NoError(t, err)
			out = append(out, traj)
		}
		return out
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("same seed produced different trajectories (-first +second):\n%s", diff)
	}
}

// lastEnd returns where the last trajectory ended, or the origin.
func lastEnd(trajs []Trajectory) Vector2D {
	if len(trajs) == 0 {
		return Vector2D{}
	}
	return trajs[len(trajs)-1].End()
}

func TestGenerate_RecordsMove(t *testing.T) {
	g := newTestTrajectoryGenerator(t, 1)
	s := newTestState(t, "normal")
	end := Vector2D{X: 640, Y: 480}

	_, err := g.Generate(s, Vector2D{}, end, false)
	require.NoError(t, err)
	h := s.History()
	require.Len(t, h, 1)
	assert.Equal(t, ActionTypeMove, h[0].Kind)
	assert.Equal(t, end, h[0].Position)
	assert.True(t, h[0].HasPosition)
}

func TestDwell(t *testing.T) {
	g := newTestTrajectoryGenerator(t, 8)
	s := newTestState(t, "normal")
	center := Vector2D{X: 700, Y: 300}
	dwell := 900 * time.Millisecond

	traj := g.Dwell(s, center, dwell)
	require.NotEmpty(t, traj.Samples)
	assert.Equal(t, center, traj.End())
	assert.GreaterOrEqual(t, traj.Duration(), dwell)
	assert.LessOrEqual(t, traj.Duration(), dwell+DefaultTrajectoryConfig().MinDelay)
	for _, smp := range traj.Samples {
		assert.Less(t, smp.Point.Dist(center), 20.0)
	}
	assert.Equal(t, ActionTypeHover, s.History()[0].Kind)
}

func TestArcLengthSamples(t *testing.T) {
	t.Run("EvenSpacingOnLine", func(t *testing.T) {
		pts := arcLengthSamples([]Vector2D{{X: 0, Y: 0}, {X: 30, Y: 0}}, 3.1)
		require.Len(t, pts, 11)
		for i := 1; i < len(pts); i++ {
			assert.InDelta(t, 3.0, pts[i].Dist(pts[i-1]), 1e-6)
		}
	})

	t.Run("ExactEndpointsOnCurve", func(t *testing.T) {
		ctrl := []Vector2D{{X: 0, Y: 0}, {X: 50, Y: 120}, {X: 150, Y: -60}, {X: 200, Y: 0}}
		pts := arcLengthSamples(ctrl, 3)
		assert.Equal(t, ctrl[0], pts[0])
		assert.Equal(t, ctrl[3], pts[len(pts)-1])
		for i := 1; i < len(pts); i++ {
			assert.LessOrEqual(t, pts[i].Dist(pts[i-1]), 3.0+1e-6)
		}
	})

	t.Run("Degenerate", func(t *testing.T) {
		p := Vector2D{X: 5, Y: 5}
		assert.Equal(t, []Vector2D{p, p}, arcLengthSamples([]Vector2D{p, p}, 3))
	})
}

func TestVelocityProfile(t *testing.T) {
	assert.InDelta(t, 0.35, velocityProfile(0), 1e-9)
	assert.InDelta(t, 1.0, velocityProfile(0.5), 1e-9)
	assert.Less(t, velocityProfile(0.95), velocityProfile(0.6))
}

func TestSpeedNoise_Bounded(t *testing.T) {
	n := newSpeedNoise(rand.New(rand.NewSource(1)))
	for x := 0.0; x < 50; x += 0.37 {
		f := n.factor(x, 0.1)
		assert.GreaterOrEqual(t, f, 0.9)
		assert.LessOrEqual(t, f, 1.1)
	}
}

func TestPinkNoise_Bounded(t *testing.T) {
	g := NewPinkNoiseGenerator(rand.New(rand.NewSource(4)), 8)
	for i := 0; i < 1000; i++ {
		v := g.Next()
		// n sources in [-1,1] scaled by 1/sqrt(n).
		assert.LessOrEqual(t, math.Abs(v), math.Sqrt(8)+1e-9)
	}
}
