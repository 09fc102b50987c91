// internal/humanoid/humanoid.go
package humanoid

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/api/schemas"
)

// Humanoid is one simulated operator: a BehaviorState, the two generators
// and the sink that performs their output.
type Humanoid struct {
	// mu serializes intents. The sink is one physical pointer and keyboard,
	// so concurrent intents would produce incoherent input.
	mu           sync.Mutex
	id           string
	seed         int64
	cfg          Config
	logger       *zap.Logger
	sink         ActionSink
	rng          *rand.Rand
	state        *BehaviorState
	trajectories *TrajectoryGenerator
	typing       *TypingGenerator
}

var _ Controller = (*Humanoid)(nil)

// New creates a session. It queries the sink once for the screen bounds.
func New(ctx context.Context, cfg Config, sink ActionSink, logger *zap.Logger) (*Humanoid, error) {
	if sink == nil {
		return nil, fmt.Errorf("humanoid: sink is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Click.Validate(); err != nil {
		return nil, err
	}
	profile, registry, err := cfg.resolveProfile()
	if err != nil {
		return nil, err
	}

	bounds, err := sink.ScreenBounds(ctx)
	if err != nil {
		return nil, &SinkError{Op: "screen bounds", Err: err}
	}

	rng, seed := newSeededRand(cfg.Seed)
	opts := []StateOption{WithRegistry(registry)}
	if cfg.Clock != nil {
		opts = append(opts, WithClock(cfg.Clock))
	}
	if !cfg.SessionStart.IsZero() {
		opts = append(opts, WithSessionStart(cfg.SessionStart))
	}
	state, err := NewBehaviorState(profile, cfg.State, opts...)
	if err != nil {
		return nil, err
	}

	// Each generator owns a child source so the pointer and keyboard streams
	// stay reproducible independently of each other.
	trajectories, err := NewTrajectoryGenerator(cfg.Trajectory, bounds, rand.New(rand.NewSource(rng.Int63())))
	if err != nil {
		return nil, err
	}
	typing, err := NewTypingGenerator(cfg.Typing, rand.New(rand.NewSource(rng.Int63())))
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	h := &Humanoid{
		id:           id,
		seed:         seed,
		cfg:          cfg,
		logger:       logger.Named("humanoid").With(zap.String("session_id", id)),
		sink:         sink,
		rng:          rng,
		state:        state,
		trajectories: trajectories,
		typing:       typing,
	}
	h.logger.Debug("Session created.",
		zap.String("profile", profile.Name),
		zap.Int64("seed", seed),
		zap.Stringer("bounds", bounds))
	return h, nil
}

// ID returns the session identifier.
func (h *Humanoid) ID() string { return h.id }

// Seed returns the seed the session was built with.
func (h *Humanoid) Seed() int64 { return h.seed }

// State exposes the session's behavior state.
func (h *Humanoid) State() *BehaviorState { return h.state }

// Bounds returns the screen bounds captured at session start.
func (h *Humanoid) Bounds() Bounds { return h.trajectories.Bounds() }

// MoveTo moves the pointer to target along a humanized path. With steady
// set, the path is direct and unjittered but still speed-varying.
func (h *Humanoid) MoveTo(ctx context.Context, target Vector2D, steady bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.moveTo(ctx, target, steady, 0)
}

// ClickOn moves to target and performs a single click with button.
func (h *Humanoid) ClickOn(ctx context.Context, target Vector2D, button schemas.MouseButton, steady bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if button == schemas.ButtonNone {
		return &ConfigurationError{Field: "button", Err: fmt.Errorf("a click needs a button")}
	}
	if err := h.moveTo(ctx, target, steady, 0); err != nil {
		return err
	}
	if chance(h.rng, h.cfg.Click.PreClickPauseChance) {
		if err := h.wait(ctx, uniformDuration(h.rng, h.cfg.Click.PreClickPauseMin, h.cfg.Click.PreClickPauseMax)); err != nil {
			return err
		}
	}
	if err := h.pressRelease(ctx, target, button, 1); err != nil {
		return err
	}
	if chance(h.rng, h.cfg.Click.PostClickPauseChance) {
		if err := h.wait(ctx, uniformDuration(h.rng, h.cfg.Click.PostClickPauseMin, h.cfg.Click.PostClickPauseMax)); err != nil {
			return err
		}
	}
	h.state.recordAt(ActionTypeClick, &target)
	return nil
}

// DoubleClick moves to target and clicks the left button twice.
func (h *Humanoid) DoubleClick(ctx context.Context, target Vector2D) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.moveTo(ctx, target, false, 0); err != nil {
		return err
	}
	if err := h.pressRelease(ctx, target, schemas.ButtonLeft, 1); err != nil {
		return err
	}
	if err := h.wait(ctx, uniformDuration(h.rng, h.cfg.Click.DoubleClickGapMin, h.cfg.Click.DoubleClickGapMax)); err != nil {
		return err
	}
	if err := h.pressRelease(ctx, target, schemas.ButtonLeft, 2); err != nil {
		return err
	}
	h.state.recordAt(ActionTypeClick, &target)
	return nil
}

// DragAndDrop grabs at source with the left button and releases at target.
func (h *Humanoid) DragAndDrop(ctx context.Context, source, target Vector2D) (err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	bounds := h.trajectories.Bounds()
	for _, p := range []Vector2D{source, target} {
		if !bounds.Contains(p) {
			return &BoundsError{Target: p, Bounds: bounds}
		}
	}

	if err := h.moveTo(ctx, source, false, 0); err != nil {
		return err
	}
	if err := h.wait(ctx, uniformDuration(h.rng, h.cfg.Click.DragGrabPauseMin, h.cfg.Click.DragGrabPauseMax)); err != nil {
		return err
	}
	mask := schemas.ButtonLeft.Mask()
	if err := h.emitPointer(ctx, h.buttonEvent(schemas.MousePress, source, schemas.ButtonLeft, mask, 1)); err != nil {
		return err
	}

	pressed := true
	defer func() {
		if err == nil || !pressed {
			return
		}
		// Never leave the button held after an abandoned drag.
		pos := source
		if p, perr := h.sink.PointerPosition(context.Background()); perr == nil {
			pos = p
		}
		ev := h.buttonEvent(schemas.MouseRelease, pos, schemas.ButtonLeft, 0, 1)
		if rerr := h.sink.EmitPointer(context.Background(), ev); rerr != nil {
			h.logger.Warn("Failed to release button after aborted drag.", zap.Error(rerr))
		}
	}()

	if err := h.wait(ctx, uniformDuration(h.rng, h.cfg.Click.HoldMin, h.cfg.Click.HoldMax)); err != nil {
		return err
	}
	if err := h.moveTo(ctx, target, false, mask); err != nil {
		return err
	}
	if err := h.wait(ctx, uniformDuration(h.rng, h.cfg.Click.DragGrabPauseMin, h.cfg.Click.DragGrabPauseMax)); err != nil {
		return err
	}
	if err := h.emitPointer(ctx, h.buttonEvent(schemas.MouseRelease, target, schemas.ButtonLeft, 0, 1)); err != nil {
		return err
	}
	pressed = false
	h.state.recordAt(ActionTypeDrag, &target)
	return nil
}

// Scroll turns the wheel clicks notches in direction at origin. The pointer
// is brought to origin directly, without curve synthesis.
func (h *Humanoid) Scroll(ctx context.Context, origin Vector2D, direction schemas.ScrollDirection, clicks int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clicks <= 0 {
		return &ConfigurationError{Field: "clicks", Err: fmt.Errorf("must be positive, got %d", clicks)}
	}
	dx, dy, ok := direction.Delta(h.cfg.Click.ScrollStep)
	if !ok {
		return &ConfigurationError{Field: "direction", Err: fmt.Errorf("unknown scroll direction %q", direction)}
	}
	if err := h.approach(ctx, origin); err != nil {
		return err
	}

	for i := 0; i < clicks; i++ {
		delay := uniformDuration(h.rng, h.cfg.Click.ScrollNotchMin, h.cfg.Click.ScrollNotchMax)
		if i > 0 && chance(h.rng, h.cfg.Click.ScrollPauseChance) {
			// Reading what just scrolled into view.
			delay += thinkingPause(h.rng)
		}
		if err := h.wait(ctx, delay); err != nil {
			return err
		}
		p := h.trajectories.Jitter(h.state, origin).Round()
		ev := schemas.MouseEventData{
			Type:   schemas.MouseWheel,
			X:      p.X,
			Y:      p.Y,
			Button: schemas.ButtonNone,
			DeltaX: dx,
			DeltaY: dy,
		}
		if err := h.emitPointer(ctx, ev); err != nil {
			return err
		}
	}
	h.state.recordAt(ActionTypeScroll, &origin)
	return nil
}

// Hover brings the pointer to target directly and idles there for dwell.
func (h *Humanoid) Hover(ctx context.Context, target Vector2D, dwell time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.approach(ctx, target); err != nil {
		return err
	}
	return h.emitTrajectory(ctx, h.trajectories.Dwell(h.state, target, dwell), 0)
}

// TypeText types text into whatever has focus. hint overrides the content
// classifier unless it is ContentAuto. Empty text fails with ErrEmptyInput.
func (h *Humanoid) TypeText(ctx context.Context, text string, hint ContentKind) error {
	_, err := h.Type(ctx, text, hint)
	return err
}

// Type is TypeText that also returns the plan it played, including when
// playback stopped early.
func (h *Humanoid) Type(ctx context.Context, text string, hint ContentKind) (TypingPlan, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	plan, err := h.typing.Generate(h.state, text, hint)
	if err != nil {
		return TypingPlan{}, err
	}
	h.logger.Debug("Generated typing plan.",
		zap.Int("actions", len(plan.Actions)),
		zap.String("content", string(plan.Content)),
		zap.Int("errors", plan.Stats.Errors),
		zap.Int("corrected", plan.Stats.Corrected),
		zap.Int("pastes", plan.Stats.Pastes),
		zap.Duration("planned", plan.Duration()))

	for _, a := range plan.Actions {
		if err := ctx.Err(); err != nil {
			return plan, err
		}
		if err := h.wait(ctx, a.Delay); err != nil {
			return plan, err
		}
		if a.Kind == KeyPause {
			continue
		}
		if err := h.sink.EmitKey(ctx, a); err != nil {
			if ctx.Err() != nil {
				return plan, ctx.Err()
			}
			return plan, &SinkError{Op: "key", Err: err}
		}
	}
	return plan, nil
}

// moveTo generates and emits a trajectory from the current pointer position.
// buttons is the held-button bitfield carried on every move sample.
func (h *Humanoid) moveTo(ctx context.Context, target Vector2D, steady bool, buttons int64) error {
	start, err := h.sink.PointerPosition(ctx)
	if err != nil {
		return &SinkError{Op: "pointer position", Err: err}
	}
	traj, err := h.trajectories.Generate(h.state, start, target, steady)
	if err != nil {
		return err
	}
	h.logger.Debug("Generated trajectory.",
		zap.Stringer("from", start),
		zap.Stringer("to", target),
		zap.Int("samples", len(traj.Samples)),
		zap.Bool("overshot", traj.Overshot),
		zap.Bool("hesitated", traj.Hesitated),
		zap.Duration("planned", traj.Duration()))
	return h.emitTrajectory(ctx, traj, buttons)
}

// approach moves directly to target if the pointer is not already there.
func (h *Humanoid) approach(ctx context.Context, target Vector2D) error {
	pos, err := h.sink.PointerPosition(ctx)
	if err != nil {
		return &SinkError{Op: "pointer position", Err: err}
	}
	if pos.Dist(target) < 1 {
		if !h.trajectories.Bounds().Contains(target) {
			return &BoundsError{Target: target, Bounds: h.trajectories.Bounds()}
		}
		return nil
	}
	return h.moveTo(ctx, target, true, 0)
}

func (h *Humanoid) emitTrajectory(ctx context.Context, traj Trajectory, buttons int64) error {
	bounds := h.trajectories.Bounds()
	for _, s := range traj.Samples {
		if err := h.wait(ctx, s.Delay); err != nil {
			return err
		}
		p := bounds.Clamp(s.Point.Round())
		ev := schemas.MouseEventData{
			Type:    schemas.MouseMove,
			X:       p.X,
			Y:       p.Y,
			Button:  schemas.ButtonNone,
			Buttons: buttons,
		}
		if err := h.emitPointer(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (h *Humanoid) pressRelease(ctx context.Context, at Vector2D, button schemas.MouseButton, clickCount int) error {
	if err := h.emitPointer(ctx, h.buttonEvent(schemas.MousePress, at, button, button.Mask(), clickCount)); err != nil {
		return err
	}
	if err := h.wait(ctx, uniformDuration(h.rng, h.cfg.Click.HoldMin, h.cfg.Click.HoldMax)); err != nil {
		// The press already landed; release before giving up.
		_ = h.sink.EmitPointer(context.Background(), h.buttonEvent(schemas.MouseRelease, at, button, 0, clickCount))
		return err
	}
	return h.emitPointer(ctx, h.buttonEvent(schemas.MouseRelease, at, button, 0, clickCount))
}

func (h *Humanoid) buttonEvent(typ schemas.MouseEventType, at Vector2D, button schemas.MouseButton, buttons int64, clickCount int) schemas.MouseEventData {
	p := h.trajectories.Bounds().Clamp(at.Round())
	return schemas.MouseEventData{
		Type:       typ,
		X:          p.X,
		Y:          p.Y,
		Button:     button,
		Buttons:    buttons,
		ClickCount: clickCount,
	}
}

// emitPointer forwards one event unless the context is already done.
func (h *Humanoid) emitPointer(ctx context.Context, ev schemas.MouseEventData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := h.sink.EmitPointer(ctx, ev); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		h.logger.Warn("Sink rejected pointer event.", zap.String("type", string(ev.Type)), zap.Error(err))
		return &SinkError{Op: "pointer", Err: err}
	}
	return nil
}

// wait hands a declared delay to the sink.
func (h *Humanoid) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	if err := h.sink.Wait(ctx, d); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &SinkError{Op: "wait", Err: err}
	}
	return nil
}
