// internal/humanoid/humanoid_test.go
package humanoid

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/mimic/api/schemas"
)

// newTestHumanoid builds a reproducible session over mock with a frozen clock.
func newTestHumanoid(t *testing.T, mock *mockSink, seed int64, mutate ...func(*Config)) *Humanoid {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = seed
	cfg.Clock = fixedClock(testEpoch)
	cfg.SessionStart = testEpoch
	for _, m := range mutate {
		m(&cfg)
	}
	h, err := New(context.Background(), cfg, mock, zaptest.NewLogger(t))
	require.NoError(t, err)
	return h
}

func withProfile(p Profile) func(*Config) {
	return func(c *Config) { c.Profile = &p }
}

func assertOnScreen(t *testing.T, b Bounds, events []schemas.MouseEventData) {
	t.Helper()
	for i, e := range events {
		p := Vector2D{X: e.X, Y: e.Y}
		assert.True(t, b.Contains(p), "event %d at %s is off screen", i, p)
		assert.Equal(t, p.Round(), p, "event %d is not integral", i)
	}
}

func TestNew(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		mock := newMockSink(t)
		h := newTestHumanoid(t, mock, 1)
		assert.NotEmpty(t, h.ID())
		assert.Equal(t, int64(1), h.Seed())
		assert.Equal(t, DefaultProfileName, h.State().Profile().Name)
		assert.Equal(t, mock.bounds, h.Bounds())
	})

	t.Run("UnknownProfile", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ProfileName = "somnambulist"
		_, err := New(context.Background(), cfg, newMockSink(t), nil)
		assert.True(t, errors.Is(err, ErrUnknownProfile))
	})

	t.Run("BoundsQueryFails", func(t *testing.T) {
		mock := newMockSink(t)
		boom := errors.New("no display")
		mock.MockScreenBounds = func(ctx context.Context) (Bounds, error) { return Bounds{}, boom }
		_, err := New(context.Background(), DefaultConfig(), mock, nil)
		var sinkErr *SinkError
		require.True(t, errors.As(err, &sinkErr))
		assert.True(t, errors.Is(err, boom))
	})

	t.Run("EmptyScreen", func(t *testing.T) {
		mock := newMockSink(t)
		mock.bounds = Bounds{}
		_, err := New(context.Background(), DefaultConfig(), mock, nil)
		assert.True(t, errors.Is(err, ErrInvalidBounds))
	})

	t.Run("InvalidClickConfig", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Click.ScrollStep = 0
		_, err := New(context.Background(), cfg, newMockSink(t), nil)
		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "click.scroll_step", cfgErr.Field)
	})

	t.Run("NilSink", func(t *testing.T) {
		_, err := New(context.Background(), DefaultConfig(), nil, nil)
		assert.Error(t, err)
	})
}

func TestMoveTo(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 42)
	target := Vector2D{X: 812, Y: 455}

	require.NoError(t, h.MoveTo(context.Background(), target, false))

	events := mock.recordedEvents()
	require.NotEmpty(t, events)
	for _, e := range events {
		assert.Equal(t, schemas.MouseMove, e.Type)
		assert.Equal(t, schemas.ButtonNone, e.Button)
		assert.Equal(t, int64(0), e.Buttons)
	}
	last := events[len(events)-1]
	assert.Equal(t, target, Vector2D{X: last.X, Y: last.Y})
	assertOnScreen(t, mock.bounds, events)
	assert.Greater(t, mock.totalWait(), time.Duration(0))
}

func TestMoveTo_OffScreen(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 42)

	err := h.MoveTo(context.Background(), Vector2D{X: -1, Y: 10}, false)
	assert.True(t, errors.Is(err, ErrInvalidBounds))
	assert.Empty(t, mock.recordedEvents())
}

func TestMoveTo_SequentialMovesChain(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 7)
	targets := []Vector2D{{X: 100, Y: 100}, {X: 1800, Y: 1000}, {X: 0, Y: 1079}}

	for _, target := range targets {
		require.NoError(t, h.MoveTo(context.Background(), target, false))
		pos, _ := mock.PointerPosition(context.Background())
		assert.Equal(t, target, pos)
	}
	assert.Len(t, h.State().History(), len(targets))
}

func TestClickOn(t *testing.T) {
	for _, button := range []schemas.MouseButton{schemas.ButtonLeft, schemas.ButtonRight, schemas.ButtonMiddle} {
		t.Run(string(button), func(t *testing.T) {
			mock := newMockSink(t)
			h := newTestHumanoid(t, mock, 3)
			target := Vector2D{X: 400, Y: 300}

			require.NoError(t, h.ClickOn(context.Background(), target, button, false))

			events := mock.recordedEvents()
			presses := eventsOfType(events, schemas.MousePress)
			releases := eventsOfType(events, schemas.MouseRelease)
			require.Len(t, presses, 1)
			require.Len(t, releases, 1)
			assert.Equal(t, button, presses[0].Button)
			assert.Equal(t, button.Mask(), presses[0].Buttons)
			assert.Equal(t, 1, presses[0].ClickCount)
			assert.Equal(t, int64(0), releases[0].Buttons)
			assert.Equal(t, target.X, presses[0].X)
			assert.Equal(t, target.Y, presses[0].Y)

			// Press and release are the last two events, in order.
			require.GreaterOrEqual(t, len(events), 3)
			assert.Equal(t, schemas.MousePress, events[len(events)-2].Type)
			assert.Equal(t, schemas.MouseRelease, events[len(events)-1].Type)

			history := h.State().History()
			assert.Equal(t, ActionTypeClick, history[len(history)-1].Kind)
		})
	}
}

func TestClickOn_RequiresButton(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 3)

	err := h.ClickOn(context.Background(), Vector2D{X: 10, Y: 10}, schemas.ButtonNone, false)
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Empty(t, mock.recordedEvents())
}

func TestClickOn_HoldIsWaitedOut(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 3)

	var pressed atomic.Bool
	var holds []time.Duration
	mock.MockEmitPointer = func(ctx context.Context, data schemas.MouseEventData) error {
		pressed.Store(data.Type == schemas.MousePress)
		return mock.DefaultEmitPointer(ctx, data)
	}
	mock.MockWait = func(ctx context.Context, d time.Duration) error {
		if pressed.Load() {
			holds = append(holds, d)
		}
		return mock.DefaultWait(ctx, d)
	}

	require.NoError(t, h.ClickOn(context.Background(), Vector2D{X: 50, Y: 60}, schemas.ButtonLeft, true))
	require.Len(t, holds, 1)
	cfg := DefaultClickConfig()
	assert.GreaterOrEqual(t, holds[0], cfg.HoldMin)
	assert.Less(t, holds[0], cfg.HoldMax)
}

func TestDoubleClick(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 11)

	require.NoError(t, h.DoubleClick(context.Background(), Vector2D{X: 640, Y: 360}))

	presses := eventsOfType(mock.recordedEvents(), schemas.MousePress)
	require.Len(t, presses, 2)
	assert.Equal(t, 1, presses[0].ClickCount)
	assert.Equal(t, 2, presses[1].ClickCount)
	assert.Len(t, eventsOfType(mock.recordedEvents(), schemas.MouseRelease), 2)
}

func TestDragAndDrop(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 19)
	source, target := Vector2D{X: 200, Y: 200}, Vector2D{X: 900, Y: 650}

	require.NoError(t, h.DragAndDrop(context.Background(), source, target))

	events := mock.recordedEvents()
	pressIdx, releaseIdx := -1, -1
	for i, e := range events {
		switch e.Type {
		case schemas.MousePress:
			pressIdx = i
		case schemas.MouseRelease:
			releaseIdx = i
		}
	}
	require.NotEqual(t, -1, pressIdx)
	require.Equal(t, len(events)-1, releaseIdx)
	assert.Equal(t, source, Vector2D{X: events[pressIdx].X, Y: events[pressIdx].Y})
	assert.Equal(t, target, Vector2D{X: events[releaseIdx].X, Y: events[releaseIdx].Y})

	// Every move while the button is down carries the held-button mask.
	require.Greater(t, releaseIdx-pressIdx, 1)
	for _, e := range events[pressIdx+1 : releaseIdx] {
		assert.Equal(t, schemas.MouseMove, e.Type)
		assert.Equal(t, schemas.ButtonLeft.Mask(), e.Buttons)
	}
	for _, e := range events[:pressIdx] {
		assert.Equal(t, int64(0), e.Buttons)
	}
	assertOnScreen(t, mock.bounds, events)

	history := h.State().History()
	assert.Equal(t, ActionTypeDrag, history[len(history)-1].Kind)
}

func TestDragAndDrop_OffScreenEndpoint(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 19)

	err := h.DragAndDrop(context.Background(), Vector2D{X: 10, Y: 10}, Vector2D{X: 5000, Y: 10})
	assert.True(t, errors.Is(err, ErrInvalidBounds))
	assert.Empty(t, mock.recordedEvents(), "nothing is emitted for an impossible drag")
}

func TestDragAndDrop_ReleasesAfterFailure(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 19)
	boom := errors.New("driver went away")

	var pressed atomic.Bool
	mock.MockEmitPointer = func(ctx context.Context, data schemas.MouseEventData) error {
		switch {
		case data.Type == schemas.MousePress:
			pressed.Store(true)
		case pressed.Load() && data.Type == schemas.MouseMove:
			return boom
		}
		return mock.DefaultEmitPointer(ctx, data)
	}

	err := h.DragAndDrop(context.Background(), Vector2D{X: 100, Y: 100}, Vector2D{X: 700, Y: 500})
	require.Error(t, err)
	var sinkErr *SinkError
	require.True(t, errors.As(err, &sinkErr))
	assert.True(t, errors.Is(err, boom))

	events := mock.recordedEvents()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, schemas.MouseRelease, last.Type, "the button must not stay held")
	assert.Equal(t, schemas.ButtonLeft, last.Button)
}

func TestDragAndDrop_ReleasesAfterCancellation(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 23)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pressed atomic.Bool
	mock.MockEmitPointer = func(c context.Context, data schemas.MouseEventData) error {
		if data.Type == schemas.MousePress {
			pressed.Store(true)
			defer cancel()
		}
		return mock.DefaultEmitPointer(c, data)
	}

	err := h.DragAndDrop(ctx, Vector2D{X: 100, Y: 100}, Vector2D{X: 700, Y: 500})
	assert.ErrorIs(t, err, context.Canceled)
	events := mock.recordedEvents()
	assert.Equal(t, schemas.MouseRelease, events[len(events)-1].Type)
}

func TestScroll(t *testing.T) {
	tests := []struct {
		direction schemas.ScrollDirection
		dx, dy    float64
	}{
		{schemas.ScrollDown, 0, 100},
		{schemas.ScrollUp, 0, -100},
		{schemas.ScrollRight, 100, 0},
		{schemas.ScrollLeft, -100, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.direction), func(t *testing.T) {
			mock := newMockSink(t)
			h := newTestHumanoid(t, mock, 5)
			origin := Vector2D{X: 960, Y: 540}

			require.NoError(t, h.Scroll(context.Background(), origin, tt.direction, 4))

			wheels := eventsOfType(mock.recordedEvents(), schemas.MouseWheel)
			require.Len(t, wheels, 4)
			for _, w := range wheels {
				assert.Equal(t, tt.dx, w.DeltaX)
				assert.Equal(t, tt.dy, w.DeltaY)
				assert.InDelta(t, origin.X, w.X, 10)
				assert.InDelta(t, origin.Y, w.Y, 10)
			}
			history := h.State().History()
			assert.Equal(t, ActionTypeScroll, history[len(history)-1].Kind)
		})
	}
}

func TestScroll_Validation(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 5)
	var cfgErr *ConfigurationError

	err := h.Scroll(context.Background(), Vector2D{X: 5, Y: 5}, schemas.ScrollDown, 0)
	assert.True(t, errors.As(err, &cfgErr))

	err = h.Scroll(context.Background(), Vector2D{X: 5, Y: 5}, schemas.ScrollDirection("sideways"), 2)
	assert.True(t, errors.As(err, &cfgErr))
	assert.Empty(t, mock.recordedEvents())
}

func TestScroll_AlreadyAtOrigin(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 5)

	require.NoError(t, h.Scroll(context.Background(), Vector2D{}, schemas.ScrollDown, 2))
	for _, e := range mock.recordedEvents() {
		assert.Equal(t, schemas.MouseWheel, e.Type, "no approach move when already in place")
	}
}

func TestHover(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 13)
	target := Vector2D{X: 300, Y: 700}

	require.NoError(t, h.Hover(context.Background(), target, 600*time.Millisecond))

	events := mock.recordedEvents()
	last := events[len(events)-1]
	assert.Equal(t, target, Vector2D{X: last.X, Y: last.Y})
	history := h.State().History()
	assert.Equal(t, ActionTypeHover, history[len(history)-1].Kind)
	assert.GreaterOrEqual(t, mock.totalWait(), 600*time.Millisecond)
}

func TestTypeText(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 31, withProfile(alwaysCorrects()))
	text := "Reach me at sam@example.net. Thanks again for the quick reply!"

	require.NoError(t, h.TypeText(context.Background(), text, ContentAuto))

	keys := mock.recordedKeys()
	require.NotEmpty(t, keys)
	for _, k := range keys {
		assert.NotEqual(t, KeyPause, k.Kind, "pauses are waits, not key events")
	}
	assert.Equal(t, text, TypingPlan{Actions: keys}.Result())
	assert.Greater(t, mock.totalWait(), time.Duration(0))

	history := h.State().History()
	assert.Equal(t, ActionTypeType, history[len(history)-1].Kind)
}

func TestTypeText_Empty(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 31)
	assert.ErrorIs(t, h.TypeText(context.Background(), "", ContentAuto), ErrEmptyInput)
	assert.Empty(t, mock.recordedKeys())
}

func TestTypeText_SinkFailure(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 31)
	mock.returnErr = errors.New("keyboard unplugged")

	err := h.TypeText(context.Background(), "hello", ContentPlain)
	var sinkErr *SinkError
	require.True(t, errors.As(err, &sinkErr))
	assert.Equal(t, "key", sinkErr.Op)
	assert.Len(t, mock.recordedKeys(), 1, "the intent stops at the first failure")
}

func TestContextCancellation_DuringMovement(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 17)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mock.cancelFunc = cancel
	mock.cancelOnCall = 10

	err := h.MoveTo(ctx, Vector2D{X: 1500, Y: 900}, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, mock.recordedEvents(), 10, "no events after cancellation")
}

func TestContextCancellation_DuringTyping(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 17)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mock.MockEmitKey = func(c context.Context, a KeyAction) error {
		err := mock.DefaultEmitKey(c, a)
		if len(mock.recordedKeys()) == 3 {
			cancel()
		}
		return err
	}

	err := h.TypeText(ctx, "a fairly long sentence to type out", ContentPlain)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, mock.recordedKeys(), 3)
}

func TestDeterministicSessions(t *testing.T) {
	run := func() []schemas.MouseEventData {
		mock := newMockSink(t)
		h := newTestHumanoid(t, mock, 5150)
		ctx := context.Background()
		require.NoError(t, h.MoveTo(ctx, Vector2D{X: 700, Y: 400}, false))
		require.NoError(t, h.ClickOn(ctx, Vector2D{X: 120, Y: 880}, schemas.ButtonLeft, false))
		require.NoError(t, h.Scroll(ctx, Vector2D{X: 500, Y: 500}, schemas.ScrollDown, 3))
		return mock.recordedEvents()
	}
	assert.Equal(t, run(), run())
}

func TestFatigueOffset(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 1, func(c *Config) {
		c.SessionStart = testEpoch.Add(-2 * time.Hour)
	})
	assert.InDelta(t, 0.3, h.State().CurrentFatigue(), 1e-9)
}

func TestHumanoid_TypeReturnsPlan(t *testing.T) {
	mock := newMockSink(t)
	h := newTestHumanoid(t, mock, 11, func(c *Config) { c.Typing.SimulateErrors = false })

	plan, err := h.Type(context.Background(), "plan me", ContentAuto)
	require.NoError(t, err)

	assert.Equal(t, "plan me", plan.Result())
	assert.Equal(t, 7, plan.Stats.Chars)
	assert.Equal(t, ContentPlain, plan.Content)
	assert.Equal(t, plan.Result(), TypingPlan{Actions: mock.recordedKeys()}.Result())
	assert.Equal(t, plan.Duration(), mock.totalWait())
}
