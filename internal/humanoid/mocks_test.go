// internal/humanoid/mocks_test.go
package humanoid

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xkilldash9x/mimic/api/schemas"
)

// mockSink implements ActionSink for testing. It tracks the pointer position
// from the events it receives and records everything the session emits.
type mockSink struct {
	t        *testing.T
	bounds   Bounds
	position Vector2D

	events []schemas.MouseEventData
	keys   []KeyAction
	waits  []time.Duration

	returnErr error
	mu        sync.Mutex

	// For scenario control over pointer events.
	cancelOnCall int
	failOnCall   int
	callCount    int
	cancelFunc   context.CancelFunc

	// Overrides. Mocks must not call back into the Humanoid; it holds its
	// mutex for the whole intent.
	MockEmitPointer     func(ctx context.Context, data schemas.MouseEventData) error
	MockEmitKey         func(ctx context.Context, action KeyAction) error
	MockWait            func(ctx context.Context, d time.Duration) error
	MockScreenBounds    func(ctx context.Context) (Bounds, error)
	MockPointerPosition func(ctx context.Context) (Vector2D, error)
}

func newMockSink(t *testing.T) *mockSink {
	return &mockSink{
		t:      t,
		bounds: Bounds{Width: 1920, Height: 1080},
	}
}

func (m *mockSink) EmitPointer(ctx context.Context, data schemas.MouseEventData) error {
	if m.MockEmitPointer != nil {
		return m.MockEmitPointer(ctx, data)
	}
	return m.DefaultEmitPointer(ctx, data)
}

// DefaultEmitPointer records the event before any failure so cleanup releases
// sent with context.Background() are visible to assertions.
func (m *mockSink) DefaultEmitPointer(ctx context.Context, data schemas.MouseEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, data)
	m.callCount++

	if m.returnErr != nil && (m.failOnCall == 0 || m.callCount >= m.failOnCall) {
		return m.returnErr
	}
	if ctx.Err() != nil && ctx != context.Background() {
		return ctx.Err()
	}
	m.position = Vector2D{X: data.X, Y: data.Y}

	if m.cancelOnCall > 0 && m.callCount == m.cancelOnCall && m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}

func (m *mockSink) EmitKey(ctx context.Context, action KeyAction) error {
	if m.MockEmitKey != nil {
		return m.MockEmitKey(ctx, action)
	}
	return m.DefaultEmitKey(ctx, action)
}

func (m *mockSink) DefaultEmitKey(ctx context.Context, action KeyAction) error {
	if ctx.Err() != nil && ctx != context.Background() {
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, action)
	if m.returnErr != nil && m.failOnCall == 0 {
		return m.returnErr
	}
	return nil
}

func (m *mockSink) Wait(ctx context.Context, d time.Duration) error {
	if m.MockWait != nil {
		return m.MockWait(ctx, d)
	}
	return m.DefaultWait(ctx, d)
}

func (m *mockSink) DefaultWait(ctx context.Context, d time.Duration) error {
	if ctx.Err() != nil && ctx != context.Background() {
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waits = append(m.waits, d)
	return nil
}

func (m *mockSink) ScreenBounds(ctx context.Context) (Bounds, error) {
	if m.MockScreenBounds != nil {
		return m.MockScreenBounds(ctx)
	}
	return m.bounds, nil
}

func (m *mockSink) PointerPosition(ctx context.Context) (Vector2D, error) {
	if m.MockPointerPosition != nil {
		return m.MockPointerPosition(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position, nil
}

// recordedEvents returns a copy of the pointer events.
func (m *mockSink) recordedEvents() []schemas.MouseEventData {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schemas.MouseEventData, len(m.events))
	copy(out, m.events)
	return out
}

func (m *mockSink) recordedKeys() []KeyAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]KeyAction, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *mockSink) totalWait() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total time.Duration
	for _, d := range m.waits {
		total += d
	}
	return total
}

func eventsOfType(events []schemas.MouseEventData, typ schemas.MouseEventType) []schemas.MouseEventData {
	var out []schemas.MouseEventData
	for _, e := range events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// fixedClock returns a clock frozen at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testEpoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// newTestState builds a state with a frozen clock at the session start.
func newTestState(t *testing.T, profileName string) *BehaviorState {
	t.Helper()
	reg, err := NewProfileRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	p, err := reg.Lookup(profileName)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	s, err := NewBehaviorState(p, DefaultStateConfig(),
		WithClock(fixedClock(testEpoch)),
		WithSessionStart(testEpoch),
		WithRegistry(reg))
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	return s
}
