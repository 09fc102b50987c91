// internal/sink/recorder.go
package sink

import (
	"context"
	"sync"
	"time"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/humanoid"
)

// Event is one recorded sink call. Exactly one of Pointer and Key is set.
type Event struct {
	// At is the virtual time of the event, measured from the first call.
	At      time.Duration           `json:"at"`
	Pointer *schemas.MouseEventData `json:"pointer,omitempty"`
	Key     *humanoid.KeyAction     `json:"key,omitempty"`
}

// Recorder is an in-memory ActionSink with a virtual clock. Waits advance the
// clock instantly, so whole sessions can be synthesized and inspected without
// any real input or real time passing.
type Recorder struct {
	mu       sync.Mutex
	bounds   humanoid.Bounds
	position humanoid.Vector2D
	elapsed  time.Duration
	events   []Event
}

var _ humanoid.ActionSink = (*Recorder)(nil)

// NewRecorder creates a recorder for a screen of the given size with the
// pointer resting at start.
func NewRecorder(bounds humanoid.Bounds, start humanoid.Vector2D) *Recorder {
	return &Recorder{bounds: bounds, position: start}
}

// EmitPointer records the event and moves the tracked pointer.
func (r *Recorder) EmitPointer(ctx context.Context, data schemas.MouseEventData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := data
	r.events = append(r.events, Event{At: r.elapsed, Pointer: &ev})
	r.position = humanoid.Vector2D{X: data.X, Y: data.Y}
	return nil
}

// EmitKey records the key action.
func (r *Recorder) EmitKey(ctx context.Context, action humanoid.KeyAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a := action
	r.events = append(r.events, Event{At: r.elapsed, Key: &a})
	return nil
}

// Wait advances the virtual clock by d.
func (r *Recorder) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	r.mu.Lock()
	r.elapsed += d
	r.mu.Unlock()
	return nil
}

func (r *Recorder) ScreenBounds(context.Context) (humanoid.Bounds, error) {
	return r.bounds, nil
}

func (r *Recorder) PointerPosition(context.Context) (humanoid.Vector2D, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position, nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// PointerEvents returns only the pointer events, in order.
func (r *Recorder) PointerEvents() []schemas.MouseEventData {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []schemas.MouseEventData
	for _, e := range r.events {
		if e.Pointer != nil {
			out = append(out, *e.Pointer)
		}
	}
	return out
}

// KeyActions returns only the key actions, in order.
func (r *Recorder) KeyActions() []humanoid.KeyAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []humanoid.KeyAction
	for _, e := range r.events {
		if e.Key != nil {
			out = append(out, *e.Key)
		}
	}
	return out
}

// Text replays the recorded key actions into the text they leave behind.
func (r *Recorder) Text() string {
	return humanoid.TypingPlan{Actions: r.KeyActions()}.Result()
}

// Elapsed returns the virtual time consumed so far.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// Reset clears the recording and the clock but keeps the pointer position.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.elapsed = 0
}
