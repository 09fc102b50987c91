// internal/humanoid/interface.go
package humanoid

import (
	"context"
	"time"

	"github.com/xkilldash9x/mimic/api/schemas"
)

// Controller defines the high-level intents of a humanoid session.
type Controller interface {
	MoveTo(ctx context.Context, target Vector2D, steady bool) error
	ClickOn(ctx context.Context, target Vector2D, button schemas.MouseButton, steady bool) error
	DoubleClick(ctx context.Context, target Vector2D) error
	DragAndDrop(ctx context.Context, source, target Vector2D) error
	Scroll(ctx context.Context, origin Vector2D, direction schemas.ScrollDirection, clicks int) error
	Hover(ctx context.Context, target Vector2D, dwell time.Duration) error
	TypeText(ctx context.Context, text string, hint ContentKind) error
}

// ActionSink performs the actual platform input. The core only ever talks to
// this capability set, so native injection, a browser driver or a recorder
// can be substituted. Each call is atomic; the session checks for
// cancellation between calls, never during one.
type ActionSink interface {
	// EmitPointer performs one pointer event: a move sample, a button
	// press/release or a wheel notch. Coordinates are already integral and on screen.
	EmitPointer(ctx context.Context, data schemas.MouseEventData) error
	// EmitKey performs one literal, backspace run or paste.
	EmitKey(ctx context.Context, action KeyAction) error
	// Wait blocks (or advances a virtual clock) for d before the next action.
	Wait(ctx context.Context, d time.Duration) error
	ScreenBounds(ctx context.Context) (Bounds, error)
	PointerPosition(ctx context.Context) (Vector2D, error)
}
