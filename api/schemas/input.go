// api/schemas/input.go
package schemas

// MouseEventType defines the type of a mouse event.
type MouseEventType string

const (
	MouseMove    MouseEventType = "mouseMoved"
	MousePress   MouseEventType = "mousePressed"
	MouseRelease MouseEventType = "mouseReleased"
	MouseWheel   MouseEventType = "mouseWheel"
)

// MouseButton defines the mouse button being pressed.
type MouseButton string

const (
	ButtonNone   MouseButton = "none"
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// ParseMouseButton maps a user supplied name onto a MouseButton.
// The empty string selects the left button.
func ParseMouseButton(name string) (MouseButton, bool) {
	switch MouseButton(name) {
	case "", ButtonLeft:
		return ButtonLeft, true
	case ButtonRight:
		return ButtonRight, true
	case ButtonMiddle:
		return ButtonMiddle, true
	case ButtonNone:
		return ButtonNone, true
	}
	return ButtonNone, false
}

// Mask returns the bit this button contributes to MouseEventData.Buttons
// (left=1, right=2, middle=4).
func (b MouseButton) Mask() int64 {
	switch b {
	case ButtonLeft:
		return 1
	case ButtonRight:
		return 2
	case ButtonMiddle:
		return 4
	default:
		return 0
	}
}

// MouseEventData encapsulates all data for a mouse event.
// Coordinates are integral device units by the time a sink receives them.
type MouseEventData struct {
	Type       MouseEventType `json:"type"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Button     MouseButton    `json:"button"`
	Buttons    int64          `json:"buttons"`
	ClickCount int            `json:"clickCount"`
	DeltaX     float64        `json:"deltaX"`
	DeltaY     float64        `json:"deltaY"`
}

// ScrollDirection is the direction of a wheel gesture.
type ScrollDirection string

const (
	ScrollUp    ScrollDirection = "up"
	ScrollDown  ScrollDirection = "down"
	ScrollLeft  ScrollDirection = "left"
	ScrollRight ScrollDirection = "right"
)

// Delta returns the per-notch wheel delta for the direction, scaled by step.
// Positive DeltaY scrolls the page down, matching the browser convention.
func (d ScrollDirection) Delta(step float64) (dx, dy float64, ok bool) {
	switch d {
	case ScrollUp:
		return 0, -step, true
	case ScrollDown:
		return 0, step, true
	case ScrollLeft:
		return -step, 0, true
	case ScrollRight:
		return step, 0, true
	}
	return 0, 0, false
}
