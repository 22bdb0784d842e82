// Package input turns window events into camera edits. A Dispatcher consumes one Event at a time
// and drives the drag state machine: a left drag rotates the camera with the arcball, a right drag
// dollies it toward the look-at point, and a resize reallocates the backend buffers.
package input

import "fmt"

// EventType identifies the kind of an Event.
type EventType int

const (
	// EventButtonDown is a mouse button press at (X, Y).
	EventButtonDown EventType = iota
	// EventButtonUp is a mouse button release at (X, Y).
	EventButtonUp
	// EventPointerMove is a pointer move to (X, Y).
	EventPointerMove
	// EventResize is a framebuffer resize to Width x Height.
	EventResize
	// EventKeyDown is a key press. The dispatcher ignores it; the frame loop handles keys.
	EventKeyDown
)

func (t EventType) String() string {
	switch t {
	case EventButtonDown:
		return "button-down"
	case EventButtonUp:
		return "button-up"
	case EventPointerMove:
		return "pointer-move"
	case EventResize:
		return "resize"
	case EventKeyDown:
		return "key-down"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// MouseButton identifies a mouse button. ButtonNone means no button is held.
type MouseButton int

const (
	ButtonNone MouseButton = iota
	ButtonLeft
	ButtonRight
	// ButtonOther is any button without a camera action, such as the middle button.
	ButtonOther
)

// Event is one window event. Only the fields relevant to Type are set.
type Event struct {
	Type   EventType
	Button MouseButton
	// X and Y are the pointer position in framebuffer pixels, origin at the top left. They share
	// the space of Width and Height so the dispatcher can normalise one by the other.
	X, Y int
	// Width and Height are the new framebuffer size for EventResize.
	Width, Height int
	// Key is the key code for EventKeyDown.
	Key uint32
}

// FramebufferPosition converts a cursor position in window coordinates to framebuffer pixels.
// The two differ by the display's content scale. A zero window size (minimised) returns the
// position truncated but unscaled.
//
// Parameters:
//   - x, y: cursor position in window coordinates
//   - winW, winH: window size in window coordinates
//   - fbW, fbH: framebuffer size in pixels
//
// Returns:
//   - int, int: the position in framebuffer pixels
func FramebufferPosition(x, y float64, winW, winH, fbW, fbH int) (int, int) {
	if winW > 0 {
		x = x * float64(fbW) / float64(winW)
	}
	if winH > 0 {
		y = y * float64(fbH) / float64(winH)
	}
	return int(x), int(y)
}

// ButtonDown returns a button press event.
func ButtonDown(button MouseButton, x, y int) Event {
	return Event{Type: EventButtonDown, Button: button, X: x, Y: y}
}

// ButtonUp returns a button release event.
func ButtonUp(button MouseButton, x, y int) Event {
	return Event{Type: EventButtonUp, Button: button, X: x, Y: y}
}

// PointerMove returns a pointer move event.
func PointerMove(x, y int) Event {
	return Event{Type: EventPointerMove, X: x, Y: y}
}

// Resize returns a framebuffer resize event.
func Resize(width, height int) Event {
	return Event{Type: EventResize, Width: width, Height: height}
}

// KeyDown returns a key press event.
func KeyDown(key uint32) Event {
	return Event{Type: EventKeyDown, Key: key}
}

// MouseState is the drag state: the held button and the last pointer position.
type MouseState struct {
	ActiveButton MouseButton
	Anchor       [2]int
}
