package input

import (
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-whitted/common"
	"github.com/Carmen-Shannon/oxy-whitted/engine/camera"
	"github.com/Carmen-Shannon/oxy-whitted/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// Dispatcher is the single entry point for window events.
//
// States are IDLE (no button held) and DRAGGING(button). Every pointer move updates the anchor
// after it is handled, so drags are applied incrementally between consecutive moves.
type Dispatcher interface {
	// Dispatch applies one event.
	//
	// Parameters:
	//   - e: the event to apply
	//
	// Returns:
	//   - error: a wrapped backend error from a resize; all other events succeed
	Dispatch(e Event) error

	// MouseState returns the current drag state.
	//
	// Returns:
	//   - MouseState: the held button and the anchor
	MouseState() MouseState
}

type dispatcherImpl struct {
	mu *sync.Mutex

	viewport camera.Viewport
	arcball  camera.Arcball
	resizer  renderer.Resizer

	// maxDolly bounds the fraction of the eye-to-lookat distance one move can travel.
	maxDolly float32

	mouse MouseState
}

var _ Dispatcher = &dispatcherImpl{}

// NewDispatcher creates a Dispatcher editing viewport. Without WithResizer, resize events only
// update the viewport.
//
// Parameters:
//   - viewport: the camera to edit
//   - options: functional options to configure the dispatcher
//
// Returns:
//   - Dispatcher: the configured dispatcher
func NewDispatcher(viewport camera.Viewport, options ...DispatcherBuilderOption) Dispatcher {
	d := &dispatcherImpl{
		mu:       &sync.Mutex{},
		viewport: viewport,
		maxDolly: 0.9,
	}
	for _, opt := range options {
		opt(d)
	}
	if d.arcball == nil {
		d.arcball = camera.NewArcball()
	}
	return d
}

func (d *dispatcherImpl) Dispatch(e Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch e.Type {
	case EventButtonDown:
		d.mouse = MouseState{ActiveButton: e.Button, Anchor: [2]int{e.X, e.Y}}
	case EventButtonUp:
		d.mouse.ActiveButton = ButtonNone
	case EventPointerMove:
		switch d.mouse.ActiveButton {
		case ButtonLeft:
			d.rotate(e.X, e.Y)
		case ButtonRight:
			d.dolly(e.X, e.Y)
		}
		d.mouse.Anchor = [2]int{e.X, e.Y}
	case EventResize:
		return d.resize(e.Width, e.Height)
	}
	return nil
}

func (d *dispatcherImpl) rotate(x, y int) {
	w, h := d.viewport.Size()
	from := mgl32.Vec2{float32(d.mouse.Anchor[0]) / float32(w), float32(d.mouse.Anchor[1]) / float32(h)}
	to := mgl32.Vec2{float32(x) / float32(w), float32(y) / float32(h)}
	d.viewport.SetRotationDelta(d.arcball.Rotate(from, to))
}

func (d *dispatcherImpl) dolly(x, y int) {
	w, h := d.viewport.Size()
	dx := float32(x-d.mouse.Anchor[0]) / float32(w)
	dy := float32(y-d.mouse.Anchor[1]) / float32(h)
	scale := dy
	if math.Abs(float64(dx)) > math.Abs(float64(dy)) {
		scale = dx
	}
	d.viewport.Dolly(common.Clamp(scale, -d.maxDolly, d.maxDolly))
}

func (d *dispatcherImpl) resize(width, height int) error {
	w, h := d.viewport.Resize(width, height)
	if d.resizer == nil {
		return nil
	}
	if err := d.resizer.ResizeBuffer(renderer.OutputBuffer, w, h); err != nil {
		return fmt.Errorf("failed to resize %s buffer: %w", renderer.OutputBuffer, err)
	}
	if err := d.resizer.ResizeBuffer(renderer.AccumulationBuffer, w, h); err != nil {
		return fmt.Errorf("failed to resize %s buffer: %w", renderer.AccumulationBuffer, err)
	}
	return nil
}

func (d *dispatcherImpl) MouseState() MouseState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mouse
}
