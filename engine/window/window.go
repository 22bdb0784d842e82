package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-whitted/engine/input"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides a platform window that reports its input as input.Event values.
// Wraps platform-specific window implementations with a common interface.
type Window interface {
	// SetEventCallback sets the function receiving every button, pointer, resize and key event.
	// Events are delivered on the thread running ProcessMessages.
	//
	// Parameters:
	//   - callback: function to call (or nil to drop events)
	SetEventCallback(callback func(e input.Event))

	// SetUpdateCallback sets the function called each message loop iteration, after events are delivered.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed or stopped
	IsRunning() bool

	// Stop asks the message loop to return after the current iteration. The window stays open until Close.
	Stop()

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was never initialized
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed or stopped. Calls the update callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	// Size limits applied to user resizes. Zero means unbounded.
	maxWidth  int
	maxHeight int
	minWidth  int
	minHeight int

	// width and height track the framebuffer, which differs from the window size on high-DPI displays.
	width  int
	height int

	resizable bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onEvent  func(e input.Event)
	onUpdate func()
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a new Window with the specified options.
// Applies default values first, then each option in order.
//
// The calling goroutine is locked to its OS thread; the window must be driven from it.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the created window
//   - error: error if the platform window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "oxy-whitted",
		minWidth:  1,
		minHeight: 1,
		width:     768,
		height:    768,
		resizable: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) SetEventCallback(callback func(e input.Event)) {
	w.onEvent = callback
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Stop() {
	platformStop(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

func (w *engineWindow) emit(e input.Event) {
	if w.onEvent != nil {
		w.onEvent(e)
	}
}
