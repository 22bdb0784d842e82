package engine

import (
	"image"
	"time"

	"github.com/Carmen-Shannon/oxy-whitted/engine/accumulation"
	"github.com/Carmen-Shannon/oxy-whitted/engine/camera"
	"github.com/Carmen-Shannon/oxy-whitted/engine/input"
	"github.com/Carmen-Shannon/oxy-whitted/engine/renderer"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithBackend sets the trace backend the engine drives. Required.
//
// Parameters:
//   - b: the backend, sized to match the viewport
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBackend(b renderer.TraceBackend) EngineBuilderOption {
	return func(e *engine) {
		e.backend = b
	}
}

// WithWindow sets the window Run attaches to.
//
// Parameters:
//   - h: the host window, usually a window.Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(h Host) EngineBuilderOption {
	return func(e *engine) {
		e.host = h
	}
}

// WithViewport sets the camera the engine resolves each frame.
//
// Parameters:
//   - v: the viewport
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithViewport(v camera.Viewport) EngineBuilderOption {
	return func(e *engine) {
		e.viewport = v
	}
}

// WithScheduler sets the accumulation sample counter.
//
// Parameters:
//   - s: the scheduler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScheduler(s accumulation.Scheduler) EngineBuilderOption {
	return func(e *engine) {
		e.scheduler = s
	}
}

// WithDispatcher replaces the default input dispatcher. The dispatcher must edit the same viewport.
//
// Parameters:
//   - d: the dispatcher
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDispatcher(d input.Dispatcher) EngineBuilderOption {
	return func(e *engine) {
		e.dispatcher = d
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetRenderFrameLimit(fps)
	}
}

// WithQuitKeys replaces the keys that end Run. Defaults to q and Escape.
//
// Parameters:
//   - keys: key codes from common
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithQuitKeys(keys ...uint32) EngineBuilderOption {
	return func(e *engine) {
		e.quitKeys = keys
	}
}

// WithSnapshot sets the callback receiving the output image when the snapshot key is pressed.
//
// Parameters:
//   - key: the snapshot key code, usually common.KeyS
//   - callback: receives a copy of the output buffer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSnapshot(key uint32, callback func(img *image.RGBA) error) EngineBuilderOption {
	return func(e *engine) {
		e.snapshotKey = key
		e.onSnapshot = callback
	}
}

// frameLimit is the duration form of a frame rate cap.
func frameLimit(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
