package renderer

import (
	"github.com/Carmen-Shannon/oxy-whitted/engine/scene"
)

// TraceBackendBuilderOption is a functional option applied to a backend during construction via
// NewTraceBackend, NewWGPUTraceBackend or NewSoftwareTraceBackend.
type TraceBackendBuilderOption func(*backendConfig)

// WithScene sets the scene traced by the backend. Defaults to scene.Whitted().
//
// Parameters:
//   - s: the scene to trace
//
// Returns:
//   - TraceBackendBuilderOption: a function that applies the scene option to a backend
func WithScene(s *scene.Scene) TraceBackendBuilderOption {
	return func(c *backendConfig) {
		c.scene = s
	}
}

// WithSize sets the initial size of the output and accumulation buffers.
//
// Parameters:
//   - width, height: buffer dimensions in pixels
//
// Returns:
//   - TraceBackendBuilderOption: a function that applies the size option to a backend
func WithSize(width, height int) TraceBackendBuilderOption {
	return func(c *backendConfig) {
		c.width = width
		c.height = height
	}
}

// WithWorkers sets the number of CPU workers used by the software backend.
// Zero or less selects one worker per CPU, minus one.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - TraceBackendBuilderOption: a function that applies the workers option to a backend
func WithWorkers(workers int) TraceBackendBuilderOption {
	return func(c *backendConfig) {
		c.workers = workers
	}
}

// WithMaxDepth overrides the scene's maximum trace depth.
//
// Parameters:
//   - depth: the maximum number of surface interactions per camera path
//
// Returns:
//   - TraceBackendBuilderOption: a function that applies the depth option to a backend
func WithMaxDepth(depth int) TraceBackendBuilderOption {
	return func(c *backendConfig) {
		c.maxDepth = depth
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - TraceBackendBuilderOption: a function that applies the present mode option to a backend
func WithPresentMode(mode PresentMode) TraceBackendBuilderOption {
	return func(c *backendConfig) {
		c.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - TraceBackendBuilderOption: a function that applies the force software renderer option to a backend
func WithForceSoftwareRenderer(force bool) TraceBackendBuilderOption {
	return func(c *backendConfig) {
		c.forceFallback = force
	}
}

// WithSurface attaches a window surface to the WebGPU backend, enabling Present.
// Without a surface the backend runs headless.
//
// Parameters:
//   - source: the surface provider, typically a window.Window
//
// Returns:
//   - TraceBackendBuilderOption: a function that applies the surface option to a backend
func WithSurface(source SurfaceSource) TraceBackendBuilderOption {
	return func(c *backendConfig) {
		c.surface = source
	}
}
