// Package renderer holds the ray tracing backends driven by the frame loop. A backend accepts a camera
// and a sample index, traces one sample per pixel on Launch and blends it into its accumulation buffer.
package renderer

import (
	"fmt"
	"image"

	"github.com/Carmen-Shannon/oxy-whitted/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// TraceBackend is the render collaborator of the frame loop. It owns the output and accumulation
// buffers; callers only ask for them to be resized or read back.
//
// Calls are expected from a single goroutine. Launch blocks until the image is produced.
type TraceBackend interface {
	// SetCamera pushes a resolved camera. It takes effect on the next Launch.
	//
	// Parameters:
	//   - eye: camera position
	//   - u, v: right and up vectors scaled by the field of view
	//   - w: unit view direction, from the eye toward the look-at point
	SetCamera(eye, u, v, w mgl32.Vec3)

	// SetFrame pushes the accumulation sample index for the next Launch.
	// Index 0 discards the accumulated history.
	//
	// Parameters:
	//   - frame: the sample index
	SetFrame(frame uint32)

	// Launch traces one sample per pixel and blends it into the accumulation buffer.
	//
	// Parameters:
	//   - width, height: launch dimensions; must match both buffers
	//
	// Returns:
	//   - error: ErrBufferSizeMismatch, ErrReleased, or a device error
	Launch(width, height int) error

	// ResizeBuffer reallocates one of the per-pixel buffers. The contents are discarded.
	//
	// Parameters:
	//   - kind: OutputBuffer or AccumulationBuffer
	//   - width, height: new dimensions in pixels
	//
	// Returns:
	//   - error: an error if the buffer cannot be allocated or the backend is released
	ResizeBuffer(kind BufferKind, width, height int) error

	// ReadOutput copies the output buffer into an image with row 0 at the top.
	//
	// Returns:
	//   - *image.RGBA: the latest output
	//   - error: an error if the readback fails or the backend is released
	ReadOutput() (*image.RGBA, error)

	// Release frees every resource held by the backend. Further calls return ErrReleased.
	Release()
}

// Presenter is implemented by backends that can display the output buffer on a window surface.
type Presenter interface {
	// Present draws the output buffer to the surface and presents it.
	//
	// Returns:
	//   - error: an error if the surface texture cannot be acquired
	Present() error
}

// Resizer is the part of a TraceBackend the input dispatcher needs.
type Resizer interface {
	ResizeBuffer(kind BufferKind, width, height int) error
}

// backendConfig collects the builder options shared by every backend.
type backendConfig struct {
	scene         *scene.Scene
	width         int
	height        int
	workers       int
	maxDepth      int
	presentMode   PresentMode
	forceFallback bool
	surface       SurfaceSource
}

func newBackendConfig(options ...TraceBackendBuilderOption) *backendConfig {
	c := &backendConfig{
		width:  768,
		height: 768,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.scene == nil {
		c.scene = scene.Whitted()
	}
	if c.maxDepth <= 0 {
		c.maxDepth = c.scene.MaxDepth
	}
	c.width = max(c.width, 1)
	c.height = max(c.height, 1)
	return c
}

// NewTraceBackend creates the backend selected by backendType.
//
// Parameters:
//   - backendType: BackendTypeWGPU or BackendTypeSoftware
//   - options: functional options applied to the backend
//
// Returns:
//   - TraceBackend: the created backend
//   - error: ErrUnknownBackend (wrapped), a scene validation error, or a device creation error
func NewTraceBackend(backendType BackendType, options ...TraceBackendBuilderOption) (TraceBackend, error) {
	switch backendType {
	case BackendTypeWGPU:
		return NewWGPUTraceBackend(options...)
	case BackendTypeSoftware:
		return NewSoftwareTraceBackend(options...)
	default:
		return nil, fmt.Errorf("backend %s: %w", backendType, ErrUnknownBackend)
	}
}
