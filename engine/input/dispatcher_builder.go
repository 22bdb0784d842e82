package input

import (
	"github.com/Carmen-Shannon/oxy-whitted/engine/camera"
	"github.com/Carmen-Shannon/oxy-whitted/engine/renderer"
)

// DispatcherBuilderOption is a functional option for configuring a dispatcherImpl.
type DispatcherBuilderOption func(d *dispatcherImpl)

// WithArcball sets the arcball used for left drags. Defaults to camera.NewArcball().
//
// Parameters:
//   - arcball: the arcball controller
//
// Returns:
//   - DispatcherBuilderOption: option function to apply
func WithArcball(arcball camera.Arcball) DispatcherBuilderOption {
	return func(d *dispatcherImpl) {
		d.arcball = arcball
	}
}

// WithResizer sets the backend whose output and accumulation buffers follow the viewport size.
//
// Parameters:
//   - resizer: the backend, usually a renderer.TraceBackend
//
// Returns:
//   - DispatcherBuilderOption: option function to apply
func WithResizer(resizer renderer.Resizer) DispatcherBuilderOption {
	return func(d *dispatcherImpl) {
		d.resizer = resizer
	}
}

// WithMaxDolly sets the largest fraction of the eye-to-lookat distance a single move can travel.
// Defaults to 0.9.
//
// Parameters:
//   - fraction: the bound, applied in both directions
//
// Returns:
//   - DispatcherBuilderOption: option function to apply
func WithMaxDolly(fraction float32) DispatcherBuilderOption {
	return func(d *dispatcherImpl) {
		d.maxDolly = fraction
	}
}
