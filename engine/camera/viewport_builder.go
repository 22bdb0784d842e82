package camera

import "github.com/go-gl/mathgl/mgl32"

// ViewportBuilderOption is a functional option for configuring a Viewport.
type ViewportBuilderOption func(*viewportImpl)

// WithEye sets the initial camera position.
//
// Parameters:
//   - x, y, z: world-space eye position
//
// Returns:
//   - ViewportBuilderOption: option function to apply
func WithEye(x, y, z float32) ViewportBuilderOption {
	return func(v *viewportImpl) {
		v.eye = mgl32.Vec3{x, y, z}
	}
}

// WithLookat sets the initial look-at point.
//
// Parameters:
//   - x, y, z: world-space look-at point
//
// Returns:
//   - ViewportBuilderOption: option function to apply
func WithLookat(x, y, z float32) ViewportBuilderOption {
	return func(v *viewportImpl) {
		v.lookat = mgl32.Vec3{x, y, z}
	}
}

// WithUp sets the initial up vector.
//
// Parameters:
//   - x, y, z: up direction
//
// Returns:
//   - ViewportBuilderOption: option function to apply
func WithUp(x, y, z float32) ViewportBuilderOption {
	return func(v *viewportImpl) {
		v.up = mgl32.Vec3{x, y, z}
	}
}

// WithFov sets the vertical field of view.
//
// Parameters:
//   - degrees: vertical field of view in degrees
//
// Returns:
//   - ViewportBuilderOption: option function to apply
func WithFov(degrees float32) ViewportBuilderOption {
	return func(v *viewportImpl) {
		v.fov = mgl32.DegToRad(degrees)
	}
}

// WithSize sets the initial viewport size in pixels.
//
// Parameters:
//   - width, height: viewport dimensions
//
// Returns:
//   - ViewportBuilderOption: option function to apply
func WithSize(width, height int) ViewportBuilderOption {
	return func(v *viewportImpl) {
		v.width = width
		v.height = height
	}
}

// WithMinSize sets the smallest size Resize will store. Values below 1 are raised to 1.
//
// Parameters:
//   - width, height: minimum viewport dimensions
//
// Returns:
//   - ViewportBuilderOption: option function to apply
func WithMinSize(width, height int) ViewportBuilderOption {
	return func(v *viewportImpl) {
		v.minWidth = max(width, 1)
		v.minHeight = max(height, 1)
	}
}
