package camera

import "github.com/go-gl/mathgl/mgl32"

// ArcballBuilderOption is a functional option for configuring an Arcball.
type ArcballBuilderOption func(*arcballImpl)

// WithCenter sets the sphere center in normalized viewport coordinates.
//
// Parameters:
//   - x, y: center position in [0, 1]
//
// Returns:
//   - ArcballBuilderOption: option function to apply
func WithCenter(x, y float32) ArcballBuilderOption {
	return func(a *arcballImpl) {
		a.center = mgl32.Vec2{x, y}
	}
}

// WithRadius sets the sphere radius in normalized viewport units.
// Non-positive values are ignored.
//
// Parameters:
//   - radius: sphere radius
//
// Returns:
//   - ArcballBuilderOption: option function to apply
func WithRadius(radius float32) ArcballBuilderOption {
	return func(a *arcballImpl) {
		if radius > 0 {
			a.radius = radius
		}
	}
}
