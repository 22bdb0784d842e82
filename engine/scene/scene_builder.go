package scene

import "github.com/go-gl/mathgl/mgl32"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *Scene)

// WithMaterials appends materials. Primitives refer to them by their index in append order.
//
// Parameters:
//   - materials: the materials to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMaterials(materials ...Material) SceneBuilderOption {
	return func(s *Scene) {
		s.Materials = append(s.Materials, materials...)
	}
}

// WithPrimitives appends primitives.
//
// Parameters:
//   - primitives: the primitives to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPrimitives(primitives ...Primitive) SceneBuilderOption {
	return func(s *Scene) {
		s.Primitives = append(s.Primitives, primitives...)
	}
}

// WithLights appends point lights.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(lights ...Light) SceneBuilderOption {
	return func(s *Scene) {
		s.Lights = append(s.Lights, lights...)
	}
}

// WithAmbient sets the ambient light color multiplied into every surface's Ka.
//
// Parameters:
//   - color: ambient light color
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAmbient(color mgl32.Vec3) SceneBuilderOption {
	return func(s *Scene) {
		s.Ambient = color
	}
}

// WithBackground sets the color returned by rays that leave the scene.
//
// Parameters:
//   - color: background color
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBackground(color mgl32.Vec3) SceneBuilderOption {
	return func(s *Scene) {
		s.Background = color
	}
}

// WithEpsilon sets the offset applied to secondary rays leaving a surface.
//
// Parameters:
//   - epsilon: minimum hit distance for secondary rays
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithEpsilon(epsilon float32) SceneBuilderOption {
	return func(s *Scene) {
		s.Epsilon = epsilon
	}
}

// WithMaxDepth sets the maximum number of surface interactions along one camera path.
//
// Parameters:
//   - depth: maximum path depth
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMaxDepth(depth int) SceneBuilderOption {
	return func(s *Scene) {
		s.MaxDepth = depth
	}
}
