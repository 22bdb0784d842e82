package loader

import (
	"github.com/Carmen-Shannon/oxy-whitted/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// LoaderBuilderOption is a functional option for configuring a loader.
type LoaderBuilderOption func(*loader)

// WithTransform places every loaded mesh with m, applied after the file's own node transforms.
//
// Parameters:
//   - m: the placement matrix
//
// Returns:
//   - LoaderBuilderOption: option function to apply
func WithTransform(m mgl32.Mat4) LoaderBuilderOption {
	return func(l *loader) {
		l.transform = m
	}
}

// WithMaterial shades every loaded triangle with m instead of the file's materials.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - LoaderBuilderOption: option function to apply
func WithMaterial(m scene.Material) LoaderBuilderOption {
	return func(l *loader) {
		l.material = &m
	}
}

// WithMaxTriangles bounds the number of triangles a file may contribute. Every triangle is tested
// by every ray, so large meshes make each frame proportionally slower.
//
// Parameters:
//   - n: the limit
//
// Returns:
//   - LoaderBuilderOption: option function to apply
func WithMaxTriangles(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.maxTriangles = n
	}
}
