package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Arcball maps a 2D drag gesture onto a 3D rotation by treating the drag as rolling
// a virtual sphere inscribed in the viewport.
type Arcball interface {
	// Rotate returns the rotation that carries the sphere point under from onto the sphere point under to.
	// Both positions are normalized to the unit square with y growing downward, as reported by the window.
	// Positions outside the sphere's disk are projected onto its boundary. Rotate(p, p) is the identity.
	//
	// Parameters:
	//   - from: normalized start position
	//   - to: normalized end position
	//
	// Returns:
	//   - mgl32.Mat4: the rotation matrix
	Rotate(from, to mgl32.Vec2) mgl32.Mat4

	// Center returns the sphere center in normalized viewport coordinates.
	//
	// Returns:
	//   - mgl32.Vec2: the center
	Center() mgl32.Vec2

	// Radius returns the sphere radius in normalized viewport units.
	//
	// Returns:
	//   - float32: the radius
	Radius() float32
}

type arcballImpl struct {
	center mgl32.Vec2
	radius float32
}

var _ Arcball = &arcballImpl{}

// NewArcball creates an Arcball centered in the viewport with a radius of 0.45.
//
// Parameters:
//   - options: functional options to configure the arcball
//
// Returns:
//   - Arcball: the configured arcball
func NewArcball(options ...ArcballBuilderOption) Arcball {
	a := &arcballImpl{
		center: mgl32.Vec2{0.5, 0.5},
		radius: 0.45,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *arcballImpl) Rotate(from, to mgl32.Vec2) mgl32.Mat4 {
	p := a.toSphere(from)
	q := a.toSphere(to)
	rot := mgl32.Quat{W: p.Dot(q), V: p.Cross(q)}
	return rot.Normalize().Mat4()
}

func (a *arcballImpl) Center() mgl32.Vec2 {
	return a.center
}

func (a *arcballImpl) Radius() float32 {
	return a.radius
}

// toSphere lifts a normalized viewport position onto the unit hemisphere facing the viewer.
func (a *arcballImpl) toSphere(p mgl32.Vec2) mgl32.Vec3 {
	x := (p.X() - a.center.X()) / a.radius
	y := (1 - p.Y() - a.center.Y()) / a.radius
	lenSq := x*x + y*y
	if lenSq > 1 {
		l := float32(math.Sqrt(float64(lenSq)))
		return mgl32.Vec3{x / l, y / l, 0}
	}
	return mgl32.Vec3{x, y, float32(math.Sqrt(float64(1 - lenSq)))}
}
