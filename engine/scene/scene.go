// Package scene holds the static scene description traced by the render backends: materials,
// primitives and point lights, plus the closest-hit query used by the CPU backend.
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidScene is returned by Validate when a primitive references a missing material.
var ErrInvalidScene = errors.New("invalid scene")

// MaterialKind selects the shading program applied at a hit.
type MaterialKind uint32

const (
	// MaterialPhong shades with ambient, diffuse and specular terms plus an optional mirror term.
	MaterialPhong MaterialKind = iota
	// MaterialChecker alternates between two Phong parameter sets over the hit's texture coordinates.
	MaterialChecker
	// MaterialGlass reflects or refracts with a Fresnel weight and attenuates light travelling inside.
	MaterialGlass
)

// PrimitiveKind identifies the geometry stored in a Primitive.
type PrimitiveKind uint32

const (
	// PrimitiveSphere uses P0 as center and Radius.
	PrimitiveSphere PrimitiveKind = iota
	// PrimitiveBox is axis aligned from P0 (min corner) to P1 (max corner).
	PrimitiveBox
	// PrimitiveParallelogram is anchored at P0 with edges pre-scaled into P1 and P2, lying on the plane (Normal, Offset).
	PrimitiveParallelogram
	// PrimitiveTriangle has vertices P0, P1, P2.
	PrimitiveTriangle
)

// Phong is one set of Phong shading coefficients.
type Phong struct {
	Ka       mgl32.Vec3
	Kd       mgl32.Vec3
	Ks       mgl32.Vec3
	Kr       mgl32.Vec3
	Exponent float32
}

// Glass describes a dielectric surface.
type Glass struct {
	RefractionIndex float32
	FresnelExponent float32
	FresnelMin      float32
	FresnelMax      float32
	RefractionColor mgl32.Vec3
	ReflectionColor mgl32.Vec3
	// Extinction is the natural log of the per-unit-distance transmittance inside the medium.
	Extinction mgl32.Vec3
	// ShadowAttenuation scales light passing through the surface on its way to a shaded point.
	ShadowAttenuation mgl32.Vec3
}

// Material is a tagged union over the supported shading programs. Only the fields used by Kind are read.
type Material struct {
	Kind MaterialKind
	// Phong is the Phong parameter set, and the first checker cell for MaterialChecker.
	Phong Phong
	// Checker is the second checker cell.
	Checker Phong
	// InvCheckerSize is the number of checker cells per unit of texture coordinate.
	InvCheckerSize mgl32.Vec3
	Glass          Glass
}

// Primitive is one piece of geometry. Its fields are interpreted by Kind.
type Primitive struct {
	Kind     PrimitiveKind
	Material uint32
	P0       mgl32.Vec3
	P1       mgl32.Vec3
	P2       mgl32.Vec3
	Radius   float32
	Normal   mgl32.Vec3
	Offset   float32
}

// Light is a point light.
type Light struct {
	Position    mgl32.Vec3
	Color       mgl32.Vec3
	CastsShadow bool
}

// Scene is the full static description handed once to a render backend.
type Scene struct {
	Materials  []Material
	Primitives []Primitive
	Lights     []Light

	Ambient    mgl32.Vec3
	Background mgl32.Vec3
	// Epsilon offsets secondary rays from the surface they leave.
	Epsilon float32
	// MaxDepth bounds the number of surface interactions along one camera path.
	MaxDepth int
}

// NewScene creates an empty scene with a black background and applies the options in order.
//
// Parameters:
//   - options: functional options to populate the scene
//
// Returns:
//   - *Scene: the new scene
func NewScene(options ...SceneBuilderOption) *Scene {
	s := &Scene{
		Epsilon:  1e-4,
		MaxDepth: 10,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Validate checks that every primitive references an existing material and the depth is positive.
//
// Returns:
//   - error: ErrInvalidScene (wrapped) describing the first problem found
func (s *Scene) Validate() error {
	if s.MaxDepth < 1 {
		return fmt.Errorf("max depth %d is below 1: %w", s.MaxDepth, ErrInvalidScene)
	}
	for i, p := range s.Primitives {
		if int(p.Material) >= len(s.Materials) {
			return fmt.Errorf("primitive %d references material %d of %d: %w", i, p.Material, len(s.Materials), ErrInvalidScene)
		}
	}
	return nil
}

// NewSphere creates a sphere primitive.
func NewSphere(center mgl32.Vec3, radius float32, material uint32) Primitive {
	return Primitive{Kind: PrimitiveSphere, Material: material, P0: center, Radius: radius}
}

// NewBox creates an axis-aligned box primitive spanning lo to hi.
func NewBox(lo, hi mgl32.Vec3, material uint32) Primitive {
	return Primitive{Kind: PrimitiveBox, Material: material, P0: lo, P1: hi}
}

// NewParallelogram creates a parallelogram anchored at anchor and spanned by v1 and v2.
// Texture coordinates run from 0 to 1 along each edge. The normal is normalize(v2 × v1).
//
// Parameters:
//   - anchor: one corner
//   - v1, v2: the two edges leaving the anchor
//   - material: index into Scene.Materials
//
// Returns:
//   - Primitive: the parallelogram
func NewParallelogram(anchor, v1, v2 mgl32.Vec3, material uint32) Primitive {
	n := v2.Cross(v1).Normalize()
	return Primitive{
		Kind:     PrimitiveParallelogram,
		Material: material,
		P0:       anchor,
		P1:       v1.Mul(1 / v1.Dot(v1)),
		P2:       v2.Mul(1 / v2.Dot(v2)),
		Normal:   n,
		Offset:   n.Dot(anchor),
	}
}

// NewTriangle creates a triangle primitive.
func NewTriangle(a, b, c mgl32.Vec3, material uint32) Primitive {
	return Primitive{Kind: PrimitiveTriangle, Material: material, P0: a, P1: b, P2: c}
}

// Tetrahedron returns the four faces of a tetrahedron of height h whose base rests on the plane
// y = base.Y with the apex directly above base. Faces are wound so their geometric normals point outward.
//
// Parameters:
//   - h: height from base to apex
//   - base: translation of the base center
//   - material: index into Scene.Materials
//
// Returns:
//   - []Primitive: four triangles
func Tetrahedron(h float32, base mgl32.Vec3, material uint32) []Primitive {
	a := 3 * h / float32(math.Sqrt(6))
	d := a * float32(math.Sqrt(3)) / 6

	v0 := base.Add(mgl32.Vec3{0, 0, h - d})
	v1 := base.Add(mgl32.Vec3{a / 2, 0, -d})
	v2 := base.Add(mgl32.Vec3{-a / 2, 0, -d})
	v3 := base.Add(mgl32.Vec3{0, h, 0})

	return []Primitive{
		NewTriangle(v0, v2, v1, material),
		NewTriangle(v3, v2, v0, material),
		NewTriangle(v3, v0, v1, material),
		NewTriangle(v3, v1, v2, material),
	}
}

// Material indices used by Whitted.
const (
	whittedClearGlass uint32 = iota
	whittedTintedGlass
	whittedMatteTeal
	whittedShinyRed
	whittedShinyViolet
	whittedMatteRust
	whittedFloor
)

// Whitted returns the classic two glass spheres scene: two glass spheres, two Phong spheres,
// two boxes, two tetrahedra and a checkered floor under a single shadow-casting light.
//
// Returns:
//   - *Scene: the scene
func Whitted() *Scene {
	glass := func(ior float32, tint mgl32.Vec3) Material {
		extinction := float32(math.Log(0.83))
		return Material{
			Kind: MaterialGlass,
			Glass: Glass{
				RefractionIndex:   ior,
				FresnelExponent:   3,
				FresnelMin:        0.1,
				FresnelMax:        1,
				RefractionColor:   tint,
				ReflectionColor:   tint,
				Extinction:        mgl32.Vec3{extinction, extinction, extinction},
				ShadowAttenuation: mgl32.Vec3{0.6, 0.6, 0.6},
			},
		}
	}
	phong := func(ka, kd, ks, kr mgl32.Vec3) Material {
		return Material{
			Kind:  MaterialPhong,
			Phong: Phong{Ka: ka, Kd: kd, Ks: ks, Kr: kr, Exponent: 64},
		}
	}

	materials := make([]Material, whittedFloor+1)
	materials[whittedClearGlass] = glass(0.9, mgl32.Vec3{1, 1, 1})
	materials[whittedTintedGlass] = glass(1.4, mgl32.Vec3{1, 0, 1})
	materials[whittedMatteTeal] = phong(mgl32.Vec3{0.2, 0.5, 0.5}, mgl32.Vec3{0.2, 0.4, 0.5}, mgl32.Vec3{}, mgl32.Vec3{})
	materials[whittedShinyRed] = phong(mgl32.Vec3{0.5, 0.5, 0.2}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0.9, 0.9, 0.9}, mgl32.Vec3{0.5, 0.5, 0.5})
	materials[whittedShinyViolet] = phong(mgl32.Vec3{0.5, 0.2, 0.2}, mgl32.Vec3{0.7, 0.2, 0.8}, mgl32.Vec3{0.9, 0.9, 0.9}, mgl32.Vec3{0.5, 0.5, 0.5})
	materials[whittedMatteRust] = phong(mgl32.Vec3{0.6, 0.2, 0.1}, mgl32.Vec3{0.6, 0.2, 0.1}, mgl32.Vec3{}, mgl32.Vec3{})
	materials[whittedFloor] = Material{
		Kind:           MaterialChecker,
		Phong:          Phong{},
		Checker:        Phong{Ka: mgl32.Vec3{1, 1, 1}, Kd: mgl32.Vec3{1, 1, 1}},
		InvCheckerSize: mgl32.Vec3{32, 16, 1},
	}

	primitives := []Primitive{
		NewSphere(mgl32.Vec3{7, 1.5, -2.5}, 1, whittedClearGlass),
		NewSphere(mgl32.Vec3{9.5, 1.5, -2.5}, 1, whittedTintedGlass),
		NewSphere(mgl32.Vec3{2, 1.5, -2.5}, 1, whittedMatteTeal),
		NewSphere(mgl32.Vec3{4.5, 1.5, -2.5}, 1, whittedShinyRed),
		NewParallelogram(mgl32.Vec3{-16, 0.01, -8}, mgl32.Vec3{32, 0, 0}, mgl32.Vec3{0, 0, 16}, whittedFloor),
		NewBox(mgl32.Vec3{1, 0.1, 2.5}, mgl32.Vec3{2, 2.5, 4}, whittedShinyViolet),
		NewBox(mgl32.Vec3{5, 0.1, 2.5}, mgl32.Vec3{6, 2.5, 4}, whittedMatteRust),
	}
	primitives = append(primitives, Tetrahedron(2.3, mgl32.Vec3{2, 0.05, 0.3}, whittedShinyRed)...)
	primitives = append(primitives, Tetrahedron(2.3, mgl32.Vec3{6, 0.05, 0.3}, whittedMatteTeal)...)

	return NewScene(
		WithMaterials(materials...),
		WithPrimitives(primitives...),
		WithLights(Light{Position: mgl32.Vec3{60, 40, 0}, Color: mgl32.Vec3{1, 1, 1}, CastsShadow: true}),
		WithAmbient(mgl32.Vec3{0.4, 0.4, 0.4}),
		WithBackground(mgl32.Vec3{0.34, 0.55, 0.85}),
		WithEpsilon(1e-4),
		WithMaxDepth(10),
	)
}
