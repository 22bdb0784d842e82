package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// FromBasis builds the 4x4 matrix whose columns are the three basis vectors and the origin c.
// Transforming (x, y, z, 1) by the result maps local coordinates in that frame to world space.
//
// Parameters:
//   - u, v, w: the frame's basis vectors (columns 0-2)
//   - c: the frame's origin (column 3)
//
// Returns:
//   - mgl32.Mat4: the column-major frame matrix
func FromBasis(u, v, w, c mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Mat4FromCols(u.Vec4(0), v.Vec4(0), w.Vec4(0), c.Vec4(1))
}

// TransformPoint applies m to p treated as a position (w = 1).
//
// Parameters:
//   - m: the transform
//   - p: the point
//
// Returns:
//   - mgl32.Vec3: the transformed point
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformDirection applies m to d treated as a direction (w = 0), so translation is ignored.
//
// Parameters:
//   - m: the transform
//   - d: the direction
//
// Returns:
//   - mgl32.Vec3: the transformed direction
func TransformDirection(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// MulElem multiplies two vectors component-wise.
func MulElem(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// ExpElem returns (e^x, e^y, e^z).
func ExpElem(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Exp(float64(v[0]))),
		float32(math.Exp(float64(v[1]))),
		float32(math.Exp(float64(v[2]))),
	}
}

// Reflect mirrors the incident direction i about the normal n.
func Reflect(i, n mgl32.Vec3) mgl32.Vec3 {
	return i.Sub(n.Mul(2 * n.Dot(i)))
}

// Refract bends the incident direction i through a surface with normal n and relative index eta.
// n must face the incoming ray. The second result is false on total internal reflection.
//
// Parameters:
//   - i: normalized incident direction
//   - n: normalized surface normal opposing i
//   - eta: ratio of the incident index over the transmitted index
//
// Returns:
//   - mgl32.Vec3: the refracted direction, zero on total internal reflection
//   - bool: true if a refracted ray exists
func Refract(i, n mgl32.Vec3, eta float32) (mgl32.Vec3, bool) {
	cosI := -n.Dot(i)
	k := 1 - eta*eta*(1-cosI*cosI)
	if k < 0 {
		return mgl32.Vec3{}, false
	}
	t := i.Mul(eta).Add(n.Mul(eta*cosI - float32(math.Sqrt(float64(k)))))
	return t.Normalize(), true
}
