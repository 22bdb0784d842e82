package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrDegenerateCamera is returned when eye and lookat coincide or up is parallel to the view direction.
var ErrDegenerateCamera = errors.New("degenerate camera")

// degenerateEpsilon bounds the squared lengths below which a camera input is treated as degenerate.
const degenerateEpsilon = 1e-12

// Basis holds the pinhole camera vectors consumed by ray generation.
//
// W is the unit view direction pointing from the eye toward the look-at point.
// U points right and has length tan(fovY/2)*aspect; V points up and has length tan(fovY/2).
// A primary ray through normalized device coordinates d in [-1, 1]² has direction
// normalize(d.x*U + d.y*V + W), with d.y = -1 on the bottom row of the image.
type Basis struct {
	U mgl32.Vec3
	V mgl32.Vec3
	W mgl32.Vec3
}

// SolveBasis computes the camera basis for a pinhole camera.
// Identical inputs always produce identical output.
//
// Parameters:
//   - eye: camera position
//   - lookat: point the camera looks at
//   - up: approximate up direction, need not be normalized
//   - fovY: vertical field of view in radians
//   - aspect: viewport width divided by height
//
// Returns:
//   - Basis: the camera basis
//   - error: ErrDegenerateCamera when eye == lookat or up is parallel to the view direction
func SolveBasis(eye, lookat, up mgl32.Vec3, fovY, aspect float32) (Basis, error) {
	forward := lookat.Sub(eye)
	if lenSq := forward.Dot(forward); lenSq < degenerateEpsilon {
		return Basis{}, fmt.Errorf("eye %v coincides with lookat: %w", eye, ErrDegenerateCamera)
	}
	w := forward.Normalize()

	right := w.Cross(up)
	if lenSq := right.Dot(right); lenSq < degenerateEpsilon {
		return Basis{}, fmt.Errorf("up %v is parallel to view direction %v: %w", up, w, ErrDegenerateCamera)
	}
	right = right.Normalize()
	trueUp := right.Cross(w).Normalize()

	vlen := float32(math.Tan(float64(fovY) / 2))
	return Basis{
		U: right.Mul(vlen * aspect),
		V: trueUp.Mul(vlen),
		W: w,
	}, nil
}

// RayDirection returns the primary ray direction through normalized device coordinates (x, y) in [-1, 1]².
//
// Parameters:
//   - x, y: normalized device coordinates, y = -1 at the bottom of the image
//
// Returns:
//   - mgl32.Vec3: the normalized ray direction
func (b Basis) RayDirection(x, y float32) mgl32.Vec3 {
	return b.U.Mul(x).Add(b.V.Mul(y)).Add(b.W).Normalize()
}
