package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a half line starting at Origin. Direction is expected to be normalized.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Hit is a ray/primitive intersection.
type Hit struct {
	T     float32
	Point mgl32.Vec3
	// Normal is the unit geometric normal. For closed primitives it points out of the solid; it is not
	// flipped toward the ray.
	Normal   mgl32.Vec3
	Texcoord mgl32.Vec3
	Material uint32
}

// Intersect tests the ray against the primitive and reports the nearest hit with T in (tMin, tMax).
//
// Parameters:
//   - r: the ray to test
//   - tMin: exclusive lower bound on the hit distance
//   - tMax: exclusive upper bound on the hit distance
//
// Returns:
//   - Hit: the hit record, valid only when ok is true
//   - bool: true when the ray hits the primitive inside the interval
func (p Primitive) Intersect(r Ray, tMin, tMax float32) (Hit, bool) {
	var (
		hit Hit
		ok  bool
	)
	switch p.Kind {
	case PrimitiveSphere:
		hit, ok = p.intersectSphere(r, tMin, tMax)
	case PrimitiveBox:
		hit, ok = p.intersectBox(r, tMin, tMax)
	case PrimitiveParallelogram:
		hit, ok = p.intersectParallelogram(r, tMin, tMax)
	case PrimitiveTriangle:
		hit, ok = p.intersectTriangle(r, tMin, tMax)
	}
	if ok {
		hit.Material = p.Material
	}
	return hit, ok
}

func (p Primitive) intersectSphere(r Ray, tMin, tMax float32) (Hit, bool) {
	oc := r.Origin.Sub(p.P0)
	b := oc.Dot(r.Direction)
	c := oc.Dot(oc) - p.Radius*p.Radius
	disc := b*b - c
	if disc < 0 {
		return Hit{}, false
	}
	sdisc := float32(math.Sqrt(float64(disc)))

	t := -b - sdisc
	if t <= tMin || t >= tMax {
		t = -b + sdisc
		if t <= tMin || t >= tMax {
			return Hit{}, false
		}
	}
	point := r.At(t)
	return Hit{
		T:      t,
		Point:  point,
		Normal: point.Sub(p.P0).Mul(1 / p.Radius),
	}, true
}

func (p Primitive) intersectBox(r Ray, tMin, tMax float32) (Hit, bool) {
	near := float32(math.Inf(-1))
	far := float32(math.Inf(1))
	nearAxis, farAxis := 0, 0
	for axis := 0; axis < 3; axis++ {
		inv := 1 / r.Direction[axis]
		t0 := (p.P0[axis] - r.Origin[axis]) * inv
		t1 := (p.P1[axis] - r.Origin[axis]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > near {
			near, nearAxis = t0, axis
		}
		if t1 < far {
			far, farAxis = t1, axis
		}
	}
	if near > far {
		return Hit{}, false
	}

	t, axis, sign := near, nearAxis, float32(-1)
	if t <= tMin || t >= tMax {
		t, axis, sign = far, farAxis, 1
		if t <= tMin || t >= tMax {
			return Hit{}, false
		}
	}
	var n mgl32.Vec3
	if r.Direction[axis] < 0 {
		n[axis] = -sign
	} else {
		n[axis] = sign
	}
	return Hit{T: t, Point: r.At(t), Normal: n}, true
}

func (p Primitive) intersectParallelogram(r Ray, tMin, tMax float32) (Hit, bool) {
	dt := r.Direction.Dot(p.Normal)
	if dt == 0 {
		return Hit{}, false
	}
	t := (p.Offset - p.Normal.Dot(r.Origin)) / dt
	if t <= tMin || t >= tMax {
		return Hit{}, false
	}
	point := r.At(t)
	vi := point.Sub(p.P0)
	a1 := p.P1.Dot(vi)
	if a1 < 0 || a1 > 1 {
		return Hit{}, false
	}
	a2 := p.P2.Dot(vi)
	if a2 < 0 || a2 > 1 {
		return Hit{}, false
	}
	return Hit{
		T:        t,
		Point:    point,
		Normal:   p.Normal,
		Texcoord: mgl32.Vec3{a1, a2, 0},
	}, true
}

func (p Primitive) intersectTriangle(r Ray, tMin, tMax float32) (Hit, bool) {
	e1 := p.P1.Sub(p.P0)
	e2 := p.P2.Sub(p.P0)
	pvec := r.Direction.Cross(e2)
	det := e1.Dot(pvec)
	if math.Abs(float64(det)) < 1e-8 {
		return Hit{}, false
	}
	inv := 1 / det

	tvec := r.Origin.Sub(p.P0)
	u := tvec.Dot(pvec) * inv
	if u < 0 || u > 1 {
		return Hit{}, false
	}
	qvec := tvec.Cross(e1)
	v := r.Direction.Dot(qvec) * inv
	if v < 0 || u+v > 1 {
		return Hit{}, false
	}
	t := e2.Dot(qvec) * inv
	if t <= tMin || t >= tMax {
		return Hit{}, false
	}
	return Hit{
		T:        t,
		Point:    r.At(t),
		Normal:   e1.Cross(e2).Normalize(),
		Texcoord: mgl32.Vec3{u, v, 0},
	}, true
}

// Intersect returns the closest hit among all primitives with T in (tMin, tMax).
//
// Parameters:
//   - r: the ray to trace
//   - tMin: exclusive lower bound on the hit distance
//   - tMax: exclusive upper bound on the hit distance
//
// Returns:
//   - Hit: the closest hit, valid only when ok is true
//   - bool: true when any primitive was hit
func (s *Scene) Intersect(r Ray, tMin, tMax float32) (Hit, bool) {
	var (
		closest Hit
		found   bool
	)
	for i := range s.Primitives {
		if hit, ok := s.Primitives[i].Intersect(r, tMin, tMax); ok {
			closest, found = hit, true
			tMax = hit.T
		}
	}
	return closest, found
}
