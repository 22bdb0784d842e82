package renderer

import (
	"math"

	"github.com/Carmen-Shannon/oxy-whitted/common"
	"github.com/Carmen-Shannon/oxy-whitted/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// tea16 scrambles two words with 16 rounds of the TEA block cipher. Used to seed per-pixel sequences.
func tea16(v0, v1 uint32) uint32 {
	var s0 uint32
	for range 16 {
		s0 += 0x9e3779b9
		v0 += ((v1 << 4) + 0xa341316c) ^ (v1 + s0) ^ ((v1 >> 5) + 0xc8013ea4)
		v1 += ((v0 << 4) + 0xad90777d) ^ (v0 + s0) ^ ((v0 >> 5) + 0x7e95761e)
	}
	return v0
}

// lcg advances the seed and returns 24 random bits.
func lcg(prev *uint32) uint32 {
	*prev = 1664525*(*prev) + 1013904223
	return *prev & 0x00FFFFFF
}

// rnd returns a float in [0, 1).
func rnd(prev *uint32) float32 {
	return float32(lcg(prev)) / float32(0x01000000)
}

// fresnelSchlick returns min + (max-min)*(1-cos)^exp limited to [min, max].
func fresnelSchlick(cosTheta, exponent, lo, hi float32) float32 {
	f := lo + (hi-lo)*pow32(max(1-cosTheta, 0), exponent)
	return common.Clamp(f, lo, hi)
}

func pow32(x, y float32) float32 {
	return float32(math.Pow(float64(x), float64(y)))
}

func maxComponent(v mgl32.Vec3) float32 {
	return max(v[0], v[1], v[2])
}

// tracer runs the fixed Whitted program over a scene. It holds no per-launch state and is safe for
// concurrent use.
type tracer struct {
	scene    *scene.Scene
	maxDepth int
}

// primaryRay returns the camera ray through pixel (x, y) with the given sub-pixel jitter.
// Row 0 is the bottom of the image.
func primaryRay(cam cameraParams, x, y, width, height int, jitter mgl32.Vec2) scene.Ray {
	dx := (float32(x)+jitter[0])/float32(width)*2 - 1
	dy := (float32(y)+jitter[1])/float32(height)*2 - 1
	dir := cam.u.Mul(dx).Add(cam.v.Mul(dy)).Add(cam.w).Normalize()
	return scene.Ray{Origin: cam.eye, Direction: dir}
}

// trace follows one camera path and returns its radiance. Mirror and glass bounces continue the
// path iteratively with the bounce weight folded into the throughput.
func (t *tracer) trace(r scene.Ray, seed *uint32) mgl32.Vec3 {
	s := t.scene
	inf := float32(math.Inf(1))
	radiance := mgl32.Vec3{}
	throughput := mgl32.Vec3{1, 1, 1}
	tMin := float32(0)

	for depth := 0; depth < t.maxDepth; depth++ {
		hit, ok := s.Intersect(r, tMin, inf)
		if !ok {
			return radiance.Add(common.MulElem(throughput, s.Background))
		}
		m := s.Materials[hit.Material]

		if m.Kind == scene.MaterialGlass {
			next, weight := t.scatterGlass(m.Glass, r, hit, seed)
			throughput = common.MulElem(throughput, weight)
			if maxComponent(throughput) <= 0 {
				return radiance
			}
			r, tMin = next, s.Epsilon
			continue
		}

		ph := m.Phong
		if m.Kind == scene.MaterialChecker {
			ph = checkerCell(m, hit.Texcoord)
		}
		n := faceForward(hit.Normal, r.Direction)
		radiance = radiance.Add(common.MulElem(throughput, t.shadePhong(ph, r, hit.Point, n)))
		if maxComponent(ph.Kr) <= 0 {
			return radiance
		}
		throughput = common.MulElem(throughput, ph.Kr)
		r = scene.Ray{Origin: hit.Point, Direction: common.Reflect(r.Direction, n)}
		tMin = s.Epsilon
	}
	return radiance
}

// checkerCell picks the Phong set of the checker cell containing texcoord.
func checkerCell(m scene.Material, texcoord mgl32.Vec3) scene.Phong {
	scaled := common.MulElem(texcoord, m.InvCheckerSize)
	sum := int(math.Floor(float64(scaled[0]))) + int(math.Floor(float64(scaled[1]))) + int(math.Floor(float64(scaled[2])))
	if sum&1 == 1 {
		return m.Phong
	}
	return m.Checker
}

// faceForward flips n so that it opposes dir.
func faceForward(n, dir mgl32.Vec3) mgl32.Vec3 {
	if n.Dot(dir) > 0 {
		return n.Mul(-1)
	}
	return n
}

// shadePhong returns the local Phong radiance at p with the ray-facing normal n.
func (t *tracer) shadePhong(ph scene.Phong, r scene.Ray, p, n mgl32.Vec3) mgl32.Vec3 {
	s := t.scene
	color := common.MulElem(ph.Ka, s.Ambient)
	for _, light := range s.Lights {
		toLight := light.Position.Sub(p)
		dist := toLight.Len()
		l := toLight.Mul(1 / dist)
		nDl := n.Dot(l)
		if nDl <= 0 {
			continue
		}
		attenuation := mgl32.Vec3{1, 1, 1}
		if light.CastsShadow {
			attenuation = t.shadow(scene.Ray{Origin: p, Direction: l}, dist)
			if maxComponent(attenuation) <= 0 {
				continue
			}
		}
		lc := common.MulElem(light.Color, attenuation)
		color = color.Add(common.MulElem(ph.Kd, lc).Mul(nDl))

		h := l.Sub(r.Direction).Normalize()
		if nDh := n.Dot(h); nDh > 0 {
			color = color.Add(common.MulElem(ph.Ks, lc).Mul(pow32(nDh, ph.Exponent)))
		}
	}
	return color
}

// shadow returns the light transmitted along r up to dist. Opaque surfaces block fully; each glass
// surface passes light scaled by its shadow attenuation, less at grazing angles.
func (t *tracer) shadow(r scene.Ray, dist float32) mgl32.Vec3 {
	s := t.scene
	attenuation := mgl32.Vec3{1, 1, 1}
	tMin := s.Epsilon
	for {
		hit, ok := s.Intersect(r, tMin, dist)
		if !ok {
			return attenuation
		}
		m := s.Materials[hit.Material]
		if m.Kind != scene.MaterialGlass {
			return mgl32.Vec3{}
		}
		nDi := float32(math.Abs(float64(hit.Normal.Dot(r.Direction))))
		for i := range 3 {
			attenuation[i] *= 1 - fresnelSchlick(nDi, 5, 1-m.Glass.ShadowAttenuation[i], 1)
		}
		if maxComponent(attenuation) <= 0 {
			return mgl32.Vec3{}
		}
		tMin = hit.T + s.Epsilon
	}
}

// scatterGlass picks reflection or refraction at a glass surface with probability equal to the Fresnel
// weight and returns the continuation ray and its colour weight. Light that travelled inside the
// medium is attenuated by exp(extinction * distance).
func (t *tracer) scatterGlass(g scene.Glass, r scene.Ray, hit scene.Hit, seed *uint32) (scene.Ray, mgl32.Vec3) {
	n := hit.Normal
	cosTheta := -r.Direction.Dot(n)
	eta := 1 / g.RefractionIndex
	beer := mgl32.Vec3{1, 1, 1}
	if cosTheta < 0 {
		// Leaving the medium.
		n = n.Mul(-1)
		cosTheta = -cosTheta
		eta = g.RefractionIndex
		beer = common.ExpElem(g.Extinction.Mul(hit.T))
	}

	reflectance := float32(1)
	refracted, ok := common.Refract(r.Direction, n, eta)
	if ok {
		if eta > 1 {
			// Schlick uses the angle on the less dense side.
			cosTheta = -refracted.Dot(n)
		}
		reflectance = fresnelSchlick(cosTheta, g.FresnelExponent, g.FresnelMin, g.FresnelMax)
	}

	if !ok || rnd(seed) < reflectance {
		next := scene.Ray{Origin: hit.Point, Direction: common.Reflect(r.Direction, n)}
		return next, common.MulElem(g.ReflectionColor, beer)
	}
	return scene.Ray{Origin: hit.Point, Direction: refracted}, common.MulElem(g.RefractionColor, beer)
}
