package scene

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUPrimitiveSource is the canonical WGSL definition of the Primitive struct.
// Matches GPUPrimitive layout exactly (80 bytes, std430 aligned).
//
//go:embed assets/primitive.wgsl
var GPUPrimitiveSource string

// GPUMaterialSource is the canonical WGSL definition of the Material struct.
// Matches GPUMaterial layout exactly (240 bytes, std430 aligned).
//
//go:embed assets/material.wgsl
var GPUMaterialSource string

// GPULightSource is the canonical WGSL definition of the Light struct.
// Matches GPULight layout exactly (32 bytes, std430 aligned).
//
//go:embed assets/light.wgsl
var GPULightSource string

// GPUSceneUniformSource is the canonical WGSL definition of the SceneUniform struct.
// Matches GPUSceneUniform layout exactly (48 bytes, std140/std430 aligned).
//
//go:embed assets/scene_uniform.wgsl
var GPUSceneUniformSource string

// gpuWriter appends little-endian 32-bit words to a fixed-size buffer.
type gpuWriter struct {
	buf []byte
	off int
}

func (w *gpuWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *gpuWriter) f32(v float32) {
	w.u32(math.Float32bits(v))
}

func (w *gpuWriter) vec3(v [3]float32) {
	w.f32(v[0])
	w.f32(v[1])
	w.f32(v[2])
}

func (w *gpuWriter) vec4(v [4]float32) {
	w.vec3([3]float32{v[0], v[1], v[2]})
	w.f32(v[3])
}

// GPUPrimitive is the GPU-aligned representation of one Primitive.
// Size: 80 bytes.
type GPUPrimitive struct {
	Kind     uint32     // offset  0: PrimitiveKind
	Material uint32     // offset  4: index into the material array
	_pad0    [2]uint32  // offset  8
	P0       [3]float32 // offset 16: center, min corner, anchor or first vertex
	Radius   float32    // offset 28: sphere radius
	P1       [3]float32 // offset 32: max corner, scaled first edge or second vertex
	Offset   float32    // offset 44: parallelogram plane offset
	P2       [3]float32 // offset 48: scaled second edge or third vertex
	_pad1    float32    // offset 60
	Normal   [3]float32 // offset 64: parallelogram plane normal
	_pad2    float32    // offset 76
}

// NewGPUPrimitive packs a Primitive for upload.
//
// Parameters:
//   - p: the primitive to pack
//
// Returns:
//   - GPUPrimitive: the packed primitive
func NewGPUPrimitive(p Primitive) GPUPrimitive {
	return GPUPrimitive{
		Kind:     uint32(p.Kind),
		Material: p.Material,
		P0:       p.P0,
		Radius:   p.Radius,
		P1:       p.P1,
		Offset:   p.Offset,
		P2:       p.P2,
		Normal:   p.Normal,
	}
}

// Size returns the size of the GPUPrimitive struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUPrimitive) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPrimitive struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload
func (g *GPUPrimitive) Marshal() []byte {
	w := &gpuWriter{buf: make([]byte, g.Size())}
	w.u32(g.Kind)
	w.u32(g.Material)
	w.u32(0)
	w.u32(0)
	w.vec3(g.P0)
	w.f32(g.Radius)
	w.vec3(g.P1)
	w.f32(g.Offset)
	w.vec3(g.P2)
	w.f32(0)
	w.vec3(g.Normal)
	w.f32(0)
	return w.buf
}

// GPUMaterial is the GPU-aligned representation of one Material. Colors are widened to vec4 so
// every field after the header sits on a 16-byte boundary.
// Size: 240 bytes.
type GPUMaterial struct {
	Kind              uint32     // offset   0: MaterialKind
	PhongExponent     float32    // offset   4
	CheckerExponent   float32    // offset   8
	RefractionIndex   float32    // offset  12
	Ka                [4]float32 // offset  16
	Kd                [4]float32 // offset  32
	Ks                [4]float32 // offset  48
	Kr                [4]float32 // offset  64
	CheckerKa         [4]float32 // offset  80
	CheckerKd         [4]float32 // offset  96
	CheckerKs         [4]float32 // offset 112
	CheckerKr         [4]float32 // offset 128
	InvCheckerSize    [4]float32 // offset 144
	Fresnel           [4]float32 // offset 160: exponent, min, max, unused
	RefractionColor   [4]float32 // offset 176
	ReflectionColor   [4]float32 // offset 192
	Extinction        [4]float32 // offset 208
	ShadowAttenuation [4]float32 // offset 224
}

// NewGPUMaterial packs a Material for upload.
//
// Parameters:
//   - m: the material to pack
//
// Returns:
//   - GPUMaterial: the packed material
func NewGPUMaterial(m Material) GPUMaterial {
	v4 := func(v mgl32.Vec3) [4]float32 { return v.Vec4(0) }
	return GPUMaterial{
		Kind:              uint32(m.Kind),
		PhongExponent:     m.Phong.Exponent,
		CheckerExponent:   m.Checker.Exponent,
		RefractionIndex:   m.Glass.RefractionIndex,
		Ka:                v4(m.Phong.Ka),
		Kd:                v4(m.Phong.Kd),
		Ks:                v4(m.Phong.Ks),
		Kr:                v4(m.Phong.Kr),
		CheckerKa:         v4(m.Checker.Ka),
		CheckerKd:         v4(m.Checker.Kd),
		CheckerKs:         v4(m.Checker.Ks),
		CheckerKr:         v4(m.Checker.Kr),
		InvCheckerSize:    v4(m.InvCheckerSize),
		Fresnel:           [4]float32{m.Glass.FresnelExponent, m.Glass.FresnelMin, m.Glass.FresnelMax, 0},
		RefractionColor:   v4(m.Glass.RefractionColor),
		ReflectionColor:   v4(m.Glass.ReflectionColor),
		Extinction:        v4(m.Glass.Extinction),
		ShadowAttenuation: v4(m.Glass.ShadowAttenuation),
	}
}

// Size returns the size of the GPUMaterial struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (240)
func (g *GPUMaterial) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterial struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 240-byte buffer ready for GPU upload
func (g *GPUMaterial) Marshal() []byte {
	w := &gpuWriter{buf: make([]byte, g.Size())}
	w.u32(g.Kind)
	w.f32(g.PhongExponent)
	w.f32(g.CheckerExponent)
	w.f32(g.RefractionIndex)
	for _, v := range [][4]float32{
		g.Ka, g.Kd, g.Ks, g.Kr,
		g.CheckerKa, g.CheckerKd, g.CheckerKs, g.CheckerKr,
		g.InvCheckerSize, g.Fresnel,
		g.RefractionColor, g.ReflectionColor, g.Extinction, g.ShadowAttenuation,
	} {
		w.vec4(v)
	}
	return w.buf
}

// GPULight is the GPU-aligned representation of one point light.
// Size: 32 bytes.
type GPULight struct {
	Position    [3]float32 // offset  0
	CastsShadow uint32     // offset 12: 1 when the light is occluded by geometry
	Color       [3]float32 // offset 16
	_pad        float32    // offset 28
}

// NewGPULight packs a Light for upload.
//
// Parameters:
//   - l: the light to pack
//
// Returns:
//   - GPULight: the packed light
func NewGPULight(l Light) GPULight {
	g := GPULight{Position: l.Position, Color: l.Color}
	if l.CastsShadow {
		g.CastsShadow = 1
	}
	return g
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	w := &gpuWriter{buf: make([]byte, g.Size())}
	w.vec3(g.Position)
	w.u32(g.CastsShadow)
	w.vec3(g.Color)
	w.f32(0)
	return w.buf
}

// GPUSceneUniform carries the scene-wide constants.
// Size: 48 bytes.
type GPUSceneUniform struct {
	Ambient        [3]float32 // offset  0
	Epsilon        float32    // offset 12
	Background     [3]float32 // offset 16
	MaxDepth       uint32     // offset 28
	PrimitiveCount uint32     // offset 32
	LightCount     uint32     // offset 36
	_pad           [2]uint32  // offset 40
}

// NewGPUSceneUniform packs the scene-wide constants of s.
//
// Parameters:
//   - s: the scene
//
// Returns:
//   - GPUSceneUniform: the packed uniform
func NewGPUSceneUniform(s *Scene) GPUSceneUniform {
	return GPUSceneUniform{
		Ambient:        s.Ambient,
		Epsilon:        s.Epsilon,
		Background:     s.Background,
		MaxDepth:       uint32(s.MaxDepth),
		PrimitiveCount: uint32(len(s.Primitives)),
		LightCount:     uint32(len(s.Lights)),
	}
}

// Size returns the size of the GPUSceneUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPUSceneUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSceneUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload
func (g *GPUSceneUniform) Marshal() []byte {
	w := &gpuWriter{buf: make([]byte, g.Size())}
	w.vec3(g.Ambient)
	w.f32(g.Epsilon)
	w.vec3(g.Background)
	w.u32(g.MaxDepth)
	w.u32(g.PrimitiveCount)
	w.u32(g.LightCount)
	w.u32(0)
	w.u32(0)
	return w.buf
}

// MarshalPrimitives packs every primitive into one storage buffer. An empty scene yields a single
// zeroed element because storage bindings cannot be empty; PrimitiveCount stays authoritative.
//
// Returns:
//   - []byte: the packed primitive array
func (s *Scene) MarshalPrimitives() []byte {
	if len(s.Primitives) == 0 {
		return make([]byte, int(unsafe.Sizeof(GPUPrimitive{})))
	}
	out := make([]byte, 0, len(s.Primitives)*int(unsafe.Sizeof(GPUPrimitive{})))
	for _, p := range s.Primitives {
		g := NewGPUPrimitive(p)
		out = append(out, g.Marshal()...)
	}
	return out
}

// MarshalMaterials packs every material into one storage buffer, padding an empty list to one element.
//
// Returns:
//   - []byte: the packed material array
func (s *Scene) MarshalMaterials() []byte {
	if len(s.Materials) == 0 {
		return make([]byte, int(unsafe.Sizeof(GPUMaterial{})))
	}
	out := make([]byte, 0, len(s.Materials)*int(unsafe.Sizeof(GPUMaterial{})))
	for _, m := range s.Materials {
		g := NewGPUMaterial(m)
		out = append(out, g.Marshal()...)
	}
	return out
}

// MarshalLights packs every light into one storage buffer, padding an empty list to one element.
//
// Returns:
//   - []byte: the packed light array
func (s *Scene) MarshalLights() []byte {
	if len(s.Lights) == 0 {
		return make([]byte, int(unsafe.Sizeof(GPULight{})))
	}
	out := make([]byte, 0, len(s.Lights)*int(unsafe.Sizeof(GPULight{})))
	for _, l := range s.Lights {
		g := NewGPULight(l)
		out = append(out, g.Marshal()...)
	}
	return out
}
