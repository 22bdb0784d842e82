package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniformSource is the canonical WGSL definition of the CameraUniform struct.
// Matches GPUCameraUniform layout exactly (64 bytes, std140/std430 aligned).
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Each vec3 shares its 16-byte slot with a trailing u32 so the struct packs without padding holes.
// Size: 64 bytes.
type GPUCameraUniform struct {
	Eye    [3]float32 // offset  0: eye position (vec3<f32>)
	Frame  uint32     // offset 12: accumulation sample index
	U      [3]float32 // offset 16: right vector scaled by tan(fov/2)*aspect
	Width  uint32     // offset 28: launch width in pixels
	V      [3]float32 // offset 32: up vector scaled by tan(fov/2)
	Height uint32     // offset 44: launch height in pixels
	W      [3]float32 // offset 48: unit view direction
	_pad   uint32     // offset 60: padding to 64 bytes
}

// NewGPUCameraUniform packs a resolved camera, a sample index and the launch size.
//
// Parameters:
//   - state: the resolved camera
//   - frame: the accumulation sample index
//   - width, height: launch dimensions in pixels
//
// Returns:
//   - GPUCameraUniform: the packed uniform
func NewGPUCameraUniform(state CameraState, frame uint32, width, height int) GPUCameraUniform {
	return GPUCameraUniform{
		Eye:    state.Eye,
		Frame:  frame,
		U:      state.Basis.U,
		Width:  uint32(width),
		V:      state.Basis.V,
		Height: uint32(height),
		W:      state.Basis.W,
	}
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	putVec3 := func(off int, v [3]float32) {
		for i := range 3 {
			binary.LittleEndian.PutUint32(buf[off+i*4:], math.Float32bits(v[i]))
		}
	}
	putVec3(0, g.Eye)
	binary.LittleEndian.PutUint32(buf[12:], g.Frame)
	putVec3(16, g.U)
	binary.LittleEndian.PutUint32(buf[28:], g.Width)
	putVec3(32, g.V)
	binary.LittleEndian.PutUint32(buf[44:], g.Height)
	putVec3(48, g.W)
	binary.LittleEndian.PutUint32(buf[60:], 0) // _pad
	return buf
}
