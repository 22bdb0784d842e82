package renderer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrBufferSizeMismatch is returned by Launch when the output or accumulation buffer does not match
	// the requested launch dimensions.
	ErrBufferSizeMismatch = errors.New("buffer size does not match launch size")

	// ErrReleased is returned by any backend call made after Release.
	ErrReleased = errors.New("trace backend released")

	// ErrUnknownBackend is returned when a BackendType has no implementation.
	ErrUnknownBackend = errors.New("unknown trace backend")

	// ErrNoSurface is returned by the WebGPU backend when presentation is requested without a surface.
	ErrNoSurface = errors.New("no surface configured")
)

// BackendType identifies a TraceBackend implementation.
type BackendType int

const (
	// BackendTypeWGPU traces in a WebGPU compute shader and presents the result to a window surface.
	BackendTypeWGPU BackendType = iota

	// BackendTypeSoftware traces on the CPU across a worker pool.
	BackendTypeSoftware
)

// String returns the flag spelling of the backend type.
func (t BackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeSoftware:
		return "software"
	default:
		return fmt.Sprintf("BackendType(%d)", int(t))
	}
}

// ParseBackendType maps a flag value onto a BackendType.
//
// Parameters:
//   - s: "wgpu" or "software", case insensitive
//
// Returns:
//   - BackendType: the parsed type
//   - error: ErrUnknownBackend (wrapped) for any other value
func ParseBackendType(s string) (BackendType, error) {
	switch strings.ToLower(s) {
	case "wgpu":
		return BackendTypeWGPU, nil
	case "software":
		return BackendTypeSoftware, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrUnknownBackend)
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

func (m PresentMode) wgpuPresentMode() wgpu.PresentMode {
	if m == PresentModeUncapped {
		return wgpu.PresentModeImmediate
	}
	return wgpu.PresentModeFifo
}

// BufferKind names one of the two per-pixel buffers a backend owns.
type BufferKind int

const (
	// OutputBuffer holds the 8-bit RGBA image produced by the latest launch.
	OutputBuffer BufferKind = iota

	// AccumulationBuffer holds the running average of all samples since the last camera change.
	AccumulationBuffer
)

func (k BufferKind) String() string {
	switch k {
	case OutputBuffer:
		return "output"
	case AccumulationBuffer:
		return "accumulation"
	default:
		return fmt.Sprintf("BufferKind(%d)", int(k))
	}
}

// SurfaceSource provides the platform surface a presenting backend draws into.
// window.Window satisfies it.
type SurfaceSource interface {
	// SurfaceDescriptor returns the platform surface descriptor, or nil when no surface is available.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
}
