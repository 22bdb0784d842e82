package camera

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-whitted/common"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraState is the resolved camera pushed to a render backend.
type CameraState struct {
	Eye   mgl32.Vec3
	Basis Basis
}

// Viewport owns the interactive camera: eye, look-at point, up vector, the pending
// arcball rotation and the dirty flag, plus the viewport size that drives the aspect ratio.
//
// Input handlers mutate the viewport and mark it dirty. Once per frame the frame loop
// calls Resolve, which folds the pending rotation into eye/lookat/up and clears the flag.
type Viewport interface {
	// Eye returns the camera position.
	//
	// Returns:
	//   - mgl32.Vec3: world-space eye position
	Eye() mgl32.Vec3

	// Lookat returns the point the camera looks at.
	//
	// Returns:
	//   - mgl32.Vec3: world-space look-at point
	Lookat() mgl32.Vec3

	// Up returns the camera up vector. It is not renormalized between resolutions.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// Fov returns the vertical field of view.
	//
	// Returns:
	//   - float32: vertical field of view in radians
	Fov() float32

	// RotationDelta returns the pending rotation, identity when nothing is pending.
	//
	// Returns:
	//   - mgl32.Mat4: the pending rotation
	RotationDelta() mgl32.Mat4

	// Dirty reports whether the camera changed since the last resolution.
	//
	// Returns:
	//   - bool: true if Resolve must run before the next dispatch
	Dirty() bool

	// Size returns the viewport size in pixels.
	//
	// Returns:
	//   - width, height: viewport dimensions
	Size() (width, height int)

	// Aspect returns width divided by height.
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// SetRotationDelta replaces the pending rotation and marks the viewport dirty.
	//
	// Parameters:
	//   - rotation: the new pending rotation
	SetRotationDelta(rotation mgl32.Mat4)

	// Dolly moves the eye toward the look-at point by scale times their distance and marks the viewport dirty.
	// Negative values move the eye away.
	//
	// Parameters:
	//   - scale: fraction of the eye-to-lookat distance to travel
	Dolly(scale float32)

	// Resize stores a new viewport size and marks the viewport dirty.
	// Each dimension is clamped to the configured minimum.
	//
	// Parameters:
	//   - width, height: requested size in pixels
	//
	// Returns:
	//   - int, int: the stored width and height after clamping
	Resize(width, height int) (int, int)

	// MarkDirty forces the next frame to resolve the camera.
	MarkDirty()

	// Resolve folds the pending rotation into the camera and returns the new camera state.
	// The rotation is applied about the look-at point in the current camera frame, twice:
	// transform = frame * R * R * frame⁻¹. Afterwards the rotation is identity and the viewport is clean.
	// When the viewport is already clean, Resolve only recomputes the basis.
	//
	// Returns:
	//   - CameraState: eye and basis to push to the backend
	//   - error: ErrDegenerateCamera (wrapped) if the camera cannot be solved; the viewport is left unchanged
	Resolve() (CameraState, error)
}

type viewportImpl struct {
	mu *sync.Mutex

	eye    mgl32.Vec3
	lookat mgl32.Vec3
	up     mgl32.Vec3
	fov    float32

	rotationDelta mgl32.Mat4
	dirty         bool

	width     int
	height    int
	minWidth  int
	minHeight int
}

var _ Viewport = &viewportImpl{}

// NewViewport creates a Viewport looking from (8, 2, -4) toward (4, 2.3, -4) with a 60° vertical
// field of view over a 768x768 image. The viewport starts dirty so the first frame resolves it.
//
// Parameters:
//   - options: functional options to configure the viewport
//
// Returns:
//   - Viewport: the configured viewport
func NewViewport(options ...ViewportBuilderOption) Viewport {
	v := &viewportImpl{
		mu:            &sync.Mutex{},
		eye:           mgl32.Vec3{8, 2, -4},
		lookat:        mgl32.Vec3{4, 2.3, -4},
		up:            mgl32.Vec3{0, 1, 0},
		fov:           mgl32.DegToRad(60),
		rotationDelta: mgl32.Ident4(),
		dirty:         true,
		width:         768,
		height:        768,
		minWidth:      1,
		minHeight:     1,
	}
	for _, opt := range options {
		opt(v)
	}
	v.width = max(v.width, v.minWidth)
	v.height = max(v.height, v.minHeight)
	return v
}

func (v *viewportImpl) Eye() mgl32.Vec3 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.eye
}

func (v *viewportImpl) Lookat() mgl32.Vec3 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lookat
}

func (v *viewportImpl) Up() mgl32.Vec3 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.up
}

func (v *viewportImpl) Fov() float32 {
	return v.fov
}

func (v *viewportImpl) RotationDelta() mgl32.Mat4 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rotationDelta
}

func (v *viewportImpl) Dirty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dirty
}

func (v *viewportImpl) Size() (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height
}

func (v *viewportImpl) Aspect() float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.aspect()
}

func (v *viewportImpl) SetRotationDelta(rotation mgl32.Mat4) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rotationDelta = rotation
	v.dirty = true
}

func (v *viewportImpl) Dolly(scale float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.eye = v.eye.Add(v.lookat.Sub(v.eye).Mul(scale))
	v.dirty = true
}

func (v *viewportImpl) Resize(width, height int) (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.width = max(width, v.minWidth)
	v.height = max(height, v.minHeight)
	v.dirty = true
	return v.width, v.height
}

func (v *viewportImpl) MarkDirty() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dirty = true
}

func (v *viewportImpl) Resolve() (CameraState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	aspect := v.aspect()
	basis, err := SolveBasis(v.eye, v.lookat, v.up, v.fov, aspect)
	if err != nil {
		return CameraState{}, fmt.Errorf("failed to solve camera basis: %w", err)
	}
	if !v.dirty {
		return CameraState{Eye: v.eye, Basis: basis}, nil
	}

	// Camera frame: right, up, backward, centered on the look-at point.
	frame := common.FromBasis(basis.U.Normalize(), basis.V.Normalize(), basis.W.Mul(-1).Normalize(), v.lookat)
	transform := frame.Mul4(v.rotationDelta).Mul4(v.rotationDelta).Mul4(frame.Inv())

	eye := common.TransformPoint(transform, v.eye)
	lookat := common.TransformPoint(transform, v.lookat)
	up := common.TransformDirection(transform, v.up)

	basis, err = SolveBasis(eye, lookat, up, v.fov, aspect)
	if err != nil {
		return CameraState{}, fmt.Errorf("failed to solve rotated camera basis: %w", err)
	}

	v.eye, v.lookat, v.up = eye, lookat, up
	v.rotationDelta = mgl32.Ident4()
	v.dirty = false
	return CameraState{Eye: eye, Basis: basis}, nil
}

// aspect returns width/height. Caller must hold the mutex.
func (v *viewportImpl) aspect() float32 {
	return float32(v.width) / float32(v.height)
}
