package renderer

import (
	"fmt"
	"image"
	"image/color"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-whitted/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/glog"
)

// cameraParams is the camera as last pushed through SetCamera.
type cameraParams struct {
	eye mgl32.Vec3
	u   mgl32.Vec3
	v   mgl32.Vec3
	w   mgl32.Vec3
}

// bandsPerWorker controls how finely a launch is split across the pool.
const bandsPerWorker = 4

// softwareTraceBackend traces on the CPU. A launch is split into horizontal bands of rows which are
// submitted to a worker pool; Launch returns once every band has been written.
type softwareTraceBackend struct {
	mu *sync.Mutex

	tracer  *tracer
	pool    worker.DynamicWorkerPool
	workers int

	cam   cameraParams
	frame uint32

	// accum is stored bottom row first, matching the launch index.
	accum  []mgl32.Vec4
	accumW int
	accumH int

	// output is stored top row first, ready for image encoders.
	output *image.RGBA

	released bool
}

var _ TraceBackend = &softwareTraceBackend{}

// NewSoftwareTraceBackend creates a CPU TraceBackend. The worker pool is sized by WithWorkers and
// defaults to one worker per CPU, minus one.
//
// Parameters:
//   - options: functional options applied to the backend
//
// Returns:
//   - TraceBackend: the created backend
//   - error: an error if the scene is invalid
func NewSoftwareTraceBackend(options ...TraceBackendBuilderOption) (TraceBackend, error) {
	c := newBackendConfig(options...)
	if err := c.scene.Validate(); err != nil {
		return nil, fmt.Errorf("software backend: %w", err)
	}

	workers := c.workers
	if workers <= 0 {
		workers = max(runtime.NumCPU()-1, 1)
	}

	b := &softwareTraceBackend{
		mu:      &sync.Mutex{},
		tracer:  &tracer{scene: c.scene, maxDepth: c.maxDepth},
		pool:    worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		workers: workers,
	}
	b.resizeAccumulation(c.width, c.height)
	b.resizeOutput(c.width, c.height)

	glog.Infof("software trace backend: %d workers, %dx%d, max depth %d", workers, c.width, c.height, c.maxDepth)
	return b, nil
}

func (b *softwareTraceBackend) SetCamera(eye, u, v, w mgl32.Vec3) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cam = cameraParams{eye: eye, u: u, v: v, w: w}
}

func (b *softwareTraceBackend) SetFrame(frame uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = frame
}

func (b *softwareTraceBackend) Launch(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return ErrReleased
	}
	if b.accumW != width || b.accumH != height {
		return fmt.Errorf("%s buffer is %dx%d, launch is %dx%d: %w", AccumulationBuffer, b.accumW, b.accumH, width, height, ErrBufferSizeMismatch)
	}
	if bounds := b.output.Bounds(); bounds.Dx() != width || bounds.Dy() != height {
		return fmt.Errorf("%s buffer is %dx%d, launch is %dx%d: %w", OutputBuffer, bounds.Dx(), bounds.Dy(), width, height, ErrBufferSizeMismatch)
	}

	bands := min(b.workers*bandsPerWorker, height, 256)
	rowsPerBand := (height + bands - 1) / bands

	var wg sync.WaitGroup
	taskID := 0
	for y0 := 0; y0 < height; y0 += rowsPerBand {
		y1 := min(y0+rowsPerBand, height)
		wg.Add(1)
		id := taskID
		taskID++
		b.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				b.traceRows(y0, y1, width, height)
				return nil, nil
			},
		})
	}
	wg.Wait()
	return nil
}

// traceRows traces rows [y0, y1) of the launch. Bands write disjoint rows of both buffers.
func (b *softwareTraceBackend) traceRows(y0, y1, width, height int) {
	frame := b.frame
	weight := 1 / float32(frame+1)
	for y := y0; y < y1; y++ {
		row := height - 1 - y
		for x := 0; x < width; x++ {
			seed := tea16(uint32(width*y+x), frame)
			var jitter mgl32.Vec2
			if frame > 0 {
				jitter = mgl32.Vec2{rnd(&seed) - 0.5, rnd(&seed) - 0.5}
			}
			sample := b.tracer.trace(primaryRay(b.cam, x, y, width, height, jitter), &seed).Vec4(1)

			i := y*width + x
			acc := sample
			if frame > 0 {
				prev := b.accum[i]
				acc = prev.Add(sample.Sub(prev).Mul(weight))
			}
			b.accum[i] = acc
			b.output.SetRGBA(x, row, toRGBA(acc))
		}
	}
}

// toRGBA converts a linear colour to 8-bit, clamping each channel to [0, 1].
func toRGBA(c mgl32.Vec4) color.RGBA {
	channel := func(v float32) uint8 {
		return uint8(common.Clamp(v, 0, 1) * 255.99)
	}
	return color.RGBA{R: channel(c[0]), G: channel(c[1]), B: channel(c[2]), A: 255}
}

func (b *softwareTraceBackend) ResizeBuffer(kind BufferKind, width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return ErrReleased
	}
	if width < 1 || height < 1 {
		return fmt.Errorf("resize %s buffer to %dx%d: non-positive size", kind, width, height)
	}
	switch kind {
	case OutputBuffer:
		b.resizeOutput(width, height)
	case AccumulationBuffer:
		b.resizeAccumulation(width, height)
	default:
		return fmt.Errorf("resize %s: unknown buffer", kind)
	}
	glog.V(1).Infof("software trace backend: %s buffer resized to %dx%d", kind, width, height)
	return nil
}

func (b *softwareTraceBackend) resizeOutput(width, height int) {
	b.output = image.NewRGBA(image.Rect(0, 0, width, height))
}

func (b *softwareTraceBackend) resizeAccumulation(width, height int) {
	b.accum = make([]mgl32.Vec4, width*height)
	b.accumW, b.accumH = width, height
}

func (b *softwareTraceBackend) ReadOutput() (*image.RGBA, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return nil, ErrReleased
	}
	out := image.NewRGBA(b.output.Bounds())
	copy(out.Pix, b.output.Pix)
	return out, nil
}

func (b *softwareTraceBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.released = true
	b.accum = nil
	b.output = nil
}
