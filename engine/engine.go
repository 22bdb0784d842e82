// Package engine drives the progressive frame loop: it resolves the camera when input has changed it,
// hands the backend the next accumulation sample index and launches one trace per frame.
package engine

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-whitted/common"
	"github.com/Carmen-Shannon/oxy-whitted/engine/accumulation"
	"github.com/Carmen-Shannon/oxy-whitted/engine/camera"
	"github.com/Carmen-Shannon/oxy-whitted/engine/input"
	"github.com/Carmen-Shannon/oxy-whitted/engine/profiler"
	"github.com/Carmen-Shannon/oxy-whitted/engine/renderer"
	"github.com/golang/glog"
)

var (
	// ErrNoWindow is returned by Run when the engine was built without a host window.
	ErrNoWindow = errors.New("engine has no window")
	// ErrNoBackend is returned by NewEngine when no TraceBackend was given.
	ErrNoBackend = errors.New("engine has no trace backend")
)

// Host is the window the engine runs in. window.Window satisfies it.
type Host interface {
	SetEventCallback(callback func(e input.Event))
	SetUpdateCallback(callback func())
	ProcessMessages()
	Stop()
	Close() error
}

// Engine is the main entry point. It owns the viewport, the accumulation scheduler and the input
// dispatcher, and drives a TraceBackend once per frame.
type Engine interface {
	// Viewport returns the camera the engine resolves each frame.
	//
	// Returns:
	//   - camera.Viewport: the viewport
	Viewport() camera.Viewport

	// Scheduler returns the accumulation sample counter.
	//
	// Returns:
	//   - accumulation.Scheduler: the scheduler
	Scheduler() accumulation.Scheduler

	// Backend returns the trace backend.
	//
	// Returns:
	//   - renderer.TraceBackend: the backend
	Backend() renderer.TraceBackend

	// UpdateCamera resolves the viewport, restarts accumulation and pushes the new camera to the backend.
	//
	// Returns:
	//   - error: camera.ErrDegenerateCamera (wrapped) if the camera cannot be solved
	UpdateCamera() error

	// Frame runs one frame: resolve the camera if dirty, push the next sample index, launch, and
	// present when the backend can.
	//
	// Returns:
	//   - error: a camera or backend error; the frame is abandoned
	Frame() error

	// HandleEvent routes one window event. Quit and snapshot keys are handled here; everything else
	// goes to the input dispatcher.
	//
	// Parameters:
	//   - e: the event
	//
	// Returns:
	//   - error: a resize or snapshot error
	HandleEvent(e input.Event) error

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run attaches to the host window and blocks until it closes, a quit key is pressed, or a frame fails.
	//
	// Returns:
	//   - error: ErrNoWindow, or the first error raised by a frame or an event
	Run() error

	// Quit asks Run to return after the current frame. Safe to call multiple times.
	Quit()

	// Release frees the backend and closes the window. Safe to call multiple times.
	Release()
}

// engine implements the Engine interface.
type engine struct {
	host       Host
	viewport   camera.Viewport
	scheduler  accumulation.Scheduler
	backend    renderer.TraceBackend
	dispatcher input.Dispatcher

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	quitKeys    []uint32
	snapshotKey uint32
	onSnapshot  func(img *image.RGBA) error

	// err is the first fatal error seen by Run's callbacks.
	err error

	quitOnce    sync.Once
	releaseOnce sync.Once
}

var _ Engine = &engine{}

// NewEngine creates an Engine around a backend. The viewport defaults to camera.NewViewport() and the
// dispatcher resizes the backend's buffers whenever the viewport is resized.
//
// Parameters:
//   - options: functional options for engine configuration; WithBackend is required
//
// Returns:
//   - Engine: the newly created engine
//   - error: ErrNoBackend if no backend was given
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		profiler:    profiler.NewProfiler(),
		quitKeys:    []uint32{common.KeyQ, common.KeyEsc},
		snapshotKey: common.KeyS,
	}
	for _, opt := range options {
		opt(e)
	}

	if e.backend == nil {
		return nil, ErrNoBackend
	}
	if e.viewport == nil {
		e.viewport = camera.NewViewport()
	}
	if e.scheduler == nil {
		e.scheduler = accumulation.NewScheduler()
	}
	if e.dispatcher == nil {
		e.dispatcher = input.NewDispatcher(e.viewport, input.WithResizer(e.backend))
	}
	// The backend has no camera yet, so the first frame resolves even a viewport resolved elsewhere.
	e.viewport.MarkDirty()
	return e, nil
}

func (e *engine) Viewport() camera.Viewport {
	return e.viewport
}

func (e *engine) Scheduler() accumulation.Scheduler {
	return e.scheduler
}

func (e *engine) Backend() renderer.TraceBackend {
	return e.backend
}

func (e *engine) UpdateCamera() error {
	state, err := e.viewport.Resolve()
	if err != nil {
		return fmt.Errorf("update camera: %w", err)
	}
	e.scheduler.OnCameraResolved()
	e.backend.SetCamera(state.Eye, state.Basis.U, state.Basis.V, state.Basis.W)

	if glog.V(1) {
		glog.Infof("camera: eye %v, U %v, V %v, W %v", state.Eye, state.Basis.U, state.Basis.V, state.Basis.W)
	}
	return nil
}

func (e *engine) Frame() error {
	if e.viewport.Dirty() {
		if err := e.UpdateCamera(); err != nil {
			return err
		}
	}

	width, height := e.viewport.Size()
	sample := e.scheduler.NextSampleIndex()
	e.backend.SetFrame(sample)
	if err := e.backend.Launch(width, height); err != nil {
		return fmt.Errorf("launch sample %d at %dx%d: %w", sample, width, height, err)
	}

	if p, ok := e.backend.(renderer.Presenter); ok {
		if err := p.Present(); err != nil {
			return fmt.Errorf("present sample %d: %w", sample, err)
		}
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick(sample)
	}
	return nil
}

func (e *engine) HandleEvent(ev input.Event) error {
	if ev.Type != input.EventKeyDown {
		return e.dispatcher.Dispatch(ev)
	}

	for _, k := range e.quitKeys {
		if ev.Key == k {
			e.Quit()
			return nil
		}
	}
	if ev.Key == e.snapshotKey && e.onSnapshot != nil {
		return e.snapshot()
	}
	return nil
}

func (e *engine) snapshot() error {
	img, err := e.backend.ReadOutput()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := e.onSnapshot(img); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameLimit(fps)
}

func (e *engine) Run() error {
	if e.host == nil {
		return ErrNoWindow
	}

	e.host.SetEventCallback(func(ev input.Event) {
		if err := e.HandleEvent(ev); err != nil {
			e.fail(err)
		}
	})
	e.host.SetUpdateCallback(e.update)
	e.host.ProcessMessages()
	return e.err
}

// update runs one frame from the host's message loop, converting a panic into a fatal error.
func (e *engine) update() {
	defer func() {
		if r := recover(); r != nil {
			e.fail(fmt.Errorf("frame panicked: %v", r))
		}
	}()

	start := time.Now()
	if err := e.Frame(); err != nil {
		e.fail(err)
		return
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// fail records the first fatal error and stops the loop.
func (e *engine) fail(err error) {
	if e.err == nil {
		e.err = err
	}
	e.Quit()
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		if e.host != nil {
			e.host.Stop()
		}
	})
}

func (e *engine) Release() {
	e.releaseOnce.Do(func() {
		e.backend.Release()
		if e.host != nil {
			if err := e.host.Close(); err != nil {
				glog.Warningf("close window: %v", err)
			}
		}
	})
}
