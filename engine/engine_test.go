package engine

import (
	"errors"
	"image"
	"testing"

	"github.com/Carmen-Shannon/oxy-whitted/common"
	"github.com/Carmen-Shannon/oxy-whitted/engine/accumulation"
	"github.com/Carmen-Shannon/oxy-whitted/engine/camera"
	"github.com/Carmen-Shannon/oxy-whitted/engine/input"
	"github.com/Carmen-Shannon/oxy-whitted/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-5)

type launch struct {
	Frame         uint32
	Width, Height int
}

type resize struct {
	Kind          renderer.BufferKind
	Width, Height int
}

// fakeBackend records calls and keeps its buffer sizes so size mismatches surface as in real backends.
type fakeBackend struct {
	cameras  []mgl32.Vec3
	frame    uint32
	launches []launch
	resizes  []resize
	released int

	outW, outH     int
	accumW, accumH int
	launchErr      error
}

func newFakeBackend(w, h int) *fakeBackend {
	return &fakeBackend{outW: w, outH: h, accumW: w, accumH: h}
}

func (f *fakeBackend) SetCamera(eye, u, v, w mgl32.Vec3) {
	f.cameras = append(f.cameras, eye)
}

func (f *fakeBackend) SetFrame(frame uint32) {
	f.frame = frame
}

func (f *fakeBackend) Launch(width, height int) error {
	if f.launchErr != nil {
		return f.launchErr
	}
	if width != f.outW || height != f.outH || width != f.accumW || height != f.accumH {
		return renderer.ErrBufferSizeMismatch
	}
	f.launches = append(f.launches, launch{Frame: f.frame, Width: width, Height: height})
	return nil
}

func (f *fakeBackend) ResizeBuffer(kind renderer.BufferKind, width, height int) error {
	f.resizes = append(f.resizes, resize{Kind: kind, Width: width, Height: height})
	switch kind {
	case renderer.OutputBuffer:
		f.outW, f.outH = width, height
	case renderer.AccumulationBuffer:
		f.accumW, f.accumH = width, height
	}
	return nil
}

func (f *fakeBackend) ReadOutput() (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, f.outW, f.outH)), nil
}

func (f *fakeBackend) Release() {
	f.released++
}

func (f *fakeBackend) frames() []uint32 {
	out := make([]uint32, len(f.launches))
	for i, l := range f.launches {
		out[i] = l.Frame
	}
	return out
}

type presentingBackend struct {
	*fakeBackend
	presents int
}

func (p *presentingBackend) Present() error {
	p.presents++
	return nil
}

// fakeHost delivers its scripted events on the first iteration, then runs the update callback until
// stopped or out of iterations.
type fakeHost struct {
	events     []input.Event
	iterations int

	onEvent  func(e input.Event)
	onUpdate func()
	stopped  bool
	ran      int
	closed   int
}

func (h *fakeHost) SetEventCallback(callback func(e input.Event)) { h.onEvent = callback }
func (h *fakeHost) SetUpdateCallback(callback func())             { h.onUpdate = callback }
func (h *fakeHost) Stop()                                         { h.stopped = true }

func (h *fakeHost) Close() error {
	h.closed++
	return nil
}

func (h *fakeHost) ProcessMessages() {
	for i := 0; i < h.iterations && !h.stopped; i++ {
		if i == 0 {
			for _, e := range h.events {
				h.onEvent(e)
			}
			if h.stopped {
				return
			}
		}
		h.onUpdate()
		h.ran++
	}
}

func newTestEngine(t *testing.T, b renderer.TraceBackend, options ...EngineBuilderOption) Engine {
	t.Helper()
	e, err := NewEngine(append([]EngineBuilderOption{WithBackend(b)}, options...)...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func runFrames(t *testing.T, e Engine, n int) {
	t.Helper()
	for i := range n {
		if err := e.Frame(); err != nil {
			t.Fatalf("Frame %d: %v", i, err)
		}
	}
}

func TestNewEngineRequiresBackend(t *testing.T) {
	if _, err := NewEngine(); !errors.Is(err, ErrNoBackend) {
		t.Errorf("NewEngine() error = %v, want %v", err, ErrNoBackend)
	}
}

func TestFrameSampleSequence(t *testing.T) {
	b := newFakeBackend(768, 768)
	e := newTestEngine(t, b)

	runFrames(t, e, 4)

	if diff := cmp.Diff([]uint32{0, 1, 2, 3}, b.frames()); diff != "" {
		t.Errorf("launched frames (-want +got):\n%s", diff)
	}
	if len(b.cameras) != 1 {
		t.Errorf("SetCamera called %d times, want 1", len(b.cameras))
	}
	if diff := cmp.Diff(mgl32.Vec3{8, 2, -4}, b.cameras[0], approx); diff != "" {
		t.Errorf("pushed eye (-want +got):\n%s", diff)
	}
	if e.Viewport().Dirty() {
		t.Error("viewport dirty after the first frame")
	}
}

func TestFrameResolvesInjectedViewport(t *testing.T) {
	v := camera.NewViewport(camera.WithEye(10, 2, -4))
	if _, err := v.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	b := newFakeBackend(768, 768)
	e := newTestEngine(t, b, WithViewport(v))

	runFrames(t, e, 2)

	if len(b.cameras) != 1 {
		t.Fatalf("SetCamera called %d times, want 1", len(b.cameras))
	}
	if diff := cmp.Diff(mgl32.Vec3{10, 2, -4}, b.cameras[0], approx); diff != "" {
		t.Errorf("pushed eye (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{0, 1}, b.frames()); diff != "" {
		t.Errorf("launched frames (-want +got):\n%s", diff)
	}
}

// countingScheduler counts resets on top of the default scheduler.
type countingScheduler struct {
	accumulation.Scheduler
	resets int
}

func (s *countingScheduler) OnCameraResolved() {
	s.resets++
	s.Scheduler.OnCameraResolved()
}

func TestWithScheduler(t *testing.T) {
	s := &countingScheduler{Scheduler: accumulation.NewScheduler()}
	b := newFakeBackend(768, 768)
	e := newTestEngine(t, b, WithScheduler(s))

	if e.Scheduler() != accumulation.Scheduler(s) {
		t.Error("Scheduler() does not return the configured scheduler")
	}
	runFrames(t, e, 3)
	if s.resets != 1 {
		t.Errorf("OnCameraResolved called %d times, want 1", s.resets)
	}
	if got := s.Current(); got != 3 {
		t.Errorf("Current() = %d, want 3", got)
	}
}

type recordingDispatcher struct {
	events []input.Event
}

func (d *recordingDispatcher) Dispatch(e input.Event) error {
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) MouseState() input.MouseState {
	return input.MouseState{}
}

func TestWithDispatcher(t *testing.T) {
	d := &recordingDispatcher{}
	e := newTestEngine(t, newFakeBackend(768, 768), WithDispatcher(d))

	events := []input.Event{
		input.ButtonDown(input.ButtonLeft, 1, 2),
		input.KeyDown('x'),
		input.PointerMove(3, 4),
		input.Resize(10, 20),
	}
	for _, ev := range events {
		if err := e.HandleEvent(ev); err != nil {
			t.Fatalf("HandleEvent(%s): %v", ev.Type, err)
		}
	}
	want := []input.Event{events[0], events[2], events[3]}
	if diff := cmp.Diff(want, d.events); diff != "" {
		t.Errorf("dispatched events (-want +got):\n%s", diff)
	}
}

func TestFrameRestartsAccumulationOnCameraChange(t *testing.T) {
	b := newFakeBackend(768, 768)
	e := newTestEngine(t, b)

	runFrames(t, e, 3)
	events := []input.Event{
		input.ButtonDown(input.ButtonRight, 0, 0),
		input.PointerMove(76, 0),
		input.ButtonUp(input.ButtonRight, 76, 0),
	}
	for _, ev := range events {
		if err := e.HandleEvent(ev); err != nil {
			t.Fatalf("HandleEvent(%s): %v", ev.Type, err)
		}
	}
	runFrames(t, e, 2)

	if diff := cmp.Diff([]uint32{0, 1, 2, 0, 1}, b.frames()); diff != "" {
		t.Errorf("launched frames (-want +got):\n%s", diff)
	}
	if len(b.cameras) != 2 {
		t.Fatalf("SetCamera called %d times, want 2", len(b.cameras))
	}
	want := mgl32.Vec3{8, 2, -4}.Add(mgl32.Vec3{-4, 0.3, 0}.Mul(float32(76) / 768))
	if diff := cmp.Diff(want, b.cameras[1], approx); diff != "" {
		t.Errorf("pushed eye after dolly (-want +got):\n%s", diff)
	}
}

func TestFrameAfterResize(t *testing.T) {
	b := newFakeBackend(768, 768)
	e := newTestEngine(t, b)

	runFrames(t, e, 2)
	if err := e.HandleEvent(input.Resize(1024, 600)); err != nil {
		t.Fatalf("HandleEvent(resize): %v", err)
	}
	runFrames(t, e, 1)

	wantResizes := []resize{
		{Kind: renderer.OutputBuffer, Width: 1024, Height: 600},
		{Kind: renderer.AccumulationBuffer, Width: 1024, Height: 600},
	}
	if diff := cmp.Diff(wantResizes, b.resizes); diff != "" {
		t.Errorf("ResizeBuffer calls (-want +got):\n%s", diff)
	}
	wantLaunches := []launch{{0, 768, 768}, {1, 768, 768}, {0, 1024, 600}}
	if diff := cmp.Diff(wantLaunches, b.launches); diff != "" {
		t.Errorf("launches (-want +got):\n%s", diff)
	}
}

func TestFrameLaunchError(t *testing.T) {
	b := newFakeBackend(768, 768)
	b.launchErr = renderer.ErrReleased
	e := newTestEngine(t, b)

	if err := e.Frame(); !errors.Is(err, renderer.ErrReleased) {
		t.Errorf("Frame() error = %v, want %v", err, renderer.ErrReleased)
	}
}

func TestFrameSizeMismatch(t *testing.T) {
	b := newFakeBackend(640, 480)
	e := newTestEngine(t, b)

	if err := e.Frame(); !errors.Is(err, renderer.ErrBufferSizeMismatch) {
		t.Errorf("Frame() error = %v, want %v", err, renderer.ErrBufferSizeMismatch)
	}
}

func TestFrameDegenerateCamera(t *testing.T) {
	b := newFakeBackend(768, 768)
	v := camera.NewViewport(camera.WithEye(1, 1, 1), camera.WithLookat(1, 1, 1))
	e := newTestEngine(t, b, WithViewport(v))

	if err := e.Frame(); !errors.Is(err, camera.ErrDegenerateCamera) {
		t.Errorf("Frame() error = %v, want %v", err, camera.ErrDegenerateCamera)
	}
	if len(b.launches) != 0 {
		t.Errorf("launched %d frames with a degenerate camera", len(b.launches))
	}
}

func TestFramePresents(t *testing.T) {
	b := &presentingBackend{fakeBackend: newFakeBackend(768, 768)}
	e := newTestEngine(t, b)

	runFrames(t, e, 3)
	if b.presents != 3 {
		t.Errorf("Present called %d times, want 3", b.presents)
	}
}

func TestRunWithoutWindow(t *testing.T) {
	e := newTestEngine(t, newFakeBackend(768, 768))
	if err := e.Run(); !errors.Is(err, ErrNoWindow) {
		t.Errorf("Run() error = %v, want %v", err, ErrNoWindow)
	}
}

func TestRunQuitKeys(t *testing.T) {
	tests := []struct {
		name    string
		key     uint32
		wantRan int
	}{
		{"q", common.KeyQ, 0},
		{"escape", common.KeyEsc, 0},
		{"other key", 'x', 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend(768, 768)
			h := &fakeHost{events: []input.Event{input.KeyDown(tt.key)}, iterations: 5}
			e := newTestEngine(t, b, WithWindow(h))

			if err := e.Run(); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if h.ran != tt.wantRan {
				t.Errorf("frames run = %d, want %d", h.ran, tt.wantRan)
			}
			if len(b.launches) != tt.wantRan {
				t.Errorf("launches = %d, want %d", len(b.launches), tt.wantRan)
			}
		})
	}
}

func TestWithQuitKeys(t *testing.T) {
	tests := []struct {
		name    string
		key     uint32
		wantRan int
	}{
		{"configured key", 'x', 0},
		{"default key no longer quits", common.KeyQ, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHost{events: []input.Event{input.KeyDown(tt.key)}, iterations: 3}
			e := newTestEngine(t, newFakeBackend(768, 768), WithWindow(h), WithQuitKeys('x'))

			if err := e.Run(); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if h.ran != tt.wantRan {
				t.Errorf("frames run = %d, want %d", h.ran, tt.wantRan)
			}
		})
	}
}

func TestRunStopsOnFrameError(t *testing.T) {
	b := newFakeBackend(768, 768)
	b.launchErr = errors.New("device lost")
	h := &fakeHost{iterations: 10}
	e := newTestEngine(t, b, WithWindow(h))

	err := e.Run()
	if !errors.Is(err, b.launchErr) {
		t.Fatalf("Run() error = %v, want %v", err, b.launchErr)
	}
	if !h.stopped || h.ran != 1 {
		t.Errorf("host stopped = %t after %d frames, want stopped after 1", h.stopped, h.ran)
	}
}

func TestSnapshotKey(t *testing.T) {
	b := newFakeBackend(32, 16)
	var got []image.Rectangle
	e := newTestEngine(t, b,
		WithViewport(camera.NewViewport(camera.WithSize(32, 16))),
		WithSnapshot(common.KeyS, func(img *image.RGBA) error {
			got = append(got, img.Bounds())
			return nil
		}),
	)

	if err := e.HandleEvent(input.KeyDown(common.KeyS)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if diff := cmp.Diff([]image.Rectangle{image.Rect(0, 0, 32, 16)}, got); diff != "" {
		t.Errorf("snapshots (-want +got):\n%s", diff)
	}
}

func TestSnapshotError(t *testing.T) {
	writeErr := errors.New("disk full")
	e := newTestEngine(t, newFakeBackend(768, 768), WithSnapshot(common.KeyS, func(*image.RGBA) error {
		return writeErr
	}))

	if err := e.HandleEvent(input.KeyDown(common.KeyS)); !errors.Is(err, writeErr) {
		t.Errorf("HandleEvent error = %v, want %v", err, writeErr)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	b := newFakeBackend(768, 768)
	h := &fakeHost{}
	e := newTestEngine(t, b, WithWindow(h))

	e.Release()
	e.Release()
	if b.released != 1 || h.closed != 1 {
		t.Errorf("backend released %d times, window closed %d times, want 1 and 1", b.released, h.closed)
	}
}

func TestFrameLimit(t *testing.T) {
	tests := []struct {
		fps  float64
		want string
	}{
		{0, "0s"},
		{-5, "0s"},
		{50, "20ms"},
		{4, "250ms"},
	}
	for _, tt := range tests {
		if got := frameLimit(tt.fps).String(); got != tt.want {
			t.Errorf("frameLimit(%v) = %s, want %s", tt.fps, got, tt.want)
		}
	}
}
