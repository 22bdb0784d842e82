package renderer

import (
	_ "embed"
	"errors"
	"fmt"
	"image"
	"runtime"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-whitted/engine/camera"
	"github.com/Carmen-Shannon/oxy-whitted/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-whitted/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-whitted/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-whitted/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/glog"
)

//go:embed assets/trace.wgsl
var traceShaderSource string

//go:embed assets/present.wgsl
var presentShaderSource string

const (
	tracePipelineKey   = "Trace"
	presentPipelineKey = "Present"

	texelSize       = 16 // vec4<f32>
	packedColorSize = 4  // u32
)

// wgpuTraceBackend traces in a WebGPU compute shader. All buffers live in one bind group owned by
// traceBindings; the present pass binds the camera uniform and the output buffer from the same set.
type wgpuTraceBackend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// surface is nil for headless backends.
	surface       *wgpu.Surface
	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode

	tracePipeline   pipeline.Pipeline
	presentPipeline pipeline.Pipeline

	// traceBindings owns every GPU buffer. presentBindings only holds a bind group over them.
	traceBindings   bind_group_provider.BindGroupProvider
	presentBindings bind_group_provider.BindGroupProvider
	// bindings maps each declared type in the trace shader to its binding index.
	bindings map[shader.AnnotationArg]int

	camera camera.CameraState
	frame  uint32

	outputW, outputH int
	accumW, accumH   int

	released bool
}

var _ TraceBackend = &wgpuTraceBackend{}
var _ Presenter = &wgpuTraceBackend{}

// NewWGPUTraceBackend creates a WebGPU TraceBackend. When WithSurface is given, the backend also
// implements Presenter and draws the output buffer to that surface.
//
// The calling goroutine is locked to its OS thread, as the surface and the window must share a thread.
//
// Parameters:
//   - options: functional options applied to the backend
//
// Returns:
//   - TraceBackend: the created backend
//   - error: an error if the scene is invalid or any device object cannot be created
func NewWGPUTraceBackend(options ...TraceBackendBuilderOption) (TraceBackend, error) {
	c := newBackendConfig(options...)
	if err := c.scene.Validate(); err != nil {
		return nil, fmt.Errorf("wgpu backend: %w", err)
	}

	runtime.LockOSThread()
	b := &wgpuTraceBackend{
		mu:              &sync.Mutex{},
		instance:        wgpu.CreateInstance(nil),
		presentMode:     c.presentMode.wgpuPresentMode(),
		traceBindings:   bind_group_provider.NewBindGroupProvider(tracePipelineKey),
		presentBindings: bind_group_provider.NewBindGroupProvider(presentPipelineKey),
		bindings:        make(map[shader.AnnotationArg]int),
	}
	if err := b.init(c); err != nil {
		b.release()
		return nil, fmt.Errorf("wgpu backend: %w", err)
	}

	glog.Infof("wgpu trace backend: %dx%d, max depth %d, presenting %t", c.width, c.height, c.maxDepth, b.surface != nil)
	return b, nil
}

func (b *wgpuTraceBackend) init(c *backendConfig) error {
	if c.surface != nil {
		if desc := c.surface.SurfaceDescriptor(); desc != nil {
			b.surface = b.instance.CreateSurface(desc)
		}
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: c.forceFallback,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Trace Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	if b.surface != nil {
		b.surfaceFormat = pickSurfaceFormat(b.surface.GetCapabilities(b.adapter).Formats)
	}
	if err := b.initPipelines(); err != nil {
		return err
	}
	if err := b.initSceneBuffers(c); err != nil {
		return err
	}
	if err := b.resizeBuffer(AccumulationBuffer, c.width, c.height); err != nil {
		return err
	}
	return b.resizeBuffer(OutputBuffer, c.width, c.height)
}

// pickSurfaceFormat prefers a linear 8-bit format so the traced values are displayed unmodified.
func pickSurfaceFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, f := range formats {
		if f == wgpu.TextureFormatBGRA8Unorm || f == wgpu.TextureFormatRGBA8Unorm {
			return f
		}
	}
	return formats[0]
}

func (b *wgpuTraceBackend) initPipelines() error {
	traceShader, err := shader.NewShader(tracePipelineKey, shader.ShaderTypeCompute, traceShaderSource)
	if err != nil {
		return err
	}
	b.tracePipeline = pipeline.NewPipeline(tracePipelineKey, pipeline.PipelineTypeCompute, pipeline.WithComputeShader(traceShader))
	if err := b.registerComputePipeline(b.tracePipeline); err != nil {
		return fmt.Errorf("register %s pipeline: %w", tracePipelineKey, err)
	}
	for _, d := range traceShader.Declarations() {
		b.bindings[declarationType(d)] = d.Binding
	}

	if b.surface == nil {
		return nil
	}
	vs, err := shader.NewShader(presentPipelineKey+" Vertex", shader.ShaderTypeVertex, presentShaderSource)
	if err != nil {
		return err
	}
	fs, err := shader.NewShader(presentPipelineKey+" Fragment", shader.ShaderTypeFragment, presentShaderSource)
	if err != nil {
		return err
	}
	b.presentPipeline = pipeline.NewPipeline(presentPipelineKey, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
	)
	if err := b.registerRenderPipeline(b.presentPipeline); err != nil {
		return fmt.Errorf("register %s pipeline: %w", presentPipelineKey, err)
	}
	return nil
}

// declarationType returns the element type of a group declaration, with any array<> stripped.
func declarationType(d shader.Annotation) shader.AnnotationArg {
	typeArg := string(d.Args[2])
	if inner, ok := strings.CutPrefix(typeArg, "array<"); ok {
		typeArg = strings.TrimSuffix(inner, ">")
	}
	return shader.AnnotationArg(typeArg)
}

func (b *wgpuTraceBackend) createBindGroupLayouts(descriptors map[int]wgpu.BindGroupLayoutDescriptor) ([]*wgpu.BindGroupLayout, error) {
	maxGroup := -1
	for g := range descriptors {
		maxGroup = max(maxGroup, g)
	}
	layouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g, desc := range descriptors {
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
		}
		layouts[g] = layout
	}
	return layouts, nil
}

func (b *wgpuTraceBackend) registerComputePipeline(p pipeline.Pipeline) error {
	computeShader := p.Shader(shader.ShaderTypeCompute)
	if computeShader == nil {
		return errors.New("compute shader must be set to create a compute pipeline")
	}

	module, err := b.device.CreateShaderModule(computeShader.Module())
	if err != nil {
		return err
	}
	defer module.Release()

	layouts, err := b.createBindGroupLayouts(p.BindGroupLayoutDescriptors())
	if err != nil {
		return err
	}
	p.SetBindGroupLayouts(layouts)

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return err
	}
	defer layout.Release()

	created, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.PipelineKey() + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: computeShader.EntryPoint(),
		},
	})
	if err != nil {
		return err
	}
	p.SetComputePipeline(created)
	return nil
}

func (b *wgpuTraceBackend) registerRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return err
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return err
	}
	defer fs.Release()

	layouts, err := b.createBindGroupLayouts(p.BindGroupLayoutDescriptors())
	if err != nil {
		return err
	}
	p.SetBindGroupLayouts(layouts)

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return err
	}
	defer layout.Release()

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{{
				Format:    b.surfaceFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return err
	}
	p.SetRenderPipeline(created)
	return nil
}

// initSceneBuffers creates the camera and scene buffers and uploads the scene once.
func (b *wgpuTraceBackend) initSceneBuffers(c *backendConfig) error {
	sceneUniform := scene.NewGPUSceneUniform(c.scene)
	sceneUniform.MaxDepth = uint32(c.maxDepth)
	cameraUniform := camera.GPUCameraUniform{}

	uploads := []struct {
		arg   shader.AnnotationArg
		usage wgpu.BufferUsage
		data  []byte
	}{
		{shader.AnnotationArgCamera, wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst, cameraUniform.Marshal()},
		{shader.AnnotationArgSceneUniform, wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst, sceneUniform.Marshal()},
		{shader.AnnotationArgPrimitive, wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst, c.scene.MarshalPrimitives()},
		{shader.AnnotationArgMaterial, wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst, c.scene.MarshalMaterials()},
		{shader.AnnotationArgLight, wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst, c.scene.MarshalLights()},
	}
	writes := make([]bind_group_provider.BufferWrite, 0, len(uploads))
	for _, u := range uploads {
		binding, ok := b.bindings[u.arg]
		if !ok {
			return fmt.Errorf("%s shader declares no %s binding", tracePipelineKey, u.arg)
		}
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("%s %s Buffer", b.traceBindings.Label(), u.arg),
			Size:  uint64(len(u.data)),
			Usage: u.usage,
		})
		if err != nil {
			return fmt.Errorf("create %s buffer: %w", u.arg, err)
		}
		b.traceBindings.SetBuffer(binding, buf, uint64(len(u.data)))
		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: b.traceBindings,
			Binding:  binding,
			Data:     u.data,
		})
	}
	b.writeBuffers(writes)
	return nil
}

func (b *wgpuTraceBackend) writeBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

// ensureBindGroups rebuilds whichever bind groups were invalidated by a buffer resize.
func (b *wgpuTraceBackend) ensureBindGroups() error {
	if b.traceBindings.BindGroup() == nil {
		decls := b.tracePipeline.Shader(shader.ShaderTypeCompute).Declarations()
		bg, err := b.createBindGroup(b.traceBindings.Label(), b.tracePipeline, decls)
		if err != nil {
			return err
		}
		b.traceBindings.SetBindGroup(bg)
		b.presentBindings.SetBindGroup(nil)
	}
	if b.presentPipeline != nil && b.presentBindings.BindGroup() == nil {
		decls := b.presentPipeline.Shader(shader.ShaderTypeFragment).Declarations()
		bg, err := b.createBindGroup(b.presentBindings.Label(), b.presentPipeline, decls)
		if err != nil {
			return err
		}
		b.presentBindings.SetBindGroup(bg)
	}
	return nil
}

// createBindGroup binds group 0 of p, resolving each declaration to the trace buffer of the same type.
func (b *wgpuTraceBackend) createBindGroup(label string, p pipeline.Pipeline, decls []shader.Annotation) (*wgpu.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(decls))
	for _, d := range decls {
		if d.Type != shader.AnnotationTypeBindingGroup || d.Group != 0 {
			continue
		}
		binding, ok := b.bindings[declarationType(d)]
		buf := b.traceBindings.Buffer(binding)
		if !ok || buf == nil {
			return nil, fmt.Errorf("%s: no buffer for %s", label, d.Args[1])
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(d.Binding),
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label + " Bind Group",
		Layout:  p.BindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: create bind group: %w", label, err)
	}
	return bg, nil
}

func (b *wgpuTraceBackend) configureSurface(width, height int) {
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

func (b *wgpuTraceBackend) SetCamera(eye, u, v, w mgl32.Vec3) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.camera = camera.CameraState{Eye: eye, Basis: camera.Basis{U: u, V: v, W: w}}
}

func (b *wgpuTraceBackend) SetFrame(frame uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = frame
}

func (b *wgpuTraceBackend) Launch(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return ErrReleased
	}
	if b.accumW != width || b.accumH != height {
		return fmt.Errorf("%s buffer is %dx%d, launch is %dx%d: %w", AccumulationBuffer, b.accumW, b.accumH, width, height, ErrBufferSizeMismatch)
	}
	if b.outputW != width || b.outputH != height {
		return fmt.Errorf("%s buffer is %dx%d, launch is %dx%d: %w", OutputBuffer, b.outputW, b.outputH, width, height, ErrBufferSizeMismatch)
	}
	if err := b.ensureBindGroups(); err != nil {
		return err
	}

	uniform := camera.NewGPUCameraUniform(b.camera, b.frame, width, height)
	b.writeBuffers([]bind_group_provider.BufferWrite{{
		Provider: b.traceBindings,
		Binding:  b.bindings[shader.AnnotationArgCamera],
		Data:     uniform.Marshal(),
	}})

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	workgroup := b.tracePipeline.Shader(shader.ShaderTypeCompute).WorkgroupSize()
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(b.tracePipeline.Pipeline().(*wgpu.ComputePipeline))
	pass.SetBindGroup(0, b.traceBindings.BindGroup(), nil)
	pass.DispatchWorkgroups(
		(uint32(width)+workgroup[0]-1)/workgroup[0],
		(uint32(height)+workgroup[1]-1)/workgroup[1],
		1,
	)
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	b.device.Poll(true, nil)
	return nil
}

func (b *wgpuTraceBackend) Present() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return ErrReleased
	}
	if b.surface == nil || b.presentPipeline == nil {
		return ErrNoSurface
	}
	if err := b.ensureBindGroups(); err != nil {
		return err
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	defer surfaceTexture.Release()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	pass.SetPipeline(b.presentPipeline.Pipeline().(*wgpu.RenderPipeline))
	pass.SetBindGroup(0, b.presentBindings.BindGroup(), nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	b.surface.Present()
	return nil
}

func (b *wgpuTraceBackend) ResizeBuffer(kind BufferKind, width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return ErrReleased
	}
	return b.resizeBuffer(kind, width, height)
}

func (b *wgpuTraceBackend) resizeBuffer(kind BufferKind, width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("resize %s buffer to %dx%d: non-positive size", kind, width, height)
	}

	var (
		arg  shader.AnnotationArg
		size uint64
	)
	usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	switch kind {
	case OutputBuffer:
		arg = shader.AnnotationArgPackedColor
		size = uint64(width * height * packedColorSize)
		usage |= wgpu.BufferUsageCopySrc
	case AccumulationBuffer:
		arg = shader.AnnotationArgTexel
		size = uint64(width * height * texelSize)
	default:
		return fmt.Errorf("resize %s: unknown buffer", kind)
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("%s %s Buffer", b.traceBindings.Label(), kind),
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return fmt.Errorf("resize %s buffer to %dx%d: %w", kind, width, height, err)
	}
	b.traceBindings.SetBuffer(b.bindings[arg], buf, size)
	b.presentBindings.SetBindGroup(nil)

	switch kind {
	case OutputBuffer:
		b.outputW, b.outputH = width, height
		if b.surface != nil {
			b.configureSurface(width, height)
		}
	case AccumulationBuffer:
		b.accumW, b.accumH = width, height
	}
	glog.V(1).Infof("wgpu trace backend: %s buffer resized to %dx%d", kind, width, height)
	return nil
}

func (b *wgpuTraceBackend) ReadOutput() (*image.RGBA, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return nil, ErrReleased
	}
	size := uint64(b.outputW * b.outputH * packedColorSize)
	staging, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Output Staging Buffer",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Release()
	encoder.CopyBufferToBuffer(b.traceBindings.Buffer(b.bindings[shader.AnnotationArgPackedColor]), 0, staging, 0, size)
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	var (
		status wgpu.BufferMapAsyncStatus
		mapped bool
	)
	staging.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status, mapped = s, true
	})
	b.device.Poll(true, nil)
	if !mapped || status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("map staging buffer: status %d", status)
	}
	defer staging.Unmap()

	img := image.NewRGBA(image.Rect(0, 0, b.outputW, b.outputH))
	copy(img.Pix, staging.GetMappedRange(0, uint(size)))
	return img, nil
}

func (b *wgpuTraceBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release()
}

func (b *wgpuTraceBackend) release() {
	if b.released {
		return
	}
	b.released = true

	b.presentBindings.SetBindGroup(nil)
	b.traceBindings.Release()
	if b.presentPipeline != nil {
		b.presentPipeline.Release()
	}
	if b.tracePipeline != nil {
		b.tracePipeline.Release()
	}
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}
