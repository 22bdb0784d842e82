package pipeline

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-whitted/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment shader entry points.
	PipelineTypeRender
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineType PipelineType
	pipelineKey  string

	vertexShader, fragmentShader, computeShader shader.Shader

	// renderPipeline is set once a render pipeline has been created on the device.
	renderPipeline *wgpu.RenderPipeline
	// computePipeline is set once a compute pipeline has been created on the device.
	computePipeline *wgpu.ComputePipeline
	// bindGroupLayouts are the GPU layouts the pipeline was created with, indexed by group.
	bindGroupLayouts []*wgpu.BindGroupLayout
}

// Pipeline describes a GPU pipeline, either a render pipeline (vertex + fragment shaders) or a
// compute pipeline (compute shader), together with the GPU objects created for it.
type Pipeline interface {
	// Type returns the type of the pipeline.
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline, used as its debug label.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified stage if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the stage of shader to retrieve
	//
	// Returns:
	//   - shader.Shader: the shader for the stage, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// BindGroupLayoutDescriptors returns the layout descriptors of every stage, merged by group.
	// Bindings declared by both the vertex and fragment stages get the union of their visibility.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// Pipeline returns the underlying pipeline object, either *wgpu.RenderPipeline or
	// *wgpu.ComputePipeline. The caller type asserts the result.
	//
	// Returns:
	//   - any: the underlying pipeline object
	Pipeline() any

	// BindGroupLayout returns the GPU layout created for group g, or nil.
	//
	// Parameters:
	//   - g: the bind group index
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout, or nil if none was created
	BindGroupLayout(g int) *wgpu.BindGroupLayout

	// SetRenderPipeline stores the created render pipeline.
	//
	// Parameters:
	//   - p: the WebGPU render pipeline
	SetRenderPipeline(p *wgpu.RenderPipeline)

	// SetComputePipeline stores the created compute pipeline.
	//
	// Parameters:
	//   - p: the WebGPU compute pipeline
	SetComputePipeline(p *wgpu.ComputePipeline)

	// SetBindGroupLayouts stores the GPU layouts the pipeline was created with.
	//
	// Parameters:
	//   - layouts: layouts indexed by group
	SetBindGroupLayouts(layouts []*wgpu.BindGroupLayout)

	// Release releases the GPU pipeline and layouts.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new Pipeline of the given type.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - pipelineType: the type of pipeline to create (render or compute)
//   - opts: functional options to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified type and configuration
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:  pipelineKey,
		pipelineType: pipelineType,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	case shader.ShaderTypeCompute:
		return p.computeShader
	default:
		return nil
	}
}

func (p *pipeline) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	if p.pipelineType == PipelineTypeCompute {
		if p.computeShader == nil {
			return map[int]wgpu.BindGroupLayoutDescriptor{}
		}
		return p.computeShader.BindGroupLayoutDescriptors()
	}
	var vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor
	if p.vertexShader != nil {
		vertex = p.vertexShader.BindGroupLayoutDescriptors()
	}
	if p.fragmentShader != nil {
		fragment = p.fragmentShader.BindGroupLayoutDescriptors()
	}
	return mergeBindGroupLayouts(vertex, fragment)
}

func (p *pipeline) Pipeline() any {
	switch p.pipelineType {
	case PipelineTypeRender:
		return p.renderPipeline
	case PipelineTypeCompute:
		return p.computePipeline
	default:
		return nil
	}
}

func (p *pipeline) BindGroupLayout(g int) *wgpu.BindGroupLayout {
	if g < 0 || g >= len(p.bindGroupLayouts) {
		return nil
	}
	return p.bindGroupLayouts[g]
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline) {
	p.computePipeline = cp
}

func (p *pipeline) SetBindGroupLayouts(layouts []*wgpu.BindGroupLayout) {
	p.bindGroupLayouts = layouts
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
	for _, l := range p.bindGroupLayouts {
		if l != nil {
			l.Release()
		}
	}
	p.bindGroupLayouts = nil
}

// mergeBindGroupLayouts merges vertex and fragment bind group layout descriptors into one set.
// Groups present in only one stage are taken as-is; shared bindings OR their visibility.
//
// Parameters:
//   - vertexLayouts: bind group layout descriptors from the vertex shader
//   - fragmentLayouts: bind group layout descriptors from the fragment shader
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func mergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)

	groupIndices := make(map[int]bool)
	for g := range vertexLayouts {
		groupIndices[g] = true
	}
	for g := range fragmentLayouts {
		groupIndices[g] = true
	}

	for g := range groupIndices {
		vDesc, hasV := vertexLayouts[g]
		fDesc, hasF := fragmentLayouts[g]

		switch {
		case hasV && !hasF:
			merged[g] = vDesc
		case hasF && !hasV:
			merged[g] = fDesc
		default:
			entryMap := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range vDesc.Entries {
				entryMap[e.Binding] = e
			}
			for _, e := range fDesc.Entries {
				if existing, ok := entryMap[e.Binding]; ok {
					existing.Visibility |= e.Visibility
					entryMap[e.Binding] = existing
				} else {
					entryMap[e.Binding] = e
				}
			}

			entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
			for _, e := range entryMap {
				entries = append(entries, e)
			}
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Binding < entries[j].Binding
			})

			merged[g] = wgpu.BindGroupLayoutDescriptor{
				Label:   vDesc.Label,
				Entries: entries,
			}
		}
	}

	return merged
}
