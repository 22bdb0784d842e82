package shader

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader is compiled for.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex indicates a shader containing a @vertex entry point.
	ShaderTypeVertex

	// ShaderTypeFragment indicates a shader containing a @fragment entry point.
	ShaderTypeFragment
)

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	entryPoint                 string
	workGroupSize              [3]uint32
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	declarations               []Annotation
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader is a pre-processed WGSL shader stage with the metadata needed to build a pipeline:
// entry point, workgroup size and bind group layouts derived from its @oxy:group declarations.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used as its debug label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage this shader was built for.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader's stage.
	//
	// Returns:
	//   - string: the entry point name (e.g. "main")
	EntryPoint() string

	// WorkgroupSize returns the workgroup size dimensions for compute shaders and [0, 0, 0]
	// for the other stages.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// BindGroupLayoutDescriptors retrieves the layout descriptors derived from the shader's
	// group declarations, keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// Declarations returns the group annotations parsed from the shader source.
	//
	// Returns:
	//   - []Annotation: the group declarations in source order
	Declarations() []Annotation

	// Module returns the shader module descriptor built from the processed source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader pre-processes source and extracts the stage metadata.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage to compile the shader for
//   - source: the raw WGSL source, possibly containing @oxy: annotations
//
// Returns:
//   - Shader: the processed shader
//   - error: an error if pre-processing fails or the source has no entry point for the stage
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	pp := NewPreProcessor()
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}

	s := &shader{
		key:          key,
		source:       processed,
		shaderType:   shaderType,
		entryPoint:   parseEntryPoint(processed, shaderType),
		declarations: append([]Annotation(nil), pp.Declarations()...),
		module: &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: processed,
			},
		},
	}
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: no entry point for stage %d", key, shaderType)
	}

	var visibility wgpu.ShaderStage
	switch shaderType {
	case ShaderTypeVertex:
		visibility = wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		visibility = wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		visibility = wgpu.ShaderStageCompute
		s.workGroupSize = parseWorkgroupSize(processed)
	}
	s.bindGroupLayoutDescriptors = bindGroupLayouts(s.declarations, visibility)
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
