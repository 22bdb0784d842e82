// pre_processor.go implements the WGSL shader pre-processor. It scans shader source for
// @oxy: annotations, replaces them with generated WGSL declarations or injected struct
// source, and collects the declarations that pipeline creation turns into bind group layouts.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-whitted/engine/camera"
	"github.com/Carmen-Shannon/oxy-whitted/engine/scene"
)

// registryEntry pairs a WGSL struct source string with the WGSL type name used in generated
// declarations. Source is empty for plain element types.
type registryEntry struct {
	Source string
	Type   string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string

	// declarations accumulates group annotations during a Process call.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source code containing @oxy: annotations.
type PreProcessor interface {
	// Process replaces @oxy:include annotations with embedded struct source and @oxy:group
	// annotations with generated @group/@binding declarations. The declarations list is reset
	// at the start of each call.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if any annotation is malformed or references an unknown type
	Process(source string) (string, error)

	// Declarations returns the group annotations collected by the most recent Process call, in
	// source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the camera and scene GPU types registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgCamera:       {Source: camera.GPUCameraUniformSource, Type: "CameraUniform"},
			AnnotationArgSceneUniform: {Source: scene.GPUSceneUniformSource, Type: "SceneUniform"},
			AnnotationArgPrimitive:    {Source: scene.GPUPrimitiveSource, Type: "Primitive"},
			AnnotationArgMaterial:     {Source: scene.GPUMaterialSource, Type: "Material"},
			AnnotationArgLight:        {Source: scene.GPULightSource, Type: "Light"},
			AnnotationArgTexel:        {Type: "vec4<f32>"},
			AnnotationArgPackedColor:  {Type: "u32"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform:   "var<uniform>",
			annotationArgStorageTypeRead:      "var<storage, read>",
			annotationArgStorageTypeReadWrite: "var<storage, read_write>",
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry := p.structRegistry[a.Args[0]]
			if entry.Source == "" {
				return "", fmt.Errorf("line %d: %q has no struct source to include", i+1, a.Args[0])
			}
			out = append(out, entry.Source)
		case AnnotationTypeBindingGroup:
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			varName := string(a.Args[1])
			var wgslType string
			if inner, ok := strings.CutPrefix(string(a.Args[2]), "array<"); ok {
				inner = strings.TrimSuffix(inner, ">")
				wgslType = fmt.Sprintf("array<%s>", p.structRegistry[AnnotationArg(inner)].Type)
			} else {
				wgslType = p.structRegistry[a.Args[2]].Type
			}

			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", a.Group, a.Binding, addrSpace, varName, wgslType))
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
