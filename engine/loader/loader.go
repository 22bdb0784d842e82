// Package loader reads triangle meshes from glTF 2.0 files and turns them into scene primitives.
// Only geometry and base material factors are read; textures, skins and animations are ignored.
package loader

import (
	"errors"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-whitted/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/glog"
)

var (
	// ErrTooManyTriangles is returned when a file holds more triangles than the loader's limit.
	ErrTooManyTriangles = errors.New("mesh exceeds the triangle limit")
	// ErrUnsupportedTopology is returned for point and line primitives.
	ErrUnsupportedTopology = errors.New("unsupported primitive topology")
)

// Mesh is loaded geometry ready to be appended to a scene.
type Mesh struct {
	// Materials are indexed by the Material field of Primitives.
	Materials []scene.Material
	// Primitives are all PrimitiveTriangle, in world space.
	Primitives []scene.Primitive
}

// AddTo appends the mesh's materials and triangles to s, rebasing material indices.
//
// Parameters:
//   - s: the scene to extend
func (m *Mesh) AddTo(s *scene.Scene) {
	base := uint32(len(s.Materials))
	s.Materials = append(s.Materials, m.Materials...)
	for _, p := range m.Primitives {
		p.Material += base
		s.Primitives = append(s.Primitives, p)
	}
}

// Loader reads glTF and GLB files.
type Loader interface {
	// Load reads a .gltf or .glb file. Relative buffer URIs resolve against the file's directory.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - *Mesh: every triangle reachable from the default scene
	//   - error: a parse error, ErrUnsupportedTopology or ErrTooManyTriangles
	Load(path string) (*Mesh, error)

	// LoadReader reads a document from r. Buffers must be embedded (GLB or data URIs).
	//
	// Parameters:
	//   - r: the document bytes
	//   - isGLB: true for binary glTF
	//
	// Returns:
	//   - *Mesh: every triangle reachable from the default scene
	//   - error: a parse error, ErrUnsupportedTopology or ErrTooManyTriangles
	LoadReader(r io.Reader, isGLB bool) (*Mesh, error)
}

type loader struct {
	transform    mgl32.Mat4
	material     *scene.Material
	maxTriangles int
}

var _ Loader = &loader{}

// NewLoader creates a Loader. Without options meshes keep their file coordinates, use materials
// derived from their glTF base colors, and are limited to 4096 triangles.
//
// Parameters:
//   - options: functional options to configure the loader
//
// Returns:
//   - Loader: the configured loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		transform:    mgl32.Ident4(),
		maxTriangles: 4096,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *loader) Load(path string) (*Mesh, error) {
	p := newGLTFParser()
	if err := p.Parse(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	m, err := l.build(p)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	glog.Infof("loaded %d triangles and %d materials from %s", len(m.Primitives), len(m.Materials), path)
	return m, nil
}

func (l *loader) LoadReader(r io.Reader, isGLB bool) (*Mesh, error) {
	p := newGLTFParser()
	if err := p.ParseReader(r, isGLB); err != nil {
		return nil, err
	}
	return l.build(p)
}
