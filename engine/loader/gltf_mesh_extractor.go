package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-whitted/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// meshBuilder accumulates triangles and materials while walking the node hierarchy.
type meshBuilder struct {
	l    *loader
	p    *gltfParser
	mesh *Mesh

	// materialIndex maps a glTF material index to its index in mesh.Materials.
	materialIndex map[int]uint32
	// defaultMaterial is the index used by primitives with no material, or -1 before first use.
	defaultMaterial int
}

func (l *loader) build(p *gltfParser) (*Mesh, error) {
	b := &meshBuilder{
		l:               l,
		p:               p,
		mesh:            &Mesh{},
		materialIndex:   make(map[int]uint32),
		defaultMaterial: -1,
	}
	doc := p.document

	roots, ok := sceneRoots(doc)
	if !ok {
		// No node hierarchy: every mesh is placed as is.
		for i := range doc.Meshes {
			if err := b.addMesh(i, l.transform); err != nil {
				return nil, err
			}
		}
		return b.mesh, nil
	}
	for _, n := range roots {
		if err := b.addNode(n, l.transform, 0); err != nil {
			return nil, err
		}
	}
	return b.mesh, nil
}

// sceneRoots returns the root nodes of the default scene, or every parentless node when the file
// declares no scenes. It reports false when the file has no nodes at all.
func sceneRoots(doc *gltfDocument) ([]int, bool) {
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			s = *doc.Scene
		}
		return doc.Scenes[s].Nodes, true
	}
	if len(doc.Nodes) == 0 {
		return nil, false
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots, true
}

func (b *meshBuilder) addNode(index int, parent mgl32.Mat4, depth int) error {
	doc := b.p.document
	if index < 0 || index >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", index)
	}
	if depth > len(doc.Nodes) {
		return fmt.Errorf("node %d: hierarchy contains a cycle", index)
	}

	node := &doc.Nodes[index]
	world := parent.Mul4(localTransform(node))
	if node.Mesh != nil {
		if err := b.addMesh(*node.Mesh, world); err != nil {
			return fmt.Errorf("node %d: %w", index, err)
		}
	}
	for _, c := range node.Children {
		if err := b.addNode(c, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// localTransform returns the node's matrix, or T·R·S from its components.
func localTransform(n *gltfNode) mgl32.Mat4 {
	if n.Matrix != nil {
		return mgl32.Mat4(*n.Matrix)
	}
	m := mgl32.Ident4()
	if n.Translation != nil {
		t := n.Translation
		m = m.Mul4(mgl32.Translate3D(t[0], t[1], t[2]))
	}
	if n.Rotation != nil {
		r := n.Rotation
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
		m = m.Mul4(q.Normalize().Mat4())
	}
	if n.Scale != nil {
		s := n.Scale
		m = m.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}
	return m
}

func (b *meshBuilder) addMesh(index int, world mgl32.Mat4) error {
	doc := b.p.document
	if index < 0 || index >= len(doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", index)
	}
	mesh := &doc.Meshes[index]
	for i := range mesh.Primitives {
		if err := b.addPrimitive(&mesh.Primitives[i], world); err != nil {
			return fmt.Errorf("mesh %d (%s) primitive %d: %w", index, mesh.Name, i, err)
		}
	}
	return nil
}

func (b *meshBuilder) addPrimitive(prim *gltfPrimitive, world mgl32.Mat4) error {
	mode := gltfPrimitiveModeTriangles
	if prim.Mode != nil {
		mode = *prim.Mode
	}
	if mode != gltfPrimitiveModeTriangles && mode != gltfPrimitiveModeTriangleStrip && mode != gltfPrimitiveModeTriangleFan {
		return fmt.Errorf("mode %d: %w", mode, ErrUnsupportedTopology)
	}

	posAccessor, ok := prim.Attributes[gltfAttributePosition]
	if !ok {
		return fmt.Errorf("missing %s attribute", gltfAttributePosition)
	}
	positions, err := b.p.ReadVec3Accessor(posAccessor)
	if err != nil {
		return err
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = b.p.ReadIndicesAccessor(*prim.Indices); err != nil {
			return err
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	triangles := triangulate(indices, mode)
	if len(b.mesh.Primitives)+len(triangles) > b.l.maxTriangles {
		return fmt.Errorf("%d triangles over a limit of %d: %w", len(b.mesh.Primitives)+len(triangles), b.l.maxTriangles, ErrTooManyTriangles)
	}

	material, err := b.material(prim.Material)
	if err != nil {
		return err
	}

	for _, tri := range triangles {
		var v [3]mgl32.Vec3
		for k, idx := range tri {
			if int(idx) >= len(positions) {
				return fmt.Errorf("index %d out of range of %d positions", idx, len(positions))
			}
			p := positions[idx]
			v[k] = mgl32.TransformCoordinate(mgl32.Vec3{p[0], p[1], p[2]}, world)
		}
		b.mesh.Primitives = append(b.mesh.Primitives, scene.NewTriangle(v[0], v[1], v[2], material))
	}
	return nil
}

// triangulate expands an index list into triangles for the given topology.
func triangulate(indices []uint32, mode int) [][3]uint32 {
	var out [][3]uint32
	switch mode {
	case gltfPrimitiveModeTriangleStrip:
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				out = append(out, [3]uint32{indices[i], indices[i+1], indices[i+2]})
			} else {
				out = append(out, [3]uint32{indices[i+1], indices[i], indices[i+2]})
			}
		}
	case gltfPrimitiveModeTriangleFan:
		for i := 1; i+1 < len(indices); i++ {
			out = append(out, [3]uint32{indices[0], indices[i], indices[i+1]})
		}
	default:
		for i := 0; i+2 < len(indices); i += 3 {
			out = append(out, [3]uint32{indices[i], indices[i+1], indices[i+2]})
		}
	}
	return out
}

// material returns the mesh material index for a glTF material reference, adding it on first use.
func (b *meshBuilder) material(ref *int) (uint32, error) {
	if b.l.material != nil {
		return b.defaultIndex(*b.l.material), nil
	}
	if ref == nil {
		return b.defaultIndex(phongFromGLTF(nil)), nil
	}

	if idx, ok := b.materialIndex[*ref]; ok {
		return idx, nil
	}
	doc := b.p.document
	if *ref < 0 || *ref >= len(doc.Materials) {
		return 0, fmt.Errorf("material index %d out of range", *ref)
	}
	idx := uint32(len(b.mesh.Materials))
	b.mesh.Materials = append(b.mesh.Materials, phongFromGLTF(&doc.Materials[*ref]))
	b.materialIndex[*ref] = idx
	return idx, nil
}

func (b *meshBuilder) defaultIndex(m scene.Material) uint32 {
	if b.defaultMaterial < 0 {
		b.defaultMaterial = len(b.mesh.Materials)
		b.mesh.Materials = append(b.mesh.Materials, m)
	}
	return uint32(b.defaultMaterial)
}

// phongFromGLTF maps metallic-roughness factors onto Phong terms: the base color drives the ambient
// and diffuse terms, smoothness drives the highlight, and smooth metals become mirrors.
// A nil material is the glTF default: white, fully metallic and fully rough.
func phongFromGLTF(m *gltfMaterial) scene.Material {
	base := mgl32.Vec3{1, 1, 1}
	metallic, roughness := float32(1), float32(1)
	if m != nil && m.PbrMetallicRoughness != nil {
		pbr := m.PbrMetallicRoughness
		if pbr.BaseColorFactor != nil {
			base = mgl32.Vec3{pbr.BaseColorFactor[0], pbr.BaseColorFactor[1], pbr.BaseColorFactor[2]}
		}
		if pbr.MetallicFactor != nil {
			metallic = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			roughness = *pbr.RoughnessFactor
		}
	}

	smooth := 1 - roughness
	specular := mgl32.Vec3{0.9, 0.9, 0.9}.Mul(smooth)
	return scene.Material{
		Kind: scene.MaterialPhong,
		Phong: scene.Phong{
			Ka:       base,
			Kd:       base,
			Ks:       specular,
			Kr:       base.Mul(metallic * smooth),
			Exponent: 8 + 120*smooth,
		},
	}
}
