package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-whitted/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-5)

// triangleBuffer is three positions followed by three uint16 indices and two bytes of padding.
func triangleBuffer() []byte {
	var buf bytes.Buffer
	for _, v := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		binary.Write(&buf, binary.LittleEndian, math.Float32bits(v))
	}
	for _, i := range []uint16{0, 1, 2, 0} {
		binary.Write(&buf, binary.LittleEndian, i)
	}
	return buf.Bytes()
}

// triangleDocument returns a one-triangle glTF document. bufferURI is spliced in as the buffer's
// uri; nodes is the raw JSON of the nodes/scenes members, or empty for none.
func triangleDocument(bufferURI, nodes, mode string) string {
	uri := ""
	if bufferURI != "" {
		uri = fmt.Sprintf(`"uri": %q,`, bufferURI)
	}
	modeField := ""
	if mode != "" {
		modeField = `, "mode": ` + mode
	}
	return `{
		"asset": {"version": "2.0"},
		` + nodes + `
		"meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0` + modeField + `}]}],
		"materials": [{"pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 1], "roughnessFactor": 1}}],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
		],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6}
		],
		"buffers": [{` + uri + ` "byteLength": 44}]
	}`
}

func dataURI(b []byte) string {
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(b)
}

func vertices(prims []scene.Primitive) [][3]mgl32.Vec3 {
	out := make([][3]mgl32.Vec3, len(prims))
	for i, p := range prims {
		out[i] = [3]mgl32.Vec3{p.P0, p.P1, p.P2}
	}
	return out
}

const translatedNode = `"scene": 0, "scenes": [{"nodes": [0]}], "nodes": [{"mesh": 0, "translation": [1, 2, 3]}],`

func TestLoadReaderNodeTransform(t *testing.T) {
	doc := triangleDocument(dataURI(triangleBuffer()), translatedNode, "")
	m, err := NewLoader().LoadReader(strings.NewReader(doc), false)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}

	want := [][3]mgl32.Vec3{{{1, 2, 3}, {2, 2, 3}, {1, 3, 3}}}
	if diff := cmp.Diff(want, vertices(m.Primitives), approx); diff != "" {
		t.Errorf("triangles (-want +got):\n%s", diff)
	}
	if m.Primitives[0].Kind != scene.PrimitiveTriangle {
		t.Errorf("Kind = %v, want PrimitiveTriangle", m.Primitives[0].Kind)
	}
	if len(m.Materials) != 1 {
		t.Fatalf("got %d materials, want 1", len(m.Materials))
	}
	got := m.Materials[0].Phong
	wantPhong := scene.Phong{Ka: mgl32.Vec3{1, 0, 0}, Kd: mgl32.Vec3{1, 0, 0}, Exponent: 8}
	if diff := cmp.Diff(wantPhong, got, approx); diff != "" {
		t.Errorf("material (-want +got):\n%s", diff)
	}
}

func TestLoadReaderChildNodes(t *testing.T) {
	nodes := `"nodes": [
		{"children": [1], "scale": [2, 2, 2]},
		{"mesh": 0, "translation": [1, 0, 0]}
	],`
	doc := triangleDocument(dataURI(triangleBuffer()), nodes, "")
	m, err := NewLoader().LoadReader(strings.NewReader(doc), false)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	// Child translation is applied inside the parent's scale.
	want := [][3]mgl32.Vec3{{{2, 0, 0}, {4, 0, 0}, {2, 2, 0}}}
	if diff := cmp.Diff(want, vertices(m.Primitives), approx); diff != "" {
		t.Errorf("triangles (-want +got):\n%s", diff)
	}
}

func TestLoadReaderOptions(t *testing.T) {
	glass := scene.Material{Kind: scene.MaterialGlass, Glass: scene.Glass{RefractionIndex: 1.5}}
	l := NewLoader(
		WithTransform(mgl32.Scale3D(2, 2, 2)),
		WithMaterial(glass),
	)
	doc := triangleDocument(dataURI(triangleBuffer()), translatedNode, "")
	m, err := l.LoadReader(strings.NewReader(doc), false)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}

	want := [][3]mgl32.Vec3{{{2, 4, 6}, {4, 4, 6}, {2, 6, 6}}}
	if diff := cmp.Diff(want, vertices(m.Primitives), approx); diff != "" {
		t.Errorf("triangles (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]scene.Material{glass}, m.Materials); diff != "" {
		t.Errorf("materials (-want +got):\n%s", diff)
	}
}

func TestLoadReaderWithoutNodes(t *testing.T) {
	doc := triangleDocument(dataURI(triangleBuffer()), "", "")
	m, err := NewLoader().LoadReader(strings.NewReader(doc), false)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	want := [][3]mgl32.Vec3{{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}}
	if diff := cmp.Diff(want, vertices(m.Primitives), approx); diff != "" {
		t.Errorf("triangles (-want +got):\n%s", diff)
	}
}

func TestLoadReaderErrors(t *testing.T) {
	buf := dataURI(triangleBuffer())
	tests := []struct {
		name    string
		doc     string
		loader  Loader
		wantErr error
	}{
		{
			name:    "line topology",
			doc:     triangleDocument(buf, "", "1"),
			loader:  NewLoader(),
			wantErr: ErrUnsupportedTopology,
		},
		{
			name:    "triangle limit",
			doc:     triangleDocument(buf, "", ""),
			loader:  NewLoader(WithMaxTriangles(0)),
			wantErr: ErrTooManyTriangles,
		},
		{
			name:    "version",
			doc:     strings.Replace(triangleDocument(buf, "", ""), `"2.0"`, `"1.0"`, 1),
			loader:  NewLoader(),
			wantErr: errInvalidGLTFVersion,
		},
		{
			name:    "short buffer",
			doc:     triangleDocument(dataURI(triangleBuffer()[:40]), "", ""),
			loader:  NewLoader(),
			wantErr: errBufferSizeMismatch,
		},
		{
			name:    "accessor past its view",
			doc:     strings.Replace(triangleDocument(buf, "", ""), `"count": 3, "type": "VEC3"`, `"count": 4, "type": "VEC3"`, 1),
			loader:  NewLoader(),
			wantErr: errAccessorRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.loader.LoadReader(strings.NewReader(tt.doc), false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadReader error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadReaderGLB(t *testing.T) {
	doc := []byte(triangleDocument("", translatedNode, ""))
	for len(doc)%4 != 0 {
		doc = append(doc, ' ')
	}
	bin := triangleBuffer()

	var glb bytes.Buffer
	binary.Write(&glb, binary.LittleEndian, gltfGLBHeader{
		Magic:   gltfGLBMagic,
		Version: gltfGLBVersion,
		Length:  uint32(12 + 8 + len(doc) + 8 + len(bin)),
	})
	binary.Write(&glb, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(doc)), ChunkType: gltfGLBChunkJSON})
	glb.Write(doc)
	binary.Write(&glb, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN})
	glb.Write(bin)

	m, err := NewLoader().LoadReader(&glb, true)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	want := [][3]mgl32.Vec3{{{1, 2, 3}, {2, 2, 3}, {1, 3, 3}}}
	if diff := cmp.Diff(want, vertices(m.Primitives), approx); diff != "" {
		t.Errorf("triangles (-want +got):\n%s", diff)
	}
}

func TestLoadExternalBuffer(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tri.bin"), triangleBuffer(), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "tri.gltf")
	if err := os.WriteFile(path, []byte(triangleDocument("tri.bin", "", "")), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Primitives) != 1 {
		t.Errorf("got %d triangles, want 1", len(m.Primitives))
	}

	if _, err := NewLoader().LoadReader(strings.NewReader(triangleDocument("tri.bin", "", "")), false); err == nil {
		t.Error("LoadReader resolved an external buffer without a path")
	}
}

func TestTriangulate(t *testing.T) {
	indices := []uint32{0, 1, 2, 3, 4}
	tests := []struct {
		name string
		mode int
		want [][3]uint32
	}{
		{"list", gltfPrimitiveModeTriangles, [][3]uint32{{0, 1, 2}}},
		{"strip", gltfPrimitiveModeTriangleStrip, [][3]uint32{{0, 1, 2}, {2, 1, 3}, {2, 3, 4}}},
		{"fan", gltfPrimitiveModeTriangleFan, [][3]uint32{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, triangulate(indices, tt.mode)); diff != "" {
				t.Errorf("triangulate (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMeshAddTo(t *testing.T) {
	s := scene.Whitted()
	materials, primitives := len(s.Materials), len(s.Primitives)

	doc := triangleDocument(dataURI(triangleBuffer()), translatedNode, "")
	m, err := NewLoader().LoadReader(strings.NewReader(doc), false)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	m.AddTo(s)

	if len(s.Materials) != materials+1 || len(s.Primitives) != primitives+1 {
		t.Fatalf("scene has %d materials and %d primitives, want %d and %d",
			len(s.Materials), len(s.Primitives), materials+1, primitives+1)
	}
	if got := s.Primitives[primitives].Material; got != uint32(materials) {
		t.Errorf("appended triangle uses material %d, want %d", got, materials)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
