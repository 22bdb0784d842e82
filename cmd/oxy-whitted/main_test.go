package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-whitted/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParseVec3(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		want    mgl32.Vec3
		wantErr bool
	}{
		{name: "valid", fields: []string{"1", "-2.5", "3e1"}, want: mgl32.Vec3{1, -2.5, 30}},
		{name: "too few", fields: []string{"1", "2"}, wantErr: true},
		{name: "not a number", fields: []string{"1", "y", "3"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVec3(tt.fields)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseVec3 error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseVec3 = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		name         string
		in           string
		wantW, wantH int
		wantErr      bool
	}{
		{name: "unset", in: ""},
		{name: "valid", in: "640x480", wantW: 640, wantH: 480},
		{name: "upper case separator", in: "1920X1080", wantW: 1920, wantH: 1080},
		{name: "missing separator", in: "640", wantErr: true},
		{name: "not a number", in: "640xabc", wantErr: true},
		{name: "negative", in: "-1x10", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := parseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSize error = %v, wantErr %v", err, tt.wantErr)
			}
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("parseSize = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestSizeLimits(t *testing.T) {
	minSize, maxSize = "320x240", "1280x720"
	t.Cleanup(func() { minSize, maxSize = "", "" })

	minW, minH, maxW, maxH, err := sizeLimits()
	if err != nil {
		t.Fatalf("sizeLimits: %v", err)
	}
	if diff := cmp.Diff([]int{320, 240, 1280, 720}, []int{minW, minH, maxW, maxH}); diff != "" {
		t.Errorf("sizeLimits (-want +got):\n%s", diff)
	}

	maxSize = "wide"
	if _, _, _, _, err := sizeLimits(); err == nil {
		t.Error("sizeLimits accepted a malformed --max-size")
	}
}

// A single triangle at the origin as an embedded glTF document.
const triangleGLTF = `{
	"asset": {"version": "2.0"},
	"meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
	"accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}],
	"bufferViews": [{"buffer": 0, "byteLength": 36}],
	"buffers": [{"byteLength": 36, "uri": "data:application/octet-stream;base64,AAAAAAAAAAAAAAAAAACAPwAAAAAAAAAAAAAAAAAAgD8AAAAA"}]
}`

func TestSceneWithMesh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.gltf")
	if err := os.WriteFile(path, []byte(triangleGLTF), 0o644); err != nil {
		t.Fatal(err)
	}

	meshPath, meshScale, meshOffset, meshTriangles = path, 2, []string{"1", "0", "0"}, 16
	t.Cleanup(func() {
		meshPath, meshScale, meshOffset, meshTriangles = "", 1, []string{"4", "1.5", "-4"}, 4096
	})

	s, err := sceneWithMesh()
	if err != nil {
		t.Fatalf("sceneWithMesh: %v", err)
	}
	base := scene.Whitted()
	if len(s.Primitives) != len(base.Primitives)+1 {
		t.Fatalf("got %d primitives, want %d", len(s.Primitives), len(base.Primitives)+1)
	}
	got := s.Primitives[len(s.Primitives)-1]
	want := scene.NewTriangle(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{3, 0, 0}, mgl32.Vec3{1, 2, 0}, uint32(len(base.Materials)))
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-5)); diff != "" {
		t.Errorf("mesh triangle (-want +got):\n%s", diff)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
