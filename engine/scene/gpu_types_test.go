package scene

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestGPUTypeSizes(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		want   int
		source string
		decl   string
	}{
		{"primitive", (&GPUPrimitive{}).Size(), 80, GPUPrimitiveSource, "struct Primitive"},
		{"material", (&GPUMaterial{}).Size(), 240, GPUMaterialSource, "struct Material"},
		{"light", (&GPULight{}).Size(), 32, GPULightSource, "struct Light"},
		{"scene uniform", (&GPUSceneUniform{}).Size(), 48, GPUSceneUniformSource, "struct SceneUniform"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.size != tt.want {
				t.Errorf("Size() = %d, want %d", tt.size, tt.want)
			}
			if !strings.Contains(tt.source, tt.decl) {
				t.Errorf("WGSL source does not declare %q", tt.decl)
			}
		})
	}
}

func TestMarshalPrimitive(t *testing.T) {
	g := NewGPUPrimitive(NewSphere(mgl32.Vec3{7, 1.5, -2.5}, 1, 3))
	buf := g.Marshal()
	if len(buf) != 80 {
		t.Fatalf("len(Marshal()) = %d, want 80", len(buf))
	}
	if got := binary.LittleEndian.Uint32(buf[0:]); got != uint32(PrimitiveSphere) {
		t.Errorf("kind = %d, want %d", got, PrimitiveSphere)
	}
	if got := binary.LittleEndian.Uint32(buf[4:]); got != 3 {
		t.Errorf("material = %d, want 3", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[16:])); got != 7 {
		t.Errorf("p0.x = %v, want 7", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[28:])); got != 1 {
		t.Errorf("radius = %v, want 1", got)
	}
}

func TestMarshalSceneBuffers(t *testing.T) {
	s := Whitted()
	if got, want := len(s.MarshalPrimitives()), 80*len(s.Primitives); got != want {
		t.Errorf("len(MarshalPrimitives()) = %d, want %d", got, want)
	}
	if got, want := len(s.MarshalMaterials()), 240*len(s.Materials); got != want {
		t.Errorf("len(MarshalMaterials()) = %d, want %d", got, want)
	}
	light := s.MarshalLights()
	if got := binary.LittleEndian.Uint32(light[12:]); got != 1 {
		t.Errorf("casts_shadow = %d, want 1", got)
	}

	empty := NewScene()
	if got := len(empty.MarshalLights()); got != 32 {
		t.Errorf("empty MarshalLights() length = %d, want one padded element", got)
	}

	u := NewGPUSceneUniform(s)
	buf := u.Marshal()
	if got := binary.LittleEndian.Uint32(buf[32:]); got != uint32(len(s.Primitives)) {
		t.Errorf("primitive_count = %d, want %d", got, len(s.Primitives))
	}
	if got := binary.LittleEndian.Uint32(buf[28:]); got != 10 {
		t.Errorf("max_depth = %d, want 10", got)
	}
}
