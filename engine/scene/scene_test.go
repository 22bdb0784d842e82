package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
)

func TestWhittedIsValid(t *testing.T) {
	s := Whitted()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	// 4 spheres, the floor, 2 boxes and 2 tetrahedra of 4 faces each.
	if got, want := len(s.Primitives), 15; got != want {
		t.Errorf("len(Primitives) = %d, want %d", got, want)
	}
	if got := len(s.Lights); got != 1 {
		t.Errorf("len(Lights) = %d, want 1", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		scene   *Scene
		wantErr bool
	}{
		{
			name:  "empty scene",
			scene: NewScene(),
		},
		{
			name:    "missing material",
			scene:   NewScene(WithPrimitives(NewSphere(mgl32.Vec3{}, 1, 0))),
			wantErr: true,
		},
		{
			name:    "zero depth",
			scene:   NewScene(WithMaxDepth(0)),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scene.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidScene) {
				t.Errorf("Validate() = %v, want ErrInvalidScene", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestTetrahedronFaces(t *testing.T) {
	const h = 2.3
	base := mgl32.Vec3{2, 0.05, 0.3}
	faces := Tetrahedron(h, base, 4)
	if len(faces) != 4 {
		t.Fatalf("len(Tetrahedron) = %d, want 4", len(faces))
	}

	apex := faces[1].P0
	if diff := cmp.Diff(mgl32.Vec3{2, 0.05 + h, 0.3}, apex, approx); diff != "" {
		t.Errorf("apex (-want +got):\n%s", diff)
	}
	for _, v := range []mgl32.Vec3{faces[0].P0, faces[0].P1, faces[0].P2} {
		if diff := cmp.Diff(base.Y(), v.Y(), approx); diff != "" {
			t.Errorf("base vertex %v off the base plane (-want +got):\n%s", v, diff)
		}
	}

	centroid := faces[0].P0.Add(faces[0].P1).Add(faces[0].P2).Add(apex).Mul(0.25)
	for i, f := range faces {
		if f.Material != 4 {
			t.Errorf("face %d material = %d, want 4", i, f.Material)
		}
		n := f.P1.Sub(f.P0).Cross(f.P2.Sub(f.P0))
		if n.Dot(f.P0.Sub(centroid)) <= 0 {
			t.Errorf("face %d normal points inward", i)
		}
	}
}

func TestWhittedGlassExtinction(t *testing.T) {
	s := Whitted()
	g := s.Materials[0].Glass
	// One unit of travel inside the glass keeps 83% of the light.
	got := float32(math.Exp(float64(g.Extinction.X())))
	if diff := cmp.Diff(float32(0.83), got, approx); diff != "" {
		t.Errorf("transmittance (-want +got):\n%s", diff)
	}
}
