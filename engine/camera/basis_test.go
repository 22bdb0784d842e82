package camera

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
)

func TestSolveBasisOrthogonal(t *testing.T) {
	tests := []struct {
		name               string
		eye, lookat, up    mgl32.Vec3
		fovDegrees, aspect float32
	}{
		{
			name:       "default viewer",
			eye:        mgl32.Vec3{8, 2, -4},
			lookat:     mgl32.Vec3{4, 2.3, -4},
			up:         mgl32.Vec3{0, 1, 0},
			fovDegrees: 60,
			aspect:     1,
		},
		{
			name:       "wide viewport with unnormalized up",
			eye:        mgl32.Vec3{0, 10, 10},
			lookat:     mgl32.Vec3{1, 0, -3},
			up:         mgl32.Vec3{0, 7, 0},
			fovDegrees: 45,
			aspect:     1024.0 / 600.0,
		},
		{
			name:       "tilted up",
			eye:        mgl32.Vec3{-3, 1, 2},
			lookat:     mgl32.Vec3{5, 0.5, 0},
			up:         mgl32.Vec3{0.2, 1, 0.3},
			fovDegrees: 90,
			aspect:     0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := SolveBasis(tt.eye, tt.lookat, tt.up, mgl32.DegToRad(tt.fovDegrees), tt.aspect)
			if err != nil {
				t.Fatalf("SolveBasis: %v", err)
			}
			for name, dot := range map[string]float32{
				"U·V": b.U.Dot(b.V),
				"U·W": b.U.Dot(b.W),
				"V·W": b.V.Dot(b.W),
			} {
				if math.Abs(float64(dot)) > 1e-5 {
					t.Errorf("%s = %v, want 0", name, dot)
				}
			}

			vlen := math.Tan(float64(mgl32.DegToRad(tt.fovDegrees)) / 2)
			wantLens := map[string]float64{
				"|U|": vlen * float64(tt.aspect),
				"|V|": vlen,
				"|W|": 1,
			}
			gotLens := map[string]float64{
				"|U|": float64(b.U.Len()),
				"|V|": float64(b.V.Len()),
				"|W|": float64(b.W.Len()),
			}
			if diff := cmp.Diff(wantLens, gotLens, approx); diff != "" {
				t.Errorf("basis lengths (-want +got):\n%s", diff)
			}

			toward := tt.lookat.Sub(tt.eye).Normalize()
			if diff := cmp.Diff(toward, b.W, approx); diff != "" {
				t.Errorf("W does not point from eye to lookat (-want +got):\n%s", diff)
			}
			if b.V.Dot(tt.up) <= 0 {
				t.Errorf("V %v points away from up %v", b.V, tt.up)
			}
		})
	}
}

func TestSolveBasisDeterministic(t *testing.T) {
	eye := mgl32.Vec3{8, 2, -4}
	lookat := mgl32.Vec3{4, 2.3, -4}
	up := mgl32.Vec3{0, 1, 0}
	first, err := SolveBasis(eye, lookat, up, mgl32.DegToRad(60), 1.5)
	if err != nil {
		t.Fatalf("SolveBasis: %v", err)
	}
	second, err := SolveBasis(eye, lookat, up, mgl32.DegToRad(60), 1.5)
	if err != nil {
		t.Fatalf("SolveBasis: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated SolveBasis differs (-first +second):\n%s", diff)
	}
}

func TestSolveBasisDegenerate(t *testing.T) {
	tests := []struct {
		name            string
		eye, lookat, up mgl32.Vec3
	}{
		{
			name:   "eye equals lookat",
			eye:    mgl32.Vec3{1, 2, 3},
			lookat: mgl32.Vec3{1, 2, 3},
			up:     mgl32.Vec3{0, 1, 0},
		},
		{
			name:   "up parallel to view direction",
			eye:    mgl32.Vec3{0, 0, 0},
			lookat: mgl32.Vec3{0, 5, 0},
			up:     mgl32.Vec3{0, 1, 0},
		},
		{
			name:   "up antiparallel to view direction",
			eye:    mgl32.Vec3{0, 5, 0},
			lookat: mgl32.Vec3{0, 0, 0},
			up:     mgl32.Vec3{0, 2, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SolveBasis(tt.eye, tt.lookat, tt.up, mgl32.DegToRad(60), 1)
			if !errors.Is(err, ErrDegenerateCamera) {
				t.Errorf("SolveBasis error = %v, want ErrDegenerateCamera", err)
			}
		})
	}
}

func TestBasisRayDirection(t *testing.T) {
	b, err := SolveBasis(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.DegToRad(90), 2)
	if err != nil {
		t.Fatalf("SolveBasis: %v", err)
	}
	if diff := cmp.Diff(b.W, b.RayDirection(0, 0), approx); diff != "" {
		t.Errorf("center ray (-want +got):\n%s", diff)
	}
	// tan(45°) = 1, so the top-right corner ray is (2, 1, -1) before normalization.
	want := mgl32.Vec3{2, 1, -1}.Normalize()
	if diff := cmp.Diff(want, b.RayDirection(1, 1), approx); diff != "" {
		t.Errorf("corner ray (-want +got):\n%s", diff)
	}
}
