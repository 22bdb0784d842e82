package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-5)

func TestArcballRotateSamePointIsIdentity(t *testing.T) {
	a := NewArcball()
	for _, p := range []mgl32.Vec2{
		{0.5, 0.5},
		{0.1, 0.9},
		{0.7, 0.3},
		{0, 0},
		{1, 1},
		{2, -1},
	} {
		got := a.Rotate(p, p)
		if diff := cmp.Diff(mgl32.Ident4(), got, approx); diff != "" {
			t.Errorf("Rotate(%v, %v) differs from identity (-want +got):\n%s", p, p, diff)
		}
	}
}

func TestArcballToSphere(t *testing.T) {
	a := NewArcball().(*arcballImpl)
	tests := []struct {
		name string
		in   mgl32.Vec2
		want mgl32.Vec3
	}{
		{
			name: "center maps to the pole",
			in:   mgl32.Vec2{0.5, 0.5},
			want: mgl32.Vec3{0, 0, 1},
		},
		{
			name: "window y grows downward",
			in:   mgl32.Vec2{0.5, 0.5 - 0.225},
			want: mgl32.Vec3{0, 0.5, float32(math.Sqrt(0.75))},
		},
		{
			name: "outside the disk projects onto the boundary",
			in:   mgl32.Vec2{0.5 + 0.9, 0.5},
			want: mgl32.Vec3{1, 0, 0},
		},
		{
			name: "corner projects onto the boundary",
			in:   mgl32.Vec2{0, 1},
			want: mgl32.Vec3{-float32(math.Sqrt2) / 2, -float32(math.Sqrt2) / 2, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.toSphere(tt.in)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("toSphere(%v) (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestArcballRotateIsRigidRotation(t *testing.T) {
	a := NewArcball().(*arcballImpl)
	from := mgl32.Vec2{0.35, 0.42}
	to := mgl32.Vec2{0.61, 0.55}

	m := a.Rotate(from, to)

	if diff := cmp.Diff(mgl32.Ident4(), m.Mul4(m.Transpose()), approx); diff != "" {
		t.Errorf("rotation is not orthonormal (-want +got):\n%s", diff)
	}
	if det := m.Det(); math.Abs(float64(det)-1) > 1e-5 {
		t.Errorf("rotation determinant = %v, want 1", det)
	}

	axis := a.toSphere(from).Cross(a.toSphere(to)).Normalize()
	got := m.Mul4x1(axis.Vec4(0)).Vec3()
	if diff := cmp.Diff(axis, got, approx); diff != "" {
		t.Errorf("rotation moved its own axis (-want +got):\n%s", diff)
	}
}

func TestArcballOptions(t *testing.T) {
	a := NewArcball(WithCenter(0.25, 0.75), WithRadius(0.2), WithRadius(-1))
	if diff := cmp.Diff(mgl32.Vec2{0.25, 0.75}, a.Center()); diff != "" {
		t.Errorf("Center() (-want +got):\n%s", diff)
	}
	if got := a.Radius(); got != 0.2 {
		t.Errorf("Radius() = %v, want 0.2", got)
	}
}
