package geometry

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCeilPow2(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"One", 1, 1},
		{"Two", 2, 2},
		{"Three", 3, 4},
		{"Exact 32", 32, 32},
		{"Just above 32", 33, 64},
		{"Large", 1000, 1024},
		{"Exact 32768", 32768, 32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CeilPow2(tt.n); got != tt.want {
				t.Errorf("CeilPow2(%d) = %d; want %d", tt.n, got, tt.want)
			}
		})
	}
}

func TestCeilPow2_IsSmallestPowerAbove(t *testing.T) {
	for c := 1; c <= 5000; c++ {
		n := CeilPow2(c)
		if !IsPow2(n) {
			t.Fatalf("CeilPow2(%d) = %d is not a power of two", c, n)
		}
		if n < c {
			t.Fatalf("CeilPow2(%d) = %d is below the request", c, n)
		}
		if n > 1 && n/2 >= c {
			t.Fatalf("CeilPow2(%d) = %d is not the smallest power of two", c, n)
		}
	}
}

func TestIsPow2(t *testing.T) {
	tests := []struct {
		n    int
		want bool
	}{
		{0, false}, {-4, false}, {1, true}, {6, false}, {64, true},
	}
	for _, tt := range tests {
		if got := IsPow2(tt.n); got != tt.want {
			t.Errorf("IsPow2(%d) = %v; want %v", tt.n, got, tt.want)
		}
	}
}

func TestSafeNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   mgl32.Vec3
		want mgl32.Vec3
	}{
		{"Zero vector", mgl32.Vec3{}, mgl32.Vec3{}},
		{"Axis", mgl32.Vec3{0, 5, 0}, mgl32.Vec3{0, 1, 0}},
		{"Diagonal", mgl32.Vec3{3, 0, 4}, mgl32.Vec3{0.6, 0, 0.8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeNormalize(tt.in); !Eq(got, tt.want, 1e-6) {
				t.Errorf("SafeNormalize(%v) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRandomInBox(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 0))
	extent := mgl32.Vec3{1, 2, 0.5}
	for i := 0; i < 10000; i++ {
		p := RandomInBox(r, extent)
		for c := 0; c < 3; c++ {
			if p[c] < -extent[c] || p[c] > extent[c] {
				t.Fatalf("component %d of %v escapes extent %v", c, p, extent)
			}
		}
	}
}

func TestRandomRotation_IsUnit(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 0))
	for i := 0; i < 1000; i++ {
		q := RandomRotation(r)
		if l := q.Len(); math.Abs(float64(l)-1) > 1e-5 {
			t.Fatalf("RandomRotation() length = %f; want 1", l)
		}
		h := q.Rotate(Forward)
		if l := h.Len(); math.Abs(float64(l)-1) > 1e-5 {
			t.Fatalf("rotated forward length = %f; want 1", l)
		}
	}
}

func TestSlerpDirection(t *testing.T) {
	tests := []struct {
		name string
		t    float32
		want mgl32.Vec3
	}{
		{"Start", 0, Up},
		{"End", 1, Forward},
		{"Halfway", 0.5, mgl32.Vec3{0, float32(math.Sqrt2 / 2), float32(math.Sqrt2 / 2)}},
		{"Clamped below", -0.7, Up},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SlerpDirection(Up, Forward, tt.t); !Eq(got, tt.want, 1e-5) {
				t.Errorf("SlerpDirection(Up, Forward, %v) = %v; want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestRotateAround(t *testing.T) {
	center := mgl32.Vec3{1, 0, 0}
	p := mgl32.Vec3{2, 0, 0}
	got := RotateAround(p, center, Up, float32(math.Pi/2))
	want := mgl32.Vec3{1, 0, -1}
	if !Eq(got, want, 1e-5) {
		t.Errorf("RotateAround() = %v; want %v", got, want)
	}
	if d := got.Sub(center).Len(); math.Abs(float64(d)-1) > 1e-5 {
		t.Errorf("RotateAround() changed the radius to %f", d)
	}
}
