package interp

import (
	"math"
	"testing"
)

func TestEaseInOutCubicShape(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-1, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{2, 1},
	}
	for _, c := range cases {
		if got := easeInOutCubic(c.in); math.Abs(got-c.want) > 1e-12 {
			t.Fatalf("ease(%v) = %v, want %v", c.in, got, c.want)
		}
	}

	// ease-in lags linear in the first half, leads in the second
	if easeInOutCubic(0.1) >= 0.1 {
		t.Fatal("expected ease-in to trail linear near 0")
	}
	if easeInOutCubic(0.9) <= 0.9 {
		t.Fatal("expected ease-out to lead linear near 1")
	}

	prev := -1.0
	for p := 0.0; p <= 1.0; p += 0.01 {
		v := easeInOutCubic(p)
		if v < prev {
			t.Fatalf("easing not monotonic at p=%v", p)
		}
		prev = v
	}
}

func TestBearingDegrees(t *testing.T) {
	cases := []struct {
		name                           string
		fromLat, fromLng, toLat, toLng float64
		want                           float64
	}{
		{"due north", 0, 0, 1, 0, 0},
		{"due east on equator", 0, 0, 0, 1, 90},
		{"due south", 1, 0, 0, 0, 180},
		{"due west on equator", 0, 1, 0, 0, 270},
		{"identical points", 10, 10, 10, 10, 0},
	}
	for _, c := range cases {
		got := bearingDegrees(c.fromLat, c.fromLng, c.toLat, c.toLng)
		if math.Abs(got-c.want) > 0.01 {
			t.Fatalf("%s: bearing = %v, want %v", c.name, got, c.want)
		}
		if got < 0 || got >= 360 {
			t.Fatalf("%s: bearing %v outside [0,360)", c.name, got)
		}
	}
}
