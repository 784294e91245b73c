package airquality

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	// A point is at zero distance from itself.
	if d := HaversineKm(34.05, -118.25, 34.05, -118.25); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}

	// Distance is symmetric.
	d1 := HaversineKm(34.05, -118.25, 40.71, -74.01)
	d2 := HaversineKm(40.71, -74.01, 34.05, -118.25)
	if math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("expected symmetric distance, got %v and %v", d1, d2)
	}

	// One degree of longitude at the equator is about 111.19 km.
	d := HaversineKm(0, 0, 0, 1)
	if math.Abs(d-111.19) > 0.05 {
		t.Fatalf("expected ~111.19 km for one equatorial degree, got %v", d)
	}
}

func TestPlanarDegrees(t *testing.T) {
	if d := planarDegrees(10, 20, 10, 20); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
	if d := planarDegrees(0, 0, 3, 4); math.Abs(d-5) > 1e-12 {
		t.Fatalf("expected 5 degrees, got %v", d)
	}
}
