package geo

import (
	"math"
	"testing"
)

func TestDMSToDecimal(t *testing.T) {
	tests := []struct {
		name    string
		d, m, s float64
		want    float64
	}{
		{"zero", 0, 0, 0, 0},
		{"whole degrees", 45, 0, 0, 45},
		{"half degree", 10, 30, 0, 10.5},
		{"seconds", 0, 0, 36, 0.01},
		{"signed components", -33, -30, 0, -33.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DMSToDecimal(tt.d, tt.m, tt.s)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("DMSToDecimal(%v, %v, %v) = %v, want %v", tt.d, tt.m, tt.s, got, tt.want)
			}
		})
	}
}

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want, tolerance        float64
	}{
		{"same point", 51.5, -0.12, 51.5, -0.12, 0, 1e-9},
		{"London to Paris", 51.5074, -0.1278, 48.8566, 2.3522, 343.5, 1.0},
		{"one degree of latitude", 0, 0, 1, 0, 111.19, 0.01},
		{"antipodes", 0, 0, 0, 180, math.Pi * EarthRadiusKm, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineKm = %v, want %v ± %v", got, tt.want, tt.tolerance)
			}
		})
	}

	// Symmetric
	a := HaversineKm(10, 20, -30, 40)
	b := HaversineKm(-30, 40, 10, 20)
	if a != b {
		t.Errorf("Expected symmetric distance, got %v and %v", a, b)
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []Point{{0, 0}, {0, 10}, {10, 10}, {10, 0}}

	tests := []struct {
		name string
		p    Point
		ring []Point
		want bool
	}{
		{"center", Point{5, 5}, square, true},
		{"outside east", Point{5, 15}, square, false},
		{"outside south", Point{-1, 5}, square, false},
		{"degenerate ring", Point{0, 0}, square[:2], false},
		{"concave notch", Point{5, 5}, []Point{{0, 0}, {0, 10}, {10, 10}, {5, 5.5}, {10, 0}}, false},
		{"concave body", Point{2, 5}, []Point{{0, 0}, {0, 10}, {10, 10}, {5, 5.5}, {10, 0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInPolygon(tt.p, tt.ring); got != tt.want {
				t.Errorf("PointInPolygon(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestBBox_Contains(t *testing.T) {
	box := BBox{South: 40, West: -10, North: 50, East: 10}
	if !box.Contains(45, 0) {
		t.Error("Expected center to be inside")
	}
	if !box.Contains(40, -10) {
		t.Error("Expected corner to be inside")
	}
	if box.Contains(55, 0) || box.Contains(45, 20) {
		t.Error("Expected outside points to be excluded")
	}

	wrap := BBox{South: -20, West: 170, North: 20, East: -170}
	if !wrap.Contains(0, 175) || !wrap.Contains(0, -175) {
		t.Error("Expected antimeridian box to include both sides")
	}
	if wrap.Contains(0, 0) {
		t.Error("Expected antimeridian box to exclude the prime meridian")
	}
}
