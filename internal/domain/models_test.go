package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestGPSTriple_RoundTrip(t *testing.T) {
	tests := []GPSTriple{
		{0, 0, 0},
		{52, 31, 12.345678},
		{-33, -51, -54.123},
		{90, 0, 0},
		{-90, 59, 59.999999999},
		{48, 51, 29.6 / 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt), func(t *testing.T) {
			v, err := tt.Value()
			if err != nil {
				t.Fatalf("Value failed: %v", err)
			}

			var got GPSTriple
			if err := got.Scan(v); err != nil {
				t.Fatalf("Scan failed: %v", err)
			}
			if got != tt {
				t.Errorf("round trip = %v, want %v", got, tt)
			}
			if got.Decimal() != tt[0]+tt[1]/60+tt[2]/3600 {
				t.Errorf("Decimal() = %v, want %v", got.Decimal(), tt[0]+tt[1]/60+tt[2]/3600)
			}
		})
	}
}

func TestGPSTriple_ScanRejectsBadInput(t *testing.T) {
	var g GPSTriple
	if err := g.Scan("[1,2]"); err == nil {
		t.Error("Expected error for two-component triple")
	}
	if err := g.Scan("not json"); err == nil {
		t.Error("Expected error for malformed text")
	}
	if err := g.Scan(42); err == nil {
		t.Error("Expected error for integer value")
	}
}

func TestNullGPSTriple(t *testing.T) {
	var n NullGPSTriple
	if err := n.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if n.Valid || n.Ptr() != nil {
		t.Error("Expected NULL triple to be invalid")
	}

	v, err := n.Value()
	if err != nil || v != nil {
		t.Errorf("Value() = %v, %v; want nil, nil", v, err)
	}

	if err := n.Scan([]byte("[1,2,3]")); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if !n.Valid || *n.Ptr() != (GPSTriple{1, 2, 3}) {
		t.Errorf("Expected valid triple [1 2 3], got %+v", n)
	}
}

func TestMetadata_ValueScan(t *testing.T) {
	m := Metadata{"Make": "Canon", "ISO": float64(200)}
	v, err := m.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var got Metadata
	if err := got.Scan(v); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if got["Make"] != "Canon" || got["ISO"] != float64(200) {
		t.Errorf("Unexpected metadata after scan: %v", got)
	}

	var nilMeta Metadata
	v, _ = nilMeta.Value()
	if v != "{}" {
		t.Errorf("nil Metadata Value() = %v, want {}", v)
	}

	if err := got.Scan("null"); err != nil || got != nil {
		t.Errorf("Scan(null) = %v, %v; want nil map", got, err)
	}
}

func TestImageRecord_Normalize(t *testing.T) {
	mod := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	r := &ImageRecord{LastModified: mod, FileSize: -1}
	r.Normalize()

	if r.DateTimeOriginal == nil || !r.DateTimeOriginal.Equal(mod) {
		t.Errorf("Expected DateTimeOriginal to fall back to LastModified, got %v", r.DateTimeOriginal)
	}
	if r.FileSize != 0 {
		t.Errorf("Expected negative size to clamp to 0, got %d", r.FileSize)
	}

	taken := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	r = &ImageRecord{LastModified: mod, DateTimeOriginal: &taken}
	r.Normalize()
	if !r.DateTimeOriginal.Equal(taken) {
		t.Errorf("Expected DateTimeOriginal to be kept, got %v", r.DateTimeOriginal)
	}
}

func TestImageRecord_Coordinates(t *testing.T) {
	r := &ImageRecord{}
	if _, _, ok := r.Coordinates(); ok {
		t.Error("Expected no coordinates without GPS")
	}

	r.GPSLatitude = &GPSTriple{-33, -52, -12}
	r.GPSLongitude = &GPSTriple{151, 12, 36}
	lat, lon, ok := r.Coordinates()
	if !ok {
		t.Fatal("Expected coordinates")
	}
	if lat >= -33.8 || lat <= -33.9 {
		t.Errorf("lat = %v, want about -33.87", lat)
	}
	if lon <= 151.2 || lon >= 151.22 {
		t.Errorf("lon = %v, want about 151.21", lon)
	}
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
	}{
		{"extraction", &ExtractionError{Path: "a.jpg", Err: cause}},
		{"storage", &StorageError{Op: "exec", Err: cause}},
		{"enumeration", &EnumerationError{Path: "dir", Err: cause}},
		{"worker", &WorkerError{WorkerID: 2, Err: cause}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, cause) {
				t.Errorf("errors.Is(%v, cause) = false", tt.err)
			}
			if tt.err.Error() == "" {
				t.Error("Expected non-empty message")
			}
		})
	}
}
