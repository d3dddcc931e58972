package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"
	"time"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"

	"github.com/cesargomez89/photodex/internal/domain"
	"github.com/cesargomez89/photodex/internal/library"
)

func TestInterpret_AllowListAndAliases(t *testing.T) {
	raw := map[string]any{
		"Make":              "Canon\x00",
		"Model":             "EOS R5",
		"ISOSpeedRatings":   []uint16{400},
		"FNumber":           []exifcommon.Rational{{Numerator: 28, Denominator: 10}},
		"ExposureTime":      []exifcommon.Rational{{Numerator: 1, Denominator: 250}},
		"ExposureBiasValue": []exifcommon.SignedRational{{Numerator: -1, Denominator: 3}},
		"PixelXDimension":   []uint32{6000},
		"ImageWidth":        []uint32{8192},
		"DateTimeDigitized": "2023:07:14 09:30:00",
		"MakerNote":         []byte{1, 2, 3},
		"Unknown":           "dropped",
		"Artist":            "   ",
	}

	got := Interpret(raw)

	want := domain.Metadata{
		KeyMake:              "Canon",
		KeyModel:             "EOS R5",
		KeyISO:               float64(400),
		KeyFNumber:           2.8,
		KeyExposureTime:      1.0 / 250,
		KeyExposureBiasValue: -1.0 / 3,
		KeyImageWidth:        float64(8192),
		KeyCreateDate:        "2023:07:14 09:30:00",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Interpret =\n  %v\nwant\n  %v", got, want)
	}
}

func TestInterpret_GPS(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		wantLat []float64
		wantLon []float64
		wantAlt any
	}{
		{
			name: "north east rationals",
			raw: map[string]any{
				"GPSLatitudeRef":  "N",
				"GPSLatitude":     []exifcommon.Rational{{Numerator: 52, Denominator: 1}, {Numerator: 31, Denominator: 1}, {Numerator: 1234, Denominator: 100}},
				"GPSLongitudeRef": "E",
				"GPSLongitude":    []exifcommon.Rational{{Numerator: 13, Denominator: 1}, {Numerator: 24, Denominator: 1}, {Numerator: 0, Denominator: 1}},
				"GPSAltitude":     []exifcommon.Rational{{Numerator: 345, Denominator: 10}},
			},
			wantLat: []float64{52, 31, 12.34},
			wantLon: []float64{13, 24, 0},
			wantAlt: 34.5,
		},
		{
			name: "south west sign on every component",
			raw: map[string]any{
				"GPSLatitudeRef":  "S",
				"GPSLatitude":     []exifcommon.Rational{{Numerator: 33, Denominator: 1}, {Numerator: 52, Denominator: 1}, {Numerator: 12, Denominator: 1}},
				"GPSLongitudeRef": "W",
				"GPSLongitude":    []exifcommon.Rational{{Numerator: 70, Denominator: 1}, {Numerator: 40, Denominator: 1}, {Numerator: 30, Denominator: 1}},
				"GPSAltitude":     []exifcommon.Rational{{Numerator: 10, Denominator: 1}},
				"GPSAltitudeRef":  []byte{1},
			},
			wantLat: []float64{-33, -52, -12},
			wantLon: []float64{-70, -40, -30},
			wantAlt: -10.0,
		},
		{
			name: "signed decimal is not negated twice",
			raw: map[string]any{
				"GPSLatitudeRef":  "South",
				"GPSLatitude":     "-33.5",
				"GPSLongitudeRef": "East",
				"GPSLongitude":    float64(151.25),
			},
			wantLat: []float64{-33, -30, 0},
			wantLon: []float64{151, 15, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interpret(tt.raw)
			if !reflect.DeepEqual(got[KeyGPSLatitude], tt.wantLat) {
				t.Errorf("GPSLatitude = %v, want %v", got[KeyGPSLatitude], tt.wantLat)
			}
			if !reflect.DeepEqual(got[KeyGPSLongitude], tt.wantLon) {
				t.Errorf("GPSLongitude = %v, want %v", got[KeyGPSLongitude], tt.wantLon)
			}
			if tt.wantAlt != nil && got[KeyGPSAltitude] != tt.wantAlt {
				t.Errorf("GPSAltitude = %v, want %v", got[KeyGPSAltitude], tt.wantAlt)
			}
		})
	}
}

func TestInterpret_GPSTimeStamp(t *testing.T) {
	got := Interpret(map[string]any{
		"GPSTimeStamp": []exifcommon.Rational{{Numerator: 14, Denominator: 1}, {Numerator: 5, Denominator: 1}, {Numerator: 9, Denominator: 1}},
	})
	if got[KeyGPSTimeStamp] != "14:05:09" {
		t.Errorf("GPSTimeStamp = %v, want 14:05:09", got[KeyGPSTimeStamp])
	}
}

func TestInterpret_Deterministic(t *testing.T) {
	raw := map[string]any{
		"ImageLength":     []uint32{100},
		"PixelYDimension": []uint32{200},
		"ExifImageHeight": float64(300),
	}
	first := Interpret(raw)
	for i := 0; i < 20; i++ {
		if got := Interpret(raw); !reflect.DeepEqual(got, first) {
			t.Fatalf("Interpret not deterministic: %v vs %v", got, first)
		}
	}
}

func TestToRecord(t *testing.T) {
	md := domain.Metadata{
		KeyFileName:           "IMG_0001.jpg",
		KeyFileSize:           float64(2048),
		KeyMimeType:           "image/jpeg",
		KeyLastModified:       "2024-01-02T03:04:05.000Z",
		KeyDateTimeOriginal:   "2023:06:01 12:00:00",
		KeyOffsetTimeOriginal: "+02:00",
		KeyGPSLatitude:        []float64{-33, -52, -12},
		KeyGPSLongitude:       []float64{151, 12, 36},
		KeyGPSAltitude:        12.5,
	}

	r := ToRecord("2023/trip/IMG_0001.jpg", md)

	if r.Path != "2023/trip/IMG_0001.jpg" || r.Filename != "IMG_0001.jpg" {
		t.Errorf("Unexpected path/filename: %s %s", r.Path, r.Filename)
	}
	if r.FileSize != 2048 || r.MimeType != "image/jpeg" {
		t.Errorf("Unexpected file facts: %d %s", r.FileSize, r.MimeType)
	}
	if !r.LastModified.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("Unexpected LastModified: %v", r.LastModified)
	}
	want := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	if r.DateTimeOriginal == nil || !r.DateTimeOriginal.Equal(want) {
		t.Errorf("DateTimeOriginal = %v, want %v", r.DateTimeOriginal, want)
	}
	if r.GPSLatitude == nil || *r.GPSLatitude != (domain.GPSTriple{-33, -52, -12}) {
		t.Errorf("Unexpected GPSLatitude: %v", r.GPSLatitude)
	}
	if r.GPSAltitude == nil || *r.GPSAltitude != 12.5 {
		t.Errorf("Unexpected GPSAltitude: %v", r.GPSAltitude)
	}

	// Survives a JSON round trip, as after loading from the database.
	b, _ := json.Marshal(md)
	var back domain.Metadata
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	r2 := ToRecord("2023/trip/IMG_0001.jpg", back)
	if *r2.GPSLatitude != *r.GPSLatitude || r2.FileSize != r.FileSize {
		t.Errorf("Record differs after JSON round trip: %+v vs %+v", r2, r)
	}
}

func TestToRecord_FallsBackToLastModified(t *testing.T) {
	md := domain.Metadata{
		KeyLastModified:     "2024-01-02T03:04:05.000Z",
		KeyDateTimeOriginal: "0000:00:00 00:00:00",
		KeyGPSLatitude:      []float64{1, 2, 3},
	}
	r := ToRecord("a.jpg", md)

	if r.DateTimeOriginal == nil || !r.DateTimeOriginal.Equal(r.LastModified) {
		t.Errorf("Expected capture time to fall back to LastModified, got %v", r.DateTimeOriginal)
	}
	if r.HasGPS() {
		t.Error("Expected half a coordinate to be dropped")
	}
	if r.Filename != "a.jpg" {
		t.Errorf("Expected filename from path, got %s", r.Filename)
	}
}

func TestCaptureTime(t *testing.T) {
	tests := []struct {
		name string
		md   domain.Metadata
		want *time.Time
	}{
		{"missing", domain.Metadata{}, nil},
		{"no offset", domain.Metadata{KeyDateTimeOriginal: "2020:02:29 23:59:59"}, ptr(time.Date(2020, 2, 29, 23, 59, 59, 0, time.UTC))},
		{"sub-second suffix", domain.Metadata{KeyDateTimeOriginal: "2020:02:29 23:59:59.123"}, ptr(time.Date(2020, 2, 29, 23, 59, 59, 0, time.UTC))},
		{"create date fallback", domain.Metadata{KeyCreateDate: "2019:01:01 00:00:00", KeyOffsetTime: "-05:00"}, ptr(time.Date(2019, 1, 1, 5, 0, 0, 0, time.UTC))},
		{"garbage", domain.Metadata{KeyDateTimeOriginal: "yesterday"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CaptureTime(tt.md)
			if (got == nil) != (tt.want == nil) || (got != nil && !got.Equal(*tt.want)) {
				t.Errorf("CaptureTime = %v, want %v", got, tt.want)
			}
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }

// buildExif encodes a minimal IFD0 block the way go-exif writes it.
func buildExif(t *testing.T) []byte {
	t.Helper()
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		t.Fatal(err)
	}
	ti := exif.NewTagIndex()
	ib := exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.TestDefaultByteOrder)
	if err := ib.AddStandardWithName("Make", "Fujifilm"); err != nil {
		t.Fatal(err)
	}
	if err := ib.AddStandardWithName("Model", "X-T4"); err != nil {
		t.Fatal(err)
	}
	if err := ib.AddStandardWithName("DateTime", "2022:12:24 18:00:00"); err != nil {
		t.Fatal(err)
	}

	data, err := exif.NewIfdByteEncoder().EncodeToExif(ib)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestExifExtractor(t *testing.T) {
	jpegHead := []byte{0xFF, 0xD8, 0xFF, 0xE1}
	fsys := fstest.MapFS{
		"with-exif.jpg": {Data: append(append([]byte{}, jpegHead...), buildExif(t)...), ModTime: time.Date(2024, 5, 5, 5, 5, 5, 0, time.UTC)},
		"plain.png":     {Data: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), ModTime: time.Date(2024, 5, 5, 5, 5, 5, 0, time.UTC)},
	}

	x := NewExifExtractor()

	md, err := x.Extract(context.Background(), fsys, "with-exif.jpg")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if md[KeyMake] != "Fujifilm" || md[KeyModel] != "X-T4" {
		t.Errorf("Unexpected camera: %v %v", md[KeyMake], md[KeyModel])
	}
	if md[KeyModifyDate] != "2022:12:24 18:00:00" {
		t.Errorf("Expected DateTime aliased to ModifyDate, got %v", md[KeyModifyDate])
	}
	if md[KeyFileName] != "with-exif.jpg" || md[KeyMimeType] != "image/jpeg" {
		t.Errorf("Unexpected file facts: %v", md)
	}

	md, err = x.Extract(context.Background(), fsys, "plain.png")
	if err != nil {
		t.Fatalf("Extract without EXIF failed: %v", err)
	}
	if md[KeyMimeType] != "image/png" {
		t.Errorf("Expected image/png, got %v", md[KeyMimeType])
	}
	if md[KeyLastModified] != "2024-05-05T05:05:05.000Z" {
		t.Errorf("Unexpected lastModified: %v", md[KeyLastModified])
	}
	if len(md) != 4 {
		t.Errorf("Expected file facts only, got %v", md)
	}

	_, err = x.Extract(context.Background(), fsys, "missing.jpg")
	var ee *domain.ExtractionError
	if !errors.As(err, &ee) || ee.Path != "missing.jpg" {
		t.Errorf("Expected ExtractionError for missing file, got %v", err)
	}
}

func TestExifExtractor_ExifPastSniffWindow(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	data = append(data, make([]byte, 4*sniffBytes)...)
	data = append(data, buildExif(t)...)
	fsys := fstest.MapFS{
		"late.jpg": {Data: data, ModTime: time.Date(2024, 5, 5, 5, 5, 5, 0, time.UTC)},
	}

	md, err := NewExifExtractor().Extract(context.Background(), fsys, "late.jpg")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if md[KeyMake] != "Fujifilm" {
		t.Errorf("Expected EXIF found past the sniff window, got %v", md[KeyMake])
	}
	if md[KeyMimeType] != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %v", md[KeyMimeType])
	}
	if md[KeyFileSize] != float64(len(data)) {
		t.Errorf("Expected file size %d, got %v", len(data), md[KeyFileSize])
	}
}

func TestReadHead_Limited(t *testing.T) {
	fsys := fstest.MapFS{"big.bin": {Data: make([]byte, 3*sniffBytes)}}

	head, err := readHead(fsys, "big.bin", sniffBytes)
	if err != nil {
		t.Fatalf("readHead failed: %v", err)
	}
	if len(head) != sniffBytes {
		t.Errorf("Expected %d bytes, got %d", sniffBytes, len(head))
	}
}

func TestExiftoolExtractor_NeedsDisk(t *testing.T) {
	x := &ExiftoolExtractor{}
	_, err := x.Extract(context.Background(), fstest.MapFS{"a.jpg": {Data: []byte("x")}}, "a.jpg")
	var ee *domain.ExtractionError
	if !errors.As(err, &ee) {
		t.Errorf("Expected ExtractionError without an on-disk library, got %v", err)
	}
}

func TestExiftoolExtractor(t *testing.T) {
	x, err := NewExiftoolExtractor()
	if err != nil {
		t.Skipf("exiftool not available: %v", err)
	}
	defer x.Close()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.png"), []byte("\x89PNG\r\n\x1a\n"), 0644); err != nil {
		t.Fatal(err)
	}

	md, err := x.Extract(context.Background(), library.NewDirFS(root), "a.png")
	if err != nil {
		var ee *domain.ExtractionError
		if !errors.As(err, &ee) {
			t.Fatalf("Expected ExtractionError, got %v", err)
		}
		return
	}
	if md[KeyMimeType] != "image/png" || md[KeyFileName] != "a.png" {
		t.Errorf("Unexpected file facts: %v", md)
	}
}

func TestIsKnown(t *testing.T) {
	for _, k := range []string{KeyMake, KeyGPSLatitude, KeyFileName, KeyLastModified} {
		if !IsKnown(k) {
			t.Errorf("Expected %s to be known", k)
		}
	}
	if IsKnown("MakerNote") {
		t.Error("Expected MakerNote to be unknown")
	}
}
