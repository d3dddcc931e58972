package metadata

import (
	"path"
	"strings"
	"time"

	"github.com/cesargomez89/photodex/internal/constants"
	"github.com/cesargomez89/photodex/internal/domain"
)

// ToRecord builds the row stored for the image at p from its extracted
// metadata. The result is normalized.
func ToRecord(p string, md domain.Metadata) *domain.ImageRecord {
	r := &domain.ImageRecord{
		Path:     p,
		Filename: path.Base(p),
		Metadata: md,
	}

	if s, ok := md[KeyFileName].(string); ok && s != "" {
		r.Filename = s
	}
	if n, ok := toFloat(md[KeyFileSize]); ok {
		r.FileSize = int64(n)
	}
	if s, ok := md[KeyMimeType].(string); ok {
		r.MimeType = s
	}
	if s, ok := md[KeyLastModified].(string); ok {
		if t, err := time.Parse(constants.TimestampLayout, s); err == nil {
			r.LastModified = t
		}
	}

	r.DateTimeOriginal = CaptureTime(md)

	if t, ok := toTriple(md[KeyGPSLatitude]); ok {
		lat := domain.GPSTriple(t)
		r.GPSLatitude = &lat
	}
	if t, ok := toTriple(md[KeyGPSLongitude]); ok {
		lon := domain.GPSTriple(t)
		r.GPSLongitude = &lon
	}
	if !r.HasGPS() {
		r.GPSLatitude, r.GPSLongitude = nil, nil
	}
	if alt, ok := toFloat(md[KeyGPSAltitude]); ok {
		r.GPSAltitude = &alt
	}

	r.Normalize()
	return r
}

// CaptureTime returns DateTimeOriginal, or CreateDate when it is missing,
// converted to UTC using the recorded offset. A time without an offset is
// taken as UTC.
func CaptureTime(md domain.Metadata) *time.Time {
	candidates := []struct{ date, offset string }{
		{KeyDateTimeOriginal, KeyOffsetTimeOriginal},
		{KeyCreateDate, KeyOffsetTime},
	}
	for _, c := range candidates {
		s, ok := md[c.date].(string)
		if !ok {
			continue
		}
		offset, _ := md[c.offset].(string)
		if t, ok := parseExifTime(s, offset); ok {
			return &t
		}
	}
	return nil
}

func parseExifTime(s, offset string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(ExifDateLayout) {
		return time.Time{}, false
	}
	// Drop sub-second or zone suffixes some cameras append.
	base := s[:len(ExifDateLayout)]

	if offset = strings.TrimSpace(offset); offset != "" {
		if t, err := time.Parse(ExifDateLayout+"-07:00", base+offset); err == nil {
			return t.UTC(), true
		}
	}
	t, err := time.Parse(ExifDateLayout, base)
	if err != nil || t.Year() < 1800 {
		return time.Time{}, false
	}
	return t.UTC(), true
}
