package domain

import (
	"time"
)

// ImageRecord is one indexed photo file.
type ImageRecord struct {
	ID               int64      `json:"id"`
	Path             string     `json:"path"`
	Filename         string     `json:"filename"`
	FileSize         int64      `json:"file_size"`
	MimeType         string     `json:"mime_type"`
	LastModified     time.Time  `json:"last_modified"`
	DateTimeOriginal *time.Time `json:"date_time_original,omitempty"`
	GPSLatitude      *GPSTriple `json:"gps_latitude,omitempty"`
	GPSLongitude     *GPSTriple `json:"gps_longitude,omitempty"`
	GPSAltitude      *float64   `json:"gps_altitude,omitempty"`
	Metadata         Metadata   `json:"metadata"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// HasGPS reports whether both coordinates are present.
func (r *ImageRecord) HasGPS() bool {
	return r.GPSLatitude != nil && r.GPSLongitude != nil
}

// Coordinates returns decimal latitude and longitude. ok is false without GPS.
func (r *ImageRecord) Coordinates() (lat, lon float64, ok bool) {
	if !r.HasGPS() {
		return 0, 0, false
	}
	return r.GPSLatitude.Decimal(), r.GPSLongitude.Decimal(), true
}

// Normalize fills derived fields before persisting.
func (r *ImageRecord) Normalize() {
	if r.DateTimeOriginal == nil && !r.LastModified.IsZero() {
		t := r.LastModified
		r.DateTimeOriginal = &t
	}
	if r.FileSize < 0 {
		r.FileSize = 0
	}
}

// Album is a named collection of images.
type Album struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	CoverImageID *int64    `json:"cover_image_id,omitempty"`
	ImageCount   int       `json:"image_count"`
	CreatedAt    time.Time `json:"created_at"`
	IsFavourites bool      `json:"is_favourites"`
}

// DateRange bounds capture dates. Nil ends are open.
type DateRange struct {
	Earliest *time.Time `json:"earliest,omitempty"`
	Latest   *time.Time `json:"latest,omitempty"`
}

// Statistics summarises the library.
type Statistics struct {
	TotalImages   int       `json:"total_images"`
	TotalSize     int64     `json:"total_size"`
	ImagesWithGPS int       `json:"images_with_gps"`
	DateRange     DateRange `json:"date_range"`
}

// NearLocation restricts results to a radius around a point.
type NearLocation struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radius_km"`
}

// SearchFilters composes a repository search. Zero values disable a filter;
// Limit 0 means no limit.
type SearchFilters struct {
	PathContains string        `json:"path_contains,omitempty"`
	DateFrom     *time.Time    `json:"date_from,omitempty"`
	DateTo       *time.Time    `json:"date_to,omitempty"`
	HasGPS       *bool         `json:"has_gps,omitempty"`
	NearLocation *NearLocation `json:"near_location,omitempty"`
	Offset       int           `json:"offset,omitempty"`
	Limit        int           `json:"limit,omitempty"`
}
