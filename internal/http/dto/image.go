package dto

import (
	"strconv"
	"strings"
	"time"

	"github.com/cesargomez89/photodex/internal/constants"
	"github.com/cesargomez89/photodex/internal/domain"
	"github.com/cesargomez89/photodex/internal/geo"
)

// ImageResponse is an image record plus its decimal coordinates.
type ImageResponse struct {
	*domain.ImageRecord
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func NewImageResponse(rec *domain.ImageRecord) ImageResponse {
	resp := ImageResponse{ImageRecord: rec}
	if lat, lon, ok := rec.Coordinates(); ok {
		resp.Latitude, resp.Longitude = &lat, &lon
	}
	return resp
}

// NewImageList keeps nil as nil so an empty library stays distinguishable
// from an empty result.
func NewImageList(recs []*domain.ImageRecord) []ImageResponse {
	if recs == nil {
		return nil
	}
	out := make([]ImageResponse, len(recs))
	for i, rec := range recs {
		out[i] = NewImageResponse(rec)
	}
	return out
}

type ImageListResponse struct {
	Images     []ImageResponse `json:"images"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

// SearchQuery is the query string of GET /api/images.
type SearchQuery struct {
	Q      *string  `form:"q"`
	From   *string  `form:"from"`
	To     *string  `form:"to"`
	GPS    *bool    `form:"gps"`
	Lat    *float64 `form:"lat"`
	Lon    *float64 `form:"lon"`
	Radius *float64 `form:"radius"`
	Offset *int     `form:"offset"`
	Limit  *int     `form:"limit"`
}

func (q *SearchQuery) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDate("from", q.From)...)
	errs = append(errs, validateDate("to", q.To)...)
	errs = append(errs, validateLatitude("lat", q.Lat)...)
	errs = append(errs, validateLongitude("lon", q.Lon)...)
	errs = append(errs, validateRadius(q.Radius)...)
	errs = append(errs, validateNonNegative("offset", q.Offset)...)
	errs = append(errs, validateNonNegative("limit", q.Limit)...)

	near := 0
	for _, set := range []bool{q.Lat != nil, q.Lon != nil, q.Radius != nil} {
		if set {
			near++
		}
	}
	if near != 0 && near != 3 {
		errs = append(errs, ValidationError{Field: "radius", Message: "lat, lon and radius must be given together"})
	}
	return errs
}

// Filters converts a validated query. Without a limit the default search
// limit applies.
func (q *SearchQuery) Filters() domain.SearchFilters {
	f := domain.SearchFilters{
		HasGPS: q.GPS,
		Limit:  constants.DefaultSearchLimit,
	}
	if q.Q != nil {
		f.PathContains = strings.TrimSpace(*q.Q)
	}
	if q.From != nil && *q.From != "" {
		if t, ok := parseDate(*q.From, false); ok {
			f.DateFrom = &t
		}
	}
	if q.To != nil && *q.To != "" {
		if t, ok := parseDate(*q.To, true); ok {
			f.DateTo = &t
		}
	}
	if q.Lat != nil && q.Lon != nil && q.Radius != nil {
		f.NearLocation = &domain.NearLocation{Lat: *q.Lat, Lon: *q.Lon, RadiusKm: *q.Radius}
	}
	if q.Offset != nil {
		f.Offset = *q.Offset
	}
	if q.Limit != nil {
		f.Limit = *q.Limit
	}
	return f
}

// ParseBBox reads "south,west,north,east".
func ParseBBox(s string) (geo.BBox, []ValidationError) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.BBox{}, []ValidationError{{Field: "bbox", Message: "expected south,west,north,east"}}
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.BBox{}, []ValidationError{{Field: "bbox", Message: "coordinates must be numbers"}}
		}
		v[i] = f
	}

	box := geo.BBox{South: v[0], West: v[1], North: v[2], East: v[3]}
	var errs []ValidationError
	errs = append(errs, validateLatitude("bbox", &box.South)...)
	errs = append(errs, validateLatitude("bbox", &box.North)...)
	errs = append(errs, validateLongitude("bbox", &box.West)...)
	errs = append(errs, validateLongitude("bbox", &box.East)...)
	if box.South > box.North {
		errs = append(errs, ValidationError{Field: "bbox", Message: "south must not exceed north"})
	}
	return box, errs
}

// ParseMonth reads a calendar month number.
func ParseMonth(s string) (time.Month, []ValidationError) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, []ValidationError{{Field: "month", Message: "must be a number"}}
	}
	if errs := validateMonth(n); len(errs) > 0 {
		return 0, errs
	}
	return time.Month(n), nil
}
