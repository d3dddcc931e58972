package store

import (
	"database/sql"
	"time"

	"github.com/cesargomez89/photodex/internal/constants"
	"github.com/cesargomez89/photodex/internal/domain"
)

const imageColumns = `id, path, filename, fileSize, mimeType, lastModified, dateTimeOriginal,
	gpsLatitude, gpsLongitude, gpsAltitude, metadata, createdAt, updatedAt`

type imageRow struct {
	ID               int64                `db:"id"`
	Path             string               `db:"path"`
	Filename         string               `db:"filename"`
	FileSize         int64                `db:"fileSize"`
	MimeType         sql.NullString       `db:"mimeType"`
	LastModified     sql.NullString       `db:"lastModified"`
	DateTimeOriginal sql.NullString       `db:"dateTimeOriginal"`
	GPSLatitude      domain.NullGPSTriple `db:"gpsLatitude"`
	GPSLongitude     domain.NullGPSTriple `db:"gpsLongitude"`
	GPSAltitude      sql.NullFloat64      `db:"gpsAltitude"`
	Metadata         domain.Metadata      `db:"metadata"`
	CreatedAt        string               `db:"createdAt"`
	UpdatedAt        string               `db:"updatedAt"`
}

func (row *imageRow) record() *domain.ImageRecord {
	r := &domain.ImageRecord{
		ID:               row.ID,
		Path:             row.Path,
		Filename:         row.Filename,
		FileSize:         row.FileSize,
		MimeType:         row.MimeType.String,
		LastModified:     parseTime(row.LastModified.String),
		DateTimeOriginal: parseNullTime(row.DateTimeOriginal),
		GPSLatitude:      row.GPSLatitude.Ptr(),
		GPSLongitude:     row.GPSLongitude.Ptr(),
		Metadata:         row.Metadata,
		CreatedAt:        parseTime(row.CreatedAt),
		UpdatedAt:        parseTime(row.UpdatedAt),
	}
	if row.GPSAltitude.Valid {
		alt := row.GPSAltitude.Float64
		r.GPSAltitude = &alt
	}
	return r
}

func records(rows []imageRow) []*domain.ImageRecord {
	out := make([]*domain.ImageRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].record()
	}
	return out
}

type albumRow struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	Description  sql.NullString `db:"description"`
	CoverImageID sql.NullInt64  `db:"coverImageId"`
	ImageCount   int            `db:"imageCount"`
	CreatedAt    string         `db:"createdAt"`
}

func (row *albumRow) album() *domain.Album {
	a := &domain.Album{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description.String,
		ImageCount:   row.ImageCount,
		CreatedAt:    parseTime(row.CreatedAt),
		IsFavourites: row.Name == constants.FavouritesAlbumName,
	}
	if row.CoverImageID.Valid {
		id := row.CoverImageID.Int64
		a.CoverImageID = &id
	}
	return a
}

func formatTime(t time.Time) string {
	return t.UTC().Format(constants.TimestampLayout)
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(constants.TimestampLayout, s); err == nil {
		return t
	}
	// Rows written by other tools may use plain RFC 3339.
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func gpsArg(t *domain.GPSTriple) domain.NullGPSTriple {
	if t == nil {
		return domain.NullGPSTriple{}
	}
	return domain.NullGPSTriple{Triple: *t, Valid: true}
}

func floatArg(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
