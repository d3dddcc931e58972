package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cesargomez89/photodex/internal/domain"
	"github.com/cesargomez89/photodex/internal/geo"
)

// SearchImages applies filters in a fixed order: SQL WHERE, decode,
// distance filter, offset, limit. Paging therefore counts only images that
// passed the distance filter. Results are newest capture first and never nil.
func (r *Repository) SearchImages(ctx context.Context, filters domain.SearchFilters) ([]*domain.ImageRecord, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filters.PathContains != "" {
		where = append(where, `path LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filters.PathContains)+"%")
	}
	if filters.DateFrom != nil {
		where = append(where, "dateTimeOriginal >= ?")
		args = append(args, formatTime(*filters.DateFrom))
	}
	if filters.DateTo != nil {
		where = append(where, "dateTimeOriginal <= ?")
		args = append(args, formatTime(*filters.DateTo))
	}
	if filters.HasGPS != nil {
		if *filters.HasGPS {
			where = append(where, "gpsLatitude IS NOT NULL AND gpsLongitude IS NOT NULL")
		} else {
			where = append(where, "(gpsLatitude IS NULL OR gpsLongitude IS NULL)")
		}
	}
	if filters.NearLocation != nil {
		where = append(where, "gpsLatitude IS NOT NULL AND gpsLongitude IS NOT NULL")
	}

	query := "SELECT " + imageColumns + " FROM images"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY dateTimeOriginal DESC, id DESC"

	var rows []imageRow
	if err := r.eng.Query(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search images: %w", err)
	}
	results := records(rows)

	if near := filters.NearLocation; near != nil {
		kept := results[:0]
		for _, rec := range results {
			lat, lon, ok := rec.Coordinates()
			if !ok {
				continue
			}
			if geo.HaversineKm(near.Lat, near.Lon, lat, lon) <= near.RadiusKm {
				kept = append(kept, rec)
			}
		}
		results = kept
	}

	return paginate(results, filters.Offset, filters.Limit), nil
}

func paginate(recs []*domain.ImageRecord, offset, limit int) []*domain.ImageRecord {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(recs) {
		return []*domain.ImageRecord{}
	}
	recs = recs[offset:]
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	return recs
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// GetImagesByMonth returns images captured in month of any year.
func (r *Repository) GetImagesByMonth(ctx context.Context, month time.Month) ([]*domain.ImageRecord, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}

	var rows []imageRow
	query := "SELECT " + imageColumns + ` FROM images
		WHERE strftime('%m', dateTimeOriginal) = ?
		ORDER BY dateTimeOriginal DESC, id DESC`
	if err := r.eng.Query(ctx, &rows, query, fmt.Sprintf("%02d", int(month))); err != nil {
		return nil, fmt.Errorf("failed to get images for month %d: %w", month, err)
	}
	return records(rows), nil
}

// GetImagesInViewport returns GPS-tagged images inside box.
func (r *Repository) GetImagesInViewport(ctx context.Context, box geo.BBox) ([]*domain.ImageRecord, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	var rows []imageRow
	query := "SELECT " + imageColumns + ` FROM images
		WHERE gpsLatitude IS NOT NULL AND gpsLongitude IS NOT NULL
		ORDER BY dateTimeOriginal DESC, id DESC`
	if err := r.eng.Query(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to get images in viewport: %w", err)
	}

	out := make([]*domain.ImageRecord, 0, len(rows))
	for _, rec := range records(rows) {
		lat, lon, _ := rec.Coordinates()
		if box.Contains(lat, lon) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// GetStatistics aggregates counts, total size and the capture date range.
func (r *Repository) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	stats := &domain.Statistics{}
	if err := r.eng.Get(ctx, &stats.TotalImages, "SELECT COUNT(*) FROM images"); err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}
	if err := r.eng.Get(ctx, &stats.TotalSize, "SELECT COALESCE(SUM(fileSize), 0) FROM images"); err != nil {
		return nil, fmt.Errorf("failed to sum sizes: %w", err)
	}
	if err := r.eng.Get(ctx, &stats.ImagesWithGPS,
		"SELECT COUNT(*) FROM images WHERE gpsLatitude IS NOT NULL AND gpsLongitude IS NOT NULL"); err != nil {
		return nil, fmt.Errorf("failed to count gps images: %w", err)
	}

	var span struct {
		Earliest *string `db:"earliest"`
		Latest   *string `db:"latest"`
	}
	if err := r.eng.Get(ctx, &span,
		"SELECT MIN(dateTimeOriginal) AS earliest, MAX(dateTimeOriginal) AS latest FROM images"); err != nil {
		return nil, fmt.Errorf("failed to get date range: %w", err)
	}
	if span.Earliest != nil {
		if t := parseTime(*span.Earliest); !t.IsZero() {
			stats.DateRange.Earliest = &t
		}
	}
	if span.Latest != nil {
		if t := parseTime(*span.Latest); !t.IsZero() {
			stats.DateRange.Latest = &t
		}
	}

	return stats, nil
}
