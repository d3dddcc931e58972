package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/photodex/internal/domain"
	"github.com/cesargomez89/photodex/internal/engine"
)

// upsertImage keeps createdAt on conflict and moves updatedAt strictly
// forward, even when two writes land in the same millisecond.
const upsertImage = `
INSERT INTO images (path, filename, fileSize, mimeType, lastModified, dateTimeOriginal,
	gpsLatitude, gpsLongitude, gpsAltitude, metadata, createdAt, updatedAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
	filename = excluded.filename,
	fileSize = excluded.fileSize,
	mimeType = excluded.mimeType,
	lastModified = excluded.lastModified,
	dateTimeOriginal = excluded.dateTimeOriginal,
	gpsLatitude = excluded.gpsLatitude,
	gpsLongitude = excluded.gpsLongitude,
	gpsAltitude = excluded.gpsAltitude,
	metadata = excluded.metadata,
	updatedAt = max(excluded.updatedAt, strftime('%Y-%m-%dT%H:%M:%fZ', images.updatedAt, '+0.001 seconds'))
`

// SaveImage upserts rec by path and returns the row id.
func (r *Repository) SaveImage(ctx context.Context, rec *domain.ImageRecord) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	return saveImage(ctx, r.eng, rec)
}

// SaveImages upserts every record in one transaction. One failure rolls the
// whole batch back.
func (r *Repository) SaveImages(ctx context.Context, recs []*domain.ImageRecord) ([]int64, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(recs))
	err := r.eng.Transaction(ctx, func(tx engine.Executor) error {
		for _, rec := range recs {
			id, err := saveImage(ctx, tx, rec)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func saveImage(ctx context.Context, ex engine.Executor, rec *domain.ImageRecord) (int64, error) {
	if rec == nil {
		return 0, &domain.StorageError{Op: "save", Err: errors.New("nil image record")}
	}
	rec.Normalize()

	now := formatTime(time.Now())
	metadata := rec.Metadata
	if metadata == nil {
		metadata = domain.Metadata{}
	}

	var lastModified any
	if !rec.LastModified.IsZero() {
		lastModified = formatTime(rec.LastModified)
	}

	// An empty path is bound as NULL so the NOT NULL constraint rejects it.
	_, err := ex.Exec(ctx, upsertImage,
		nullString(rec.Path),
		rec.Filename,
		rec.FileSize,
		nullString(rec.MimeType),
		lastModified,
		formatNullTime(rec.DateTimeOriginal),
		gpsArg(rec.GPSLatitude),
		gpsArg(rec.GPSLongitude),
		floatArg(rec.GPSAltitude),
		metadata,
		now,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save image %q: %w", rec.Path, err)
	}

	// The upsert does not report the id of an updated row, so look it up.
	var id int64
	if err := ex.Get(ctx, &id, "SELECT id FROM images WHERE path = ?", rec.Path); err != nil {
		return 0, fmt.Errorf("failed to resolve id for %q: %w", rec.Path, err)
	}
	rec.ID = id
	return id, nil
}

// GetImages returns every image, newest capture first. It returns nil, not
// an empty slice, when nothing has been imported.
func (r *Repository) GetImages(ctx context.Context) ([]*domain.ImageRecord, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	var rows []imageRow
	query := "SELECT " + imageColumns + " FROM images ORDER BY dateTimeOriginal DESC, id DESC"
	if err := r.eng.Query(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to get images: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return records(rows), nil
}

// GetImageByPath returns nil when no image has that path.
func (r *Repository) GetImageByPath(ctx context.Context, path string) (*domain.ImageRecord, error) {
	return r.getImage(ctx, "path = ?", path)
}

// GetImageByID returns nil when no image has that id.
func (r *Repository) GetImageByID(ctx context.Context, id int64) (*domain.ImageRecord, error) {
	return r.getImage(ctx, "id = ?", id)
}

func (r *Repository) getImage(ctx context.Context, where string, arg any) (*domain.ImageRecord, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	var row imageRow
	err := r.eng.Get(ctx, &row, "SELECT "+imageColumns+" FROM images WHERE "+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return row.record(), nil
}

// DeleteImage removes the image stored under path along with its album
// memberships.
func (r *Repository) DeleteImage(ctx context.Context, path string) error {
	if err := r.ready(); err != nil {
		return err
	}

	var id int64
	err := r.eng.Get(ctx, &id, "SELECT id FROM images WHERE path = ?", path)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrImageNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up image %q: %w", path, err)
	}

	_, err = r.DeleteImagesByIDs(ctx, []int64{id})
	return err
}

// DeleteImagesByIDs removes the given images and returns how many rows went.
// Unknown ids are ignored.
func (r *Repository) DeleteImagesByIDs(ctx context.Context, ids []int64) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	err := r.eng.Transaction(ctx, func(tx engine.Executor) error {
		stmts := []string{
			"UPDATE albums SET coverImageId = NULL WHERE coverImageId IN (?)",
			"DELETE FROM album_images WHERE imageId IN (?)",
			"DELETE FROM images WHERE id IN (?)",
		}
		for _, stmt := range stmts {
			query, args, err := sqlx.In(stmt, ids)
			if err != nil {
				return err
			}
			res, err := tx.Exec(ctx, query, args...)
			if err != nil {
				return err
			}
			deleted = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete images: %w", err)
	}

	r.logger.Info("Deleted images", "requested", len(ids), "deleted", deleted)
	return deleted, nil
}

// DeleteAll empties the library. Albums stay, without members or covers.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}

	var deleted int64
	err := r.eng.Transaction(ctx, func(tx engine.Executor) error {
		if _, err := tx.Exec(ctx, "UPDATE albums SET coverImageId = NULL"); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM album_images"); err != nil {
			return err
		}
		res, err := tx.Exec(ctx, "DELETE FROM images")
		if err != nil {
			return err
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete all images: %w", err)
	}

	r.logger.Warn("Deleted all images", "deleted", deleted)
	return deleted, nil
}
