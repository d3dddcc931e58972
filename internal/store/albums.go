package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/photodex/internal/constants"
	"github.com/cesargomez89/photodex/internal/domain"
	"github.com/cesargomez89/photodex/internal/engine"
)

// An album without an explicit cover shows its most recently added image.
const albumColumns = `a.id, a.name, a.description,
	COALESCE(a.coverImageId, (
		SELECT ai.imageId FROM album_images ai
		WHERE ai.albumId = a.id
		ORDER BY ai.addedAt DESC, ai.imageId DESC LIMIT 1
	)) AS coverImageId,
	(SELECT COUNT(*) FROM album_images ai WHERE ai.albumId = a.id) AS imageCount,
	a.createdAt`

func isFavouritesName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), constants.FavouritesAlbumName)
}

// CreateAlbum adds an album. Names are unique ignoring case, and the
// favourites name is reserved.
func (r *Repository) CreateAlbum(ctx context.Context, name, description string) (*domain.Album, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("album name is required")
	}
	if isFavouritesName(name) {
		return nil, domain.ErrProtectedAlbum
	}

	id, err := r.createAlbum(ctx, name, description)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Created album", "id", id, "name", name)
	return r.GetAlbum(ctx, id)
}

func (r *Repository) createAlbum(ctx context.Context, name, description string) (int64, error) {
	var id int64
	err := r.eng.Transaction(ctx, func(tx engine.Executor) error {
		taken, err := nameTaken(ctx, tx, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrDuplicateAlbumName
		}
		res, err := tx.Exec(ctx, "INSERT INTO albums (name, description, createdAt) VALUES (?, ?, ?)",
			name, nullString(description), formatTime(time.Now()))
		if err != nil {
			return err
		}
		id = res.LastInsertID
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create album %q: %w", name, err)
	}
	return id, nil
}

// nameTaken compares in Go because SQLite's lower() only folds ASCII.
func nameTaken(ctx context.Context, ex engine.Executor, name string, exceptID int64) (bool, error) {
	var existing []struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}
	if err := ex.Query(ctx, &existing, "SELECT id, name FROM albums"); err != nil {
		return false, err
	}
	for _, a := range existing {
		if a.ID != exceptID && strings.EqualFold(a.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// GetAlbums lists albums with favourites first, then newest first.
func (r *Repository) GetAlbums(ctx context.Context) ([]*domain.Album, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	var rows []albumRow
	query := "SELECT " + albumColumns + " FROM albums a ORDER BY (a.name = ?) DESC, a.createdAt DESC, a.id DESC"
	if err := r.eng.Query(ctx, &rows, query, constants.FavouritesAlbumName); err != nil {
		return nil, fmt.Errorf("failed to get albums: %w", err)
	}

	albums := make([]*domain.Album, len(rows))
	for i := range rows {
		albums[i] = rows[i].album()
	}
	return albums, nil
}

// GetAlbum returns domain.ErrAlbumNotFound for an unknown id.
func (r *Repository) GetAlbum(ctx context.Context, id int64) (*domain.Album, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	var row albumRow
	err := r.eng.Get(ctx, &row, "SELECT "+albumColumns+" FROM albums a WHERE a.id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAlbumNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get album %d: %w", id, err)
	}
	return row.album(), nil
}

func (r *Repository) RenameAlbum(ctx context.Context, id int64, name string) (*domain.Album, error) {
	album, err := r.GetAlbum(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("album name is required")
	}
	if album.IsFavourites || isFavouritesName(name) {
		return nil, domain.ErrProtectedAlbum
	}

	err = r.eng.Transaction(ctx, func(tx engine.Executor) error {
		taken, err := nameTaken(ctx, tx, name, id)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrDuplicateAlbumName
		}
		_, err = tx.Exec(ctx, "UPDATE albums SET name = ? WHERE id = ?", name, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rename album %d: %w", id, err)
	}
	return r.GetAlbum(ctx, id)
}

// SetAlbumCover pins imageID as the cover. A nil imageID falls back to the
// latest added image. The image must already be in the album.
func (r *Repository) SetAlbumCover(ctx context.Context, albumID int64, imageID *int64) error {
	if _, err := r.GetAlbum(ctx, albumID); err != nil {
		return err
	}

	if imageID == nil {
		_, err := r.eng.Exec(ctx, "UPDATE albums SET coverImageId = NULL WHERE id = ?", albumID)
		return err
	}

	var n int
	if err := r.eng.Get(ctx, &n, "SELECT COUNT(*) FROM album_images WHERE albumId = ? AND imageId = ?", albumID, *imageID); err != nil {
		return fmt.Errorf("failed to check album membership: %w", err)
	}
	if n == 0 {
		return domain.ErrImageNotFound
	}
	_, err := r.eng.Exec(ctx, "UPDATE albums SET coverImageId = ? WHERE id = ?", *imageID, albumID)
	return err
}

// AddImagesToAlbum adds images to an album and returns how many were new.
// Existing members and unknown image ids are skipped.
func (r *Repository) AddImagesToAlbum(ctx context.Context, albumID int64, imageIDs []int64) (int64, error) {
	if _, err := r.GetAlbum(ctx, albumID); err != nil {
		return 0, err
	}
	if len(imageIDs) == 0 {
		return 0, nil
	}

	var added int64
	err := r.eng.Transaction(ctx, func(tx engine.Executor) error {
		n, err := addMembers(ctx, tx, albumID, imageIDs)
		added = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add images to album %d: %w", albumID, err)
	}
	return added, nil
}

// AddImagesToAlbums adds every image to every album, skipping favourites.
func (r *Repository) AddImagesToAlbums(ctx context.Context, albumIDs, imageIDs []int64) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	if len(albumIDs) == 0 || len(imageIDs) == 0 {
		return 0, nil
	}

	targets, err := r.userAlbumIDs(ctx, albumIDs)
	if err != nil {
		return 0, err
	}

	var added int64
	err = r.eng.Transaction(ctx, func(tx engine.Executor) error {
		for _, albumID := range targets {
			n, err := addMembers(ctx, tx, albumID, imageIDs)
			if err != nil {
				return err
			}
			added += n
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add images to albums: %w", err)
	}
	return added, nil
}

func addMembers(ctx context.Context, ex engine.Executor, albumID int64, imageIDs []int64) (int64, error) {
	now := formatTime(time.Now())
	var added int64
	for _, imageID := range imageIDs {
		res, err := ex.Exec(ctx,
			"INSERT OR IGNORE INTO album_images (albumId, imageId, addedAt) SELECT ?, id, ? FROM images WHERE id = ?",
			albumID, now, imageID)
		if err != nil {
			return added, err
		}
		added += res.RowsAffected
	}
	return added, nil
}

func (r *Repository) RemoveImageFromAlbum(ctx context.Context, albumID, imageID int64) error {
	_, err := r.RemoveImagesFromAlbum(ctx, albumID, []int64{imageID})
	return err
}

// RemoveImagesFromAlbum drops memberships and returns how many went. Removing
// a non-member is a no-op. A removed cover image clears the cover.
func (r *Repository) RemoveImagesFromAlbum(ctx context.Context, albumID int64, imageIDs []int64) (int64, error) {
	if _, err := r.GetAlbum(ctx, albumID); err != nil {
		return 0, err
	}
	if len(imageIDs) == 0 {
		return 0, nil
	}

	var removed int64
	err := r.eng.Transaction(ctx, func(tx engine.Executor) error {
		query, args, err := sqlx.In("DELETE FROM album_images WHERE albumId = ? AND imageId IN (?)", albumID, imageIDs)
		if err != nil {
			return err
		}
		res, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		removed = res.RowsAffected

		query, args, err = sqlx.In("UPDATE albums SET coverImageId = NULL WHERE id = ? AND coverImageId IN (?)", albumID, imageIDs)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to remove images from album %d: %w", albumID, err)
	}
	return removed, nil
}

// GetAlbumImages lists an album's images, most recently added first.
func (r *Repository) GetAlbumImages(ctx context.Context, albumID int64) ([]*domain.ImageRecord, error) {
	if _, err := r.GetAlbum(ctx, albumID); err != nil {
		return nil, err
	}

	var rows []imageRow
	query := "SELECT " + imageColumns + ` FROM images
		JOIN album_images ON album_images.imageId = images.id
		WHERE album_images.albumId = ?
		ORDER BY album_images.addedAt DESC, images.id DESC`
	if err := r.eng.Query(ctx, &rows, query, albumID); err != nil {
		return nil, fmt.Errorf("failed to get images for album %d: %w", albumID, err)
	}
	return records(rows), nil
}

// DeleteAlbum removes an album and its memberships. Images are kept.
func (r *Repository) DeleteAlbum(ctx context.Context, id int64) error {
	album, err := r.GetAlbum(ctx, id)
	if err != nil {
		return err
	}
	if album.IsFavourites {
		return domain.ErrProtectedAlbum
	}

	if err := r.deleteAlbums(ctx, []int64{id}); err != nil {
		return err
	}
	r.logger.Info("Deleted album", "id", id, "name", album.Name)
	return nil
}

// DeleteAlbums removes several albums at once. The favourites album and
// unknown ids are skipped.
func (r *Repository) DeleteAlbums(ctx context.Context, ids []int64) (int, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	targets, err := r.userAlbumIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	if err := r.deleteAlbums(ctx, targets); err != nil {
		return 0, err
	}
	return len(targets), nil
}

func (r *Repository) deleteAlbums(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.eng.Transaction(ctx, func(tx engine.Executor) error {
		for _, stmt := range []string{
			"DELETE FROM album_images WHERE albumId IN (?)",
			"DELETE FROM albums WHERE id IN (?)",
		} {
			query, args, err := sqlx.In(stmt, ids)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete albums: %w", err)
	}
	return nil
}

// userAlbumIDs keeps the ids that name existing, non-favourites albums.
func (r *Repository) userAlbumIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT id FROM albums WHERE id IN (?) AND name <> ? ORDER BY id", ids, constants.FavouritesAlbumName)
	if err != nil {
		return nil, err
	}
	var out []int64
	if err := r.eng.Query(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to resolve albums: %w", err)
	}
	return out, nil
}

// GetFavouritesAlbum returns the favourites album, creating it on first use.
func (r *Repository) GetFavouritesAlbum(ctx context.Context) (*domain.Album, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	r.favMu.Lock()
	defer r.favMu.Unlock()

	var id int64
	err := r.eng.Get(ctx, &id, "SELECT id FROM albums WHERE name = ?", constants.FavouritesAlbumName)
	if errors.Is(err, sql.ErrNoRows) {
		id, err = r.createAlbum(ctx, constants.FavouritesAlbumName, constants.FavouritesAlbumDescription)
		if err == nil {
			r.logger.Info("Created favourites album", "id", id)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get favourites album: %w", err)
	}
	return r.GetAlbum(ctx, id)
}

func (r *Repository) AddToFavourites(ctx context.Context, imageIDs []int64) (int64, error) {
	fav, err := r.GetFavouritesAlbum(ctx)
	if err != nil {
		return 0, err
	}
	return r.AddImagesToAlbum(ctx, fav.ID, imageIDs)
}

func (r *Repository) RemoveFromFavourites(ctx context.Context, imageIDs []int64) (int64, error) {
	fav, err := r.GetFavouritesAlbum(ctx)
	if err != nil {
		return 0, err
	}
	return r.RemoveImagesFromAlbum(ctx, fav.ID, imageIDs)
}

func (r *Repository) IsFavourite(ctx context.Context, imageID int64) (bool, error) {
	fav, err := r.GetFavouritesAlbum(ctx)
	if err != nil {
		return false, err
	}
	var n int
	if err := r.eng.Get(ctx, &n, "SELECT COUNT(*) FROM album_images WHERE albumId = ? AND imageId = ?", fav.ID, imageID); err != nil {
		return false, fmt.Errorf("failed to check favourite: %w", err)
	}
	return n > 0, nil
}
