package httpapp

import (
	"context"
	"net/http"

	"github.com/cesargomez89/photodex/internal/app"
	"github.com/cesargomez89/photodex/internal/constants"
	"github.com/cesargomez89/photodex/internal/domain"
	"github.com/cesargomez89/photodex/internal/http/dto"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) SearchImages(w http.ResponseWriter, r *http.Request) {
	var q dto.SearchQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid query: " + err.Error()})
		return
	}
	if errs := q.Validate(); len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}

	filters := q.Filters()
	recs, err := h.Repo.SearchImages(r.Context(), filters)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.ImageListResponse{
		Images:     dto.NewImageList(recs),
		Pagination: dto.NewPagination(filters.Offset, filters.Limit, len(recs)),
	})
}

func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	rec, err := h.Repo.GetImageByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rec == nil {
		h.writeError(w, r, domain.ErrImageNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewImageResponse(rec))
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	n, err := h.Repo.DeleteImagesByIDs(r.Context(), []int64{id})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if n == 0 {
		h.writeError(w, r, domain.ErrImageNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Repo.GetImages(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.ImageListResponse{Images: dto.NewImageList(recs)})
}

func (h *Handler) Memories(w http.ResponseWriter, r *http.Request) {
	month, errs := dto.ParseMonth(chi.URLParam(r, "month"))
	if len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}
	recs, err := h.Repo.GetImagesByMonth(r.Context(), month)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.ImageListResponse{Images: dto.NewImageList(recs)})
}

func (h *Handler) Map(w http.ResponseWriter, r *http.Request) {
	box, errs := dto.ParseBBox(r.URL.Query().Get("bbox"))
	if len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}
	recs, err := h.Repo.GetImagesInViewport(r.Context(), box)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.ImageListResponse{Images: dto.NewImageList(recs)})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Repo.GetStatistics(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.Repo.GetAlbums(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if albums == nil {
		albums = []*domain.Album{}
	}
	h.writeJSON(w, http.StatusOK, albums)
}

func (h *Handler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req dto.AlbumCreateRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}
	album, err := h.Repo.CreateAlbum(r.Context(), req.Name, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, album)
}

func (h *Handler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	album, err := h.Repo.GetAlbum(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, album)
}

func (h *Handler) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req dto.AlbumUpdateRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}

	ctx := r.Context()
	if req.Name != nil {
		if _, err := h.Repo.RenameAlbum(ctx, id, *req.Name); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if req.CoverImageID != nil || req.ClearCover {
		if err := h.Repo.SetAlbumCover(ctx, id, req.CoverImageID); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	album, err := h.Repo.GetAlbum(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, album)
}

func (h *Handler) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.Repo.DeleteAlbum(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AlbumImages(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	recs, err := h.Repo.GetAlbumImages(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.ImageListResponse{Images: dto.NewImageList(recs)})
}

func (h *Handler) AddAlbumImages(w http.ResponseWriter, r *http.Request) {
	h.changeMembers(w, r, h.Repo.AddImagesToAlbum)
}

func (h *Handler) RemoveAlbumImages(w http.ResponseWriter, r *http.Request) {
	h.changeMembers(w, r, h.Repo.RemoveImagesFromAlbum)
}

type memberChange func(ctx context.Context, albumID int64, imageIDs []int64) (int64, error)

func (h *Handler) changeMembers(w http.ResponseWriter, r *http.Request, change memberChange) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req dto.ImageIDsRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}
	n, err := change(r.Context(), id, req.ImageIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.CountResponse{Count: n})
}

func (h *Handler) Favourites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	album, err := h.Repo.GetFavouritesAlbum(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	recs, err := h.Repo.GetAlbumImages(ctx, album.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.ImageListResponse{Images: dto.NewImageList(recs)})
}

func (h *Handler) AddFavourite(w http.ResponseWriter, r *http.Request) {
	h.changeFavourite(w, r, h.Repo.AddToFavourites)
}

func (h *Handler) RemoveFavourite(w http.ResponseWriter, r *http.Request) {
	h.changeFavourite(w, r, h.Repo.RemoveFromFavourites)
}

func (h *Handler) changeFavourite(w http.ResponseWriter, r *http.Request, change func(context.Context, []int64) (int64, error)) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	rec, err := h.Repo.GetImageByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rec == nil {
		h.writeError(w, r, domain.ErrImageNotFound)
		return
	}
	n, err := change(r.Context(), []int64{id})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.CountResponse{Count: n})
}

// Import runs synchronously; the status endpoint reports progress to other
// clients meanwhile.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var req dto.ImportRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}
	if req.Copy && h.Library.Config.ManagedRoot == "" {
		h.writeError(w, r, app.ErrNoManagedRoot)
		return
	}

	res, err := h.Imports.Import(r.Context(), req.Root, req.Copy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewImportResponse(res))
}

func (h *Handler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Imports.Status())
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.Repo.ExportDatabase(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.sqlite3")
	w.Header().Set("Content-Disposition", `attachment; filename="`+constants.EjectFileName+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.Logger.Error("Failed to write export", "error", err)
	}
}

func (h *Handler) Eject(w http.ResponseWriter, r *http.Request) {
	path, err := h.Library.Eject(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"path": path})
}
