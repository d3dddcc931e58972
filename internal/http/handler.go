package httpapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/cesargomez89/photodex/internal/app"
	"github.com/cesargomez89/photodex/internal/domain"
	"github.com/cesargomez89/photodex/internal/http/dto"
	"github.com/cesargomez89/photodex/internal/logger"
	"github.com/cesargomez89/photodex/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/form/v4"
)

type Handler struct {
	Library *app.Library
	Repo    *store.Repository
	Imports *app.ImportService
	Logger  *logger.Logger

	decoder *form.Decoder
}

func NewHandler(lib *app.Library, imports *app.ImportService) *Handler {
	return &Handler{
		Library: lib,
		Repo:    lib.Repo,
		Imports: imports,
		Logger:  lib.Logger.WithComponent("http"),
		decoder: form.NewDecoder(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/images", h.SearchImages)
		r.Get("/images/{id}", h.GetImage)
		r.Delete("/images/{id}", h.DeleteImage)
		r.Get("/timeline", h.Timeline)
		r.Get("/memories/{month}", h.Memories)
		r.Get("/map", h.Map)
		r.Get("/stats", h.Stats)

		r.Get("/albums", h.ListAlbums)
		r.Post("/albums", h.CreateAlbum)
		r.Get("/albums/{id}", h.GetAlbum)
		r.Patch("/albums/{id}", h.UpdateAlbum)
		r.Delete("/albums/{id}", h.DeleteAlbum)
		r.Get("/albums/{id}/images", h.AlbumImages)
		r.Post("/albums/{id}/images", h.AddAlbumImages)
		r.Delete("/albums/{id}/images", h.RemoveAlbumImages)

		r.Get("/favourites", h.Favourites)
		r.Post("/favourites/{id}", h.AddFavourite)
		r.Delete("/favourites/{id}", h.RemoveFavourite)

		r.Post("/import", h.Import)
		r.Get("/import/status", h.ImportStatus)
		r.Get("/export", h.Export)
		r.Post("/eject", h.Eject)
	})
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeValidation(w http.ResponseWriter, errs []dto.ValidationError) {
	h.writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:  dto.ToResponse(errs),
		Fields: dto.ToMap(errs),
	})
}

// writeError maps repository and service errors onto status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var enumErr *domain.EnumerationError
	switch {
	case errors.Is(err, domain.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrAlbumNotFound), errors.Is(err, domain.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateAlbumName), errors.Is(err, app.ErrImportInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrProtectedAlbum):
		return http.StatusForbidden
	case errors.Is(err, app.ErrNoManagedRoot), errors.As(err, &enumErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// pathID reads a positive integer id from the route.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeValidation(w, []dto.ValidationError{{Field: "id", Message: "must be a positive integer"}})
		return 0, false
	}
	return id, true
}
