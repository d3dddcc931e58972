package dto

import (
	"github.com/cesargomez89/photodex/internal/importer"
)

type AlbumCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r *AlbumCreateRequest) Validate() []ValidationError {
	return validateAlbumName(r.Name)
}

// AlbumUpdateRequest renames an album and/or changes its cover. Setting
// ClearCover falls back to the latest added image.
type AlbumUpdateRequest struct {
	Name         *string `json:"name"`
	CoverImageID *int64  `json:"cover_image_id"`
	ClearCover   bool    `json:"clear_cover"`
}

func (r *AlbumUpdateRequest) Validate() []ValidationError {
	var errs []ValidationError
	if r.Name != nil {
		errs = append(errs, validateAlbumName(*r.Name)...)
	}
	if r.CoverImageID != nil && r.ClearCover {
		errs = append(errs, ValidationError{Field: "cover_image_id", Message: "cannot be combined with clear_cover"})
	}
	if r.Name == nil && r.CoverImageID == nil && !r.ClearCover {
		errs = append(errs, ValidationError{Field: "name", Message: "nothing to update"})
	}
	return errs
}

type ImageIDsRequest struct {
	ImageIDs []int64 `json:"image_ids"`
}

func (r *ImageIDsRequest) Validate() []ValidationError {
	if len(r.ImageIDs) == 0 {
		return []ValidationError{{Field: "image_ids", Message: "is required"}}
	}
	return nil
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type ImportRequest struct {
	Root string `json:"root"`
	Copy bool   `json:"copy"`
}

func (r *ImportRequest) Validate() []ValidationError {
	if r.Root == "" {
		return []ValidationError{{Field: "root", Message: "is required"}}
	}
	return nil
}

type FileResultResponse struct {
	Path  string `json:"path"`
	Error string `json:"error,omitempty"`
}

type ImportResponse struct {
	RunID     string               `json:"run_id"`
	State     importer.State       `json:"state"`
	Total     int                  `json:"total"`
	Succeeded int                  `json:"succeeded"`
	ImportDir string               `json:"import_dir,omitempty"`
	Duration  string               `json:"duration"`
	Failures  []FileResultResponse `json:"failures"`
}

func NewImportResponse(res *importer.Result) ImportResponse {
	resp := ImportResponse{
		RunID:     res.RunID,
		State:     res.State,
		Total:     len(res.Results),
		Succeeded: res.Succeeded(),
		ImportDir: res.ImportDir,
		Duration:  res.Duration.String(),
		Failures:  []FileResultResponse{},
	}
	for _, fr := range res.Results {
		if fr.Err != nil {
			resp.Failures = append(resp.Failures, FileResultResponse{Path: fr.Path, Error: fr.Err.Error()})
		}
	}
	return resp
}
