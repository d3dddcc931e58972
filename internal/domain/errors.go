package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by components used before Init or after Close.
	ErrNotInitialized = errors.New("not initialized")

	ErrDuplicateAlbumName = errors.New("an album with this name already exists")
	ErrProtectedAlbum     = errors.New("the favourites album cannot be modified this way")
	ErrAlbumNotFound      = errors.New("album not found")
	ErrImageNotFound      = errors.New("image not found")

	// ErrWorker is the cause attached to requests rejected because the
	// execution context that owned them went away.
	ErrWorker = errors.New("worker terminated")
)

// ExtractionError reports that one file's metadata could not be parsed.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract metadata from %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// StorageError reports a statement rejected by the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// EnumerationError reports a directory that could not be read during a walk.
type EnumerationError struct {
	Path string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate %q: %v", e.Path, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// WorkerError reports a parallel import worker that failed or crashed.
type WorkerError struct {
	WorkerID int
	Err      error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("import worker %d: %v", e.WorkerID, e.Err)
}

func (e *WorkerError) Unwrap() error { return e.Err }
