package app

import (
	"context"
	"errors"
	"sync"

	"github.com/cesargomez89/photodex/internal/importer"
	"github.com/cesargomez89/photodex/internal/logger"
)

var ErrImportInProgress = errors.New("an import is already running")

// ImportStatus is a snapshot of the current or last import.
type ImportStatus struct {
	Running  bool              `json:"running"`
	RunID    string            `json:"run_id,omitempty"`
	State    importer.State    `json:"state"`
	Progress importer.Progress `json:"progress"`
}

// ImportService runs one import at a time and remembers its progress.
type ImportService struct {
	Library *Library
	Logger  *logger.Logger

	run    sync.Mutex
	mu     sync.Mutex
	status ImportStatus
}

func NewImportService(lib *Library, log *logger.Logger) *ImportService {
	if log == nil {
		log = logger.Default()
	}
	return &ImportService{
		Library: lib,
		Logger:  log.WithComponent("import-service"),
		status:  ImportStatus{State: importer.StateIdle},
	}
}

// Import indexes root, optionally copying it into the managed root first.
// A second call while one is running fails with ErrImportInProgress.
func (s *ImportService) Import(ctx context.Context, root string, copy bool) (*importer.Result, error) {
	if !s.run.TryLock() {
		return nil, ErrImportInProgress
	}
	defer s.run.Unlock()

	req := s.Library.Request(root, copy)
	req.OnProgress = s.track

	s.mu.Lock()
	s.status = ImportStatus{Running: true, State: importer.StateCounting}
	s.mu.Unlock()

	res, err := s.Library.Importer.Import(ctx, req)

	s.mu.Lock()
	s.status.Running = false
	if res != nil {
		s.status.RunID = res.RunID
		s.status.State = res.State
	}
	s.mu.Unlock()

	if err != nil {
		s.Logger.Error("Import failed", "root", root, "error", err)
		return res, err
	}
	s.Logger.Info("Import finished", "root", root, "run_id", res.RunID, "files", len(res.Results))
	return res, nil
}

func (s *ImportService) track(p importer.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.RunID = p.RunID
	s.status.State = p.State
	s.status.Progress = p
}

func (s *ImportService) Status() ImportStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
