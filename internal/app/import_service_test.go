package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cesargomez89/photodex/internal/config"
	"github.com/cesargomez89/photodex/internal/constants"
	"github.com/cesargomez89/photodex/internal/importer"
	"github.com/cesargomez89/photodex/internal/logger"
)

func setupTestLibrary(t *testing.T) (*Library, func()) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Load()
	cfg.DBPath = filepath.Join(dir, "data", "photodex.db")
	cfg.ManagedRoot = filepath.Join(dir, "managed")
	cfg.Extractor = constants.ExtractorExif

	lib, err := Open(context.Background(), cfg, logger.Discard())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return lib, func() { lib.Close(context.Background()) }
}

func writeImages(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		// A PNG signature is enough for file facts; there is no EXIF block.
		if err := os.WriteFile(full, []byte("\x89PNG\r\n\x1a\n"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
}

func TestImportService_Import(t *testing.T) {
	lib, cleanup := setupTestLibrary(t)
	defer cleanup()
	ctx := context.Background()

	root := t.TempDir()
	writeImages(t, root, "a.png", "trip/b.png", "trip/c.png")
	svc := NewImportService(lib, logger.Discard())

	if st := svc.Status(); st.Running || st.State != importer.StateIdle {
		t.Errorf("Expected idle status, got %+v", st)
	}

	res, err := svc.Import(ctx, root, false)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(res.Results) != 3 || res.Succeeded() != 3 {
		t.Errorf("Expected 3 successful results, got %d/%d", res.Succeeded(), len(res.Results))
	}

	st := svc.Status()
	if st.Running || st.State != importer.StateCompleted || st.RunID != res.RunID {
		t.Errorf("Unexpected status after import: %+v", st)
	}
	if st.Progress.Completed != 3 {
		t.Errorf("Expected 3 completed, got %d", st.Progress.Completed)
	}

	rec, err := lib.Repo.GetImageByPath(ctx, "trip/b.png")
	if err != nil {
		t.Fatalf("GetImageByPath failed: %v", err)
	}
	if rec == nil || rec.MimeType != "image/png" {
		t.Errorf("Expected stored png record, got %+v", rec)
	}
}

func TestImportService_CopyIntoManagedRoot(t *testing.T) {
	lib, cleanup := setupTestLibrary(t)
	defer cleanup()
	ctx := context.Background()

	root := t.TempDir()
	writeImages(t, root, "x.png")
	svc := NewImportService(lib, logger.Discard())

	res, err := svc.Import(ctx, root, true)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(res.Results) != 1 || !strings.HasPrefix(res.Results[0].Path, constants.ImportDirPrefix) {
		t.Errorf("Expected prefixed path, got %+v", res.Results)
	}

	target, err := lib.Eject(ctx)
	if err != nil {
		t.Fatalf("Eject failed: %v", err)
	}
	if target != filepath.Join(lib.Config.ManagedRoot, constants.EjectFileName) {
		t.Errorf("Unexpected eject target %q", target)
	}
}

func TestImportService_RejectsConcurrentImport(t *testing.T) {
	lib, cleanup := setupTestLibrary(t)
	defer cleanup()
	svc := NewImportService(lib, logger.Discard())

	svc.run.Lock()
	_, err := svc.Import(context.Background(), t.TempDir(), false)
	svc.run.Unlock()

	if !errors.Is(err, ErrImportInProgress) {
		t.Errorf("Expected ErrImportInProgress, got %v", err)
	}
}

func TestLibrary_EjectWithoutManagedRoot(t *testing.T) {
	lib, cleanup := setupTestLibrary(t)
	defer cleanup()
	lib.Config.ManagedRoot = ""

	if _, err := lib.Eject(context.Background()); !errors.Is(err, ErrNoManagedRoot) {
		t.Errorf("Expected ErrNoManagedRoot, got %v", err)
	}
}

func TestNewExtractor(t *testing.T) {
	if _, _, err := NewExtractor("magic"); err == nil {
		t.Error("Expected error for unknown extractor")
	}
	x, closeFn, err := NewExtractor(constants.ExtractorExif)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}
	if x == nil {
		t.Error("Expected extractor")
	}
	if err := closeFn(); err != nil {
		t.Errorf("close failed: %v", err)
	}
}

func TestShared_OpensOnce(t *testing.T) {
	cfg := config.Load()
	cfg.DBPath = filepath.Join(t.TempDir(), "shared.db")

	first, err := Shared(context.Background(), cfg, logger.Discard())
	if err != nil {
		t.Fatalf("Shared failed: %v", err)
	}
	defer first.Close(context.Background())

	other := *cfg
	other.DBPath = filepath.Join(t.TempDir(), "ignored.db")
	second, err := Shared(context.Background(), &other, logger.Discard())
	if err != nil {
		t.Fatalf("Shared failed: %v", err)
	}
	if first != second {
		t.Error("Expected the same library from both calls")
	}
	if second.Config.DBPath != cfg.DBPath {
		t.Errorf("Expected the first configuration to win, got %q", second.Config.DBPath)
	}
}
