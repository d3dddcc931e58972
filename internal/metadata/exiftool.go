package metadata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/barasher/go-exiftool"

	"github.com/cesargomez89/photodex/internal/domain"
	"github.com/cesargomez89/photodex/internal/library"
)

// sniffBytes is enough for every signature mimetype knows.
const sniffBytes = 3072

// ExiftoolExtractor shells out to a long-running exiftool process. It reads
// files by their on-disk path, so the file system must be a library.Locator.
type ExiftoolExtractor struct {
	mu   sync.Mutex
	tool *exiftool.Exiftool
}

// NewExiftoolExtractor starts exiftool. Call Close when done.
func NewExiftoolExtractor() (*ExiftoolExtractor, error) {
	tool, err := exiftool.NewExiftool(
		exiftool.DateFormant("%Y:%m:%d %H:%M:%S"),
		exiftool.CoordFormant("%+.10f"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}
	return &ExiftoolExtractor{tool: tool}, nil
}

func (x *ExiftoolExtractor) Extract(ctx context.Context, fsys fs.FS, name string) (domain.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loc, ok := fsys.(library.Locator)
	if !ok {
		return nil, &domain.ExtractionError{Path: name, Err: errors.New("exiftool needs an on-disk library")}
	}

	head, err := readHead(fsys, name, sniffBytes)
	if err != nil {
		return nil, &domain.ExtractionError{Path: name, Err: err}
	}
	facts, err := fileFacts(fsys, name, head)
	if err != nil {
		return nil, &domain.ExtractionError{Path: name, Err: err}
	}

	// The exiftool process talks over one stdin/stdout pair.
	x.mu.Lock()
	infos := x.tool.ExtractMetadata(loc.OSPath(name))
	x.mu.Unlock()

	if len(infos) == 0 {
		return nil, &domain.ExtractionError{Path: name, Err: errors.New("exiftool returned no data")}
	}
	info := infos[0]
	if info.Err != nil {
		return nil, &domain.ExtractionError{Path: name, Err: info.Err}
	}

	return merge(facts, Interpret(info.Fields)), nil
}

// Close stops the exiftool process.
func (x *ExiftoolExtractor) Close() error {
	return x.tool.Close()
}
