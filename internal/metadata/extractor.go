package metadata

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/gabriel-vasile/mimetype"

	"github.com/cesargomez89/photodex/internal/constants"
	"github.com/cesargomez89/photodex/internal/domain"
)

// Extractor reads one file and returns its recognised metadata plus the
// file facts. Failures are *domain.ExtractionError and concern that file
// only.
type Extractor interface {
	Extract(ctx context.Context, fsys fs.FS, name string) (domain.Metadata, error)
}

// fileFacts stats name and sniffs its MIME type from the first bytes.
func fileFacts(fsys fs.FS, name string, head []byte) (domain.Metadata, error) {
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", name)
	}

	return domain.Metadata{
		KeyFileName:     path.Base(name),
		KeyFileSize:     float64(info.Size()),
		KeyMimeType:     mimetype.Detect(head).String(),
		KeyLastModified: info.ModTime().UTC().Format(constants.TimestampLayout),
	}, nil
}

// readHead returns up to n leading bytes of name.
func readHead(fsys fs.FS, name string, n int64) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, n))
}

func merge(facts, tags domain.Metadata) domain.Metadata {
	for k, v := range tags {
		facts[k] = v
	}
	return facts
}
