package metadata

import (
	"context"
	"errors"
	"io/fs"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"

	"github.com/cesargomez89/photodex/internal/domain"
)

// ExifExtractor parses the EXIF block in-process with go-exif.
type ExifExtractor struct{}

// NewExifExtractor returns the default extractor.
func NewExifExtractor() *ExifExtractor {
	return &ExifExtractor{}
}

func (x *ExifExtractor) Extract(ctx context.Context, fsys fs.FS, name string) (domain.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	head, err := readHead(fsys, name, sniffBytes)
	if err != nil {
		return nil, &domain.ExtractionError{Path: name, Err: err}
	}

	facts, err := fileFacts(fsys, name, head)
	if err != nil {
		return nil, &domain.ExtractionError{Path: name, Err: err}
	}

	rawExif, err := searchExif(fsys, name)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return facts, nil
		}
		return nil, &domain.ExtractionError{Path: name, Err: err}
	}

	raw, err := collectTags(rawExif)
	if err != nil {
		return nil, &domain.ExtractionError{Path: name, Err: err}
	}

	return merge(facts, Interpret(raw)), nil
}

// searchExif scans the file for the EXIF header without loading the bytes
// that precede it.
func searchExif(fsys fs.FS, name string) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return exif.SearchAndExtractExifWithReader(f)
}

// collectTags walks IFD0 and its child IFDs (EXIF, GPS, interop). The first
// occurrence of a tag name wins. Tags whose value cannot be decoded are
// skipped.
func collectTags(rawExif []byte) (map[string]any, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, err
	}

	ti := exif.NewTagIndex()

	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]any)
	err = index.RootIfd.EnumerateTagsRecursively(func(ifd *exif.Ifd, ite *exif.IfdTagEntry) error {
		name := ite.TagName()
		if _, seen := raw[name]; seen {
			return nil
		}
		value, err := ite.Value()
		if err != nil {
			return nil
		}
		raw[name] = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}
