// Package library walks photo directories.
package library

import (
	"io/fs"
	"iter"
	"path"
	"sort"
	"strings"

	"github.com/cesargomez89/photodex/internal/constants"
	"github.com/cesargomez89/photodex/internal/domain"
)

// Entry is one image file found by Enumerate.
type Entry struct {
	// Path is relative to the walked root and always uses '/'.
	Path string
	Name string
}

var imageExts = func() map[string]bool {
	m := make(map[string]bool, len(constants.ImageExtensions))
	for _, ext := range constants.ImageExtensions {
		m["."+ext] = true
	}
	return m
}()

// IsImage reports whether name carries a recognised image extension.
// The match is case-insensitive.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(path.Ext(name))]
}

// Enumerate lazily walks fsys depth first in name order and yields every
// image file. Entries of the root are at depth 0; a directory deeper than
// maxDepth is not descended into.
//
// A directory that cannot be read yields an *domain.EnumerationError and
// ends the sequence. Every call walks the tree again.
func Enumerate(fsys fs.FS, maxDepth int) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		walk(fsys, ".", 0, maxDepth, yield)
	}
}

// walk returns false once the consumer stopped or an error was yielded.
func walk(fsys fs.FS, dir string, depth, maxDepth int, yield func(Entry, error) bool) bool {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		yield(Entry{}, &domain.EnumerationError{Path: dir, Err: err})
		return false
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, de := range entries {
		name := de.Name()
		p := name
		if dir != "." {
			p = dir + "/" + name
		}

		switch {
		case de.IsDir():
			if depth > maxDepth {
				continue
			}
			if !walk(fsys, p, depth+1, maxDepth, yield) {
				return false
			}
		case de.Type().IsRegular():
			if !IsImage(name) {
				continue
			}
			if !yield(Entry{Path: p, Name: name}, nil) {
				return false
			}
		}
	}
	return true
}

// Count walks until it has seen limit images or the tree is exhausted.
// A limit of 0 or less counts everything.
func Count(fsys fs.FS, maxDepth, limit int) (int, error) {
	n := 0
	for _, err := range Enumerate(fsys, maxDepth) {
		if err != nil {
			return n, err
		}
		n++
		if limit > 0 && n >= limit {
			break
		}
	}
	return n, nil
}

// Collect returns every image path in walk order.
func Collect(fsys fs.FS, maxDepth int) ([]string, error) {
	var paths []string
	for entry, err := range Enumerate(fsys, maxDepth) {
		if err != nil {
			return nil, err
		}
		paths = append(paths, entry.Path)
	}
	return paths, nil
}
