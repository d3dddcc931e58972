package library

import (
	"io/fs"
	"os"
	"path/filepath"
)

// DirFS is an os.DirFS that remembers its root, so a path string can be
// turned back into a file in any goroutine.
type DirFS struct {
	fs.FS
	root string
}

// NewDirFS opens root as a file system.
func NewDirFS(root string) *DirFS {
	return &DirFS{FS: os.DirFS(root), root: root}
}

// Root returns the directory this file system was opened on.
func (d *DirFS) Root() string {
	return d.root
}

// OSPath converts a slash-separated name back to an operating system path.
func (d *DirFS) OSPath(name string) string {
	return filepath.Join(d.root, filepath.FromSlash(name))
}

// Stat implements fs.StatFS.
func (d *DirFS) Stat(name string) (fs.FileInfo, error) {
	return fs.Stat(d.FS, name)
}

// Locator is implemented by file systems backed by real directories.
type Locator interface {
	OSPath(name string) string
}
