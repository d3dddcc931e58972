package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cesargomez89/photodex/internal/constants"
)

func EnsureDir(path string) error {
	return os.MkdirAll(path, constants.DirPermissions)
}

func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}
	return nil
}

// WriteFile replaces path with data. The bytes go to a temporary sibling
// first, so readers never see a half-written file.
func WriteFile(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, constants.FilePermissions); err != nil {
		return err
	}
	if err := MoveFile(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// ImportDirName returns the name of the n-th candidate import directory for
// t. The first candidate has no suffix.
func ImportDirName(t time.Time, n int) string {
	name := constants.ImportDirPrefix + t.Format(constants.ImportDirTimestamp)
	if n > 0 {
		name += "-" + strconv.Itoa(n)
	}
	return name
}

// CreateImportDir creates a fresh import directory under root and returns
// its name. An existing directory is never reused.
func CreateImportDir(root string, now time.Time) (string, error) {
	if err := EnsureDir(root); err != nil {
		return "", fmt.Errorf("failed to create managed root: %w", err)
	}
	for n := 0; n < 1000; n++ {
		name := ImportDirName(now, n)
		err := os.Mkdir(filepath.Join(root, name), constants.DirPermissions)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("failed to create import dir: %w", err)
		}
	}
	return "", fmt.Errorf("no free import dir name under %s", root)
}

// CopyTree copies every regular file below src into dst, keeping the
// relative layout and modification times. It returns the number of files
// copied. A dst inside src is skipped. On failure the partial copy stays.
func CopyTree(src, dst string) (int, error) {
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return 0, err
	}

	copied := 0
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if abs, err := filepath.Abs(path); err == nil && abs == absDst {
				return filepath.SkipDir
			}
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}
			return EnsureDir(filepath.Join(dst, rel))
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if err := CopyFile(path, filepath.Join(dst, rel)); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return copied, nil
}

// CopyFile copies one file and carries over its modification time.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
