// Package fileutil provides file access helpers for model directories.
package fileutil

import (
	"io"
	"os"
	"path/filepath"

	"github.com/emolens/emolens/errors"
)

// Join joins path components for a model directory layout.
func Join(parts ...string) string {
	return filepath.Join(parts...)
}

// NewReader opens the file at path for reading.
func NewReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening '%s'", path)
	}
	return f, nil
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteFileAtomic writes buf to path via a temporary file and rename, so a
// partially written file is never observed at path.
func WriteFileAtomic(path string, buf []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "error creating '%s'", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "error creating temp file in '%s'", dir)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "error writing '%s'", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "error closing '%s'", tmp.Name())
	}
	return os.Rename(tmp.Name(), path)
}
