package ioutils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrNotDir is returned by EnsureDir when the path exists but is a file.
var ErrNotDir = errors.New("path exists and is not a directory")

// EnsureDir creates a single directory if it doesn't exist.
//
// Unlike os.MkdirAll, parent directories are not created: a missing parent
// is reported as an error. The directory is created with mode 0755.
// If the directory already exists, no error is returned.
//
// Example:
//
//	err := EnsureDir("/home/user/.minecraft/mods")
//	// Fails if /home/user/.minecraft does not exist
func EnsureDir(path string) error {
	err := os.Mkdir(path, 0755)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("create directory %s: %w", path, err)
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		return fmt.Errorf("stat directory %s: %w", path, statErr)
	}
	if !info.IsDir() {
		return fmt.Errorf("create directory %s: %w", path, ErrNotDir)
	}
	return nil
}

// Exists reports whether anything is present at path.
//
// Errors other than "does not exist" (for example permission problems)
// are returned so the caller doesn't mistake them for a missing file.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// AtomicFile is a file that only appears under its final name once
// Commit succeeds.
//
// Data is written to a hidden temporary file in the same directory as the
// destination (so the final rename never crosses file systems). Abort
// removes the temporary file; calling it after Commit does nothing.
type AtomicFile struct {
	*os.File

	dest string
	done bool
}

// CreateAtomic opens a new temporary file that will become dest on Commit.
//
// The temporary name is ".<base>.<uuid>.part" next to dest.
func CreateAtomic(dest string) (*AtomicFile, error) {
	tmp := TempPath(dest)
	f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("create temporary file for %s: %w", dest, err)
	}
	return &AtomicFile{File: f, dest: dest}, nil
}

// TempPath returns a unique hidden sibling path for dest.
func TempPath(dest string) string {
	dir, base := filepath.Split(dest)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s.part", base, uuid.NewString()))
}

// Destination returns the final path of the file.
func (f *AtomicFile) Destination() string {
	return f.dest
}

// Commit syncs and closes the temporary file and renames it to the destination.
func (f *AtomicFile) Commit() error {
	if f.done {
		return nil
	}
	f.done = true

	tmp := f.Name()
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s to %s: %w", tmp, f.dest, err)
	}
	return nil
}

// Abort closes and removes the temporary file.
func (f *AtomicFile) Abort() error {
	if f.done {
		return nil
	}
	f.done = true

	f.Close()
	if err := os.Remove(f.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
