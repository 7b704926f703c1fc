// Package storage owns the on-disk layout of the media root and the
// primitives used to write into it safely: validated atomic commits and
// advisory cross-process locks.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Sentinel errors for common storage conditions.
var (
	// ErrInvalidInput indicates invalid or malformed input was provided.
	ErrInvalidInput = errors.New("storage: invalid input")
	// ErrUndersized indicates a file is at or below the minimum viable size.
	ErrUndersized = errors.New("storage: file below minimum viable size")
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
)

// StorageError wraps storage errors with operation and path context.
// Use errors.As() to extract this error type:
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("failed to %s %s: %v\n", storErr.Op, storErr.Path, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("lock", "commit", "stat", "mkdir").
	Op string
	// Path is the file the operation touched.
	Path string
	// Err is the underlying error that occurred.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Subdirectories of the media root.
const (
	DownloadedDir = "downloaded"
	ExtractedDir  = "extracted"
	ScratchDir    = "scratch"
)

// Layout resolves paths inside a media root:
//
//	<root>/downloaded/<id>.mp4   full cached media
//	<root>/extracted/<name>.mp4  rendered clips
//	<root>/scratch/              ephemeral audio for speech-to-text
type Layout struct {
	Root string
}

// NewLayout returns a Layout for root and creates its subdirectories.
func NewLayout(root string) (Layout, error) {
	if root == "" {
		return Layout{}, fmt.Errorf("%w: empty media root", ErrInvalidInput)
	}
	l := Layout{Root: root}
	for _, dir := range []string{l.DownloadedDir(), l.ExtractedDir(), l.ScratchDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Layout{}, &StorageError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	return l, nil
}

func (l Layout) DownloadedDir() string { return filepath.Join(l.Root, DownloadedDir) }
func (l Layout) ExtractedDir() string  { return filepath.Join(l.Root, ExtractedDir) }
func (l Layout) ScratchDir() string    { return filepath.Join(l.Root, ScratchDir) }

// MediaPath is the deterministic cache path for a video identifier.
func (l Layout) MediaPath(id string) string {
	return filepath.Join(l.DownloadedDir(), id+".mp4")
}

// ClipPath is the output path for a clip with the given base name.
func (l Layout) ClipPath(name string) string {
	return filepath.Join(l.ExtractedDir(), name)
}

// ViableSize returns the size of path and whether it exceeds minBytes.
// A missing file is reported as (0, false, nil).
func ViableSize(path string, minBytes int64) (int64, bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &StorageError{Op: "stat", Path: path, Err: err}
	}
	if info.IsDir() {
		return 0, false, &StorageError{Op: "stat", Path: path, Err: ErrInvalidInput}
	}
	return info.Size(), info.Size() > minBytes, nil
}

// CommitValidated renames tmpPath onto finalPath if tmpPath is larger than
// minBytes. On any failure tmpPath is removed and finalPath is untouched.
func CommitValidated(tmpPath, finalPath string, minBytes int64) (int64, error) {
	size, ok, err := ViableSize(tmpPath, minBytes)
	if err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	if !ok {
		os.Remove(tmpPath)
		return size, &StorageError{
			Op:   "commit",
			Path: finalPath,
			Err:  fmt.Errorf("%w: %d bytes (minimum %d)", ErrUndersized, size, minBytes),
		}
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return 0, &StorageError{Op: "commit", Path: finalPath, Err: err}
	}
	return size, nil
}
