// Package safe reads untrusted input files and converts values across
// integer widths without silent wraparound.
package safe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultMaxFileSize bounds ReadFile when no limit is given (2 GiB).
const DefaultMaxFileSize int64 = 2 << 30

var (
	// ErrFileTooLarge is returned when a file exceeds the read limit.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrSymlink is returned for symlinks unless they are allowed.
	ErrSymlink = errors.New("symlinks are not allowed")
	// ErrNotRegular is returned for directories, devices and pipes.
	ErrNotRegular = errors.New("not a regular file")
)

// ReadOptions configures ReadFile.
type ReadOptions struct {
	// MaxSize is the maximum allowed file size in bytes. Zero means
	// DefaultMaxFileSize.
	MaxSize int64
	// AllowSymlinks follows symlinks instead of rejecting them.
	AllowSymlinks bool
}

// ReadFile reads a whole file after checking that it is a regular file
// within the size limit. Symlinks are rejected unless allowed.
func ReadFile(path string, opts *ReadOptions) ([]byte, error) {
	if opts == nil {
		opts = &ReadOptions{}
	}
	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Lstat(cleanPath)
	if err != nil {
		return nil, err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if !opts.AllowSymlinks {
			return nil, fmt.Errorf("%q: %w", path, ErrSymlink)
		}
		info, err = os.Stat(cleanPath)
		if err != nil {
			return nil, err
		}
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%q: %w", path, ErrNotRegular)
	}

	if info.Size() > maxSize {
		return nil, fmt.Errorf("%q is %d bytes: %w (%d bytes)", path, info.Size(), ErrFileTooLarge, maxSize)
	}

	// #nosec G304 - the path has been validated above.
	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	// The file may grow between the stat and the read.
	buf, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(buf)) > maxSize {
		return nil, fmt.Errorf("%q: %w (%d bytes)", path, ErrFileTooLarge, maxSize)
	}
	return buf, nil
}
