// Package tiffio layers stateful, libtiff-style access over the parsed
// directory structure: a directory cursor, typed field reads, payload I/O,
// tile decoding, and a handle pool for concurrent callers.
package tiffio

import (
	"errors"
	"fmt"
	"os"

	"github.com/robert-malhotra/go-wsi/internal/tifflike"
)

var ErrClosed = errors.New("handle is closed")

// Handle is one open view of a TIFF file with a directory cursor. A Handle
// is not safe for concurrent use; acquire one per caller from a Pool.
type Handle struct {
	path   string
	f      *os.File
	tl     *tifflike.File
	cur    int
	closed bool
}

// Open opens the file and parses its directory structure.
func Open(path string) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	tl, err := tifflike.Parse(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Handle{path: path, f: f, tl: tl}, nil
}

// Close closes the handle. Idempotent.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.f.Close()
}

// Path returns the file path.
func (h *Handle) Path() string {
	return h.path
}

// Tifflike returns the parsed directory structure.
func (h *Handle) Tifflike() *tifflike.File {
	return h.tl
}

// DirectoryCount returns the number of directories in the file.
func (h *Handle) DirectoryCount() int {
	return h.tl.DirectoryCount()
}

// CurrentDirectory returns the cursor position.
func (h *Handle) CurrentDirectory() int {
	return h.cur
}

// SetDirectory positions the cursor.
func (h *Handle) SetDirectory(index int) error {
	if index < 0 || index >= h.tl.DirectoryCount() {
		return fmt.Errorf("directory %d out of range (file has %d)", index, h.tl.DirectoryCount())
	}
	h.cur = index
	return nil
}

// ReadDirectory advances the cursor, returning false at the end of the
// directory sequence.
func (h *Handle) ReadDirectory() bool {
	if h.cur+1 >= h.tl.DirectoryCount() {
		return false
	}
	h.cur++
	return true
}

// Dir returns the directory under the cursor.
func (h *Handle) Dir() *tifflike.Directory {
	return h.tl.Directory(h.cur)
}

// IsTiled reports whether the directory under the cursor is tiled.
func (h *Handle) IsTiled() bool {
	return h.tl.IsTiled(h.cur)
}

// readRaw reads a payload extent from the file.
func (h *Handle) readRaw(offset, count uint64) ([]byte, error) {
	if h.closed {
		return nil, ErrClosed
	}
	buf := make([]byte, count)
	if _, err := h.f.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("reading %d bytes at %d: %w", count, offset, err)
	}
	return buf, nil
}
