package wsi

import (
	"fmt"
	"hash"
	"image"
	"os"

	"github.com/robert-malhotra/go-wsi/internal/tifflike"
)

// format is one vendor driver: a detection predicate plus an open routine
// that fills in a Slide.
type format struct {
	name   string
	vendor string

	// detect reports whether the file looks like this format. tl is nil
	// when the file is not TIFF-structured at all. A returned error is a
	// format rejection, not a fatal condition; the next driver is tried.
	detect func(path string, tl *tifflike.File) error

	// open builds the slide's levels, associated images, properties, and
	// ops, feeding the identity digest into quickhash. Any error fails the
	// whole open and must leave no live resources behind.
	open func(s *Slide, path string, tl *tifflike.File, quickhash hash.Hash) error
}

// ops is the per-format operation bundle attached to an opened slide.
type ops interface {
	paintRegion(s *Slide, dst *image.RGBA, x, y int64, l *Level) error
	destroy()
}

// formats is the driver table, tried in order.
var formats []*format

func registerFormat(f *format) {
	formats = append(formats, f)
}

// DetectFormat reports which registered format claims the file, without
// opening it fully.
func DetectFormat(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	tl, _ := tifflike.Parse(f)

	var lastErr error
	for _, fm := range formats {
		if err := fm.detect(path, tl); err != nil {
			lastErr = err
			continue
		}
		return fm.name, nil
	}
	if lastErr == nil {
		lastErr = ErrFormatMismatch
	}
	return "", fmt.Errorf("no format recognizes %s: %w", path, lastErr)
}
