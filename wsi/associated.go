package wsi

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/robert-malhotra/go-wsi/internal/tiffio"
)

// associatedImage is a non-pyramid auxiliary image (thumbnail, label,
// macro) referenced by its directory index and decoded on first use.
type associatedImage struct {
	name string
	pool *tiffio.Pool
	geom *tiffio.FlatGeometry

	mu  sync.Mutex
	img image.Image
}

// addAssociatedImage validates the directory and registers it under name.
// A file is expected to contain at most one image per name; a duplicate is
// ignored so registration stays idempotent.
func (s *Slide) addAssociatedImage(name string, pool *tiffio.Pool, h *tiffio.Handle, dir int) error {
	if _, ok := s.associated[name]; ok {
		s.log.Debug("duplicate associated image", "name", name, "directory", dir)
		return nil
	}
	geom, err := tiffio.InitFlat(h, dir)
	if err != nil {
		return fmt.Errorf("associated image %q: %w", name, err)
	}
	s.associated[name] = &associatedImage{name: name, pool: pool, geom: geom}
	return nil
}

// AssociatedImageNames returns the registered associated-image names,
// sorted.
func (s *Slide) AssociatedImageNames() []string {
	names := make([]string, 0, len(s.associated))
	for name := range s.associated {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AssociatedImageDimensions returns an associated image's pixel dimensions
// without decoding it.
func (s *Slide) AssociatedImageDimensions(name string) (w, h int64, err error) {
	a, ok := s.associated[name]
	if !ok {
		return 0, 0, fmt.Errorf("%q: %w", name, ErrUnknownAssociated)
	}
	return a.geom.Width, a.geom.Height, nil
}

// AssociatedImage decodes an associated image. The decode runs once; later
// calls return the memoized image.
func (s *Slide) AssociatedImage(name string) (image.Image, error) {
	if s.closed {
		return nil, ErrClosed
	}
	a, ok := s.associated[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownAssociated)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.img != nil {
		return a.img, nil
	}

	h, err := a.pool.Get()
	if err != nil {
		return nil, err
	}
	defer a.pool.Put(h)

	img, err := h.DecodeFlat(a.geom)
	if err != nil {
		return nil, fmt.Errorf("decoding associated image %q: %w", name, err)
	}
	a.img = img
	return img, nil
}
