package wsi

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"os"

	"github.com/robert-malhotra/go-wsi/internal/cache"
	"github.com/robert-malhotra/go-wsi/internal/logger"
	"github.com/robert-malhotra/go-wsi/internal/tifflike"
)

// Slide represents an open whole-slide image.
//
// A Slide may be shared across goroutines: levels and properties are
// immutable after Open, region reads acquire their own file handles, and
// the tile cache is internally synchronized.
type Slide struct {
	path       string
	formatName string
	levels     []*Level
	properties map[string]string
	quickhash  string
	associated map[string]*associatedImage
	ops        ops
	cache      *cache.Cache
	log        logger.Logger
	maxHandles int
	closed     bool
}

// Open opens a slide file, trying each registered format in order.
func Open(path string, opts ...Option) (*Slide, error) {
	o := defaultOpenOptions()
	for _, opt := range opts {
		opt(o)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	// Not being TIFF-structured is not fatal yet; each driver's detect
	// decides what to make of a nil parse.
	tl, _ := tifflike.Parse(f)

	var lastReject error
	for _, fm := range formats {
		if err := fm.detect(path, tl); err != nil {
			lastReject = err
			continue
		}

		s := &Slide{
			path:       path,
			formatName: fm.name,
			properties: make(map[string]string),
			associated: make(map[string]*associatedImage),
			cache:      cache.New(o.cacheSize),
			log:        o.log.With("format", fm.name),
			maxHandles: o.maxHandles,
		}
		quickhash := sha256.New()
		if err := fm.open(s, path, tl, quickhash); err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}

		s.quickhash = hex.EncodeToString(quickhash.Sum(nil))
		s.properties[PropVendor] = fm.vendor
		s.properties[PropQuickHash] = s.quickhash
		setLevelProperties(s.properties, s.levels)
		return s, nil
	}

	if lastReject == nil {
		lastReject = ErrFormatMismatch
	}
	return nil, fmt.Errorf("no format recognizes %s: %w", path, lastReject)
}

// Close releases the slide's handles and cache. Idempotent.
func (s *Slide) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.ops != nil {
		s.ops.destroy()
	}
	return nil
}

// Path returns the slide's file path.
func (s *Slide) Path() string {
	return s.path
}

// Format returns the name of the format that opened the slide.
func (s *Slide) Format() string {
	return s.formatName
}

// LevelCount returns the number of pyramid levels.
func (s *Slide) LevelCount() int {
	return len(s.levels)
}

// Level returns level i, highest resolution first.
func (s *Slide) Level(i int) (*Level, error) {
	if i < 0 || i >= len(s.levels) {
		return nil, fmt.Errorf("level %d: %w", i, ErrInvalidLevel)
	}
	return s.levels[i], nil
}

// Dimensions returns level 0's pixel dimensions.
func (s *Slide) Dimensions() (w, h int64) {
	return s.levels[0].Width(), s.levels[0].Height()
}

// LevelDimensions returns one level's pixel dimensions.
func (s *Slide) LevelDimensions(i int) (w, h int64, err error) {
	l, err := s.Level(i)
	if err != nil {
		return 0, 0, err
	}
	return l.Width(), l.Height(), nil
}

// LevelDownsample returns one level's downsample factor.
func (s *Slide) LevelDownsample(i int) (float64, error) {
	l, err := s.Level(i)
	if err != nil {
		return 0, err
	}
	return l.downsample, nil
}

// BestLevelForDownsample returns the most detailed level whose downsample
// does not exceed the requested factor.
func (s *Slide) BestLevelForDownsample(downsample float64) int {
	best := 0
	for i, l := range s.levels {
		if l.downsample <= downsample {
			best = i
		}
	}
	return best
}

// ReadRegion paints a w x h region of the given level into a new image.
// x and y locate the region's top-left corner in level 0 coordinates.
// Pixels outside the slide remain transparent.
func (s *Slide) ReadRegion(x, y int64, level, w, h int) (*image.RGBA, error) {
	if s.closed {
		return nil, ErrClosed
	}
	l, err := s.Level(level)
	if err != nil {
		return nil, err
	}
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("negative region size %dx%d", w, h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst, nil
	}
	if err := s.ops.paintRegion(s, dst, x, y, l); err != nil {
		return nil, err
	}
	return dst, nil
}

// Properties returns a copy of the slide's property map.
func (s *Slide) Properties() map[string]string {
	out := make(map[string]string, len(s.properties))
	for k, v := range s.properties {
		out[k] = v
	}
	return out
}

// Property returns one property value ("" if unset).
func (s *Slide) Property(name string) string {
	return s.properties[name]
}

// QuickHash returns the slide's identity hash as a hex string.
func (s *Slide) QuickHash() string {
	return s.quickhash
}
