package wsi

import (
	"fmt"
	"hash"
	"image"
	"image/draw"
	"sort"
	"strings"

	"github.com/robert-malhotra/go-wsi/internal/cache"
	"github.com/robert-malhotra/go-wsi/internal/codec"
	"github.com/robert-malhotra/go-wsi/internal/grid"
	"github.com/robert-malhotra/go-wsi/internal/tifflike"
	"github.com/robert-malhotra/go-wsi/internal/tiffio"
)

// Huron BigTIFF slides multiplex pyramid tile directories and flat
// auxiliary images (thumbnail, label, macro) in one sequential directory
// stream. The quickhash comes from the properties-and-hash pass over the
// coarsest pyramid directory.

const (
	labelDescription = "label"
	macroDescription = "macro"
)

func init() {
	registerFormat(&format{
		name:   "huron",
		vendor: "huron",
		detect: huronDetect,
		open:   huronOpen,
	})
}

// huronDetect accepts any tiled TIFF. The scanner maker/model tags are not
// consulted: detection has always admitted every tiled TIFF, and tightening
// it to the vendor's own files would change which slides open. Review
// before adding a vendor restriction here.
func huronDetect(path string, tl *tifflike.File) error {
	if tl == nil {
		return fmt.Errorf("%w: not a TIFF file", ErrFormatMismatch)
	}
	if !tl.IsTiled(0) {
		return fmt.Errorf("%w: TIFF is not tiled", ErrFormatMismatch)
	}
	return nil
}

// dirClass is the classifier's verdict on one directory.
type dirClass int

const (
	classSkip dirClass = iota
	classLevel
	classAssociated
)

type classification struct {
	kind dirClass
	name string // associated-image name when kind is classAssociated
}

// classifyDirectory decides what the directory under the handle's cursor
// is. It is a pure function of the directory's tags and file position, with
// no backtracking. A returned error is structural and fails the open;
// malformed-but-ignorable directories classify as skip instead.
func classifyDirectory(s *Slide, h *tiffio.Handle) (classification, error) {
	dir := h.CurrentDirectory()
	d := h.Dir()

	subfiletype, err := d.Uint(tifflike.TagNewSubfileType)
	if err != nil {
		// Auxiliary directories without a subfile type are legal; skip
		// silently rather than failing the open.
		s.log.Debug("failed to fetch subfiletype", "directory", dir)
		return classification{kind: classSkip}, nil
	}

	if h.IsTiled() {
		comp, err := d.Uint(tifflike.TagCompression)
		if err != nil {
			return classification{}, fmt.Errorf("can't read compression scheme: %w", err)
		}
		if !codec.Configured(uint16(comp)) {
			return classification{}, fmt.Errorf("unsupported TIFF compression: %d", comp)
		}
		return classification{kind: classLevel}, nil
	}

	// Flat image: required dimension tags, then shape sanity.
	var iw, ih, rps uint64
	for _, f := range []struct {
		tag uint16
		dst *uint64
	}{
		{tifflike.TagImageWidth, &iw},
		{tifflike.TagImageLength, &ih},
		{tifflike.TagRowsPerStrip, &rps},
	} {
		v, err := d.Uint(f.tag)
		if err != nil {
			return classification{}, fmt.Errorf("cannot get required TIFF tag %d: %w", f.tag, err)
		}
		*f.dst = v
	}
	if rps != 1 || iw == 0 || ih == 0 {
		return classification{kind: classSkip}, nil
	}

	desc, err := d.String(tifflike.TagImageDescription)
	if err != nil {
		return classification{kind: classSkip}, nil
	}
	desc = strings.TrimSpace(desc)

	switch {
	case dir == 1 && subfiletype == 0:
		return classification{kind: classAssociated, name: "thumbnail"}, nil
	case strings.HasPrefix(desc, labelDescription):
		return classification{kind: classAssociated, name: "label"}, nil
	case strings.HasPrefix(desc, macroDescription):
		return classification{kind: classAssociated, name: "macro"}, nil
	default:
		s.log.Debug("unclassified flat directory", "directory", dir, "subfiletype", subfiletype)
		return classification{kind: classSkip}, nil
	}
}

// huronOpen walks the directory stream once, accumulating tiled pyramid
// levels and registering associated images as it goes, then orders levels
// by resolution and takes the identity hash and resolution metadata from
// the coarsest one.
func huronOpen(s *Slide, path string, tl *tifflike.File, quickhash hash.Hash) error {
	pool := tiffio.NewPool(path, s.maxHandles)
	h, err := pool.Get()
	if err != nil {
		pool.Close()
		return err
	}

	ok := false
	defer func() {
		if !ok {
			pool.Put(h)
			pool.Close()
		}
	}()

	var levels []*Level
	for {
		c, err := classifyDirectory(s, h)
		if err != nil {
			return fmt.Errorf("directory %d: %w", h.CurrentDirectory(), err)
		}
		switch c.kind {
		case classLevel:
			geom, err := tiffio.InitLevel(h, h.CurrentDirectory())
			if err != nil {
				return err
			}
			levels = append(levels, &Level{geom: geom})
		case classAssociated:
			if err := s.addAssociatedImage(c.name, pool, h, h.CurrentDirectory()); err != nil {
				return err
			}
		}
		if !h.ReadDirectory() {
			break
		}
	}

	if len(levels) == 0 {
		return ErrNoLevels
	}

	// Highest resolution first. Equal widths sort in unspecified order;
	// width alone determines downsample, so ties carry no meaning.
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].geom.ImageW > levels[j].geom.ImageW
	})

	rep := levels[len(levels)-1].geom.Dir
	props, err := tl.InitPropertiesAndHash(rep, quickhash)
	if err != nil {
		return err
	}
	for k, v := range props {
		s.properties[k] = v
	}
	setResolutionProperty(s.properties, tl.Directory(rep), tifflike.TagXResolution, PropMPPX)

	base := float64(levels[0].geom.ImageW)
	for _, l := range levels {
		l.downsample = base / float64(l.geom.ImageW)
		l.grid = grid.NewSimple(l.geom.TilesAcross, l.geom.TilesDown,
			l.geom.TileW, l.geom.TileH, s.readTileFunc(l))
	}

	s.levels = levels
	s.ops = &huronOps{pool: pool}

	pool.Put(h)
	ok = true
	return nil
}

// readTileFunc returns the tile materializer for one level: cache lookup,
// decode and edge-clip on miss, then composite through the cache handle.
func (s *Slide) readTileFunc(l *Level) grid.ReadTileFunc {
	return func(dst *image.RGBA, dstX, dstY int, col, row int64, arg any) error {
		h := arg.(*tiffio.Handle)
		key := cache.Key{Level: l.directory(), Col: col, Row: row}

		buf, entry, err := s.cache.Fetch(key, func() ([]byte, error) {
			tile := make([]byte, l.geom.TileW*l.geom.TileH*4)
			if err := h.ReadTile(l.geom, tile, col, row); err != nil {
				return nil, err
			}
			if err := tiffio.ClipTile(l.geom, tile, col, row); err != nil {
				return nil, err
			}
			return tile, nil
		})
		if err != nil {
			return err
		}
		defer entry.Release()

		tileImg := &image.RGBA{
			Pix:    buf,
			Stride: int(l.geom.TileW) * 4,
			Rect:   image.Rect(0, 0, int(l.geom.TileW), int(l.geom.TileH)),
		}
		rect := image.Rect(dstX, dstY, dstX+int(l.geom.TileW), dstY+int(l.geom.TileH))
		draw.Draw(dst, rect, tileImg, image.Point{}, draw.Over)
		return nil
	}
}

// huronOps is the operation bundle attached to an opened Huron slide.
type huronOps struct {
	pool *tiffio.Pool
}

func (o *huronOps) destroy() {
	o.pool.Close()
}

// paintRegion translates the level 0 origin into the level's own space and
// delegates tile traversal and stitching to the level's grid, holding one
// pooled handle for the duration.
func (o *huronOps) paintRegion(s *Slide, dst *image.RGBA, x, y int64, l *Level) error {
	h, err := o.pool.Get()
	if err != nil {
		return err
	}
	defer o.pool.Put(h)

	return l.grid.PaintRegion(dst, h,
		int64(float64(x)/l.downsample),
		int64(float64(y)/l.downsample))
}
