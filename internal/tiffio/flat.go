package tiffio

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/robert-malhotra/go-wsi/internal/codec"
	"github.com/robert-malhotra/go-wsi/internal/tifflike"
)

// FlatGeometry describes a strip-organized (non-tiled) directory.
type FlatGeometry struct {
	Dir    int
	Width  int64
	Height int64
}

// InitFlat validates a flat directory's dimensions.
func InitFlat(h *Handle, dir int) (*FlatGeometry, error) {
	d := h.tl.Directory(dir)
	if d == nil {
		return nil, fmt.Errorf("directory %d out of range", dir)
	}
	w, err := d.Uint(tifflike.TagImageWidth)
	if err != nil {
		return nil, fmt.Errorf("cannot get required TIFF tag ImageWidth: %w", err)
	}
	ht, err := d.Uint(tifflike.TagImageLength)
	if err != nil {
		return nil, fmt.Errorf("cannot get required TIFF tag ImageLength: %w", err)
	}
	if w == 0 || ht == 0 {
		return nil, fmt.Errorf("directory %d has empty dimensions %dx%d", dir, w, ht)
	}
	return &FlatGeometry{Dir: dir, Width: int64(w), Height: int64(ht)}, nil
}

// DecodeFlat decodes a strip-organized directory into an image.
func (h *Handle) DecodeFlat(g *FlatGeometry) (image.Image, error) {
	if err := h.SetDirectory(g.Dir); err != nil {
		return nil, err
	}
	d := h.Dir()

	offsets, err := d.Uints(tifflike.TagStripOffsets)
	if err != nil {
		return nil, fmt.Errorf("cannot get required TIFF tag StripOffsets: %w", err)
	}
	counts, err := d.Uints(tifflike.TagStripByteCounts)
	if err != nil {
		return nil, fmt.Errorf("cannot get required TIFF tag StripByteCounts: %w", err)
	}
	if len(offsets) != len(counts) {
		return nil, fmt.Errorf("strip offset/bytecount mismatch (%d vs %d)", len(offsets), len(counts))
	}

	rowsPerStrip := int64(1)
	if v, err := d.Uint(tifflike.TagRowsPerStrip); err == nil && v > 0 {
		rowsPerStrip = int64(v)
	}

	dec, err := codec.New(h.compression(), h.decoderParams())
	if err != nil {
		return nil, err
	}

	out := image.NewRGBA(image.Rect(0, 0, int(g.Width), int(g.Height)))
	for i := range offsets {
		y := int64(i) * rowsPerStrip
		if y >= g.Height {
			break
		}
		rows := rowsPerStrip
		if y+rows > g.Height {
			rows = g.Height - y
		}

		raw, err := h.readRaw(offsets[i], counts[i])
		if err != nil {
			return nil, err
		}
		strip, err := dec.Decode(raw, int(g.Width), int(rows))
		if err != nil {
			return nil, fmt.Errorf("decoding strip %d: %w", i, err)
		}
		rect := image.Rect(0, int(y), int(g.Width), int(y+rows))
		draw.Draw(out, rect, strip, strip.Bounds().Min, draw.Src)
	}
	return out, nil
}
