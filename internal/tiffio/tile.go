package tiffio

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/robert-malhotra/go-wsi/internal/codec"
	"github.com/robert-malhotra/go-wsi/internal/tifflike"
)

// decoderParams reads the codec parameters of the directory under the
// cursor. JPEGTables absence is normal.
func (h *Handle) decoderParams() codec.Params {
	d := h.Dir()
	p := codec.Params{}
	if tables, err := d.Buffer(tifflike.TagJPEGTables); err == nil {
		p.JPEGTables = tables
	}
	if spp, err := d.Uint(tifflike.TagSamplesPerPixel); err == nil {
		p.SamplesPerPixel = int(spp)
	}
	if bits, err := d.Uint(tifflike.TagBitsPerSample); err == nil {
		p.BitsPerSample = int(bits)
	}
	return p
}

// compression returns the directory's compression scheme, defaulting to
// uncompressed when the tag is absent.
func (h *Handle) compression() uint16 {
	v, err := h.Dir().Uint(tifflike.TagCompression)
	if err != nil {
		return codec.CompressionNone
	}
	return uint16(v)
}

// ReadTile decodes tile (col, row) of the cursor directory into dst, a
// premultiplied RGBA buffer of TileW x TileH x 4 bytes.
func (h *Handle) ReadTile(g *LevelGeometry, dst []byte, col, row int64) error {
	if col < 0 || col >= g.TilesAcross || row < 0 || row >= g.TilesDown {
		return fmt.Errorf("tile (%d, %d) outside grid %dx%d", col, row, g.TilesAcross, g.TilesDown)
	}
	if want := g.TileW * g.TileH * 4; int64(len(dst)) != want {
		return fmt.Errorf("tile buffer is %d bytes, want %d", len(dst), want)
	}
	if err := h.SetDirectory(g.Dir); err != nil {
		return err
	}
	d := h.Dir()

	idx := int(row*g.TilesAcross + col)
	offsets, err := d.Uints(tifflike.TagTileOffsets)
	if err != nil {
		return fmt.Errorf("cannot get required TIFF tag TileOffsets: %w", err)
	}
	counts, err := d.Uints(tifflike.TagTileByteCounts)
	if err != nil {
		return fmt.Errorf("cannot get required TIFF tag TileByteCounts: %w", err)
	}
	if idx >= len(offsets) || idx >= len(counts) {
		return fmt.Errorf("tile index %d beyond offset table (%d entries)", idx, len(offsets))
	}

	raw, err := h.readRaw(offsets[idx], counts[idx])
	if err != nil {
		return err
	}

	dec, err := codec.New(h.compression(), h.decoderParams())
	if err != nil {
		return err
	}
	img, err := dec.Decode(raw, int(g.TileW), int(g.TileH))
	if err != nil {
		return fmt.Errorf("decoding tile (%d, %d): %w", col, row, err)
	}

	out := &image.RGBA{
		Pix:    dst,
		Stride: int(g.TileW) * 4,
		Rect:   image.Rect(0, 0, int(g.TileW), int(g.TileH)),
	}
	draw.Draw(out, out.Rect, img, img.Bounds().Min, draw.Src)
	return nil
}

// ClipTile zeroes the pixels of an edge tile that lie beyond the level's
// true extent. Interior tiles are untouched.
func ClipTile(g *LevelGeometry, buf []byte, col, row int64) error {
	if col < 0 || col >= g.TilesAcross || row < 0 || row >= g.TilesDown {
		return fmt.Errorf("tile (%d, %d) outside grid %dx%d", col, row, g.TilesAcross, g.TilesDown)
	}
	if want := g.TileW * g.TileH * 4; int64(len(buf)) != want {
		return fmt.Errorf("tile buffer is %d bytes, want %d", len(buf), want)
	}

	clipW := g.ImageW - col*g.TileW
	if clipW > g.TileW {
		clipW = g.TileW
	}
	clipH := g.ImageH - row*g.TileH
	if clipH > g.TileH {
		clipH = g.TileH
	}

	stride := g.TileW * 4
	for y := int64(0); y < g.TileH; y++ {
		rowStart := y * stride
		if y >= clipH {
			zero(buf[rowStart : rowStart+stride])
			continue
		}
		if clipW < g.TileW {
			zero(buf[rowStart+clipW*4 : rowStart+stride])
		}
	}
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
