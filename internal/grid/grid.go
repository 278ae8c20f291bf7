// Package grid stitches fixed-size tiles into an output raster.
//
// A Grid knows one level's tile layout and delegates per-tile pixel
// production to a callback; it owns only the mapping from an output
// rectangle to the range of tiles that cover it.
package grid

import (
	"fmt"
	"image"
)

// ReadTileFunc produces one tile's pixels into dst. The tile's origin lands
// at (dstX, dstY) in dst coordinates, which may be negative or beyond dst's
// bounds on edge tiles; implementations draw through image/draw, which
// clips. arg is the opaque per-paint state threaded through PaintRegion.
type ReadTileFunc func(dst *image.RGBA, dstX, dstY int, col, row int64, arg any) error

// Grid maps output rectangles to tile ranges for one pyramid level.
type Grid struct {
	tilesAcross int64
	tilesDown   int64
	tileW       int64
	tileH       int64
	readTile    ReadTileFunc
}

// NewSimple creates a grid over a uniform tile layout.
func NewSimple(tilesAcross, tilesDown, tileW, tileH int64, readTile ReadTileFunc) *Grid {
	return &Grid{
		tilesAcross: tilesAcross,
		tilesDown:   tilesDown,
		tileW:       tileW,
		tileH:       tileH,
		readTile:    readTile,
	}
}

// PaintRegion fills dst with the region whose top-left corner is (x, y) in
// level pixel coordinates. Tiles outside the grid are left untouched
// (transparent background); the first tile error aborts the paint.
func (g *Grid) PaintRegion(dst *image.RGBA, arg any, x, y int64) error {
	if g.tileW <= 0 || g.tileH <= 0 {
		return fmt.Errorf("invalid tile size %dx%d", g.tileW, g.tileH)
	}
	w := int64(dst.Bounds().Dx())
	h := int64(dst.Bounds().Dy())
	if w <= 0 || h <= 0 {
		return nil
	}

	startCol := clamp(floorDiv(x, g.tileW), 0, g.tilesAcross-1)
	endCol := clamp(floorDiv(x+w-1, g.tileW), 0, g.tilesAcross-1)
	startRow := clamp(floorDiv(y, g.tileH), 0, g.tilesDown-1)
	endRow := clamp(floorDiv(y+h-1, g.tileH), 0, g.tilesDown-1)

	for row := startRow; row <= endRow; row++ {
		for col := startCol; col <= endCol; col++ {
			dstX := col*g.tileW - x
			dstY := row*g.tileH - y
			if err := g.readTile(dst, int(dstX), int(dstY), col, row, arg); err != nil {
				return fmt.Errorf("tile (%d, %d): %w", col, row, err)
			}
		}
	}
	return nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
