package tiffio

import (
	"fmt"

	"github.com/robert-malhotra/go-wsi/internal/tifflike"
)

// LevelGeometry describes one tiled directory's pixel and tile layout.
type LevelGeometry struct {
	Dir    int
	ImageW int64
	ImageH int64
	TileW  int64
	TileH  int64

	TilesAcross int64
	TilesDown   int64
}

// InitLevel reads and validates the tile geometry of a directory.
func InitLevel(h *Handle, dir int) (*LevelGeometry, error) {
	if !h.tl.IsTiled(dir) {
		return nil, fmt.Errorf("directory %d is not tiled", dir)
	}
	d := h.tl.Directory(dir)

	g := &LevelGeometry{Dir: dir}
	for _, f := range []struct {
		tag  uint16
		dst  *int64
		name string
	}{
		{tifflike.TagImageWidth, &g.ImageW, "ImageWidth"},
		{tifflike.TagImageLength, &g.ImageH, "ImageLength"},
		{tifflike.TagTileWidth, &g.TileW, "TileWidth"},
		{tifflike.TagTileLength, &g.TileH, "TileLength"},
	} {
		v, err := d.Uint(f.tag)
		if err != nil {
			return nil, fmt.Errorf("cannot get required TIFF tag %s: %w", f.name, err)
		}
		if v == 0 {
			return nil, fmt.Errorf("directory %d has zero %s", dir, f.name)
		}
		*f.dst = int64(v)
	}

	g.TilesAcross = (g.ImageW + g.TileW - 1) / g.TileW
	g.TilesDown = (g.ImageH + g.TileH - 1) / g.TileH
	return g, nil
}
