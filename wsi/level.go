package wsi

import (
	"github.com/robert-malhotra/go-wsi/internal/grid"
	"github.com/robert-malhotra/go-wsi/internal/tiffio"
)

// Level is one pyramid resolution tier, backed by one tiled directory.
// Levels are built during open and immutable afterwards; they may be read
// from any goroutine.
type Level struct {
	geom       *tiffio.LevelGeometry
	grid       *grid.Grid
	downsample float64
}

// Width returns the level's full-resolution pixel width.
func (l *Level) Width() int64 {
	return l.geom.ImageW
}

// Height returns the level's full-resolution pixel height.
func (l *Level) Height() int64 {
	return l.geom.ImageH
}

// TileWidth returns the level's tile width.
func (l *Level) TileWidth() int64 {
	return l.geom.TileW
}

// TileHeight returns the level's tile height.
func (l *Level) TileHeight() int64 {
	return l.geom.TileH
}

// TilesAcross returns the tile-grid column count.
func (l *Level) TilesAcross() int64 {
	return l.geom.TilesAcross
}

// TilesDown returns the tile-grid row count.
func (l *Level) TilesDown() int64 {
	return l.geom.TilesDown
}

// Downsample returns the level's resolution ratio relative to level 0.
func (l *Level) Downsample() float64 {
	return l.downsample
}

// directory returns the backing directory index in the file.
func (l *Level) directory() int {
	return l.geom.Dir
}
