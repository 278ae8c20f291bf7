package tiffio

import (
	"strings"
	"testing"

	"github.com/robert-malhotra/go-wsi/internal/tifftest"
)

// levelFixture builds one tiled RGBA directory: 40x24 pixels, 16x16 tiles,
// 3x2 grid, each tile a distinct solid color.
func levelFixture(t *testing.T) string {
	t.Helper()
	var tiles [][]byte
	for i := 0; i < 6; i++ {
		tiles = append(tiles, tifftest.RawTileRGBA(16, 16, byte(10+i), byte(20+i), byte(30+i), 255))
	}
	b := tifftest.New()
	b.AddDir().TiledLevel(40, 24, 16, 16, tifftest.CompressionNone, tiles)
	return b.WriteFile(t, "level.tif")
}

func TestHandleCursor(t *testing.T) {
	b := tifftest.New()
	b.AddDir().Long(tifftest.TagImageWidth, 8).Long(tifftest.TagImageLength, 8)
	b.AddDir().Long(tifftest.TagImageWidth, 4).Long(tifftest.TagImageLength, 4)
	path := b.WriteFile(t, "two.tif")

	h, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if h.CurrentDirectory() != 0 {
		t.Errorf("cursor starts at %d", h.CurrentDirectory())
	}
	if !h.ReadDirectory() {
		t.Fatal("ReadDirectory should advance to directory 1")
	}
	if h.CurrentDirectory() != 1 {
		t.Errorf("cursor = %d after advance", h.CurrentDirectory())
	}
	if h.ReadDirectory() {
		t.Error("ReadDirectory should return false at the end")
	}
	if err := h.SetDirectory(0); err != nil {
		t.Errorf("SetDirectory(0): %v", err)
	}
	if err := h.SetDirectory(5); err == nil {
		t.Error("SetDirectory out of range should fail")
	}
}

func TestInitLevel(t *testing.T) {
	h, err := Open(levelFixture(t))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	g, err := InitLevel(h, 0)
	if err != nil {
		t.Fatalf("InitLevel failed: %v", err)
	}
	if g.ImageW != 40 || g.ImageH != 24 {
		t.Errorf("image = %dx%d, want 40x24", g.ImageW, g.ImageH)
	}
	if g.TileW != 16 || g.TileH != 16 {
		t.Errorf("tile = %dx%d, want 16x16", g.TileW, g.TileH)
	}
	// 40/16 and 24/16 round up.
	if g.TilesAcross != 3 || g.TilesDown != 2 {
		t.Errorf("grid = %dx%d, want 3x2", g.TilesAcross, g.TilesDown)
	}
}

func TestInitLevelNotTiled(t *testing.T) {
	b := tifftest.New()
	b.AddDir().FlatImage(8, 2, "flat", [][]byte{
		tifftest.RawRowRGB(8, 1, 2, 3),
		tifftest.RawRowRGB(8, 1, 2, 3),
	})
	h, err := Open(b.WriteFile(t, "flat.tif"))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if _, err := InitLevel(h, 0); err == nil || !strings.Contains(err.Error(), "not tiled") {
		t.Errorf("InitLevel on flat directory = %v", err)
	}
}

func TestReadTile(t *testing.T) {
	h, err := Open(levelFixture(t))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	g, err := InitLevel(h, 0)
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, g.TileW*g.TileH*4)
	if err := h.ReadTile(g, buf, 1, 1); err != nil {
		t.Fatalf("ReadTile failed: %v", err)
	}
	// Tile (1,1) is index 4: color (14, 24, 34, 255).
	if buf[0] != 14 || buf[1] != 24 || buf[2] != 34 || buf[3] != 255 {
		t.Errorf("pixel 0 = %v, want [14 24 34 255]", buf[:4])
	}

	if err := h.ReadTile(g, buf, 5, 0); err == nil {
		t.Error("expected error for tile outside grid")
	}
	if err := h.ReadTile(g, make([]byte, 16), 0, 0); err == nil {
		t.Error("expected error for undersized buffer")
	}
}

func TestClipTile(t *testing.T) {
	g := &LevelGeometry{ImageW: 40, ImageH: 24, TileW: 16, TileH: 16, TilesAcross: 3, TilesDown: 2}

	full := func() []byte {
		return tifftest.RawTileRGBA(16, 16, 1, 2, 3, 255)
	}

	// Interior tile untouched.
	buf := full()
	if err := ClipTile(g, buf, 0, 0); err != nil {
		t.Fatal(err)
	}
	for i, v := range buf {
		if v != full()[i] {
			t.Fatal("interior tile was modified by clipping")
		}
	}

	// Rightmost tile: columns beyond x=40 (tile-local 8..15) zeroed.
	buf = full()
	if err := ClipTile(g, buf, 2, 0); err != nil {
		t.Fatal(err)
	}
	at := func(x, y int) []byte {
		off := (y*16 + x) * 4
		return buf[off : off+4]
	}
	if p := at(7, 3); p[0] != 1 || p[3] != 255 {
		t.Errorf("pixel inside true width modified: %v", p)
	}
	if p := at(8, 3); p[0] != 0 || p[3] != 0 {
		t.Errorf("pixel beyond true width not cleared: %v", p)
	}

	// Bottom row tile: rows beyond y=24 (tile-local 8..15) zeroed.
	buf = full()
	if err := ClipTile(g, buf, 0, 1); err != nil {
		t.Fatal(err)
	}
	if p := at(3, 7); p[0] != 1 {
		t.Errorf("pixel inside true height modified: %v", p)
	}
	if p := at(3, 8); p[0] != 0 || p[3] != 0 {
		t.Errorf("pixel beyond true height not cleared: %v", p)
	}
}

func TestDecodeFlat(t *testing.T) {
	b := tifftest.New()
	b.AddDir().FlatImage(8, 3, "label - test", [][]byte{
		tifftest.RawRowRGB(8, 200, 0, 0),
		tifftest.RawRowRGB(8, 0, 200, 0),
		tifftest.RawRowRGB(8, 0, 0, 200),
	})
	h, err := Open(b.WriteFile(t, "label.tif"))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	g, err := InitFlat(h, 0)
	if err != nil {
		t.Fatal(err)
	}
	if g.Width != 8 || g.Height != 3 {
		t.Fatalf("flat geometry = %dx%d", g.Width, g.Height)
	}

	img, err := h.DecodeFlat(g)
	if err != nil {
		t.Fatalf("DecodeFlat failed: %v", err)
	}
	r, g2, bl, _ := img.At(0, 1).RGBA()
	if r>>8 != 0 || g2>>8 != 200 || bl>>8 != 0 {
		t.Errorf("row 1 pixel = (%d, %d, %d), want (0, 200, 0)", r>>8, g2>>8, bl>>8)
	}
}

func TestPoolReuse(t *testing.T) {
	p := NewPool(levelFixture(t), 2)
	defer p.Close()

	h1, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	h1.ReadDirectory()
	p.Put(h1)

	h2, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	if h2 != h1 {
		t.Error("pool should reuse the idle handle")
	}
	if h2.CurrentDirectory() != 0 {
		t.Error("reused handle cursor should be reset")
	}
	p.Put(h2)
}

func TestPoolClosed(t *testing.T) {
	p := NewPool(levelFixture(t), 2)
	h, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	p.Close()
	p.Put(h) // returned after close: must be closed, not pooled

	if _, err := p.Get(); err == nil {
		t.Error("Get after Close should fail")
	}
}
