package grid

import (
	"errors"
	"image"
	"testing"
)

type call struct {
	col, row   int64
	dstX, dstY int
}

func TestPaintRegionSingleTile(t *testing.T) {
	var calls []call
	g := NewSimple(4, 4, 16, 16, func(dst *image.RGBA, dstX, dstY int, col, row int64, arg any) error {
		calls = append(calls, call{col, row, dstX, dstY})
		return nil
	})

	dst := image.NewRGBA(image.Rect(0, 0, 8, 8))
	if err := g.PaintRegion(dst, nil, 20, 20); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1: %v", len(calls), calls)
	}
	c := calls[0]
	if c.col != 1 || c.row != 1 {
		t.Errorf("tile = (%d, %d), want (1, 1)", c.col, c.row)
	}
	if c.dstX != -4 || c.dstY != -4 {
		t.Errorf("dst offset = (%d, %d), want (-4, -4)", c.dstX, c.dstY)
	}
}

func TestPaintRegionSpansTiles(t *testing.T) {
	var calls []call
	g := NewSimple(10, 10, 16, 16, func(dst *image.RGBA, dstX, dstY int, col, row int64, arg any) error {
		calls = append(calls, call{col, row, dstX, dstY})
		return nil
	})

	// A 32x32 region starting mid-tile touches a 3x3 block of tiles.
	dst := image.NewRGBA(image.Rect(0, 0, 32, 32))
	if err := g.PaintRegion(dst, nil, 8, 8); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 9 {
		t.Fatalf("got %d calls, want 9", len(calls))
	}
	if calls[0].col != 0 || calls[0].row != 0 {
		t.Errorf("first tile = (%d, %d), want (0, 0)", calls[0].col, calls[0].row)
	}
	if last := calls[len(calls)-1]; last.col != 2 || last.row != 2 {
		t.Errorf("last tile = (%d, %d), want (2, 2)", last.col, last.row)
	}
}

func TestPaintRegionClampsToGrid(t *testing.T) {
	var calls []call
	g := NewSimple(2, 2, 16, 16, func(dst *image.RGBA, dstX, dstY int, col, row int64, arg any) error {
		calls = append(calls, call{col, row, dstX, dstY})
		return nil
	})

	// Region extends past the last tile; only real tiles are requested.
	dst := image.NewRGBA(image.Rect(0, 0, 64, 64))
	if err := g.PaintRegion(dst, nil, 16, 16); err != nil {
		t.Fatal(err)
	}
	for _, c := range calls {
		if c.col > 1 || c.row > 1 || c.col < 0 || c.row < 0 {
			t.Errorf("tile (%d, %d) outside 2x2 grid", c.col, c.row)
		}
	}
}

func TestPaintRegionNegativeOrigin(t *testing.T) {
	var calls []call
	g := NewSimple(4, 4, 16, 16, func(dst *image.RGBA, dstX, dstY int, col, row int64, arg any) error {
		calls = append(calls, call{col, row, dstX, dstY})
		return nil
	})

	dst := image.NewRGBA(image.Rect(0, 0, 8, 8))
	if err := g.PaintRegion(dst, nil, -4, -4); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 || calls[0].col != 0 || calls[0].row != 0 {
		t.Fatalf("calls = %v, want only tile (0, 0)", calls)
	}
	if calls[0].dstX != 4 || calls[0].dstY != 4 {
		t.Errorf("dst offset = (%d, %d), want (4, 4)", calls[0].dstX, calls[0].dstY)
	}
}

func TestPaintRegionPropagatesError(t *testing.T) {
	boom := errors.New("decode error")
	g := NewSimple(4, 4, 16, 16, func(dst *image.RGBA, dstX, dstY int, col, row int64, arg any) error {
		return boom
	})

	dst := image.NewRGBA(image.Rect(0, 0, 8, 8))
	if err := g.PaintRegion(dst, nil, 0, 0); !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped %v", err, boom)
	}
}
