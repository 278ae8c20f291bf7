package tifflike

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/robert-malhotra/go-wsi/internal/tifftest"
)

func parseFixture(t *testing.T, b *tifftest.Builder) *File {
	t.Helper()
	f, err := Parse(bytes.NewReader(b.Build()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return f
}

func TestParseNotTIFF(t *testing.T) {
	cases := [][]byte{
		[]byte("definitely not a TIFF"),
		{'I', 'I', 41, 0, 8, 0, 0, 0},
		{'X', 'X', 42, 0, 8, 0, 0, 0},
		{},
	}
	for _, data := range cases {
		if _, err := Parse(bytes.NewReader(data)); !errors.Is(err, ErrNotTIFF) {
			t.Errorf("Parse(%q) = %v, want ErrNotTIFF", data, err)
		}
	}
}

func TestParseClassic(t *testing.T) {
	b := tifftest.New()
	b.AddDir().
		Long(tifftest.TagImageWidth, 640).
		Long(tifftest.TagImageLength, 480).
		Short(tifftest.TagCompression, 1).
		ASCII(tifftest.TagImageDescription, "first directory").
		Rational(tifftest.TagXResolution, 500, 1).
		Long(tifftest.TagTileWidth, 64).
		Long(tifftest.TagTileLength, 64)
	b.AddDir().
		Long(tifftest.TagImageWidth, 320).
		Long(tifftest.TagImageLength, 240)

	f := parseFixture(t, b)
	if f.IsBig() {
		t.Error("classic file reported as BigTIFF")
	}
	if f.DirectoryCount() != 2 {
		t.Fatalf("DirectoryCount = %d, want 2", f.DirectoryCount())
	}

	d := f.Directory(0)
	if w, err := d.Uint(TagImageWidth); err != nil || w != 640 {
		t.Errorf("ImageWidth = %d, %v", w, err)
	}
	if s, err := d.String(TagImageDescription); err != nil || s != "first directory" {
		t.Errorf("ImageDescription = %q, %v", s, err)
	}
	if v, err := d.Float(TagXResolution); err != nil || v != 500 {
		t.Errorf("XResolution = %v, %v", v, err)
	}
	if !f.IsTiled(0) {
		t.Error("directory 0 should be tiled")
	}
	if f.IsTiled(1) {
		t.Error("directory 1 should not be tiled")
	}
	if f.IsTiled(7) {
		t.Error("out-of-range directory reported tiled")
	}
}

func TestMissingTag(t *testing.T) {
	b := tifftest.New()
	b.AddDir().Long(tifftest.TagImageWidth, 10)

	d := parseFixture(t, b).Directory(0)
	if _, err := d.Uint(TagImageLength); !errors.Is(err, ErrNoValue) {
		t.Errorf("missing tag error = %v, want ErrNoValue", err)
	}
	if _, err := d.String(TagImageDescription); !errors.Is(err, ErrNoValue) {
		t.Errorf("missing string tag error = %v, want ErrNoValue", err)
	}
}

func TestTypeMismatch(t *testing.T) {
	b := tifftest.New()
	b.AddDir().ASCII(tifftest.TagImageDescription, "text")

	d := parseFixture(t, b).Directory(0)
	if _, err := d.Uint(TagImageDescription); !errors.Is(err, ErrBadType) {
		t.Errorf("Uint on ASCII tag = %v, want ErrBadType", err)
	}
}

func TestUintsArray(t *testing.T) {
	b := tifftest.New()
	b.AddDir().Longs(tifftest.TagTileOffsets, []uint32{100, 200, 300, 400, 500})

	d := parseFixture(t, b).Directory(0)
	vals, err := d.Uints(TagTileOffsets)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{100, 200, 300, 400, 500}
	if len(vals) != len(want) {
		t.Fatalf("got %d values, want %d", len(vals), len(want))
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("vals[%d] = %d, want %d", i, vals[i], want[i])
		}
	}
}

// buildBigTIFF hand-rolls a minimal one-directory BigTIFF.
func buildBigTIFF(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	le := binary.LittleEndian

	// Header: II, magic 43, offset size 8, reserved 0, first IFD at 16.
	buf.Write([]byte{'I', 'I', 43, 0, 8, 0, 0, 0})
	var off [8]byte
	le.PutUint64(off[:], 16)
	buf.Write(off[:])

	writeEntry := func(tag, typ uint16, count uint64, value uint64) {
		var e [20]byte
		le.PutUint16(e[0:2], tag)
		le.PutUint16(e[2:4], typ)
		le.PutUint64(e[4:12], count)
		le.PutUint64(e[12:20], value)
		buf.Write(e[:])
	}

	var cnt [8]byte
	le.PutUint64(cnt[:], 3)
	buf.Write(cnt[:])
	writeEntry(TagImageWidth, TypeLong, 1, 1024)
	writeEntry(TagImageLength, TypeLong, 1, 768)
	writeEntry(TagTileOffsets, TypeLong8, 1, 4096)
	buf.Write(make([]byte, 8)) // next IFD = 0
	return buf.Bytes()
}

func TestParseBigTIFF(t *testing.T) {
	f, err := Parse(bytes.NewReader(buildBigTIFF(t)))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !f.IsBig() {
		t.Error("BigTIFF not detected")
	}
	if f.DirectoryCount() != 1 {
		t.Fatalf("DirectoryCount = %d, want 1", f.DirectoryCount())
	}
	d := f.Directory(0)
	if w, err := d.Uint(TagImageWidth); err != nil || w != 1024 {
		t.Errorf("ImageWidth = %d, %v", w, err)
	}
	if v, err := d.Uint(TagTileOffsets); err != nil || v != 4096 {
		t.Errorf("TileOffsets = %d, %v", v, err)
	}
}

func TestRationalZeroDenominator(t *testing.T) {
	b := tifftest.New()
	b.AddDir().Rational(tifftest.TagXResolution, 10, 0)

	d := parseFixture(t, b).Directory(0)
	if _, err := d.Float(TagXResolution); err == nil {
		t.Error("expected error for zero denominator")
	}
}
