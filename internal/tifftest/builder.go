// Package tifftest builds small TIFF files for tests.
//
// The builder writes classic little-endian TIFF: payloads and out-of-line
// values first, then the entry table, with inline storage for values that
// fit in the four-byte value field.
package tifftest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// Field types
const (
	TypeByte     = 1
	TypeASCII    = 2
	TypeShort    = 3
	TypeLong     = 4
	TypeRational = 5
)

// Tags used by fixtures.
const (
	TagNewSubfileType   = 254
	TagImageWidth       = 256
	TagImageLength      = 257
	TagBitsPerSample    = 258
	TagCompression      = 259
	TagPhotometric      = 262
	TagImageDescription = 270
	TagMake             = 271
	TagModel            = 272
	TagStripOffsets     = 273
	TagSamplesPerPixel  = 277
	TagRowsPerStrip     = 278
	TagStripByteCounts  = 279
	TagXResolution      = 282
	TagResolutionUnit   = 296
	TagTileWidth        = 322
	TagTileLength       = 323
	TagTileOffsets      = 324
	TagTileByteCounts   = 325
)

// Compression ids.
const (
	CompressionNone    = 1
	CompressionJPEG    = 7
	CompressionDeflate = 8
	CompressionJP2K    = 34712 // unsupported on purpose
)

type tagEntry struct {
	tag    uint16
	typ    uint16
	count  uint32
	inline []byte // value bytes; placed out of line when > 4 bytes
}

// Dir accumulates one IFD's tags and pixel payloads.
type Dir struct {
	entries []tagEntry
	tiles   [][]byte
	strips  [][]byte
}

// Builder accumulates directories and renders the file.
type Builder struct {
	dirs []*Dir
}

func New() *Builder {
	return &Builder{}
}

// AddDir appends an empty directory and returns it.
func (b *Builder) AddDir() *Dir {
	d := &Dir{}
	b.dirs = append(b.dirs, d)
	return d
}

func (d *Dir) add(tag, typ uint16, count uint32, value []byte) *Dir {
	d.entries = append(d.entries, tagEntry{tag: tag, typ: typ, count: count, inline: value})
	return d
}

func (d *Dir) Short(tag uint16, v uint16) *Dir {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return d.add(tag, TypeShort, 1, buf)
}

func (d *Dir) Long(tag uint16, v uint32) *Dir {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return d.add(tag, TypeLong, 1, buf)
}

func (d *Dir) Longs(tag uint16, vs []uint32) *Dir {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return d.add(tag, TypeLong, uint32(len(vs)), buf)
}

func (d *Dir) Shorts(tag uint16, vs []uint16) *Dir {
	buf := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return d.add(tag, TypeShort, uint32(len(vs)), buf)
}

func (d *Dir) ASCII(tag uint16, s string) *Dir {
	return d.add(tag, TypeASCII, uint32(len(s)+1), append([]byte(s), 0))
}

func (d *Dir) Rational(tag uint16, num, den uint32) *Dir {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], num)
	binary.LittleEndian.PutUint32(buf[4:8], den)
	return d.add(tag, TypeRational, 1, buf)
}

// Tiles attaches tile payloads; TileOffsets/TileByteCounts entries are
// generated at build time.
func (d *Dir) Tiles(tiles [][]byte) *Dir {
	d.tiles = tiles
	return d
}

// Strips attaches strip payloads, generated like Tiles.
func (d *Dir) Strips(strips [][]byte) *Dir {
	d.strips = strips
	return d
}

// TiledLevel populates the standard tag set for an uncompressed RGBA tiled
// pyramid directory.
func (d *Dir) TiledLevel(width, height, tileW, tileH uint32, compression uint16, tiles [][]byte) *Dir {
	return d.Long(TagNewSubfileType, 0).
		Long(TagImageWidth, width).
		Long(TagImageLength, height).
		Shorts(TagBitsPerSample, []uint16{8, 8, 8, 8}).
		Short(TagCompression, compression).
		Short(TagPhotometric, 2).
		Short(TagSamplesPerPixel, 4).
		Long(TagTileWidth, tileW).
		Long(TagTileLength, tileH).
		Tiles(tiles)
}

// FlatImage populates the standard tag set for a strip-per-row flat image.
// It sets no NewSubfileType tag; callers add one when the classifier under
// test needs it.
func (d *Dir) FlatImage(width, height uint32, description string, strips [][]byte) *Dir {
	d.Long(TagImageWidth, width).
		Long(TagImageLength, height).
		Shorts(TagBitsPerSample, []uint16{8, 8, 8}).
		Short(TagCompression, CompressionNone).
		Short(TagPhotometric, 2).
		Short(TagSamplesPerPixel, 3).
		Long(TagRowsPerStrip, 1)
	if description != "" {
		d.ASCII(TagImageDescription, description)
	}
	return d.Strips(strips)
}

// Build renders the file bytes.
func (b *Builder) Build() []byte {
	var buf bytes.Buffer
	buf.Write([]byte{'I', 'I', 42, 0, 0, 0, 0, 0}) // first-IFD offset patched below

	out := buf.Bytes()
	patchAt := 4 // where to write the next IFD's offset

	align := func() {
		if len(out)%2 == 1 {
			out = append(out, 0)
		}
	}

	for _, d := range b.dirs {
		entries := make([]tagEntry, len(d.entries))
		copy(entries, d.entries)

		writePayload := func(offTag, cntTag uint16, payloads [][]byte) {
			if payloads == nil {
				return
			}
			offsets := make([]uint32, len(payloads))
			counts := make([]uint32, len(payloads))
			for i, p := range payloads {
				align()
				offsets[i] = uint32(len(out))
				out = append(out, p...)
				counts[i] = uint32(len(p))
			}
			entries = append(entries,
				longsEntry(offTag, offsets),
				longsEntry(cntTag, counts))
		}
		writePayload(TagTileOffsets, TagTileByteCounts, d.tiles)
		writePayload(TagStripOffsets, TagStripByteCounts, d.strips)

		// Out-of-line values.
		for i := range entries {
			if len(entries[i].inline) > 4 {
				align()
				off := uint32(len(out))
				out = append(out, entries[i].inline...)
				v := make([]byte, 4)
				binary.LittleEndian.PutUint32(v, off)
				entries[i].inline = v
			}
		}

		sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

		align()
		ifdOff := uint32(len(out))
		binary.LittleEndian.PutUint32(out[patchAt:], ifdOff)

		cnt := make([]byte, 2)
		binary.LittleEndian.PutUint16(cnt, uint16(len(entries)))
		out = append(out, cnt...)
		for _, e := range entries {
			row := make([]byte, 12)
			binary.LittleEndian.PutUint16(row[0:2], e.tag)
			binary.LittleEndian.PutUint16(row[2:4], e.typ)
			binary.LittleEndian.PutUint32(row[4:8], e.count)
			copy(row[8:12], e.inline)
			out = append(out, row...)
		}
		patchAt = len(out)
		out = append(out, 0, 0, 0, 0) // next-IFD pointer, patched or left 0
	}

	return out
}

func longsEntry(tag uint16, vs []uint32) tagEntry {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return tagEntry{tag: tag, typ: TypeLong, count: uint32(len(vs)), inline: buf}
}

// WriteFile renders the file into the test's temp dir and returns its path.
func (b *Builder) WriteFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, b.Build(), 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}

// RawTileRGBA fills a tile with one RGBA color.
func RawTileRGBA(tileW, tileH int, r, g, bl, a byte) []byte {
	buf := make([]byte, tileW*tileH*4)
	for i := 0; i < len(buf); i += 4 {
		buf[i], buf[i+1], buf[i+2], buf[i+3] = r, g, bl, a
	}
	return buf
}

// RawRowRGB fills one flat-image row with an RGB color.
func RawRowRGB(width int, r, g, bl byte) []byte {
	buf := make([]byte, width*3)
	for i := 0; i < len(buf); i += 3 {
		buf[i], buf[i+1], buf[i+2] = r, g, bl
	}
	return buf
}

// Deflate compresses a payload with zlib, matching TIFF compression 8.
func Deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}
