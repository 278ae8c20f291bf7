// Package tifflike parses the directory structure of classic TIFF and
// BigTIFF files without decoding any pixel data.
//
// A TIFF file is a sequence of image file directories (IFDs), each a flat
// table of tagged values. This package reads the whole chain once into
// immutable Directory values and offers typed tag access; everything above
// it (geometry, codecs, caching) works from these directories.
package tifflike

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// Errors
var (
	ErrNotTIFF   = errors.New("not a TIFF file")
	ErrNoValue   = errors.New("no value for TIFF tag")
	ErrBadType   = errors.New("unexpected TIFF tag type")
	ErrTruncated = errors.New("truncated TIFF structure")
)

// MaxDirectories bounds the IFD chain length. A cycle in the next-IFD
// pointers would otherwise loop forever.
const MaxDirectories = 4096

const classicMagic = 42
const bigMagic = 43

// File is a parsed TIFF directory structure.
type File struct {
	r     io.ReaderAt
	order binary.ByteOrder
	big   bool
	dirs  []*Directory
}

// Directory is one parsed IFD. Immutable after parsing.
type Directory struct {
	file    *File
	index   int
	entries map[uint16]*entry
	tags    []uint16 // ascending, for deterministic iteration
}

type entry struct {
	tag   uint16
	typ   uint16
	count uint64
	value []byte // raw value bytes, offset already resolved
}

// Parse reads the TIFF header and the full IFD chain.
func Parse(r io.ReaderAt) (*File, error) {
	hdr := make([]byte, 4)
	if _, err := r.ReadAt(hdr, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotTIFF, err)
	}

	var order binary.ByteOrder
	switch string(hdr[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad byte-order mark", ErrNotTIFF)
	}

	f := &File{r: r, order: order}

	var firstIFD uint64
	switch order.Uint16(hdr[2:4]) {
	case classicMagic:
		rd := newReader(r, order, 4).at(4)
		off, err := rd.readUint32()
		if err != nil {
			return nil, fmt.Errorf("%w: reading first IFD offset", ErrTruncated)
		}
		firstIFD = uint64(off)
	case bigMagic:
		f.big = true
		rd := newReader(r, order, 8).at(4)
		offSize, err := rd.readUint16()
		if err != nil {
			return nil, fmt.Errorf("%w: reading offset size", ErrTruncated)
		}
		if offSize != 8 {
			return nil, fmt.Errorf("%w: BigTIFF offset size %d", ErrNotTIFF, offSize)
		}
		if _, err := rd.readUint16(); err != nil { // reserved, must be 0
			return nil, fmt.Errorf("%w: reading header padding", ErrTruncated)
		}
		firstIFD, err = rd.readUint64()
		if err != nil {
			return nil, fmt.Errorf("%w: reading first IFD offset", ErrTruncated)
		}
	default:
		return nil, fmt.Errorf("%w: bad magic", ErrNotTIFF)
	}

	if err := f.parseChain(firstIFD); err != nil {
		return nil, err
	}
	if len(f.dirs) == 0 {
		return nil, fmt.Errorf("%w: no directories", ErrNotTIFF)
	}
	return f, nil
}

func (f *File) parseChain(offset uint64) error {
	seen := make(map[uint64]bool)
	for offset != 0 {
		if seen[offset] {
			return fmt.Errorf("circular IFD chain at offset %d", offset)
		}
		seen[offset] = true
		if len(f.dirs) >= MaxDirectories {
			return fmt.Errorf("too many directories (more than %d)", MaxDirectories)
		}

		next, err := f.parseDirectory(offset)
		if err != nil {
			return fmt.Errorf("parsing directory %d: %w", len(f.dirs), err)
		}
		offset = next
	}
	return nil
}

// parseDirectory reads one IFD at the given offset and returns the offset of
// the next IFD (0 at end of chain).
func (f *File) parseDirectory(offset uint64) (uint64, error) {
	offsetSize := 4
	if f.big {
		offsetSize = 8
	}
	rd := newReader(f.r, f.order, offsetSize).at(int64(offset))

	count, err := rd.readCount()
	if err != nil {
		return 0, fmt.Errorf("%w: entry count", ErrTruncated)
	}
	if count > 4096 {
		return 0, fmt.Errorf("implausible entry count %d", count)
	}

	d := &Directory{
		file:    f,
		index:   len(f.dirs),
		entries: make(map[uint16]*entry, count),
	}

	entrySize := 12
	inlineSize := 4
	if f.big {
		entrySize = 20
		inlineSize = 8
	}

	for i := uint64(0); i < count; i++ {
		raw, err := rd.readBytes(entrySize)
		if err != nil {
			return 0, fmt.Errorf("%w: entry %d", ErrTruncated, i)
		}

		e := &entry{
			tag: f.order.Uint16(raw[0:2]),
			typ: f.order.Uint16(raw[2:4]),
		}
		var valueField []byte
		if f.big {
			e.count = f.order.Uint64(raw[4:12])
			valueField = raw[12:20]
		} else {
			e.count = uint64(f.order.Uint32(raw[4:8]))
			valueField = raw[8:12]
		}

		size := typeSize(e.typ)
		if size == 0 {
			// Unknown type; keep the entry opaque with its inline bytes so
			// hashing still covers it.
			e.value = valueField
		} else {
			total := uint64(size) * e.count
			if total > 1<<30 {
				return 0, fmt.Errorf("implausible value size for tag %d", e.tag)
			}
			if total <= uint64(inlineSize) {
				e.value = valueField[:total]
			} else {
				valOff := f.order.Uint32(valueField)
				off := uint64(valOff)
				if f.big {
					off = f.order.Uint64(valueField)
				}
				buf := make([]byte, total)
				if _, err := f.r.ReadAt(buf, int64(off)); err != nil {
					return 0, fmt.Errorf("%w: value of tag %d", ErrTruncated, e.tag)
				}
				e.value = buf
			}
		}

		// First entry for a tag wins; duplicates are malformed but harmless.
		if _, dup := d.entries[e.tag]; !dup {
			d.entries[e.tag] = e
			d.tags = append(d.tags, e.tag)
		}
	}
	sort.Slice(d.tags, func(i, j int) bool { return d.tags[i] < d.tags[j] })
	f.dirs = append(f.dirs, d)

	return rd.readOffset()
}

// IsBig reports whether the file is BigTIFF.
func (f *File) IsBig() bool {
	return f.big
}

// DirectoryCount returns the number of directories in the file.
func (f *File) DirectoryCount() int {
	return len(f.dirs)
}

// Directory returns the directory at the given index, or nil if out of range.
func (f *File) Directory(index int) *Directory {
	if index < 0 || index >= len(f.dirs) {
		return nil
	}
	return f.dirs[index]
}

// IsTiled reports whether the directory at index carries tile geometry.
func (f *File) IsTiled(index int) bool {
	d := f.Directory(index)
	if d == nil {
		return false
	}
	return d.HasTag(TagTileWidth) && d.HasTag(TagTileLength)
}

// Index returns the directory's position in the file.
func (d *Directory) Index() int {
	return d.index
}

// HasTag reports whether the directory carries the given tag.
func (d *Directory) HasTag(tag uint16) bool {
	_, ok := d.entries[tag]
	return ok
}

// Tags returns the directory's tags in ascending order.
func (d *Directory) Tags() []uint16 {
	out := make([]uint16, len(d.tags))
	copy(out, d.tags)
	return out
}

// Count returns the value count of a tag.
func (d *Directory) Count(tag uint16) (uint64, error) {
	e, ok := d.entries[tag]
	if !ok {
		return 0, fmt.Errorf("tag %d: %w", tag, ErrNoValue)
	}
	return e.count, nil
}

// Uint returns the first value of an integer-typed tag.
func (d *Directory) Uint(tag uint16) (uint64, error) {
	vals, err := d.Uints(tag)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("tag %d: %w", tag, ErrNoValue)
	}
	return vals[0], nil
}

// Uints returns all values of an integer-typed tag.
func (d *Directory) Uints(tag uint16) ([]uint64, error) {
	e, ok := d.entries[tag]
	if !ok {
		return nil, fmt.Errorf("tag %d: %w", tag, ErrNoValue)
	}

	var size int
	switch e.typ {
	case TypeByte:
		size = 1
	case TypeShort:
		size = 2
	case TypeLong:
		size = 4
	case TypeLong8, TypeIFD8:
		size = 8
	default:
		return nil, fmt.Errorf("tag %d has type %d: %w", tag, e.typ, ErrBadType)
	}

	n := int(e.count)
	if len(e.value) < n*size {
		return nil, fmt.Errorf("tag %d: %w", tag, ErrTruncated)
	}
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		switch size {
		case 1:
			out[i] = uint64(e.value[i])
		case 2:
			out[i] = uint64(d.file.order.Uint16(e.value[i*2:]))
		case 4:
			out[i] = uint64(d.file.order.Uint32(e.value[i*4:]))
		case 8:
			out[i] = d.file.order.Uint64(e.value[i*8:])
		}
	}
	return out, nil
}

// Float returns the first value of a RATIONAL, FLOAT, or DOUBLE tag.
func (d *Directory) Float(tag uint16) (float64, error) {
	e, ok := d.entries[tag]
	if !ok {
		return 0, fmt.Errorf("tag %d: %w", tag, ErrNoValue)
	}

	switch e.typ {
	case TypeRational:
		if len(e.value) < 8 {
			return 0, fmt.Errorf("tag %d: %w", tag, ErrTruncated)
		}
		num := d.file.order.Uint32(e.value[0:4])
		den := d.file.order.Uint32(e.value[4:8])
		if den == 0 {
			return 0, fmt.Errorf("tag %d: zero denominator", tag)
		}
		return float64(num) / float64(den), nil
	case TypeFloat:
		if len(e.value) < 4 {
			return 0, fmt.Errorf("tag %d: %w", tag, ErrTruncated)
		}
		return float64(math.Float32frombits(d.file.order.Uint32(e.value))), nil
	case TypeDouble:
		if len(e.value) < 8 {
			return 0, fmt.Errorf("tag %d: %w", tag, ErrTruncated)
		}
		return math.Float64frombits(d.file.order.Uint64(e.value)), nil
	default:
		// Integer-typed resolutions appear in the wild.
		v, err := d.Uint(tag)
		if err != nil {
			return 0, fmt.Errorf("tag %d has type %d: %w", tag, e.typ, ErrBadType)
		}
		return float64(v), nil
	}
}

// Buffer returns the raw bytes of a BYTE, ASCII, or UNDEFINED tag.
func (d *Directory) Buffer(tag uint16) ([]byte, error) {
	e, ok := d.entries[tag]
	if !ok {
		return nil, fmt.Errorf("tag %d: %w", tag, ErrNoValue)
	}
	switch e.typ {
	case TypeByte, TypeASCII, TypeUndefined, TypeSByte:
		out := make([]byte, len(e.value))
		copy(out, e.value)
		return out, nil
	default:
		return nil, fmt.Errorf("tag %d has type %d: %w", tag, e.typ, ErrBadType)
	}
}

// String returns an ASCII tag's value with the trailing NUL stripped.
func (d *Directory) String(tag uint16) (string, error) {
	e, ok := d.entries[tag]
	if !ok {
		return "", fmt.Errorf("tag %d: %w", tag, ErrNoValue)
	}
	if e.typ != TypeASCII {
		return "", fmt.Errorf("tag %d has type %d: %w", tag, e.typ, ErrBadType)
	}
	return strings.TrimRight(string(e.value), "\x00"), nil
}
