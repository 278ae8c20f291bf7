package tifflike

import (
	"encoding/binary"
	"fmt"
	"hash"
	"strconv"
)

// MaxHashBytes bounds the payload volume digested for the quickhash. The
// representative directory is the coarsest pyramid level, so real files stay
// far below this; anything larger indicates the caller picked a poor
// representative.
const MaxHashBytes = 64 << 20

// stringPropTags are the directory-0 ASCII tags exported as passthrough
// properties, keyed by property name.
var stringPropTags = map[string]uint16{
	"tiff.ImageDescription": TagImageDescription,
	"tiff.Make":             TagMake,
	"tiff.Model":            TagModel,
	"tiff.Software":         TagSoftware,
	"tiff.DateTime":         TagDateTime,
	"tiff.Artist":           TagArtist,
	"tiff.Copyright":        TagCopyright,
}

// InitPropertiesAndHash extracts the file's passthrough properties from
// directory 0 and digests the representative directory into h. The digest
// covers the directory's entry table (tag, type, count, value bytes in tag
// order) and its tile or strip payloads, so two files hash equal only if the
// representative image is bit-identical.
func (f *File) InitPropertiesAndHash(repDir int, h hash.Hash) (map[string]string, error) {
	rep := f.Directory(repDir)
	if rep == nil {
		return nil, fmt.Errorf("representative directory %d out of range", repDir)
	}

	props := make(map[string]string)
	d0 := f.Directory(0)
	for name, tag := range stringPropTags {
		if s, err := d0.String(tag); err == nil && s != "" {
			props[name] = s
		}
	}
	if v, err := d0.Float(TagXResolution); err == nil {
		props["tiff.XResolution"] = formatFloat(v)
	}
	if v, err := d0.Float(TagYResolution); err == nil {
		props["tiff.YResolution"] = formatFloat(v)
	}
	if v, err := d0.Uint(TagResolutionUnit); err == nil {
		props["tiff.ResolutionUnit"] = strconv.FormatUint(v, 10)
	}

	if err := f.hashDirectory(rep, h); err != nil {
		return nil, fmt.Errorf("hashing directory %d: %w", repDir, err)
	}
	return props, nil
}

func (f *File) hashDirectory(d *Directory, h hash.Hash) error {
	var scratch [12]byte
	for _, tag := range d.tags {
		e := d.entries[tag]
		binary.LittleEndian.PutUint16(scratch[0:2], e.tag)
		binary.LittleEndian.PutUint16(scratch[2:4], e.typ)
		binary.LittleEndian.PutUint64(scratch[4:12], e.count)
		h.Write(scratch[:])
		h.Write(e.value)
	}

	offsets, counts, err := payloadLocation(d)
	if err != nil {
		return err
	}
	var total uint64
	for _, c := range counts {
		total += c
	}
	if total > MaxHashBytes {
		return fmt.Errorf("directory payload too large to hash (%d bytes)", total)
	}
	for i := range offsets {
		buf := make([]byte, counts[i])
		if _, err := f.r.ReadAt(buf, int64(offsets[i])); err != nil {
			return fmt.Errorf("%w: payload %d", ErrTruncated, i)
		}
		h.Write(buf)
	}
	return nil
}

// payloadLocation returns the directory's tile or strip payload extents.
// A directory with neither is legal (a metadata-only IFD) and contributes
// no payload to the hash.
func payloadLocation(d *Directory) (offsets, counts []uint64, err error) {
	switch {
	case d.HasTag(TagTileOffsets):
		offsets, err = d.Uints(TagTileOffsets)
		if err != nil {
			return nil, nil, err
		}
		counts, err = d.Uints(TagTileByteCounts)
	case d.HasTag(TagStripOffsets):
		offsets, err = d.Uints(TagStripOffsets)
		if err != nil {
			return nil, nil, err
		}
		counts, err = d.Uints(TagStripByteCounts)
	default:
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if len(offsets) != len(counts) {
		return nil, nil, fmt.Errorf("offset/bytecount length mismatch (%d vs %d)", len(offsets), len(counts))
	}
	return offsets, counts, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
