package tifflike

// TIFF 6.0 field types. BigTIFF adds the 8-byte integer and IFD types.
const (
	TypeByte      = 1
	TypeASCII     = 2
	TypeShort     = 3
	TypeLong      = 4
	TypeRational  = 5
	TypeSByte     = 6
	TypeUndefined = 7
	TypeSShort    = 8
	TypeSLong     = 9
	TypeSRational = 10
	TypeFloat     = 11
	TypeDouble    = 12
	TypeLong8     = 16
	TypeSLong8    = 17
	TypeIFD8      = 18
)

// typeSizes maps a field type to the byte size of one value. Unknown types
// map to 0 and their entries are kept opaque.
var typeSizes = [...]int{
	0,
	1, // BYTE
	1, // ASCII
	2, // SHORT
	4, // LONG
	8, // RATIONAL
	1, // SBYTE
	1, // UNDEFINED
	2, // SSHORT
	4, // SLONG
	8, // SRATIONAL
	4, // FLOAT
	8, // DOUBLE
	0, 0, 0,
	8, // LONG8
	8, // SLONG8
	8, // IFD8
}

func typeSize(typ uint16) int {
	if int(typ) < len(typeSizes) {
		return typeSizes[typ]
	}
	return 0
}

// Baseline and extension tags this library interprets.
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
	TagYResolution      = 283
	TagPlanarConfig     = 284
	TagResolutionUnit   = 296
	TagSoftware         = 305
	TagDateTime         = 306
	TagArtist           = 315
	TagTileWidth        = 322
	TagTileLength       = 323
	TagTileOffsets      = 324
	TagTileByteCounts   = 325
	TagJPEGTables       = 347
	TagCopyright        = 33432
)

// ResolutionUnit values.
const (
	ResUnitNone       = 1
	ResUnitInch       = 2
	ResUnitCentimeter = 3
)
