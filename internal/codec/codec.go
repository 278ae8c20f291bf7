// Package codec implements TIFF compression decoding.
//
// Each codec transforms one tile or strip payload from its encoded form to
// raw sample bytes (or, for JPEG, decodes straight to an image). The
// registry answers the open-time "can we read this compression" check.
package codec

import (
	"fmt"
	"image"
)

// TIFF compression scheme ids.
const (
	CompressionNone        = 1
	CompressionCCITTRLE    = 2
	CompressionCCITTG3     = 3
	CompressionCCITTG4     = 4
	CompressionLZW         = 5
	CompressionOldJPEG     = 6
	CompressionJPEG        = 7
	CompressionDeflate     = 8
	CompressionPackBits    = 32773
	CompressionOldDeflate  = 32946
	CompressionJPEG2000YCC = 33003
	CompressionJPEG2000RGB = 33005
	CompressionAperioJP2K  = 34712
)

// Params carries the per-directory state a codec may need.
type Params struct {
	// JPEGTables is the raw JPEGTables tag payload, if present. Tiles in
	// such files are abbreviated JPEG streams.
	JPEGTables []byte

	// SamplesPerPixel and BitsPerSample describe raw (non-JPEG) payloads.
	SamplesPerPixel int
	BitsPerSample   int
}

// Decoder decodes one payload into an image of the given dimensions.
type Decoder interface {
	// ID returns the compression scheme id.
	ID() uint16

	// Decode decodes one tile or strip payload. The returned image is
	// width x height.
	Decode(data []byte, width, height int) (image.Image, error)
}

// Registry maps compression ids to decoder constructors.
var Registry = map[uint16]func(Params) Decoder{
	CompressionNone:       func(p Params) Decoder { return &rawDecoder{id: CompressionNone, params: p} },
	CompressionLZW:        func(p Params) Decoder { return &lzwDecoder{params: p} },
	CompressionJPEG:       func(p Params) Decoder { return &jpegDecoder{tables: p.JPEGTables} },
	CompressionDeflate:    func(p Params) Decoder { return &deflateDecoder{id: CompressionDeflate, params: p} },
	CompressionOldDeflate: func(p Params) Decoder { return &deflateDecoder{id: CompressionOldDeflate, params: p} },
}

// codecNames maps known-but-unsupported ids to names for error messages.
var codecNames = map[uint16]string{
	CompressionCCITTRLE:    "CCITT RLE",
	CompressionCCITTG3:     "CCITT Group 3",
	CompressionCCITTG4:     "CCITT Group 4",
	CompressionOldJPEG:     "old-style JPEG",
	CompressionPackBits:    "PackBits",
	CompressionJPEG2000YCC: "JPEG 2000 (YCbCr)",
	CompressionJPEG2000RGB: "JPEG 2000 (RGB)",
	CompressionAperioJP2K:  "JPEG 2000 (Aperio)",
}

// Configured reports whether a compression scheme can be decoded.
func Configured(id uint16) bool {
	_, ok := Registry[id]
	return ok
}

// New creates a decoder for the given compression scheme.
func New(id uint16, p Params) (Decoder, error) {
	constructor, ok := Registry[id]
	if !ok {
		if name, known := codecNames[id]; known {
			return nil, fmt.Errorf("%s compression (id %d) is not supported", name, id)
		}
		return nil, fmt.Errorf("unsupported TIFF compression: %d", id)
	}
	return constructor(p), nil
}
