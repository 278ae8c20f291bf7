package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// jpegDecoder decodes baseline JPEG tiles. Files carrying a JPEGTables tag
// store abbreviated streams: the shared tables live in the tag payload and
// each tile omits them, so the two streams are spliced before decoding.
type jpegDecoder struct {
	tables []byte
}

func (d *jpegDecoder) ID() uint16 {
	return CompressionJPEG
}

func (d *jpegDecoder) Decode(data []byte, width, height int) (image.Image, error) {
	stream := data
	if len(d.tables) > 0 {
		spliced, err := spliceJPEGTables(d.tables, data)
		if err != nil {
			return nil, err
		}
		stream = spliced
	}

	img, err := jpeg.Decode(bytes.NewReader(stream))
	if err != nil {
		return nil, fmt.Errorf("jpeg: %w", err)
	}
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return nil, fmt.Errorf("jpeg: decoded %dx%d, want %dx%d", b.Dx(), b.Dy(), width, height)
	}
	return img, nil
}

const (
	markerSOI = 0xd8
	markerEOI = 0xd9
)

// spliceJPEGTables merges an abbreviated tables stream and an abbreviated
// tile stream into one full interchange stream: SOI, the tables segments,
// then the tile's segments through EOI.
func spliceJPEGTables(tables, tile []byte) ([]byte, error) {
	tbody, err := stripWrapper(tables, true)
	if err != nil {
		return nil, fmt.Errorf("jpeg tables: %w", err)
	}
	ibody, err := stripWrapper(tile, false)
	if err != nil {
		return nil, fmt.Errorf("jpeg tile: %w", err)
	}

	out := make([]byte, 0, 2+len(tbody)+len(ibody))
	out = append(out, 0xff, markerSOI)
	out = append(out, tbody...)
	out = append(out, ibody...)
	return out, nil
}

// stripWrapper removes the leading SOI and, when trimEOI is set, the
// trailing EOI marker from a JPEG stream.
func stripWrapper(data []byte, trimEOI bool) ([]byte, error) {
	if len(data) < 4 || data[0] != 0xff || data[1] != markerSOI {
		return nil, fmt.Errorf("missing SOI marker")
	}
	data = data[2:]
	if trimEOI && len(data) >= 2 && data[len(data)-2] == 0xff && data[len(data)-1] == markerEOI {
		data = data[:len(data)-2]
	}
	return data, nil
}
