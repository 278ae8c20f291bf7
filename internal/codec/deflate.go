package codec

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"io"
)

// deflateDecoder handles zlib-wrapped deflate payloads (compression 8 and
// the older 32946 variant, which differ only in id).
type deflateDecoder struct {
	id     uint16
	params Params
}

func (d *deflateDecoder) ID() uint16 {
	return d.id
}

func (d *deflateDecoder) Decode(data []byte, width, height int) (image.Image, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	return samplesToImage(raw, width, height, d.params)
}
