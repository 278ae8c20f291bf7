package codec

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"golang.org/x/image/tiff/lzw"
)

// lzwDecoder handles TIFF-flavored LZW (MSB-first bit order with the early
// code-width change), which plain compress/lzw does not speak.
type lzwDecoder struct {
	params Params
}

func (d *lzwDecoder) ID() uint16 {
	return CompressionLZW
}

func (d *lzwDecoder) Decode(data []byte, width, height int) (image.Image, error) {
	r := lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lzw: %w", err)
	}
	return samplesToImage(raw, width, height, d.params)
}
