package codec

import (
	"fmt"
	"image"
)

// rawDecoder interprets uncompressed sample bytes.
type rawDecoder struct {
	id     uint16
	params Params
}

func (d *rawDecoder) ID() uint16 {
	return d.id
}

func (d *rawDecoder) Decode(data []byte, width, height int) (image.Image, error) {
	return samplesToImage(data, width, height, d.params)
}

// samplesToImage converts raw 8-bit RGB or RGBA samples into an RGBA image.
func samplesToImage(data []byte, width, height int, p Params) (*image.RGBA, error) {
	if p.BitsPerSample != 0 && p.BitsPerSample != 8 {
		return nil, fmt.Errorf("unsupported bits per sample: %d", p.BitsPerSample)
	}
	spp := p.SamplesPerPixel
	if spp == 0 {
		spp = 3
	}
	if spp != 3 && spp != 4 {
		return nil, fmt.Errorf("unsupported samples per pixel: %d", spp)
	}
	if len(data) < width*height*spp {
		return nil, fmt.Errorf("short payload: %d bytes for %dx%dx%d", len(data), width, height, spp)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	si := 0
	for y := 0; y < height; y++ {
		di := img.PixOffset(0, y)
		for x := 0; x < width; x++ {
			img.Pix[di] = data[si]
			img.Pix[di+1] = data[si+1]
			img.Pix[di+2] = data[si+2]
			if spp == 4 {
				img.Pix[di+3] = data[si+3]
			} else {
				img.Pix[di+3] = 0xff
			}
			si += spp
			di += 4
		}
	}
	return img, nil
}
