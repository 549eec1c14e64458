// Package texture provides palette image encoding and decoding.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

const tgaHeaderSize = 18

// TGA decoding errors
var (
	ErrTruncatedTGA   = errors.New("TGA data truncated")
	ErrUnsupportedTGA = errors.New("unsupported TGA format")
)

// DecodeTGA decodes a TGA image.
// Supports uncompressed (type 2) and RLE compressed (type 10) true-color
// images at 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (*image.NRGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, ErrTruncatedTGA
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := int(data[2])
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped image", ErrUnsupportedTGA)
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("%w: type %d", ErrUnsupportedTGA, imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedTGA, bpp)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, ErrTruncatedTGA
	}

	d := &tgaDecoder{
		img:         image.NewNRGBA(image.Rect(0, 0, width, height)),
		src:         data[offset:],
		bpp:         bpp / 8,
		width:       width,
		height:      height,
		topToBottom: topToBottom,
	}
	if imageType == TGATypeUncompressed {
		if len(d.src) < width*height*d.bpp {
			return nil, ErrTruncatedTGA
		}
		for d.pixel < width*height {
			d.put(d.next())
		}
	} else if err := d.decodeRLE(); err != nil {
		return nil, err
	}
	return d.img, nil
}

// tgaDecoder writes pixels in file order, flipping rows for bottom-up images.
type tgaDecoder struct {
	img         *image.NRGBA
	src         []byte
	pos         int
	pixel       int
	bpp         int
	width       int
	height      int
	topToBottom bool
}

// next reads one BGR(A) pixel.
func (d *tgaDecoder) next() color.NRGBA {
	p := d.src[d.pos : d.pos+d.bpp]
	d.pos += d.bpp
	c := color.NRGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.bpp == 4 {
		c.A = p[3]
	}
	return c
}

func (d *tgaDecoder) put(c color.NRGBA) {
	x, y := d.pixel%d.width, d.pixel/d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	d.img.SetNRGBA(x, y, c)
	d.pixel++
}

func (d *tgaDecoder) decodeRLE() error {
	total := d.width * d.height
	for d.pixel < total {
		if d.pos >= len(d.src) {
			return ErrTruncatedTGA
		}
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// run of one repeated pixel
			if d.pos+d.bpp > len(d.src) {
				return ErrTruncatedTGA
			}
			c := d.next()
			for i := 0; i < count && d.pixel < total; i++ {
				d.put(c)
			}
			continue
		}

		// raw packet
		if d.pos+count*d.bpp > len(d.src) {
			return ErrTruncatedTGA
		}
		for i := 0; i < count && d.pixel < total; i++ {
			d.put(d.next())
		}
	}
	return nil
}
