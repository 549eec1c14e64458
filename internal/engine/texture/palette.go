package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

// PaletteSize is the number of palette entries and the width of a palette
// image.
const PaletteSize = 256

// Palette decoding errors
var (
	ErrPaletteTooSmall   = errors.New("palette image narrower than 256 pixels")
	ErrUnknownPaletteExt = errors.New("unsupported palette image type")
)

// PaletteImage lays out a palette as a 256x1 image, entry i at x = i.
// Colours are stored unpremultiplied.
func PaletteImage(colors [PaletteSize]color.RGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, PaletteSize, 1))
	for i, c := range colors {
		img.SetNRGBA(i, 0, color.NRGBA(c))
	}
	return img
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// DecodePalette reads palette entries from the top row of an image.
// The format is chosen by the extension of name: .png, .tga or .bmp.
func DecodePalette(data []byte, name string) ([PaletteSize]color.RGBA, error) {
	var colors [PaletteSize]color.RGBA

	img, err := decodeImage(data, name)
	if err != nil {
		return colors, err
	}

	b := img.Bounds()
	if b.Dx() < PaletteSize || b.Dy() < 1 {
		return colors, fmt.Errorf("%w: %dx%d", ErrPaletteTooSmall, b.Dx(), b.Dy())
	}
	for i := range colors {
		c := color.NRGBAModel.Convert(img.At(b.Min.X+i, b.Min.Y)).(color.NRGBA)
		colors[i] = color.RGBA(c)
	}
	return colors, nil
}

// LoadPalette reads a palette image from disk.
func LoadPalette(path string) ([PaletteSize]color.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [PaletteSize]color.RGBA{}, fmt.Errorf("reading palette: %w", err)
	}
	return DecodePalette(data, path)
}

func decodeImage(data []byte, name string) (image.Image, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".png":
		return png.Decode(bytes.NewReader(data))
	case ".tga":
		return DecodeTGA(data)
	case ".bmp":
		return bmp.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPaletteExt, ext)
	}
}
