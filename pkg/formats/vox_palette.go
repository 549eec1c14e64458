package formats

import "image/color"

var defaultPalette = buildDefaultPalette()

// DefaultPalette returns the MagicaVoxel default palette indexed by stored
// id, so entry i is the colour of colour index i+1. Stored id 255 (colour
// index 0) is transparent.
func DefaultPalette() [256]color.RGBA {
	return defaultPalette
}

// buildDefaultPalette generates the 6x6x6 colour cube without black,
// followed by ten-step red, green, blue and grey ramps.
func buildDefaultPalette() [256]color.RGBA {
	var p [256]color.RGBA
	cube := [6]uint8{0xff, 0xcc, 0x99, 0x66, 0x33, 0x00}
	ramp := [10]uint8{0xee, 0xdd, 0xbb, 0xaa, 0x88, 0x77, 0x55, 0x44, 0x22, 0x11}

	i := 0
	for _, r := range cube {
		for _, g := range cube {
			for _, b := range cube {
				if r == 0 && g == 0 && b == 0 {
					continue
				}
				p[i] = color.RGBA{R: r, G: g, B: b, A: 0xff}
				i++
			}
		}
	}
	for _, v := range ramp {
		p[i] = color.RGBA{R: v, A: 0xff}
		i++
	}
	for _, v := range ramp {
		p[i] = color.RGBA{G: v, A: 0xff}
		i++
	}
	for _, v := range ramp {
		p[i] = color.RGBA{B: v, A: 0xff}
		i++
	}
	for _, v := range ramp {
		p[i] = color.RGBA{R: v, G: v, B: v, A: 0xff}
		i++
	}
	// i == 255: colour index 0 stays transparent
	return p
}
