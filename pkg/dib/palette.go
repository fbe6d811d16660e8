package dib

import "image/color"

// BGR is a palette entry
type BGR struct {
	B, G, R uint8
}

// Palette maps pixel indices to colors for indexed formats
type Palette []BGR

// At returns entry i; indices outside the palette are black
func (p Palette) At(i int) BGR {
	if i >= 0 && i < len(p) {
		return p[i]
	}
	return BGR{}
}

// packed returns the entries as opaque 0xAARRGGBB values
func (p Palette) packed() []uint32 {
	out := make([]uint32, len(p))
	for i, c := range p {
		out[i] = 0xFF000000 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	}
	return out
}

// Colors converts the palette for image.Paletted
func (p Palette) Colors() color.Palette {
	out := make(color.Palette, len(p))
	for i, c := range p {
		out[i] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
	}
	return out
}

// PaletteFrom converts an image palette, dropping alpha
func PaletteFrom(cp color.Palette) Palette {
	out := make(Palette, len(cp))
	for i, c := range cp {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		out[i] = BGR{B: n.B, G: n.G, R: n.R}
	}
	return out
}
