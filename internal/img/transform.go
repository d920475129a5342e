package img

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// FitDimensions scales w×h uniformly so that neither side exceeds maxDim.
// It never upscales; scaled is false when the image already fits.
func FitDimensions(w, h, maxDim int) (nw, nh int, scaled bool) {
	if maxDim <= 0 || w <= 0 || h <= 0 {
		return w, h, false
	}
	scale := math.Min(math.Min(float64(maxDim)/float64(w), float64(maxDim)/float64(h)), 1.0)
	if scale >= 1.0 {
		return w, h, false
	}
	nw = max(int(math.Round(float64(w)*scale)), 1)
	nh = max(int(math.Round(float64(h)*scale)), 1)
	return nw, nh, true
}

// Luminance flattens any transparency onto white and converts to a
// single-channel image using Rec.601 weights.
func Luminance(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	if o, ok := src.(interface{ Opaque() bool }); ok && !o.Opaque() {
		b := src.Bounds()
		bg := imaging.New(b.Dx(), b.Dy(), color.White)
		src = imaging.Overlay(bg, src, image.Pt(0, 0), 1.0)
	}

	gs := imaging.Grayscale(src)
	out := image.NewGray(image.Rect(0, 0, gs.Rect.Dx(), gs.Rect.Dy()))
	for y := 0; y < out.Rect.Dy(); y++ {
		row := gs.Pix[y*gs.Stride : y*gs.Stride+gs.Rect.Dx()*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+out.Rect.Dx()]
		for x := range dst {
			dst[x] = row[x*4]
		}
	}
	return out
}

// LUT maps every 8-bit intensity to its remapped value.
type LUT [256]uint8

// NewLUT builds the table for out = clamp(round(gain*in + offset), 0, 255).
func NewLUT(gain, offset float64) LUT {
	var l LUT
	for v := range l {
		l[v] = clampByte(gain*float64(v) + offset)
	}
	return l
}

// Apply remaps g in place.
func (l *LUT) Apply(g *image.Gray) {
	b := g.Rect
	for y := 0; y < b.Dy(); y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+b.Dx()]
		for x, v := range row {
			row[x] = l[v]
		}
	}
}

func clampByte(x float64) uint8 {
	x = math.Round(x)
	switch {
	case x <= 0:
		return 0
	case x >= 255:
		return 255
	}
	return uint8(x)
}
