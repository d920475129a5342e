// Package histogram computes the smoothed luminance distribution of a
// delivered black-and-white image and draws it as an area curve.
package histogram

import (
	"image"
)

const (
	Bins          = 256
	DefaultWindow = 3
)

// Result is one analysis. Smoothed holds averaged counts, Percent the
// smoothed distribution as a share of Total.
type Result struct {
	Total    int       `json:"total"`
	Counts   [Bins]int `json:"counts"`
	Smoothed []float64 `json:"-"`
	Percent  []float64 `json:"percent"`
}

// Compute counts pixel intensities. The image is expected to be single
// channel, so only the red channel is sampled.
func Compute(im image.Image) (counts [Bins]int, total int) {
	switch src := im.(type) {
	case *image.Gray:
		b := src.Rect
		for y := 0; y < b.Dy(); y++ {
			for _, v := range src.Pix[y*src.Stride : y*src.Stride+b.Dx()] {
				counts[v]++
			}
		}
		return counts, b.Dx() * b.Dy()
	case *image.YCbCr:
		// luma of a neutral pixel equals its red channel
		b := src.Rect
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				counts[src.Y[src.YOffset(x, y)]]++
			}
		}
		return counts, b.Dx() * b.Dy()
	}

	b := im.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := im.At(x, y).RGBA()
			counts[r>>8]++
		}
	}
	return counts, b.Dx() * b.Dy()
}

// Smooth applies a centered moving average. Windows are truncated at the
// edges and divided by the number of bins actually inside the range.
func Smooth(counts [Bins]int, window int) []float64 {
	half := max(window, 1) / 2
	out := make([]float64, Bins)
	for i := range out {
		var sum float64
		n := 0
		for j := i - half; j <= i+half; j++ {
			if j < 0 || j >= Bins {
				continue
			}
			sum += float64(counts[j])
			n++
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Normalize expresses each value as a percentage of total sampled pixels.
// The result sums to 100 when bins 0, 1, 254 and 255 are empty; populated
// edge bins lose part of their weight to the truncated smoothing window.
func Normalize(values []float64, total int) []float64 {
	out := make([]float64, len(values))
	if total <= 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / float64(total) * 100
	}
	return out
}

// Analyze runs Compute, Smooth and Normalize with the default window.
func Analyze(im image.Image) Result {
	counts, total := Compute(im)
	smoothed := Smooth(counts, DefaultWindow)
	return Result{
		Total:    total,
		Counts:   counts,
		Smoothed: smoothed,
		Percent:  Normalize(smoothed, total),
	}
}
