package histogram

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/vector"
)

const (
	CurveWidth  = 512
	CurveHeight = 200
)

var (
	curveFill  = color.NRGBA{R: 22, G: 172, B: 122, A: 204}
	background = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// RenderCurve draws percent as a filled area, scaled so the tallest bin
// touches the top edge.
func RenderCurve(percent []float64, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	if len(percent) < 2 || w < 2 || h < 2 {
		return dst
	}

	var peak float64
	for _, v := range percent {
		peak = max(peak, v)
	}
	if peak == 0 {
		return dst
	}

	fw, fh := float32(w), float32(h)
	step := (fw - 1) / float32(len(percent)-1)

	r := vector.NewRasterizer(w, h)
	r.MoveTo(0, fh)
	for i, v := range percent {
		r.LineTo(float32(i)*step, fh-float32(v/peak)*(fh-1))
	}
	r.LineTo(fw-1, fh)
	r.ClosePath()
	r.Draw(dst, dst.Bounds(), image.NewUniform(curveFill), image.Point{})
	return dst
}

// Rendering is the output of one Analyzer pass.
type Rendering struct {
	Result
	Curve *image.RGBA

	released bool
}

// Release drops the curve pixels. A released rendering keeps its numbers.
func (r *Rendering) Release() {
	r.Curve = nil
	r.released = true
}

func (r *Rendering) Released() bool { return r.released }

// Analyzer re-runs the analysis whenever the displayed image changes. It
// holds at most one rendering and releases it before producing the next.
type Analyzer struct {
	mu      sync.Mutex
	w, h    int
	current *Rendering
}

func NewAnalyzer(w, h int) *Analyzer {
	if w <= 0 {
		w = CurveWidth
	}
	if h <= 0 {
		h = CurveHeight
	}
	return &Analyzer{w: w, h: h}
}

func (a *Analyzer) Analyze(im image.Image) *Rendering {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current != nil {
		a.current.Release()
		a.current = nil
	}
	res := Analyze(im)
	a.current = &Rendering{Result: res, Curve: RenderCurve(res.Percent, a.w, a.h)}
	return a.current
}

func (a *Analyzer) Current() *Rendering {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Release discards the current rendering, if any.
func (a *Analyzer) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != nil {
		a.current.Release()
		a.current = nil
	}
}
