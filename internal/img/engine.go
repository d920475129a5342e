package img

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"runtime/debug"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	// extra input formats; jpeg/png/gif/bmp/tiff come with imaging
	_ "golang.org/x/image/webp"

	"github.com/emandor/bild_service/internal/preset"
)

var (
	ErrDecode = errors.New("decode failed")
	ErrEncode = errors.New("encode failed")
)

type Options struct {
	Variant      preset.Variant
	MaxDimension int
	Quality      int
}

// OptionsFor combines a variant with a quality tier.
func OptionsFor(v preset.Variant, t preset.Tier) Options {
	return Options{Variant: v, MaxDimension: t.MaxDimension, Quality: t.Quality}
}

type Result struct {
	Bytes         []byte
	Width, Height int
}

// Observer receives one call per finished render.
type Observer interface {
	ObserveRender(variant string, d time.Duration, err error)
}

type EngineConfig struct {
	// Workers caps concurrent renders; values below 1 mean 1.
	Workers int
	// RPS paces render admission; 0 disables pacing.
	RPS   int
	Burst int
	// ForceReclaim returns freed heap to the OS after every render.
	ForceReclaim bool
	Observer     Observer
}

// Engine runs the decode → resize → luminance → remap → encode pipeline.
// Every Render call works on its own buffers; nothing is cached between calls.
type Engine struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	reclaim bool
	obs     Observer
}

func NewEngine(cfg EngineConfig) *Engine {
	workers := max(cfg.Workers, 1)
	e := &Engine{
		sem:     semaphore.NewWeighted(int64(workers)),
		reclaim: cfg.ForceReclaim,
		obs:     cfg.Observer,
	}
	if cfg.RPS > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), max(cfg.Burst, 1))
	}
	return e
}

// Render transforms the image read from src. Failures wrap ErrDecode or
// ErrEncode; a cancelled ctx while waiting for a worker returns ctx.Err().
func (e *Engine) Render(ctx context.Context, src io.Reader, opts Options) (Result, error) {
	if opts.Quality < 1 || opts.Quality > 100 {
		return Result{}, fmt.Errorf("%w: quality %d out of range 1-100", ErrEncode, opts.Quality)
	}
	release, err := e.admit(ctx)
	if err != nil {
		return Result{}, err
	}
	defer release()

	s := &session{reclaim: e.reclaim}
	defer s.close()

	start := time.Now()
	res, err := s.render(src, opts)
	if e.obs != nil {
		e.obs.ObserveRender(string(opts.Variant.ID), time.Since(start), err)
	}
	return res, err
}

// Decode decodes src under the same worker budget as Render and passes the
// image to fn while the slot is held. fn must not keep the image.
func (e *Engine) Decode(ctx context.Context, src io.Reader, fn func(image.Image) error) error {
	release, err := e.admit(ctx)
	if err != nil {
		return err
	}
	defer release()

	s := &session{reclaim: e.reclaim}
	defer s.close()

	im, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	s.src = im
	return fn(im)
}

// admit waits for pacing and a free worker slot.
func (e *Engine) admit(ctx context.Context) (func(), error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { e.sem.Release(1) }, nil
}

// session owns the pixel buffers of exactly one render.
type session struct {
	src     image.Image
	gray    *image.Gray
	buf     *bytes.Buffer
	reclaim bool
}

func (s *session) render(r io.Reader, o Options) (Result, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	s.src = src

	b := src.Bounds()
	if b.Empty() {
		return Result{}, fmt.Errorf("%w: empty image", ErrDecode)
	}
	w, h, scaled := FitDimensions(b.Dx(), b.Dy(), o.MaxDimension)
	if scaled {
		s.src = imaging.Resize(s.src, w, h, imaging.Lanczos)
	}

	s.gray = Luminance(s.src)
	s.src = nil

	lut := NewLUT(o.Variant.Gain, o.Variant.Offset)
	lut.Apply(s.gray)

	s.buf = new(bytes.Buffer)
	if err := imaging.Encode(s.buf, s.gray, imaging.JPEG, imaging.JPEGQuality(o.Quality)); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return Result{Bytes: s.buf.Bytes(), Width: w, Height: h}, nil
}

// close drops every buffer reference; the encoded bytes already belong to the caller.
func (s *session) close() {
	s.src = nil
	s.gray = nil
	s.buf = nil
	if s.reclaim {
		debug.FreeOSMemory()
	}
}
