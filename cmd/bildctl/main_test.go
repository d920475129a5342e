package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emandor/bild_service/internal/histogram"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFixture(t *testing.T, dir string, im image.Image) string {
	t.Helper()
	path := filepath.Join(dir, "in.png")
	require.NoError(t, imaging.Save(im, path))
	return path
}

func TestPresetsCommand(t *testing.T) {
	out, err := run(t, "presets")
	require.NoError(t, err)
	for _, want := range []string{"high_contrast", "1.4", "-30", "flat_gray", "+40", "Flaches Grau", "preview", "800", "2560", "attachment"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, imaging.New(1600, 1200, color.NRGBA{R: 180, G: 90, B: 30, A: 255}))

	tests := []struct {
		name   string
		tier   string
		bounds image.Rectangle
	}{
		{"preview shrinks to 800", "preview", image.Rect(0, 0, 800, 600)},
		{"download keeps size", "download", image.Rect(0, 0, 1600, 1200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filepath.Join(dir, tt.tier+".jpg")
			out, err := run(t, "render", in, "--variant", "flat_gray", "--tier", tt.tier, "-o", dst)
			require.NoError(t, err)
			assert.Equal(t, dst, strings.TrimSpace(out))

			got, err := imaging.Open(dst)
			require.NoError(t, err)
			assert.Equal(t, tt.bounds, got.Bounds())
		})
	}
}

func TestRenderCommandDefaultFilename(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, imaging.New(20, 10, color.White))
	t.Chdir(dir)

	out, err := run(t, "render", in, "--variant", "flat_gray")
	require.NoError(t, err)
	name := strings.TrimSpace(out)
	assert.Regexp(t, `^bild_flat_gray_\d{8}_\d{6}\.jpg$`, name)

	got, err := imaging.Open(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 10), got.Bounds())
}

func TestRenderCommandErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, imaging.New(8, 8, color.White))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown variant", []string{"render", in, "--variant", "sepia"}, `unknown variant "sepia"`},
		{"unknown tier", []string{"render", in, "--tier", "poster"}, `unknown tier "poster"`},
		{"missing input", []string{"render", filepath.Join(dir, "nope.png")}, "opening input"},
		{"no file argument", []string{"render"}, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestHistogramCommand(t *testing.T) {
	dir := t.TempDir()
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range gray.Pix {
		gray.Pix[i] = 128
	}
	in := writeFixture(t, dir, gray)
	curvePath := filepath.Join(dir, "curve.png")

	out, err := run(t, "histogram", in, "--png", curvePath)
	require.NoError(t, err)

	var res histogram.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 16, res.Total)
	assert.Equal(t, 16, res.Counts[128])

	curve, err := imaging.Open(curvePath)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, histogram.CurveWidth, histogram.CurveHeight), curve.Bounds())

	_, err = run(t, "histogram", filepath.Join(dir, "missing.png"))
	assert.ErrorContains(t, err, "decoding")
}
