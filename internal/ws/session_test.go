package ws

import (
	"bytes"
	"context"
	"image"
	"io"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emandor/bild_service/internal/histogram"
	"github.com/emandor/bild_service/internal/img"
)

func pngOf(t *testing.T, value uint8, w, h int) []byte {
	t.Helper()
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = value
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, g, imaging.PNG))
	return buf.Bytes()
}

func TestSessionAnalyzesEachNewImage(t *testing.T) {
	s := NewSession(img.NewEngine(img.EngineConfig{Workers: 1}))
	defer s.Close()

	pl, ok := s.Handle(context.Background(), websocket.BinaryMessage, pngOf(t, 30, 10, 10))
	require.True(t, ok)
	require.Equal(t, EventHistogram, pl.Event)
	first := s.analyzer.Current()
	assert.Equal(t, 100, pl.Data.(histogram.Result).Counts[30])

	pl, ok = s.Handle(context.Background(), websocket.BinaryMessage, pngOf(t, 220, 4, 5))
	require.True(t, ok)
	res := pl.Data.(histogram.Result)
	assert.Equal(t, 20, res.Total)
	assert.Equal(t, 20, res.Counts[220])
	assert.True(t, first.Released())
	assert.NotSame(t, first, s.analyzer.Current())
}

func TestSessionReset(t *testing.T) {
	s := NewSession(img.NewEngine(img.EngineConfig{Workers: 1}))
	_, ok := s.Handle(context.Background(), websocket.BinaryMessage, pngOf(t, 1, 2, 2))
	require.True(t, ok)
	current := s.analyzer.Current()

	pl, ok := s.Handle(context.Background(), websocket.TextMessage, []byte(`{"action":"reset"}`))
	require.True(t, ok)
	assert.Equal(t, EventReset, pl.Event)
	assert.True(t, current.Released())
	assert.Nil(t, s.analyzer.Current())
}

func TestSessionIgnoresUnknownText(t *testing.T) {
	s := NewSession(img.NewEngine(img.EngineConfig{Workers: 1}))
	_, ok := s.Handle(context.Background(), websocket.TextMessage, []byte(`{"action":"dance"}`))
	assert.False(t, ok)
	_, ok = s.Handle(context.Background(), websocket.TextMessage, []byte(`not json`))
	assert.False(t, ok)
}

func TestSessionReportsUndecodableImage(t *testing.T) {
	s := NewSession(img.NewEngine(img.EngineConfig{Workers: 1}))
	pl, ok := s.Handle(context.Background(), websocket.BinaryMessage, []byte("nope"))
	require.True(t, ok)
	assert.Equal(t, EventError, pl.Event)
	assert.Nil(t, s.analyzer.Current())
}

type countingDecoder struct {
	*img.Engine
	calls int
}

func (d *countingDecoder) Decode(ctx context.Context, src io.Reader, fn func(image.Image) error) error {
	d.calls++
	return d.Engine.Decode(ctx, src, fn)
}

func TestSessionDecodesThroughEngine(t *testing.T) {
	dec := &countingDecoder{Engine: img.NewEngine(img.EngineConfig{Workers: 1})}
	s := NewSession(dec)
	defer s.Close()

	_, ok := s.Handle(context.Background(), websocket.BinaryMessage, pngOf(t, 90, 3, 3))
	require.True(t, ok)
	_, ok = s.Handle(context.Background(), websocket.TextMessage, []byte(`{"action":"reset"}`))
	require.True(t, ok)
	assert.Equal(t, 1, dec.calls)
}

func TestSessionGivesUpWhenContextEnds(t *testing.T) {
	s := NewSession(img.NewEngine(img.EngineConfig{Workers: 1}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pl, ok := s.Handle(ctx, websocket.BinaryMessage, pngOf(t, 90, 3, 3))
	require.True(t, ok)
	assert.Equal(t, EventError, pl.Event)
	assert.Nil(t, s.analyzer.Current())
}
