package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"

	"github.com/gofiber/contrib/websocket"

	"github.com/emandor/bild_service/internal/histogram"
	"github.com/emandor/bild_service/internal/middleware"
	"github.com/emandor/bild_service/internal/preset"
	"github.com/emandor/bild_service/internal/telemetry"
)

type Action string

const (
	ActionReset Action = "reset"
)

type Event string

const (
	EventHistogram Event = "histogram.event.analyzed"
	EventReset     Event = "histogram.event.reset"
	EventError     Event = "histogram.event.error"
)

type PayloadEvent struct {
	Event Event `json:"event"`
	Data  any   `json:"data,omitempty"`
}

type ClientMessage struct {
	Action Action `json:"action"`
}

// Decoder admits image decodes under the engine's worker budget.
type Decoder interface {
	Decode(ctx context.Context, src io.Reader, fn func(image.Image) error) error
}

// Session tracks the image currently displayed by one client. Every new
// image replaces the previous analysis.
type Session struct {
	dec      Decoder
	analyzer *histogram.Analyzer
}

func NewSession(dec Decoder) *Session {
	return &Session{dec: dec, analyzer: histogram.NewAnalyzer(histogram.CurveWidth, histogram.CurveHeight)}
}

// Handle answers one client frame. Binary frames carry encoded images,
// text frames carry a ClientMessage. ok is false for frames that need no reply.
func (s *Session) Handle(ctx context.Context, messageType int, msg []byte) (PayloadEvent, bool) {
	switch messageType {
	case websocket.BinaryMessage:
		var r *histogram.Rendering
		err := s.dec.Decode(ctx, bytes.NewReader(msg), func(im image.Image) error {
			r = s.analyzer.Analyze(im)
			return nil
		})
		if err != nil {
			return PayloadEvent{Event: EventError, Data: "Bild konnte nicht gelesen werden"}, true
		}
		return PayloadEvent{Event: EventHistogram, Data: r.Result}, true

	case websocket.TextMessage:
		var cm ClientMessage
		if err := json.Unmarshal(msg, &cm); err != nil {
			return PayloadEvent{}, false
		}
		if cm.Action == ActionReset {
			s.analyzer.Release()
			return PayloadEvent{Event: EventReset}, true
		}
	}
	return PayloadEvent{}, false
}

func (s *Session) Close() { s.analyzer.Release() }

// HandleHistogram returns the websocket loop for one connection. Frames are
// handled one at a time, so a client holds at most one engine slot.
func HandleHistogram(dec Decoder) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		rid, _ := c.Locals(middleware.ReqIDKey).(string)
		tlog := telemetry.L().With().Str("module", "ws").Str("req_id", rid).Logger()
		tlog.Info().Msg("ws_connected")

		ctx, cancel := context.WithCancel(context.Background())
		s := NewSession(dec)
		defer func() {
			cancel()
			s.Close()
			_ = c.Close()
			tlog.Info().Msg("ws_disconnected")
		}()

		c.SetReadLimit(preset.MaxUploadBytes)
		for {
			mt, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			pl, ok := s.Handle(ctx, mt, msg)
			if !ok {
				continue
			}
			if pl.Event == EventError {
				tlog.Warn().Int("len", len(msg)).Msg("ws_decode_failed")
			}
			if err := c.WriteJSON(pl); err != nil {
				tlog.Warn().Err(err).Msg("ws_write_failed")
				break
			}
		}
	}
}
