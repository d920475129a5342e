package delivery

import (
	"bytes"
	"errors"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"

	"github.com/emandor/bild_service/internal/histogram"
	"github.com/emandor/bild_service/internal/middleware"
	"github.com/emandor/bild_service/internal/telemetry"
	"github.com/emandor/bild_service/internal/upload"
)

// Histogram analyzes an uploaded, already delivered preview. The response is
// JSON unless format=png asks for the rendered curve.
func (h *Handler) Histogram(c *fiber.Ctx) error {
	log := middleware.RequestLogger(c)

	fh, err := c.FormFile("image")
	if err != nil {
		fh = nil
	}
	if err := upload.ValidateImage(upload.FromFileHeader(fh, "")); err != nil {
		var ue *upload.Error
		if errors.As(err, &ue) {
			telemetry.M().ObserveRejection(ue.Kind.Error())
			log.Debug().Err(ue.Kind).Msg("histogram_rejected")
		}
		return h.previewFailure(c, err)
	}

	f, err := fh.Open()
	if err != nil {
		log.Error().Err(err).Msg("histogram_open_failed")
		return h.previewFailure(c, err)
	}
	defer f.Close()

	var res histogram.Result
	err = h.engine.Decode(c.UserContext(), f, func(im image.Image) error {
		res = histogram.Analyze(im)
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Int64("size", fh.Size).Msg("histogram_decode_failed")
		return h.previewFailure(c, err)
	}

	if c.Query("format") != "png" {
		return c.JSON(res)
	}

	var buf bytes.Buffer
	curve := histogram.RenderCurve(res.Percent, histogram.CurveWidth, histogram.CurveHeight)
	if err := imaging.Encode(&buf, curve, imaging.PNG); err != nil {
		log.Error().Err(err).Msg("histogram_encode_failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": MsgProcessingFailed})
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(buf.Bytes())
}
