package delivery

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/emandor/bild_service/internal/flash"
	"github.com/emandor/bild_service/internal/img"
	"github.com/emandor/bild_service/internal/middleware"
	"github.com/emandor/bild_service/internal/preset"
	"github.com/emandor/bild_service/internal/upload"
)

// MsgProcessingFailed is shown for every engine failure; details stay in the logs.
const MsgProcessingFailed = "Bildverarbeitung fehlgeschlagen"

const filenameTimeLayout = "20060102_150405"

// Renderer is the transform engine as seen by the handlers. Decode admits
// histogram work under the same worker budget as Render.
type Renderer interface {
	Render(ctx context.Context, src io.Reader, opts img.Options) (img.Result, error)
	Decode(ctx context.Context, src io.Reader, fn func(image.Image) error) error
}

type Handler struct {
	cat    *preset.Catalog
	engine Renderer
	now    func() time.Time
}

func NewHandler(cat *preset.Catalog, engine Renderer) *Handler {
	return &Handler{cat: cat, engine: engine, now: time.Now}
}

// Preview streams the small rendition inline.
func (h *Handler) Preview(c *fiber.Ctx) error {
	_, res, err := h.render(c, preset.Preview)
	if err != nil {
		return h.previewFailure(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderContentDisposition, string(preset.Inline))
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(res.Bytes)
}

// Download streams the full rendition as an attachment named after the
// variant and the capture time.
func (h *Handler) Download(c *fiber.Ctx) error {
	v, res, err := h.render(c, preset.Download)
	if err != nil {
		return h.downloadFailure(c, err)
	}
	c.Attachment(Filename(v.Variant.ID, h.now()))
	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(res.Bytes)
}

// RejectPreview answers a validation failure on the preview endpoint.
func (h *Handler) RejectPreview(c *fiber.Ctx, err *upload.Error) error {
	return h.previewFailure(c, err)
}

// RejectDownload answers a validation failure on the download endpoint.
func (h *Handler) RejectDownload(c *fiber.Ctx, err *upload.Error) error {
	return h.downloadFailure(c, err)
}

// Presets lists the variant and tier tables.
func (h *Handler) Presets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"variants": h.cat.Variants(),
		"tiers":    h.cat.Tiers(),
	})
}

// Filename builds bild_<variant>_<YYYYMMDD_HHMMSS>.jpg.
func Filename(variant preset.VariantID, at time.Time) string {
	return fmt.Sprintf("bild_%s_%s.jpg", variant, at.Format(filenameTimeLayout))
}

func (h *Handler) render(c *fiber.Ctx, tierID preset.TierID) (upload.Validated, img.Result, error) {
	v, ok := middleware.Upload(c)
	if !ok {
		return v, img.Result{}, &upload.Error{
			Kind:    upload.ErrMissingUpload,
			Status:  fiber.StatusBadRequest,
			Message: "Bitte wähle ein Bild aus",
		}
	}
	tier, ok := h.cat.Tier(tierID)
	if !ok {
		return v, img.Result{}, fmt.Errorf("unknown tier %q", tierID)
	}

	log := middleware.RequestLogger(c).With().
		Str("variant", string(v.Variant.ID)).
		Str("tier", string(tier.ID)).
		Logger()

	f, err := v.File.Open()
	if err != nil {
		log.Error().Err(err).Msg("upload_open_failed")
		return v, img.Result{}, fmt.Errorf("%w: open upload: %v", img.ErrDecode, err)
	}
	defer f.Close()

	start := time.Now()
	res, err := h.engine.Render(c.UserContext(), f, img.OptionsFor(v.Variant, tier))
	if err != nil {
		log.Error().Err(err).Int64("size", v.File.Size).Str("filename", v.File.Filename).Msg("render_failed")
		return v, img.Result{}, err
	}
	log.Info().
		Int("width", res.Width).
		Int("height", res.Height).
		Int("bytes", len(res.Bytes)).
		Dur("took", time.Since(start)).
		Msg("render_done")
	return v, res, nil
}

func (h *Handler) previewFailure(c *fiber.Ctx, err error) error {
	status, msg := userFacing(err)
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func (h *Handler) downloadFailure(c *fiber.Ctx, err error) error {
	_, msg := userFacing(err)
	flash.Set(c, msg)
	return c.Redirect("/", fiber.StatusSeeOther)
}

// userFacing maps err to a status and a message that leaks no internals.
func userFacing(err error) (int, string) {
	var ue *upload.Error
	if errors.As(err, &ue) {
		return ue.Status, ue.Message
	}
	return fiber.StatusUnprocessableEntity, MsgProcessingFailed
}
