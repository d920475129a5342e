package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/emandor/bild_service/internal/preset"
	"github.com/emandor/bild_service/internal/telemetry"
	"github.com/emandor/bild_service/internal/upload"
)

const UploadKey = "upload"

// RejectFunc answers a request whose upload failed validation.
type RejectFunc func(c *fiber.Ctx, err *upload.Error) error

// UploadGate validates the multipart "image" file and "variant" field before
// any decoding. On success the upload.Validated is stored under UploadKey.
func UploadGate(cat *preset.Catalog, reject RejectFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		variant := c.FormValue("variant")
		fh, err := c.FormFile("image")
		if err != nil {
			fh = nil
		}

		v, err := upload.Validate(upload.FromFileHeader(fh, variant), cat)
		if err != nil {
			var ue *upload.Error
			if !errors.As(err, &ue) {
				return err
			}
			telemetry.M().ObserveRejection(ue.Kind.Error())
			log := RequestLogger(c)
			log.Debug().Err(ue.Kind).Str("variant", variant).Msg("upload_rejected")
			return reject(c, ue)
		}

		c.Locals(UploadKey, v)
		return c.Next()
	}
}

// Upload returns the validated upload stored by UploadGate.
func Upload(c *fiber.Ctx) (upload.Validated, bool) {
	v, ok := c.Locals(UploadKey).(upload.Validated)
	return v, ok
}
