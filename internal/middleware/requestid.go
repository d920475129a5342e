package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emandor/bild_service/internal/telemetry"
)

const ReqIDKey = "reqID"

func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Set("X-Request-ID", rid)
		c.Locals(ReqIDKey, rid)
		return c.Next()
	}
}

// RequestLogger returns the global logger tagged with the request id, if any.
func RequestLogger(c *fiber.Ctx) zerolog.Logger {
	rid, _ := c.Locals(ReqIDKey).(string)
	return telemetry.L().With().Str("req_id", rid).Logger()
}
