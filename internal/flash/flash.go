// Package flash carries one user-visible message across a redirect.
package flash

import (
	"encoding/base64"
	"time"

	"github.com/gofiber/fiber/v2"
)

const CookieName = "bild_flash"

// Set stores msg to be shown after the next navigation.
func Set(c *fiber.Ctx, msg string) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(msg)),
		Path:     "/",
		MaxAge:   60,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Pop returns the pending message, if any, and clears it.
func Pop(c *fiber.Ctx) (string, bool) {
	raw := c.Cookies(CookieName)
	if raw == "" {
		return "", false
	}
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Handler serves GET /api/v1/flash: {"alert": msg} or 204 when nothing is pending.
func Handler(c *fiber.Ctx) error {
	msg, ok := Pop(c)
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(fiber.Map{"alert": msg})
}
