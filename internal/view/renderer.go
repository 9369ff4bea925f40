package view

import (
	"github.com/gofiber/fiber/v2"
)

// IsAJAX reports whether the request came from front-end script rather
// than a direct navigation.
func IsAJAX(c *fiber.Ctx) bool {
	return c.Get("X-Requested-With") == "XMLHttpRequest"
}

// Success writes the standard success envelope. Extra fields are merged
// alongside the success flag.
func Success(c *fiber.Ctx, data fiber.Map) error {
	body := fiber.Map{"success": true}
	for k, v := range data {
		body[k] = v
	}
	return c.JSON(body)
}

// Error writes the standard error envelope with the given status.
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
