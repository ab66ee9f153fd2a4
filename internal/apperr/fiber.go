package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders any error escaping a handler as the fixed
// {"error": message} shape. Unknown errors become an opaque 500; internals
// never leak to the caller.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return c.Status(ae.HTTPStatus()).JSON(fiber.Map{"error": ae.Message})
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
