package validation

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
)

// Check runs Validate and wraps field errors so the global error handler
// renders them in the Laravel-style shape.
func Check(s any) error {
	errs, err := Validate(s)
	if err != nil {
		return apperr.Internal(err)
	}
	if errs != nil {
		return apperr.Fields(errs)
	}
	return nil
}

// Bind parses the JSON body into out and validates it.
func Bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.BadRequest("invalid json")
	}
	return Check(out)
}
