package response

import (
	"github.com/gofiber/fiber/v2"

	domain "coursepay/internal/errors"
)

func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"data": data})
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": domain.ErrUnauthorized.Message,
		"code":  domain.ErrUnauthorized.Code,
	})
}

// DomainError maps a domain error code onto an HTTP status and renders the
// stable code alongside the message. Business outcomes like an insufficient
// balance are 422s, not server failures.
func DomainError(c *fiber.Ctx, err error) error {
	derr, ok := domain.As(err)
	if !ok {
		return Error(c, fiber.StatusInternalServerError, "internal error")
	}

	status := fiber.StatusInternalServerError
	switch derr.Code {
	case "INVALID_AMOUNT", "UNSUPPORTED_CURRENCY":
		status = fiber.StatusBadRequest
	case "UNAUTHORIZED":
		status = fiber.StatusUnauthorized
	case "NOT_FOUND":
		status = fiber.StatusNotFound
	case "ALREADY_EXISTS", "DUPLICATE_EXTERNAL_REF":
		status = fiber.StatusConflict
	case "ACCOUNT_FROZEN", "ACCOUNT_INACTIVE", "INSUFFICIENT_BALANCE", "ENTRY_NOT_REVERSIBLE":
		status = fiber.StatusUnprocessableEntity
	case "UNAVAILABLE":
		status = fiber.StatusServiceUnavailable
	case "CONSISTENCY_ERROR":
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(fiber.Map{
		"error": derr.Message,
		"code":  derr.Code,
	})
}
