package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// IdentityMiddleware resolves the caller from the X-User-ID header and
// stores it in Locals("user_id"). The gateway in front of this service
// is responsible for authentication.
func IdentityMiddleware(ctx *fiber.Ctx) error {
	raw := ctx.Get("X-User-ID")
	if raw == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing X-User-ID header"))
	}
	userId, err := uuid.Parse(raw)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid X-User-ID header"))
	}
	ctx.Locals("user_id", userId.String())
	return ctx.Next()
}
