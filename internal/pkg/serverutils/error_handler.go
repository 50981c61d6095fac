package serverutils

import (
	"ai-shopping-assistant-be/internal/dto"
	"ai-shopping-assistant-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler keeps the assistant's contract of always answering with the
// ok envelope. Unknown routes still get a plain 404.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		if e, ok := err.(*fiber.Error); ok && e.Code == fiber.StatusNotFound {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": e.Message})
		}

		log.Error("HTTP", "Unhandled request error", map[string]interface{}{
			"path":  ctx.Path(),
			"error": err.Error(),
		})
		return ctx.Status(fiber.StatusOK).JSON(dto.NewAskResponse(dto.ErrorAnswer))
	}
}
