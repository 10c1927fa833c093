package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/querylens/querylens/internal/logging"
	"github.com/querylens/querylens/internal/models"
	"github.com/querylens/querylens/internal/services"
)

// StatusForCode maps a service error code to its HTTP status
func StatusForCode(code string) int {
	switch code {
	case services.CodeInvalidRequest, services.CodeInvalidView:
		return fiber.StatusBadRequest
	case services.CodeQueryPending:
		return fiber.StatusConflict
	case services.CodeQueryFailed:
		return fiber.StatusBadGateway
	case services.CodeBackendUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler returns a custom error handler writing the JSON error envelope
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		detail := models.ErrorDetail{
			Code:    "ERROR",
			Message: "Internal Server Error",
		}

		if svcErr, ok := services.AsServiceError(err); ok {
			status = StatusForCode(svcErr.Code)
			detail.Code = svcErr.Code
			detail.Message = svcErr.Message
			detail.Details = svcErr.Details
		} else if e, ok := err.(*fiber.Error); ok {
			status = e.Code
			detail.Message = e.Message
		}

		log := logger.WithContext(c.UserContext())
		fields := []interface{}{
			"path", c.Path(),
			"method", c.Method(),
			"status", status,
			"code", detail.Code,
			"error", err,
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("Request error", fields...)
		} else {
			log.Warn("Request error", fields...)
		}

		return c.Status(status).JSON(models.ErrorResponse{Error: detail})
	}
}
