package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/querylens/querylens/internal/models"
	"github.com/querylens/querylens/internal/services"
	"github.com/querylens/querylens/internal/utils"
)

// Interpret classifies and summarizes a supplied query result without
// touching session state
// POST /v1/interpret {"queryResult": {...}, "question": "...", "recommendation": {...}}
func (h *Handler) Interpret(c *fiber.Ctx) error {
	var req models.InterpretRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c, err)
	}
	if req.QueryResult == nil {
		return services.NewServiceError(services.CodeInvalidRequest, "queryResult is required")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.InterpretTimeout)
	defer cancel()

	interp, err := h.interpretService.Interpret(ctx, req.QueryResult, req.Question, req.Recommendation)
	if err != nil {
		return err
	}
	return c.JSON(interp)
}
