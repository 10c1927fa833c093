package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/querylens/querylens/internal/models"
	"github.com/querylens/querylens/internal/services"
	"github.com/querylens/querylens/internal/utils"
)

// SessionView renders a view of the caller's current result
// GET /v1/session/views/:view?hidden=a,b&search=x&sort=key&dir=desc&page=2&pageSize=20
func (h *Handler) SessionView(c *fiber.Ctx) error {
	sid, err := sessionID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.InterpretTimeout)
	defer cancel()

	view, err := h.queryService.View(ctx, sid, c.Params("view"), h.viewState(c))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// View renders a view of a supplied query result
// POST /v1/views/:view {"queryResult": {...}, "question": "...", "state": {...}}
func (h *Handler) View(c *fiber.Ctx) error {
	var req models.ViewRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c, err)
	}
	if req.QueryResult == nil {
		return services.NewServiceError(services.CodeInvalidRequest, "queryResult is required")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.InterpretTimeout)
	defer cancel()

	view, err := h.viewService.Render(ctx, req.QueryResult, req.Question, req.Recommendation, c.Params("view"), req.State)
	if err != nil {
		return err
	}
	return c.JSON(view)
}
