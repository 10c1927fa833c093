package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/querylens/querylens/internal/models"
	"github.com/querylens/querylens/internal/utils"
)

// Query submits a question for the caller's session
// POST /v1/query {"question": "..."}
func (h *Handler) Query(c *fiber.Ctx) error {
	var req models.QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c, err)
	}

	sid, err := sessionID(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.DefaultRequestTimeout)
	defer cancel()

	state, err := h.queryService.Submit(ctx, sid, req.Question)
	if err != nil {
		return err
	}
	return c.JSON(state)
}
