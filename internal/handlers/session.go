package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/querylens/querylens/internal/models"
)

// Session returns the caller's current snapshot
// GET /v1/session
func (h *Handler) Session(c *fiber.Ctx) error {
	sid, err := sessionID(c)
	if err != nil {
		return err
	}

	state, err := h.queryService.Current(c.UserContext(), sid)
	if err != nil {
		return err
	}
	return c.JSON(state)
}

// History returns the caller's recent questions, most recent first
// GET /v1/session/history
func (h *Handler) History(c *fiber.Ctx) error {
	sid, err := sessionID(c)
	if err != nil {
		return err
	}

	items, err := h.queryService.History(c.UserContext(), sid)
	if err != nil {
		return err
	}
	if items == nil {
		items = []string{}
	}
	return c.JSON(models.HistoryResponse{SessionID: sid, History: items})
}

// ClearHistory forgets the caller's recent questions
// DELETE /v1/session/history
func (h *Handler) ClearHistory(c *fiber.Ctx) error {
	sid, err := sessionID(c)
	if err != nil {
		return err
	}

	if err := h.queryService.ClearHistory(c.UserContext(), sid); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
