package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/querylens/querylens/internal/logging"
	"github.com/querylens/querylens/internal/models"
	"github.com/querylens/querylens/internal/presenter"
	"github.com/querylens/querylens/internal/services"
	"github.com/querylens/querylens/internal/session"
	"github.com/querylens/querylens/internal/utils"
)

// maxSessionIDLength bounds the X-Session-ID header.
const maxSessionIDLength = 128

// Handler contains all HTTP handlers
type Handler struct {
	logger           *logging.Logger
	sessions         *session.Manager
	queryService     *services.QueryService
	interpretService *services.InterpretService
	viewService      *services.ViewService
}

// New creates a new handler instance
func New(logger *logging.Logger, sessions *session.Manager,
	queryService *services.QueryService,
	interpretService *services.InterpretService,
	viewService *services.ViewService,
) *Handler {
	return &Handler{
		logger:           logger,
		sessions:         sessions,
		queryService:     queryService,
		interpretService: interpretService,
		viewService:      viewService,
	}
}

// sessionID returns the caller's session, falling back to the shared default
// session when the header is absent.
func sessionID(c *fiber.Ctx) (string, error) {
	id := strings.TrimSpace(c.Get(logging.HeaderSessionID))
	if id == "" {
		return utils.DefaultSessionID, nil
	}
	if len(id) > maxSessionIDLength {
		return "", services.NewServiceErrorWithDetails(services.CodeInvalidRequest, "session id is too long", map[string]interface{}{
			"max_length": maxSessionIDLength,
		})
	}
	return id, nil
}

// invalidJSON reports an unparsable request body
func invalidJSON(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_JSON",
			Message: "Failed to parse JSON body",
			Details: map[string]interface{}{"error": err.Error()},
		},
	})
}

// viewState reads the view state from query parameters:
// hidden=a,b&search=x&sort=key&dir=asc|desc&page=2&pageSize=20
func (h *Handler) viewState(c *fiber.Ctx) presenter.State {
	state := presenter.State{
		Search:  c.Query("search"),
		SortKey: c.Query("sort"),
	}

	if hidden := c.Query("hidden"); hidden != "" {
		for _, key := range strings.Split(hidden, ",") {
			if key = strings.TrimSpace(key); key != "" {
				state.Hidden = append(state.Hidden, key)
			}
		}
	}

	switch dir := strings.ToLower(c.Query("dir")); dir {
	case "", string(presenter.SortAsc):
		state.SortDir = presenter.SortAsc
	case string(presenter.SortDesc):
		state.SortDir = presenter.SortDesc
	default:
		h.logger.Warn("Invalid dir parameter, using asc", "dir", dir)
		state.SortDir = presenter.SortAsc
	}

	state.Page = h.intQuery(c, "page")
	state.PageSize = h.intQuery(c, "pageSize")
	return state
}

// intQuery parses a non-negative integer query parameter; bad values read as 0
func (h *Handler) intQuery(c *fiber.Ctx, name string) int {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		h.logger.Warn("Failed to parse "+name+" parameter, using default",
			name, raw,
			"error", err,
		)
		return 0
	}
	return n
}
