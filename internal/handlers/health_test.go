package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestHandler_Health(t *testing.T) {
	app := newTestApp(t, newFakeBackend(t).URL)

	status, body := do(t, app, "GET", "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Contains(t, body["sessions"], "total_entries")
}

func TestHandler_NotFound(t *testing.T) {
	app := newTestApp(t, newFakeBackend(t).URL)

	status, body := do(t, app, "GET", "/nonexistent", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
	assert.Equal(t, "/nonexistent", path(body, "error", "path"))
}
