package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/models"
	"github.com/querylens/querylens/internal/presenter"
)

func TestHandler_SessionView_Table(t *testing.T) {
	app := newTestApp(t, newFakeBackend(t).URL)
	do(t, app, "POST", "/v1/query", "s1", models.QueryRequest{Question: "open tickets"})

	status, body := do(t, app, "GET", "/v1/session/views/table?sort=title&dir=desc&pageSize=2&hidden=status", "s1", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "title", body["sortKey"])
	assert.Equal(t, "desc", body["sortDir"])
	assert.Equal(t, float64(2), path(body, "paging", "pageSize"))
	assert.Equal(t, float64(3), path(body, "paging", "total"))
	assert.Equal(t, float64(2), path(body, "paging", "pageCount"))

	rows, ok := body["rows"].([]interface{})
	require.True(t, ok)
	require.Len(t, rows, 2)

	for _, col := range body["columns"].([]interface{}) {
		assert.NotEqual(t, "status", col.(map[string]interface{})["key"])
	}
}

func TestHandler_SessionView_Search(t *testing.T) {
	app := newTestApp(t, newFakeBackend(t).URL)
	do(t, app, "POST", "/v1/query", "s1", models.QueryRequest{Question: "open tickets"})

	_, body := do(t, app, "GET", "/v1/session/views/cards?search=vpn", "s1", nil)
	assert.Len(t, body["cards"], 1)

	_, body = do(t, app, "GET", "/v1/session/views/cards?search=nomatch", "s1", nil)
	assert.Equal(t, presenter.NoMatchesMessage, body["message"])
}

func TestHandler_SessionView_BadParamsFallBack(t *testing.T) {
	app := newTestApp(t, newFakeBackend(t).URL)
	do(t, app, "POST", "/v1/query", "s1", models.QueryRequest{Question: "open tickets"})

	status, body := do(t, app, "GET", "/v1/session/views/table?page=abc&pageSize=-3&dir=sideways&sort=title", "s1", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), path(body, "paging", "page"))
	assert.Equal(t, float64(10), path(body, "paging", "pageSize"))
	assert.Equal(t, "asc", body["sortDir"])
}

func TestHandler_SessionView_NoResult(t *testing.T) {
	app := newTestApp(t, newFakeBackend(t).URL)

	status, body := do(t, app, "GET", "/v1/session/views/table", "fresh", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, presenter.EmptyMessage, body["message"])
}

func TestHandler_SessionView_Chart(t *testing.T) {
	app := newTestApp(t, newFakeBackend(t).URL)
	do(t, app, "POST", "/v1/query", "s1", models.QueryRequest{Question: "tickets by status"})

	status, body := do(t, app, "GET", "/v1/session/views/chart", "s1", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "barChart", path(body, "visualization", "type"))
	assert.Len(t, path(body, "chart", "data"), 2)
}

func TestHandler_SessionView_JSON(t *testing.T) {
	app := newTestApp(t, newFakeBackend(t).URL)
	do(t, app, "POST", "/v1/query", "s1", models.QueryRequest{Question: "tickets by status"})

	_, body := do(t, app, "GET", "/v1/session/views/json", "s1", nil)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"_id": "Open", "count": float64(5)},
		map[string]interface{}{"_id": "Closed", "count": float64(3)},
	}, body["results"])
}

func TestHandler_SessionView_UnknownView(t *testing.T) {
	app := newTestApp(t, newFakeBackend(t).URL)

	status, body := do(t, app, "GET", "/v1/session/views/heatmap", "s1", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_VIEW", errorCode(t, body))
	assert.Equal(t, "heatmap", path(body, "error", "details", "view"))
}

func TestHandler_View(t *testing.T) {
	app := newTestApp(t, newFakeBackend(t).URL)

	qr := analytics.NewQueryResult("tickets",
		analytics.NewRecord("_id", "1", "title", "B"),
		analytics.NewRecord("_id", "2", "title", "A"),
	)
	req := models.ViewRequest{
		InterpretRequest: models.InterpretRequest{QueryResult: qr},
		State:            presenter.State{SortKey: "title", SortDir: presenter.SortAsc},
	}

	status, body := do(t, app, "POST", "/v1/views/table", "", req)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "title", body["sortKey"])
	assert.Equal(t, float64(2), path(body, "paging", "total"))
}

func TestHandler_View_Errors(t *testing.T) {
	app := newTestApp(t, newFakeBackend(t).URL)

	status, body := do(t, app, "POST", "/v1/views/table", "", map[string]interface{}{"question": "q"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, body))

	status, body = do(t, app, "POST", "/v1/views/table", "", "[")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_JSON", errorCode(t, body))

	status, body = do(t, app, "POST", "/v1/views/pivot", "", map[string]interface{}{"queryResult": map[string]interface{}{"results": []interface{}{}}})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_VIEW", errorCode(t, body))
}
