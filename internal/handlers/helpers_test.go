package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/internal/backend"
	"github.com/querylens/querylens/internal/config"
	"github.com/querylens/querylens/internal/history"
	"github.com/querylens/querylens/internal/logging"
	"github.com/querylens/querylens/internal/middleware"
	"github.com/querylens/querylens/internal/services"
	"github.com/querylens/querylens/internal/session"
)

// backendPayloads are served by the fake query backend, keyed by question.
var backendPayloads = map[string]string{
	"tickets by status": `{"query":{"collection":"tickets"},"results":[{"_id":"Open","count":5},{"_id":"Closed","count":3}],"metadata":{"executionTime":12.5}}`,
	"open tickets":      `{"query":{"collection":"tickets"},"results":[{"_id":"1","title":"Printer jam","status":"Open"},{"_id":"2","title":"VPN down","status":"Open"},{"_id":"3","title":"Badge reader","status":"Open"}]}`,
	"nothing":           `{"query":{"collection":"tickets"},"results":[]}`,
}

// newFakeBackend answers known questions and rejects the rest with a detail
// message.
func newFakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req backend.QueryRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		payload, ok := backendPayloads[req.Question]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"Could not understand the question"}`))
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newTestApp wires real services against a fake backend. backendURL may
// point at a closed port to simulate an unreachable backend.
func newTestApp(t *testing.T, backendURL string) *fiber.App {
	t.Helper()
	logger := logging.NewNop()

	sessions := session.NewManager(config.SessionConfig{IdleTimeout: time.Minute, CleanupInterval: time.Minute}, logger)
	store := history.NewMemoryStore(time.Minute)
	client := backend.NewClient(config.BackendConfig{
		BaseURL:   backendURL,
		QueryPath: "/nlp-query",
		Timeout:   2 * time.Second,
	}, logger)
	interp := services.NewInterpretService(logger, 500)
	views := services.NewViewService(interp, config.ViewsConfig{TablePageSize: 10, CardPageSize: 9, MaxChartPoints: 500})
	query := services.NewQueryService(logger, client, sessions, store, nil, nil, interp, views)
	t.Cleanup(func() {
		query.Close()
		sessions.Close()
		_ = store.Close()
	})

	h := New(logger, sessions, query, interp, views)
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	app.Get("/health", h.Health)
	app.Post("/v1/query", h.Query)
	app.Get("/v1/session", h.Session)
	app.Get("/v1/session/history", h.History)
	app.Delete("/v1/session/history", h.ClearHistory)
	app.Get("/v1/session/views/:view", h.SessionView)
	app.Post("/v1/interpret", h.Interpret)
	app.Post("/v1/views/:view", h.View)
	app.Use(h.NotFound)
	return app
}

// do performs a request and decodes the JSON body, if any.
func do(t *testing.T, app *fiber.App, method, path, sessionID string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	if sessionID != "" {
		req.Header.Set(logging.HeaderSessionID, sessionID)
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) == 0 {
		return resp.StatusCode, nil
	}
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return resp.StatusCode, out
}

func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	e, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "expected error envelope, got %v", body)
	code, _ := e["code"].(string)
	return code
}

// path walks nested JSON objects.
func path(body map[string]interface{}, keys ...string) interface{} {
	var cur interface{} = body
	for _, k := range keys {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}
