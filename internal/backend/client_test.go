package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/config"
	"github.com/querylens/querylens/internal/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.BackendConfig{
		BaseURL:       srv.URL,
		QueryPath:     "/nlp-query",
		RecommendPath: "/visualization-recommendation",
		Timeout:       timeout,
	}, nil)
}

func TestClient_Query(t *testing.T) {
	var gotBody QueryRequest
	var gotRequestID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/nlp-query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotRequestID = r.Header.Get(logging.HeaderRequestID)

		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"query": {"collection": "tickets", "pipeline": []},
			"results": [{"_id": "Open", "count": 5}, {"_id": "Closed", "count": 3}],
			"metadata": {"executionTime": 12.345}
		}`))
	}, time.Second)

	ctx := logging.WithRequestID(context.Background(), "req-42")
	qr, err := client.Query(ctx, "tickets by status")
	require.NoError(t, err)

	assert.Equal(t, "tickets by status", gotBody.Question)
	assert.Equal(t, "req-42", gotRequestID)
	require.Len(t, qr.Results, 2)
	assert.Equal(t, "tickets", qr.Collection())
	ms, ok := qr.ExecutionTime()
	require.True(t, ok)
	assert.Equal(t, 12.345, ms)
}

func TestClient_QueryErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "string detail",
			status:     http.StatusBadRequest,
			body:       `{"detail": "Could not understand the question"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Could not understand the question",
		},
		{
			name:       "validation detail",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail": [{"loc": ["body", "question"], "msg": "field required"}]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "field required",
		},
		{
			name:       "no detail",
			status:     http.StatusInternalServerError,
			body:       `Internal Server Error`,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "backend returned status 500",
		},
		{
			name:       "null detail",
			status:     http.StatusBadGateway,
			body:       `{"detail": null}`,
			wantStatus: http.StatusBadGateway,
			wantMsg:    "backend returned status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, time.Second)

			_, err := client.Query(context.Background(), "anything")
			require.Error(t, err)

			var be *Error
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.wantStatus, be.StatusCode)
			assert.Equal(t, tt.wantMsg, UserMessage(err))
		})
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}, time.Second)

	_, err := client.Query(context.Background(), "anything")
	assert.Equal(t, "invalid response from query backend", UserMessage(err))
}

func TestClient_Unreachable(t *testing.T) {
	client := NewClient(config.BackendConfig{BaseURL: "http://127.0.0.1:1", QueryPath: "/nlp-query"}, nil)

	_, err := client.Query(context.Background(), "anything")
	require.Error(t, err)
	msg := UserMessage(err)
	assert.NotEmpty(t, msg)
	assert.NotEqual(t, UnknownErrorMessage, msg)
}

func TestClient_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"results": []}`))
	}, 50*time.Millisecond)

	start := time.Now()
	_, err := client.Query(context.Background(), "slow")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestClient_CancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("request must not be sent")
	}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Query(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Recommend(t *testing.T) {
	var got map[string]json.RawMessage
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/visualization-recommendation", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got)
		_, _ = w.Write([]byte(`{"visualizationType": "pieChart", "title": "Tickets by status", "config": {"groupBy": "_id"}}`))
	}, time.Second)

	qr := analytics.NewQueryResult("tickets")
	rec, err := client.Recommend(context.Background(), RecommendRequest{QueryResult: qr, Question: "status split"})
	require.NoError(t, err)

	assert.Equal(t, "pieChart", rec.VisualizationType)
	assert.Equal(t, "Tickets by status", rec.Title)
	assert.Equal(t, "_id", rec.Config.GroupBy)
	assert.JSONEq(t, `"status split"`, string(got["question"]))
	assert.Contains(t, got, "queryResult")
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, UnknownErrorMessage, UserMessage(nil))
	assert.Equal(t, UnknownErrorMessage, UserMessage(errors.New("")))
	assert.Equal(t, UnknownErrorMessage, UserMessage(&Error{}))
	assert.Equal(t, "connection refused", UserMessage(errors.New("connection refused")))
	assert.Equal(t, "wrapped", UserMessage(&Error{Err: errors.New("wrapped")}))
	assert.Equal(t, "detail wins", UserMessage(&Error{Detail: "detail wins", Message: "status 400"}))
}
