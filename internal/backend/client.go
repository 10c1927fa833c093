// Package backend talks to the NLP-to-query service: it submits questions and
// asks for visualization recommendations.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/visualization"
	"github.com/querylens/querylens/internal/config"
	"github.com/querylens/querylens/internal/logging"
	"github.com/querylens/querylens/internal/utils"
)

// QueryRequest is the body of a query submission.
type QueryRequest struct {
	Question string `json:"question"`
}

// RecommendRequest is the body of a recommendation request.
type RecommendRequest struct {
	QueryResult *analytics.QueryResult `json:"queryResult"`
	Question    string                 `json:"question"`
}

// Client is an HTTP client for the query backend.
type Client struct {
	queryURL     string
	recommendURL string
	timeout      time.Duration
	logger       *logging.Logger
}

// NewClient creates a client for cfg.
func NewClient(cfg config.BackendConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = utils.DefaultRequestTimeout
	}
	return &Client{
		queryURL:     cfg.QueryURL(),
		recommendURL: cfg.RecommendURL(),
		timeout:      timeout,
		logger:       logger,
	}
}

// Query submits a question and decodes the result set.
func (c *Client) Query(ctx context.Context, question string) (*analytics.QueryResult, error) {
	body, err := c.post(ctx, c.queryURL, QueryRequest{Question: question})
	if err != nil {
		return nil, err
	}
	qr, err := analytics.ParseQueryResult(body)
	if err != nil {
		return nil, &Error{StatusCode: fiber.StatusOK, Message: "invalid response from query backend", Err: err}
	}
	return qr, nil
}

// Recommend asks the backend which visualization suits a result set.
func (c *Client) Recommend(ctx context.Context, req RecommendRequest) (*visualization.Recommendation, error) {
	body, err := c.post(ctx, c.recommendURL, req)
	if err != nil {
		return nil, err
	}
	var rec visualization.Recommendation
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, &Error{StatusCode: fiber.StatusOK, Message: "invalid response from recommendation backend", Err: err}
	}
	return &rec, nil
}

func (c *Client) post(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	timeout, err := c.effectiveTimeout(ctx)
	if err != nil {
		return nil, &Error{Message: err.Error(), Err: err}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	agent := fiber.Post(url)
	agent.ContentType(fiber.MIMEApplicationJSON)
	agent.Body(data)
	agent.Timeout(timeout)
	if requestID := logging.RequestID(ctx); requestID != "" {
		agent.Set(logging.HeaderRequestID, requestID)
	}

	log := c.logger.WithContext(ctx)
	start := time.Now()
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		err := errors.Join(errs...)
		log.Error("Backend request failed", "url", url, "error", err)
		return nil, &Error{Message: err.Error(), Err: err}
	}

	log.Debug("Backend request completed",
		"url", url,
		"status", status,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds())

	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		return nil, &Error{
			StatusCode: status,
			Detail:     parseDetail(body),
			Message:    fmt.Sprintf("backend returned status %d", status),
		}
	}
	return body, nil
}

// effectiveTimeout clamps the client timeout to the context deadline.
func (c *Client) effectiveTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, context.DeadlineExceeded
		}
		if remaining < timeout {
			timeout = remaining
		}
	}
	return timeout, nil
}
