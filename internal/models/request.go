package models

import (
	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/visualization"
	"github.com/querylens/querylens/internal/presenter"
)

// QueryRequest represents a question submission
type QueryRequest struct {
	Question string `json:"question"`
}

// InterpretRequest carries a query result produced elsewhere. Recommendation
// is the optional server recommendation to apply.
type InterpretRequest struct {
	QueryResult    *analytics.QueryResult        `json:"queryResult"`
	Question       string                        `json:"question,omitempty"`
	Recommendation *visualization.Recommendation `json:"recommendation,omitempty"`
}

// ViewRequest renders a view over a supplied query result
type ViewRequest struct {
	InterpretRequest
	State presenter.State `json:"state"`
}
