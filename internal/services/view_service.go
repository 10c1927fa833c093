package services

import (
	"context"
	"encoding/json"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/chartdata"
	"github.com/querylens/querylens/internal/analytics/visualization"
	"github.com/querylens/querylens/internal/config"
	"github.com/querylens/querylens/internal/presenter"
)

// View names accepted by the views endpoints.
const (
	ViewTable = "table"
	ViewCards = "cards"
	ViewChart = "chart"
	ViewJSON  = "json"
)

// maxPageSize caps a client-requested page size.
const maxPageSize = 100

// SupportedViews lists the valid view names.
var SupportedViews = []string{ViewTable, ViewCards, ViewChart, ViewJSON}

// ChartView is the chart surface: the selected visualization and its data.
type ChartView struct {
	Visualization visualization.Visualization `json:"visualization"`
	Chart         chartdata.Chart             `json:"chart"`
}

// JSONView is the raw JSON surface.
type JSONView struct {
	Results json.RawMessage `json:"results"`
	Count   int             `json:"count"`
}

// ViewService renders the four interchangeable views of a result set. All
// views read the same records and the same field schema.
type ViewService struct {
	interpret *InterpretService
	views     config.ViewsConfig
}

// NewViewService creates a new ViewService
func NewViewService(interpret *InterpretService, views config.ViewsConfig) *ViewService {
	return &ViewService{interpret: interpret, views: views}
}

// Render builds view for qr. rec is the session's server recommendation, if
// any; it decides the chart view's visualization.
func (s *ViewService) Render(ctx context.Context, qr *analytics.QueryResult, question string, rec *visualization.Recommendation, view string, state presenter.State) (interface{}, error) {
	if qr == nil {
		qr = &analytics.QueryResult{}
	}

	switch view {
	case ViewTable:
		interp, err := s.interpret.Interpret(ctx, qr, question, rec)
		if err != nil {
			return nil, err
		}
		state.PageSize = s.pageSize(state.PageSize, s.views.TablePageSize)
		return presenter.BuildTable(presenter.Rows(qr.Results, interp.Profile), interp.Fields, state), nil

	case ViewCards:
		interp, err := s.interpret.Interpret(ctx, qr, question, rec)
		if err != nil {
			return nil, err
		}
		state.PageSize = s.pageSize(state.PageSize, s.views.CardPageSize)
		return presenter.BuildCards(presenter.Rows(qr.Results, interp.Profile), interp.Fields, state), nil

	case ViewChart:
		interp, err := s.interpret.Interpret(ctx, qr, question, rec)
		if err != nil {
			return nil, err
		}
		chart := s.interpret.Chart(qr, interp.Visualization)
		return ChartView{Visualization: interp.Visualization, Chart: chart}, nil

	case ViewJSON:
		data, err := presenter.RawJSON(qr.Results)
		if err != nil {
			return nil, NewServiceErrorWithDetails(CodeInternal, "Failed to encode results", map[string]interface{}{"error": err.Error()})
		}
		return JSONView{Results: data, Count: len(analytics.Compact(qr.Results))}, nil

	default:
		return nil, NewServiceErrorWithDetails(CodeInvalidView, "Unknown view: "+view, map[string]interface{}{
			"view":      view,
			"supported": SupportedViews,
		})
	}
}

func (s *ViewService) pageSize(requested, configured int) int {
	switch {
	case requested > maxPageSize:
		return maxPageSize
	case requested > 0:
		return requested
	case configured > 0:
		return configured
	}
	return 0
}
