package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/chartdata"
	"github.com/querylens/querylens/internal/analytics/fields"
	"github.com/querylens/querylens/internal/analytics/metrics"
	"github.com/querylens/querylens/internal/analytics/shape"
	"github.com/querylens/querylens/internal/analytics/visualization"
	"github.com/querylens/querylens/internal/logging"
)

// Interpretation is everything derived from one result set.
type Interpretation struct {
	Question      string                      `json:"question,omitempty"`
	Collection    string                      `json:"collection,omitempty"`
	Profile       shape.Profile               `json:"profile"`
	Fields        []fields.Field              `json:"fields"`
	Metrics       []metrics.Metric            `json:"metrics"`
	Visualization visualization.Visualization `json:"visualization"`
	Chart         *chartdata.Chart            `json:"chart,omitempty"`
}

// InterpretService derives fields, metrics, a visualization and chart data
// from a result set.
type InterpretService struct {
	logger         *logging.Logger
	maxChartPoints int
}

// NewInterpretService creates a new InterpretService
func NewInterpretService(logger *logging.Logger, maxChartPoints int) *InterpretService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &InterpretService{logger: logger, maxChartPoints: maxChartPoints}
}

// Interpret runs the pipeline. Metrics and the visualization choice only
// depend on the shape profile and fields, so they are derived concurrently;
// chart projection waits for the visualization. A nil result is treated as
// empty.
func (s *InterpretService) Interpret(ctx context.Context, qr *analytics.QueryResult, question string, rec *visualization.Recommendation) (*Interpretation, error) {
	startTime := time.Now()
	if qr == nil {
		qr = &analytics.QueryResult{}
	}

	profile := shape.Detect(qr.Results)
	fs := fields.Analyze(qr.Results)

	var (
		summary []metrics.Metric
		vis     visualization.Visualization
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary = metrics.Summarize(qr, profile)
		return gctx.Err()
	})
	g.Go(func() error {
		vis = visualization.Select(visualization.Input{
			Records:  qr.Results,
			Fields:   fs,
			Profile:  profile,
			Question: question,
		}, rec)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Interpretation{
		Question:      question,
		Collection:    qr.Collection(),
		Profile:       profile,
		Fields:        fs,
		Metrics:       summary,
		Visualization: vis,
	}
	if vis.Kind.IsChart() {
		chart := s.project(qr, profile, vis)
		out.Chart = &chart
	}

	s.logger.WithContext(ctx).Debug("Interpreted result",
		"shape", profile.Shape,
		"rows", profile.Rows,
		"fields", len(fs),
		"metrics", len(summary),
		"visualization", vis.Kind,
		"source", vis.Source,
		"latency_ms", time.Since(startTime).Milliseconds())
	return out, nil
}

// Chart projects chart data for vis. Non-chart kinds are drawn as a bar
// chart, which is what the chart view shows when the user switches to it.
func (s *InterpretService) Chart(qr *analytics.QueryResult, vis visualization.Visualization) chartdata.Chart {
	if qr == nil {
		qr = &analytics.QueryResult{}
	}
	if !vis.Kind.IsChart() {
		vis = visualization.Visualization{Kind: visualization.KindBar, Config: vis.Config, Title: vis.Title, Source: vis.Source}
	}
	return s.project(qr, shape.Detect(qr.Results), vis)
}

func (s *InterpretService) project(qr *analytics.QueryResult, profile shape.Profile, vis visualization.Visualization) chartdata.Chart {
	return chartdata.Project(chartdata.Input{
		Records:       qr.Results,
		Profile:       profile,
		Visualization: vis,
		MaxPoints:     s.maxChartPoints,
	})
}
