package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/chartdata"
	"github.com/querylens/querylens/internal/analytics/fields"
	"github.com/querylens/querylens/internal/analytics/metrics"
	"github.com/querylens/querylens/internal/analytics/visualization"
	"github.com/querylens/querylens/internal/presenter"
)

func TestTable(t *testing.T) {
	records, err := analytics.ParseRecords([]byte(`[{"title":"Login broken","status":"Open"}]`))
	require.NoError(t, err)

	var buf bytes.Buffer
	Table(&buf, presenter.BuildTable(records, fields.Analyze(records), presenter.State{SortKey: "title"}))

	out := buf.String()
	assert.Contains(t, strings.ToLower(out), "title ↑")
	assert.Contains(t, out, "Login broken")
	assert.Contains(t, out, "page 1/1 (1 rows)  [1]")
}

func TestTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, presenter.BuildTable(nil, nil, presenter.State{}))
	assert.Contains(t, buf.String(), presenter.EmptyMessage)
}

func TestCards(t *testing.T) {
	records, err := analytics.ParseRecords([]byte(`[{"title":"Crash","priority":"High","assignee":"bob"}]`))
	require.NoError(t, err)

	var buf bytes.Buffer
	Cards(&buf, presenter.BuildCards(records, fields.Analyze(records), presenter.State{}))

	out := buf.String()
	assert.Contains(t, out, "Crash")
	assert.Contains(t, out, "[High]")
	assert.Contains(t, out, "bob")
}

func TestChart(t *testing.T) {
	c := chartdata.Chart{
		Kind:   visualization.KindBar,
		Items:  []chartdata.Item{{Name: "bug", Value: 5}, {Name: "ui", Value: 2.5}},
		Series: nil,
	}

	var buf bytes.Buffer
	Chart(&buf, c)
	out := buf.String()
	assert.Contains(t, strings.ToLower(out), "barchart")
	assert.Contains(t, out, "bug")
	assert.Contains(t, out, "2.50")
	assert.Contains(t, out, "██████████████████████████████")

	buf.Reset()
	Chart(&buf, chartdata.Chart{Kind: visualization.KindBar, Message: "Unable to format data for barChart"})
	assert.Contains(t, buf.String(), "Unable to format data for barChart")
}

func TestMetrics(t *testing.T) {
	var buf bytes.Buffer
	Metrics(&buf, []metrics.Metric{
		{Label: "Total", Value: metrics.Number(8), Color: metrics.ColorBlue, Subtext: "Across 2 categories"},
		{Label: "Query Time", Value: metrics.Text("12.35ms"), Color: metrics.ColorPurple},
	})
	out := buf.String()
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "12.35ms")
	assert.Contains(t, out, "Across 2 categories")

	buf.Reset()
	Metrics(&buf, nil)
	assert.Empty(t, buf.String())
}
