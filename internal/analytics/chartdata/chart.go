// Package chartdata projects a result set into chart-ready rows for the
// selected visualization.
package chartdata

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/shape"
	"github.com/querylens/querylens/internal/analytics/visualization"
)

// Messages shown in place of a chart.
const (
	NoDataMessage       = "No data available"
	unableFormatMessage = "Unable to format data for %s"
)

// Palette is the series colour cycle.
var Palette = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// ColorAt returns the palette colour for index i.
func ColorAt(i int) string {
	return Palette[i%len(Palette)]
}

// SeriesValue is one named value of a multi-series row.
type SeriesValue struct {
	Key   string
	Value float64
}

// Item is one chart row. Series values are flattened next to name and value
// when encoded.
type Item struct {
	Name      string
	Value     float64
	Color     string
	Date      string
	ShowLabel bool
	Series    []SeriesValue
}

// Get returns the value of a series.
func (it Item) Get(key string) (float64, bool) {
	for _, s := range it.Series {
		if s.Key == key {
			return s.Value, true
		}
	}
	return 0, false
}

func (it *Item) add(key string, v float64) {
	for i := range it.Series {
		if it.Series[i].Key == key {
			it.Series[i].Value += v
			return
		}
	}
	it.Series = append(it.Series, SeriesValue{Key: key, Value: v})
}

// MarshalJSON writes {name, value, color, date?, showLabel?, ...series}.
func (it Item) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return nil
	}
	if err := write("name", it.Name); err != nil {
		return nil, err
	}
	if err := write("value", it.Value); err != nil {
		return nil, err
	}
	if it.Color != "" {
		if err := write("color", it.Color); err != nil {
			return nil, err
		}
	}
	if it.Date != "" {
		if err := write("date", it.Date); err != nil {
			return nil, err
		}
	}
	if it.ShowLabel {
		if err := write("showLabel", true); err != nil {
			return nil, err
		}
	}
	for _, s := range it.Series {
		if reservedKeys[s.Key] {
			continue
		}
		if err := write(s.Key, s.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Item fields that series keys must not shadow.
var reservedKeys = map[string]bool{
	"name": true, "value": true, "color": true, "date": true, "showLabel": true,
}

// seriesKeys assigns each series a key that is unique within the chart and
// clear of the item fields, so "value" becomes "value_2".
type seriesKeys struct {
	keys map[string]string
	used map[string]bool
}

func newSeriesKeys() *seriesKeys {
	return &seriesKeys{keys: make(map[string]string), used: make(map[string]bool)}
}

func (s *seriesKeys) key(series string) string {
	if k, ok := s.keys[series]; ok {
		return k
	}
	k := series
	for n := 2; reservedKeys[k] || s.used[k]; n++ {
		k = fmt.Sprintf("%s_%d", series, n)
	}
	s.keys[series] = k
	s.used[k] = true
	return k
}

// lookup returns the key already assigned to series, or "".
func (s *seriesKeys) lookup(series string) string {
	return s.keys[series]
}

// Chart is the projected data plus the layout hints the renderer needs.
type Chart struct {
	Kind           visualization.Kind `json:"type"`
	RawKind        string             `json:"rawType,omitempty"`
	Items          []Item             `json:"data"`
	Series         []string           `json:"series,omitempty"`
	SeriesColors   map[string]string  `json:"seriesColors,omitempty"`
	GroupBy        string             `json:"groupBy,omitempty"`
	StackBy        string             `json:"stackBy,omitempty"`
	BarKey         string             `json:"barKey,omitempty"`
	LineKey        string             `json:"lineKey,omitempty"`
	FallbackFrom   visualization.Kind `json:"fallbackFrom,omitempty"`
	OriginalPoints int                `json:"originalPoints,omitempty"`
	Message        string             `json:"message,omitempty"`
}

// Empty reports whether there is nothing to draw.
func (c Chart) Empty() bool {
	return len(c.Items) == 0
}

// Input is what a projection needs.
type Input struct {
	Records       []*analytics.Record
	Profile       shape.Profile
	Visualization visualization.Visualization
	// MaxPoints caps timeline series; zero disables thinning.
	MaxPoints int
}

// Project builds chart data for the selected visualization. It never
// panics: unusable shapes produce an empty chart with a message.
func Project(in Input) (chart Chart) {
	vis := in.Visualization
	chart = Chart{Kind: vis.Kind}
	if vis.Kind == visualization.KindUnknown {
		chart.RawKind = vis.Raw
	}
	defer func() {
		if r := recover(); r != nil {
			chart = Chart{Kind: vis.Kind, RawKind: chart.RawKind, Items: []Item{}, Message: unableMessage(vis)}
		}
	}()

	rows := analytics.Compact(in.Records)
	if len(rows) == 0 {
		chart.Items = []Item{}
		chart.Message = NoDataMessage
		return chart
	}

	switch vis.Kind {
	case visualization.KindBar, visualization.KindUnknown:
		projectBar(&chart, rows, in.Profile, vis.Config)
	case visualization.KindPie, visualization.KindDistribution:
		projectPie(&chart, rows)
	case visualization.KindCombo:
		projectCombo(&chart, rows, in.Profile, vis.Config)
	case visualization.KindCount:
		projectCount(&chart, rows)
	case visualization.KindTimeline:
		projectTimeline(&chart, rows, in.Profile, in.MaxPoints)
	case visualization.KindCards, visualization.KindTable, visualization.KindNone:
		chart.Items = []Item{}
		return chart
	}

	if len(chart.Items) == 0 {
		chart.Items = []Item{}
		chart.Message = unableMessage(vis)
		return chart
	}
	colorize(&chart)
	return chart
}

func unableMessage(vis visualization.Visualization) string {
	name := string(vis.Kind)
	if vis.Kind == visualization.KindUnknown && vis.Raw != "" {
		name = vis.Raw
	}
	return fmt.Sprintf(unableFormatMessage, name)
}

func colorize(c *Chart) {
	for i := range c.Items {
		if c.Items[i].Color == "" {
			c.Items[i].Color = ColorAt(i)
		}
	}
	if len(c.Series) > 0 {
		c.SeriesColors = make(map[string]string, len(c.Series))
		for i, s := range c.Series {
			c.SeriesColors[s] = ColorAt(i)
		}
	}
}

// numericValue returns the first numeric value among keys.
func numericValue(r *analytics.Record, keys ...string) (float64, bool) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if f, ok := r.Number(k); ok {
			return f, true
		}
	}
	return 0, false
}
