// Package visualization chooses how a result set is displayed.
//
// A visualization recommended by the server always wins. Otherwise an
// ordered rule table is evaluated and the first matching rule decides.
package visualization

import (
	"strings"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/fields"
	"github.com/querylens/querylens/internal/analytics/shape"
)

// Kind is the closed set of visualizations the presenters know how to draw.
// KindUnknown carries a server-provided type that has no dedicated renderer.
type Kind string

const (
	KindBar          Kind = "barChart"
	KindPie          Kind = "pieChart"
	KindCombo        Kind = "comboChart"
	KindCount        Kind = "countChart"
	KindTimeline     Kind = "timelineChart"
	KindDistribution Kind = "distribution"
	KindCards        Kind = "cards"
	KindTable        Kind = "table"
	KindNone         Kind = "none"
	KindUnknown      Kind = "unknown"
)

var aliases = map[string]Kind{
	"bar":           KindBar,
	"barchart":      KindBar,
	"pie":           KindPie,
	"piechart":      KindPie,
	"donut":         KindPie,
	"combo":         KindCombo,
	"combochart":    KindCombo,
	"count":         KindCount,
	"countchart":    KindCount,
	"singlemetric":  KindCount,
	"metric":        KindCount,
	"timeline":      KindTimeline,
	"timelinechart": KindTimeline,
	"line":          KindTimeline,
	"linechart":     KindTimeline,
	"distribution":  KindDistribution,
	"cards":         KindCards,
	"card":          KindCards,
	"table":         KindTable,
	"none":          KindNone,
}

// ParseKind maps a visualization type string to a Kind. Matching ignores
// case and separators, so "bar_chart" and "barChart" are the same.
// Unrecognized strings yield KindUnknown.
func ParseKind(raw string) Kind {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(raw))
	if k, ok := aliases[key]; ok {
		return k
	}
	return KindUnknown
}

// IsChart reports whether the kind is drawn from projected chart data.
func (k Kind) IsChart() bool {
	switch k {
	case KindBar, KindPie, KindCombo, KindCount, KindTimeline, KindDistribution, KindUnknown:
		return true
	case KindCards, KindTable, KindNone:
		return false
	}
	return false
}

// Source tells where a visualization choice came from.
type Source string

const (
	SourceServer    Source = "server"
	SourceHeuristic Source = "heuristic"
)

// Config carries optional projection overrides.
type Config struct {
	GroupBy        string `json:"groupBy,omitempty"`
	ColorBy        string `json:"colorBy,omitempty"`
	AggregateField string `json:"aggregateField,omitempty"`
	BarField       string `json:"barField,omitempty"`
	LineField      string `json:"lineField,omitempty"`
}

// Recommendation is the server's visualization suggestion.
type Recommendation struct {
	VisualizationType string `json:"visualizationType"`
	Config            Config `json:"config,omitempty"`
	Title             string `json:"title,omitempty"`
}

// Visualization is the selected display.
type Visualization struct {
	Kind   Kind   `json:"type"`
	Raw    string `json:"rawType,omitempty"`
	Config Config `json:"config"`
	Title  string `json:"title,omitempty"`
	Source Source `json:"source"`
	Rule   string `json:"rule,omitempty"`
}

// Input is everything the selector looks at.
type Input struct {
	Records  []*analytics.Record
	Fields   []fields.Field
	Profile  shape.Profile
	Question string
}

// Select returns the server recommendation when it names a type, and the
// heuristic choice otherwise.
func Select(in Input, rec *Recommendation) Visualization {
	if rec != nil && strings.TrimSpace(rec.VisualizationType) != "" {
		return FromRecommendation(*rec)
	}
	return Heuristic(in)
}

// FromRecommendation converts a server recommendation, keeping the raw type
// string so unknown kinds can be forwarded untouched.
func FromRecommendation(rec Recommendation) Visualization {
	return Visualization{
		Kind:   ParseKind(rec.VisualizationType),
		Raw:    rec.VisualizationType,
		Config: rec.Config,
		Title:  rec.Title,
		Source: SourceServer,
	}
}

// Heuristic evaluates the rule table. It never fails: if nothing matches the
// result is a table.
func Heuristic(in Input) Visualization {
	rows := analytics.Compact(in.Records)
	in.Records = rows
	for _, rule := range Rules {
		if rule.Match(in) {
			return Visualization{Kind: rule.Kind, Source: SourceHeuristic, Rule: rule.Name}
		}
	}
	return Visualization{Kind: KindTable, Source: SourceHeuristic, Rule: "fallback"}
}
