// Package metrics derives the headline metric tiles shown above a result set.
package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/fields"
	"github.com/querylens/querylens/internal/analytics/shape"
)

// Icon names the glyph rendered next to a metric.
type Icon string

const (
	IconTicket   Icon = "ticket"
	IconClock    Icon = "clock"
	IconCheck    Icon = "check"
	IconActivity Icon = "activity"
	IconWarning  Icon = "warning"
	IconDatabase Icon = "database"
	IconUsers    Icon = "users"
	IconTimer    Icon = "timer"
)

// Color is the colour category of a metric tile.
type Color string

const (
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorGray   Color = "gray"
	ColorPurple Color = "purple"
	ColorRed    Color = "red"
	ColorAmber  Color = "amber"
)

// Value is either a number or a preformatted string.
type Value struct {
	num    float64
	text   string
	isText bool
}

// Number wraps a numeric value.
func Number(f float64) Value { return Value{num: f} }

// Text wraps a preformatted value.
func Text(s string) Value { return Value{text: s, isText: true} }

// IsText reports whether the value is preformatted text.
func (v Value) IsText() bool { return v.isText }

// Float returns the numeric value, or 0 for text values.
func (v Value) Float() float64 { return v.num }

func (v Value) String() string {
	if v.isText {
		return v.text
	}
	return analytics.FormatNumber(v.num)
}

// MarshalJSON writes numbers as JSON numbers and text as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isText {
		return json.Marshal(v.text)
	}
	return json.Marshal(v.num)
}

// UnmarshalJSON accepts a JSON number or string.
func (v *Value) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("metric value must be a number or string: %w", err)
	}
	*v = Text(s)
	return nil
}

// Metric is one summary tile.
type Metric struct {
	Label   string `json:"label"`
	Value   Value  `json:"value"`
	Icon    Icon   `json:"icon"`
	Color   Color  `json:"color"`
	Subtext string `json:"subtext,omitempty"`
}

// Summarize derives headline metrics. It returns nil when there is no data,
// which callers render as "no metrics".
//
// Synthetic totals come first, derived metrics next and the query time last.
func Summarize(qr *analytics.QueryResult, profile shape.Profile) []Metric {
	if qr == nil {
		return nil
	}
	rows := analytics.Compact(qr.Results)
	if len(rows) == 0 {
		return nil
	}

	var out []Metric
	switch {
	case profile.CountStyle && profile.HasGroupKey:
		out = groupMetrics(rows)
	case countRows(rows, profile):
		out = countMetrics(rows)
	default:
		out = projectionMetrics(rows, qr.Collection())
	}

	if ms, ok := qr.ExecutionTime(); ok {
		out = append(out, Metric{
			Label: "Query Time",
			Value: Text(FormatDuration(ms)),
			Icon:  IconTimer,
			Color: ColorPurple,
		})
	}
	return out
}

// FormatDuration renders milliseconds with two decimals.
func FormatDuration(ms float64) string {
	return fmt.Sprintf("%.2fms", ms)
}

func groupMetrics(rows []*analytics.Record) []Metric {
	groups := make([]Metric, 0, len(rows))
	total := 0.0
	for i, r := range rows {
		label := groupLabel(r.Value("_id"), i)
		value := groupValue(r)
		total += value
		icon, color := Style(label)
		groups = append(groups, Metric{Label: label, Value: Number(value), Icon: icon, Color: color})
	}
	if len(groups) <= 1 {
		return groups
	}
	totalMetric := Metric{
		Label:   "Total",
		Value:   Number(total),
		Icon:    IconDatabase,
		Color:   ColorBlue,
		Subtext: fmt.Sprintf("Across %d categories", len(groups)),
	}
	return append([]Metric{totalMetric}, groups...)
}

func groupLabel(id any, index int) string {
	switch v := id.(type) {
	case nil:
		return analytics.UnassignedLabel
	case string:
		return v
	case float64:
		return analytics.FormatNumber(v)
	case *analytics.Record:
		if label, _, ok := analytics.BucketLabel(v); ok {
			return label
		}
		if v.Len() > 0 {
			return analytics.JoinValues(v)
		}
	}
	return fmt.Sprintf("Group %d", index+1)
}

func groupValue(r *analytics.Record) float64 {
	for _, key := range []string{"count", "value", "percentage"} {
		if f, ok := r.Number(key); ok {
			return f
		}
	}
	return 0
}

// countRows reports whether rows are counts without a group key, such as
// per-collection totals or a lone {count: n}.
func countRows(rows []*analytics.Record, profile shape.Profile) bool {
	if profile.HasGroupKey {
		return false
	}
	if profile.CollectionCounts || profile.CountStyle {
		return true
	}
	for _, r := range rows {
		if _, ok := r.Number("count"); !ok {
			return false
		}
	}
	return true
}

func countMetrics(rows []*analytics.Record) []Metric {
	out := make([]Metric, 0, len(rows))
	for _, r := range rows {
		label := "Count"
		for _, key := range []string{"collection", "name", "label"} {
			if s, ok := r.String(key); ok && s != "" {
				label = fields.FormatFieldName(s)
				break
			}
		}
		value := 0.0
		for _, key := range []string{"count", "value"} {
			if f, ok := r.Number(key); ok {
				value = f
				break
			}
		}
		icon, color := Style(label)
		out = append(out, Metric{Label: label, Value: Number(value), Icon: icon, Color: color})
	}
	return out
}

func projectionMetrics(rows []*analytics.Record, collection string) []Metric {
	total := float64(len(rows))
	label := "Total Results"
	if collection != "" {
		label = "Total " + fields.FormatFieldName(collection)
	}
	out := []Metric{{Label: label, Value: Number(total), Icon: IconDatabase, Color: ColorBlue}}

	hasStatus := anyHas(rows, "status")
	collection = strings.ToLower(collection)

	if collection == "tickets" && hasStatus {
		statuses := countValues(rows, "status")
		breakdown := []struct {
			label string
			keys  []string
			icon  Icon
			color Color
		}{
			{"Open", []string{"open"}, IconTicket, ColorGreen},
			{"In Progress", []string{"in progress"}, IconClock, ColorBlue},
			{"Closed", []string{"closed"}, IconCheck, ColorGray},
		}
		for _, b := range breakdown {
			n := 0
			for _, k := range b.keys {
				n += statuses[k]
			}
			if n == 0 {
				continue
			}
			out = append(out, Metric{
				Label:   b.label,
				Value:   Number(float64(n)),
				Icon:    b.icon,
				Color:   b.color,
				Subtext: percentOf(n, len(rows)),
			})
		}
	}

	if anyHas(rows, "priority") {
		priorities := countValues(rows, "priority")
		n := priorities["high"] + priorities["critical"] + priorities["urgent"]
		out = append(out, Metric{
			Label:   "High Priority",
			Value:   Number(float64(n)),
			Icon:    IconWarning,
			Color:   ColorRed,
			Subtext: percentOf(n, len(rows)),
		})
	}

	if collection == "users" && hasStatus {
		if n := countValues(rows, "status")["active"]; n > 0 {
			out = append(out, Metric{
				Label:   "Active Users",
				Value:   Number(float64(n)),
				Icon:    IconUsers,
				Color:   ColorGreen,
				Subtext: percentOf(n, len(rows)),
			})
		}
	}
	return out
}

func anyHas(rows []*analytics.Record, key string) bool {
	for _, r := range rows {
		if r.Has(key) {
			return true
		}
	}
	return false
}

// countValues tallies normalized string values of key.
func countValues(rows []*analytics.Record, key string) map[string]int {
	counts := make(map[string]int)
	for _, r := range rows {
		if s, ok := r.String(key); ok {
			counts[normalizeLabel(s)]++
		}
	}
	return counts
}

func percentOf(n, total int) string {
	if total == 0 {
		return "0% of total"
	}
	return fmt.Sprintf("%d%% of total", int(math.Round(float64(n)*100/float64(total))))
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", " ", "-", " ").Replace(s)
}

var styles = []struct {
	words []string
	icon  Icon
	color Color
}{
	{[]string{"open"}, IconTicket, ColorGreen},
	{[]string{"in progress", "ongoing"}, IconClock, ColorBlue},
	{[]string{"closed", "done", "completed"}, IconCheck, ColorGray},
	{[]string{"review", "pending"}, IconActivity, ColorPurple},
	{[]string{"high", "critical", "urgent"}, IconWarning, ColorRed},
	{[]string{"low"}, IconCheck, ColorGreen},
	{[]string{"medium", "normal"}, IconClock, ColorAmber},
}

// Style picks the icon and colour for a label from the status/priority
// vocabulary. Unknown labels get the default activity style.
func Style(label string) (Icon, Color) {
	l := normalizeLabel(label)
	for _, s := range styles {
		for _, w := range s.words {
			if strings.Contains(l, w) {
				return s.icon, s.color
			}
		}
	}
	return IconActivity, ColorBlue
}
