package presenter

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/fields"
	"github.com/querylens/querylens/internal/analytics/metrics"
)

// CellKind tells the renderer how to draw a cell.
type CellKind string

const (
	CellEmpty  CellKind = "empty"
	CellText   CellKind = "text"
	CellNumber CellKind = "number"
	CellDate   CellKind = "date"
	CellBadge  CellKind = "badge"
	CellBadges CellKind = "badges"
	CellLines  CellKind = "lines"
)

// EmptyCellText is shown for null values.
const EmptyCellText = "-"

// Cell is a formatted value. Text always holds a plain rendering.
type Cell struct {
	Kind   CellKind      `json:"kind"`
	Text   string        `json:"text"`
	Lines  []string      `json:"lines,omitempty"`
	Badges []string      `json:"badges,omitempty"`
	Tone   metrics.Color `json:"tone,omitempty"`
}

// FormatCell renders a value for the given field.
func FormatCell(f fields.Field, v any) Cell {
	switch val := v.(type) {
	case nil:
		return Cell{Kind: CellEmpty, Text: EmptyCellText}
	case *analytics.Record:
		if analytics.IsDateBucket(val) {
			if label, _, ok := analytics.BucketLabel(val); ok {
				return Cell{Kind: CellDate, Text: label}
			}
		}
		lines := make([]string, 0, val.Len())
		for _, k := range val.Keys() {
			lines = append(lines, fields.FormatFieldName(k)+": "+analytics.Stringify(val.Value(k)))
		}
		return Cell{Kind: CellLines, Text: strings.Join(lines, "; "), Lines: lines}
	case []any:
		badges := make([]string, 0, len(val))
		for _, e := range val {
			badges = append(badges, analytics.Stringify(e))
		}
		return Cell{Kind: CellBadges, Text: strings.Join(badges, ", "), Badges: badges}
	case bool:
		if val {
			return Cell{Kind: CellText, Text: "Yes"}
		}
		return Cell{Kind: CellText, Text: "No"}
	case float64:
		if f.Type == fields.TypeNumber {
			return Cell{Kind: CellNumber, Text: formatNumber(val)}
		}
		text := analytics.FormatNumber(val)
		if isBadgeField(f) {
			_, tone := metrics.Style(text)
			return Cell{Kind: CellBadge, Text: text, Tone: tone}
		}
		return Cell{Kind: CellText, Text: text}
	case string:
		if f.Type == fields.TypeDate {
			if t, ok := analytics.ParseDate(val); ok {
				layout := "Jan 2, 2006"
				if t.Hour() != 0 || t.Minute() != 0 {
					layout = "Jan 2, 2006 15:04"
				}
				return Cell{Kind: CellDate, Text: t.Format(layout)}
			}
		}
		if isBadgeField(f) && val != "" {
			_, tone := metrics.Style(val)
			return Cell{Kind: CellBadge, Text: val, Tone: tone}
		}
		if val == "" {
			return Cell{Kind: CellEmpty, Text: EmptyCellText}
		}
		return Cell{Kind: CellText, Text: val}
	}
	return Cell{Kind: CellText, Text: analytics.Stringify(v)}
}

// formatNumber groups thousands the English way.
func formatNumber(f float64) string {
	p := message.NewPrinter(language.English)
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return p.Sprintf("%d", int64(f))
	}
	return p.Sprintf("%v", f)
}

func isBadgeField(f fields.Field) bool {
	switch f.Type {
	case fields.TypeStatus, fields.TypePriority, fields.TypeSeverity:
		return true
	}
	return false
}
