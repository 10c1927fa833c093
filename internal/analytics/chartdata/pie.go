package chartdata

import (
	"encoding/json"
	"fmt"

	"github.com/querylens/querylens/internal/analytics"
)

const (
	// Segments below this share of the total get no label.
	pieLabelThreshold = 0.05
	pieNameMaxLen     = 30
)

var (
	pieIDKeys  = []string{"name", "title", "status", "priority", "severity", "role"}
	pieTopKeys = []string{"priority", "status", "severity", "role"}
)

func projectPie(c *Chart, rows []*analytics.Record) {
	items := make([]Item, 0, len(rows))
	for i, r := range rows {
		v := pieValue(r)
		_, composite := r.Value("_id").(*analytics.Record)
		if !composite && v <= 0 {
			continue
		}
		items = append(items, Item{Name: pieName(r, i), Value: v})
	}

	total := 0.0
	for _, it := range items {
		total += it.Value
	}
	for i := range items {
		items[i].ShowLabel = total > 0 && items[i].Value/total >= pieLabelThreshold
	}
	c.Items = items
}

func pieValue(r *analytics.Record) float64 {
	if v, ok := numericValue(r, "count", "percentage"); ok {
		return v
	}
	if _, v, ok := analytics.FirstNumber(r, "_id"); ok {
		return v
	}
	return 0
}

func pieName(r *analytics.Record, index int) string {
	switch id := r.Value("_id").(type) {
	case *analytics.Record:
		for _, k := range pieIDKeys {
			if v := id.Value(k); analytics.IsPrimitive(v) && analytics.Stringify(v) != "" {
				return analytics.Stringify(v)
			}
		}
		for _, k := range id.Keys() {
			if v := id.Value(k); analytics.IsPrimitive(v) {
				return analytics.Stringify(v)
			}
		}
		b, err := json.Marshal(id)
		if err == nil {
			return truncate(string(b), pieNameMaxLen)
		}
	case nil:
		if r.Has("_id") {
			return analytics.UnassignedLabel
		}
	case string, float64:
		return analytics.Stringify(id)
	}

	for _, k := range pieTopKeys {
		if s, ok := r.String(k); ok && s != "" {
			return s
		}
	}
	if _, s, ok := analytics.FirstString(r); ok {
		return s
	}
	return fmt.Sprintf("Category %d", index+1)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "…"
}
