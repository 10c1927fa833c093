package chartdata

import (
	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/fields"
)

func projectCount(c *Chart, rows []*analytics.Record) {
	if len(rows) == 1 {
		r := rows[0]
		key, value, ok := "count", 0.0, false
		if value, ok = r.Number("count"); !ok {
			key, value, ok = analytics.FirstNumber(r, "_id")
		}
		if !ok {
			return
		}
		label := fields.FormatFieldName(key)
		if s, ok := r.String("collection"); ok && s != "" {
			label = fields.FormatFieldName(s)
		}
		c.Items = []Item{{Name: label, Value: value}}
		return
	}

	sum := 0.0
	for _, r := range rows {
		v, ok := r.Number("count")
		if !ok {
			c.Items = []Item{{Name: "Total Items", Value: float64(len(rows))}}
			return
		}
		sum += v
	}
	c.Items = []Item{{Name: "Total Count", Value: sum}}
}
