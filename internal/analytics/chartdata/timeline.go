package chartdata

import (
	"fmt"
	"sort"
	"time"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/shape"
)

func projectTimeline(c *Chart, rows []*analytics.Record, profile shape.Profile, maxPoints int) {
	if !profile.TimeBucketed {
		items := make([]Item, 0, len(rows))
		for i, r := range rows {
			items = append(items, Item{Name: fmt.Sprintf("Period %d", i+1), Value: pointValue(r)})
		}
		c.Items = thin(c, items, maxPoints)
		return
	}

	type point struct {
		item  Item
		at    time.Time
		dated bool
	}
	points := make([]point, 0, len(rows))
	for i, r := range rows {
		label, at, ok := analytics.RecordBucket(r)
		if label == "" {
			label = fmt.Sprintf("Period %d", i+1)
		}
		p := point{item: Item{Name: label, Value: pointValue(r)}, at: at, dated: ok}
		if ok {
			p.item.Date = at.Format("2006-01-02")
		}
		points = append(points, p)
	}
	sort.SliceStable(points, func(a, b int) bool {
		return bucketBefore(points[a].dated, points[a].at, points[a].item.Name,
			points[b].dated, points[b].at, points[b].item.Name)
	})

	items := make([]Item, len(points))
	for i, p := range points {
		items[i] = p.item
	}
	c.Items = thin(c, items, maxPoints)
}

// bucketBefore orders dated buckets by time, ahead of undated buckets, which
// are ordered by label.
func bucketBefore(aDated bool, aAt time.Time, aName string, bDated bool, bAt time.Time, bName string) bool {
	switch {
	case aDated && bDated:
		return aAt.Before(bAt)
	case aDated != bDated:
		return aDated
	}
	return aName < bName
}

func pointValue(r *analytics.Record) float64 {
	if v, ok := numericValue(r, "count", "value"); ok {
		return v
	}
	if _, v, ok := analytics.FirstNumber(r, bucketParts...); ok {
		return v
	}
	return 0
}

func thin(c *Chart, items []Item, maxPoints int) []Item {
	if maxPoints <= 0 || len(items) <= maxPoints {
		return items
	}
	c.OriginalPoints = len(items)
	idx := lttb(items, maxPoints)
	out := make([]Item, len(idx))
	for i, j := range idx {
		out[i] = items[j]
	}
	return out
}
