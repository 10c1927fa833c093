package chartdata

import (
	"fmt"
	"sort"
	"time"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/shape"
	"github.com/querylens/querylens/internal/analytics/visualization"
)

// Keys that locate a row in time rather than measure it.
var bucketParts = []string{"_id", "year", "month", "day"}

type comboRow struct {
	item    Item
	at      time.Time
	hasTime bool
}

func projectCombo(c *Chart, rows []*analytics.Record, profile shape.Profile, cfg visualization.Config) {
	var out []comboRow
	index := make(map[string]int)
	var series []string
	seen := make(map[string]bool)
	keys := newSeriesKeys()

	for i, r := range rows {
		var (
			name    string
			at      time.Time
			hasTime bool
		)
		if profile.TimeBucketed {
			name, at, hasTime = analytics.RecordBucket(r)
		}
		if name == "" {
			name = comboName(r, i)
		}

		pos, ok := index[name]
		if !ok {
			pos = len(out)
			index[name] = pos
			out = append(out, comboRow{item: Item{Name: name}, at: at, hasTime: hasTime})
		}
		for _, field := range analytics.NumericKeys(r, bucketParts...) {
			v, _ := r.Number(field)
			k := keys.key(field)
			out[pos].item.add(k, v)
			if !seen[k] {
				seen[k] = true
				series = append(series, k)
			}
		}
	}

	if profile.TimeBucketed {
		sort.SliceStable(out, func(a, b int) bool {
			return bucketBefore(out[a].hasTime, out[a].at, out[a].item.Name,
				out[b].hasTime, out[b].at, out[b].item.Name)
		})
	}

	series = orderSeries(series, keys.lookup(cfg.BarField), keys.lookup(cfg.LineField))
	if len(series) < 2 {
		comboFallback(c, out, series)
		return
	}

	items := make([]Item, len(out))
	for i, row := range out {
		items[i] = row.item
		items[i].Value, _ = row.item.Get(series[0])
	}
	c.Items = items
	c.Series = series
	c.BarKey = series[0]
	c.LineKey = series[1]
}

// comboFallback draws a single-series bar chart when there are not enough
// numeric series for bars plus a line.
func comboFallback(c *Chart, rows []comboRow, series []string) {
	c.Kind = visualization.KindBar
	c.FallbackFrom = visualization.KindCombo
	if len(series) == 0 {
		return
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		v, _ := row.item.Get(series[0])
		items = append(items, Item{Name: row.item.Name, Value: v})
	}
	c.Items = items
	c.BarKey = series[0]
}

func comboName(r *analytics.Record, index int) string {
	for _, k := range []string{"label", "name", "status", "priority"} {
		if s, ok := r.String(k); ok && s != "" {
			return s
		}
	}
	if r.Has("_id") {
		return analytics.ReadableLabel(r.Value("_id"))
	}
	return fmt.Sprintf("Item %d", index+1)
}

// orderSeries puts the configured bar field first and the line field second.
func orderSeries(series []string, bar, line string) []string {
	if !contains(series, bar) {
		bar = ""
	}
	if !contains(series, line) || line == bar {
		line = ""
	}
	rest := make([]string, 0, len(series))
	for _, s := range series {
		if s != bar && s != line {
			rest = append(rest, s)
		}
	}

	out := make([]string, 0, len(series))
	switch {
	case bar != "":
		out = append(out, bar)
	case len(rest) > 0:
		out = append(out, rest[0])
		rest = rest[1:]
	}
	if line != "" {
		out = append(out, line)
	}
	return append(out, rest...)
}
