package chartdata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/fields"
	"github.com/querylens/querylens/internal/analytics/shape"
	"github.com/querylens/querylens/internal/analytics/visualization"
)

// Composite key fields that usually colour stacks rather than group bars.
var stackPreference = []string{"status", "priority", "severity", "state", "type"}

func projectBar(c *Chart, rows []*analytics.Record, profile shape.Profile, cfg visualization.Config) {
	relational := anyHas(rows, "total_tickets_assigned")
	switch {
	case profile.CompositeKey && !relational:
		compositeBar(c, rows, cfg)
	case relational || profile.CollectionCounts || cfg.BarField != "" || cfg.AggregateField != "":
		c.Items = rowBars(rows, cfg, relationalName)
	default:
		c.Items = rowBars(rows, cfg, genericName)
	}
}

// compositeBar builds a group × stack matrix from an object _id.
func compositeBar(c *Chart, rows []*analytics.Record, cfg visualization.Config) {
	group, stack := inferAxes(rows, cfg)
	c.GroupBy, c.StackBy = group, stack

	valueSeries := "Count"
	if key := firstNonEmpty(cfg.AggregateField, cfg.BarField); key != "" {
		valueSeries = fields.FormatFieldName(key)
	}

	index := make(map[string]int)
	var items []Item
	var series []string
	seen := make(map[string]bool)
	keys := newSeriesKeys()

	for _, r := range rows {
		raw, _ := r.Lookup(group)
		name := analytics.ReadableLabel(raw)

		seriesName := valueSeries
		if stack != "" {
			sv, _ := r.Lookup(stack)
			seriesName = analytics.ReadableLabel(sv)
		}
		seriesName = keys.key(seriesName)
		if !seen[seriesName] {
			seen[seriesName] = true
			series = append(series, seriesName)
		}

		v := barValue(r, cfg)
		i, ok := index[name]
		if !ok {
			i = len(items)
			index[name] = i
			items = append(items, Item{Name: name})
		}
		items[i].add(seriesName, v)
		items[i].Value += v
	}

	sort.SliceStable(items, func(a, b int) bool { return items[a].Value > items[b].Value })
	c.Items = items
	c.Series = series
}

// inferAxes resolves the group and stack paths. Explicit config wins; then a
// status-like key stacks and the first other key groups.
func inferAxes(rows []*analytics.Record, cfg visualization.Config) (string, string) {
	group := resolvePath(rows, cfg.GroupBy)
	stack := resolvePath(rows, cfg.ColorBy)

	var idKeys []string
	for _, r := range rows {
		if id, ok := r.Value("_id").(*analytics.Record); ok && id.Len() > 0 {
			idKeys = id.Keys()
			break
		}
	}

	if stack == "" && cfg.ColorBy == "" {
		for _, pref := range stackPreference {
			if contains(idKeys, pref) && "_id."+pref != group {
				stack = "_id." + pref
				break
			}
		}
	}
	if group == "" {
		for _, k := range idKeys {
			if p := "_id." + k; p != stack {
				group = p
				break
			}
		}
	}
	if stack == "" && cfg.ColorBy == "" {
		for _, k := range idKeys {
			if p := "_id." + k; p != group {
				stack = p
				break
			}
		}
	}
	if group == "" {
		group, stack = stack, ""
	}
	return group, stack
}

// resolvePath accepts "tag", "_id.tag" or a top-level key and returns the
// dotted path that exists in the rows.
func resolvePath(rows []*analytics.Record, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	for _, candidate := range []string{path, "_id." + path} {
		for _, r := range rows {
			if _, ok := r.Lookup(candidate); ok {
				return candidate
			}
		}
	}
	return path
}

type nameFunc func(r *analytics.Record, index int) string

func rowBars(rows []*analytics.Record, cfg visualization.Config, name nameFunc) []Item {
	items := make([]Item, 0, len(rows))
	for i, r := range rows {
		items = append(items, Item{Name: name(r, i), Value: barValue(r, cfg)})
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].Value > items[b].Value })
	return items
}

func relationalName(r *analytics.Record, index int) string {
	if r.Has("_id") {
		return analytics.ReadableLabel(r.Value("_id"))
	}
	if s, ok := r.String("collection"); ok && s != "" {
		return fields.FormatFieldName(s)
	}
	return genericName(r, index)
}

func genericName(r *analytics.Record, index int) string {
	if r.Has("_id") {
		return analytics.ReadableLabel(r.Value("_id"))
	}
	if _, s, ok := analytics.FirstString(r); ok {
		return s
	}
	return fmt.Sprintf("Item %d", index+1)
}

// barValue reads the configured field, then the usual aggregate names, then
// the first numeric field.
func barValue(r *analytics.Record, cfg visualization.Config) float64 {
	if v, ok := numericValue(r, cfg.BarField, cfg.AggregateField, "count", "value", "total_tickets_assigned"); ok {
		return v
	}
	if _, v, ok := analytics.FirstNumber(r, "_id"); ok {
		return v
	}
	return 0
}

func anyHas(rows []*analytics.Record, key string) bool {
	for _, r := range rows {
		if r.Has(key) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
