package presenter

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/querylens/querylens/internal/analytics"
)

// sortRows orders rows by one key. Nulls and missing values sort after every
// value ascending and before every value descending. Values are compared as
// instants only when byTime is set. The sort is stable.
func sortRows(rows []*analytics.Record, key string, dir SortDirection, byTime bool) []*analytics.Record {
	if key == "" {
		return rows
	}
	out := make([]*analytics.Record, len(rows))
	copy(out, rows)

	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		c := compareValues(col, out[i].Value(key), out[j].Value(key), byTime)
		if dir == SortDesc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// compareValues returns -1, 0 or 1. Null is greater than any value.
func compareValues(col *collate.Collator, a, b any, byTime bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return compareFloat(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	case string:
		if bv, ok := b.(string); ok && byTime {
			if at, aok := analytics.ParseDate(av); aok {
				if bt, bok := analytics.ParseDate(bv); bok {
					return at.Compare(bt)
				}
			}
		}
	case *analytics.Record:
		if bv, ok := b.(*analytics.Record); ok && byTime {
			_, at, aok := analytics.BucketLabel(av)
			_, bt, bok := analytics.BucketLabel(bv)
			if aok && bok {
				return at.Compare(bt)
			}
		}
	}
	return col.CompareString(analytics.Stringify(a), analytics.Stringify(b))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
