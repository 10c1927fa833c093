// Package shape classifies a result set into one of the known query result
// shapes so that every downstream component branches on the same answer.
package shape

import (
	"github.com/querylens/querylens/internal/analytics"
)

// Shape is the primary classification of a result set.
type Shape int

const (
	// Empty means there are no object records.
	Empty Shape = iota
	// NestedDetail rows carry a non-empty tickets array.
	NestedDetail
	// CompositeGrouped rows are grouped by an object _id.
	CompositeGrouped
	// TimeBucketed rows are grouped by year, month or date parts.
	TimeBucketed
	// GroupedCounts rows are count-style aggregations.
	GroupedCounts
	// CollectionCounts rows carry a collection name and a count.
	CollectionCounts
	// PlainRows are documents returned by a plain projection.
	PlainRows
)

var shapeNames = map[Shape]string{
	Empty:            "empty",
	NestedDetail:     "nestedDetail",
	CompositeGrouped: "compositeGrouped",
	TimeBucketed:     "timeBucketed",
	GroupedCounts:    "groupedCounts",
	CollectionCounts: "collectionCounts",
	PlainRows:        "plainRows",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Profile is the result of shape detection. Shape is the first trait that
// matched in precedence order; the trait flags stay available for rules that
// combine them, such as composite count aggregations.
type Profile struct {
	Shape            Shape `json:"shape"`
	NestedDetail     bool  `json:"nestedDetail"`
	CompositeKey     bool  `json:"compositeKey"`
	TimeBucketed     bool  `json:"timeBucketed"`
	CountStyle       bool  `json:"countStyle"`
	CollectionCounts bool  `json:"collectionCounts"`
	HasGroupKey      bool  `json:"hasGroupKey"`
	Rows             int   `json:"rows"`
}

// IsEmpty reports whether there was nothing to classify.
func (p Profile) IsEmpty() bool {
	return p.Shape == Empty
}

// Detect computes the profile of a result set. Nil records are ignored.
func Detect(records []*analytics.Record) Profile {
	rows := analytics.Compact(records)
	p := Profile{Rows: len(rows)}
	if len(rows) == 0 {
		p.Shape = Empty
		return p
	}

	p.NestedDetail = anyRow(rows, isNestedDetail)
	p.CompositeKey = anyRow(rows, isCompositeKey)
	p.TimeBucketed = anyRow(rows, isTimeBucketed)
	p.CountStyle = anyRow(rows, isCountStyle)
	p.CollectionCounts = anyRow(rows, isCollectionCount)
	p.HasGroupKey = anyRow(rows, func(r *analytics.Record) bool { return r.Has("_id") })

	switch {
	case p.NestedDetail:
		p.Shape = NestedDetail
	case p.CompositeKey:
		p.Shape = CompositeGrouped
	case p.TimeBucketed:
		p.Shape = TimeBucketed
	case p.CountStyle:
		p.Shape = GroupedCounts
	case p.CollectionCounts:
		p.Shape = CollectionCounts
	default:
		p.Shape = PlainRows
	}
	return p
}

func anyRow(rows []*analytics.Record, pred func(*analytics.Record) bool) bool {
	for _, r := range rows {
		if pred(r) {
			return true
		}
	}
	return false
}

func isNestedDetail(r *analytics.Record) bool {
	return analytics.IsNonEmptyArray(r.Value("tickets"))
}

func isCompositeKey(r *analytics.Record) bool {
	id, ok := r.Value("_id").(*analytics.Record)
	return ok && id != nil && !analytics.IsDateBucket(id)
}

func isTimeBucketed(r *analytics.Record) bool {
	if id, ok := r.Value("_id").(*analytics.Record); ok && analytics.IsDateBucket(id) {
		return true
	}
	return analytics.IsDateBucket(r)
}

func isCountStyle(r *analytics.Record) bool {
	return (r.Has("_id") && r.Has("count")) ||
		r.Has("percentage") ||
		(r.Has("label") && r.Has("value"))
}

func isCollectionCount(r *analytics.Record) bool {
	return r.Has("collection") && r.Has("count")
}
