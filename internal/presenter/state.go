// Package presenter builds the table, card and raw JSON views of a result
// set. Views share the derived field schema and never re-derive it.
package presenter

import (
	"strings"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/fields"
	"github.com/querylens/querylens/internal/analytics/shape"
)

// Default page sizes.
const (
	DefaultTablePageSize = 10
	DefaultCardPageSize  = 9
)

// Empty-state strings.
const (
	EmptyMessage     = "No results to display"
	NoMatchesMessage = "No results match your search"
)

// SortDirection orders a sorted column.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// State is the client-controlled view state.
type State struct {
	Hidden   []string      `json:"hidden,omitempty"`
	Search   string        `json:"search,omitempty"`
	SortKey  string        `json:"sortKey,omitempty"`
	SortDir  SortDirection `json:"sortDir,omitempty"`
	Page     int           `json:"page,omitempty"`
	PageSize int           `json:"pageSize,omitempty"`
}

func (s State) hidden(key string) bool {
	for _, h := range s.Hidden {
		if h == key {
			return true
		}
	}
	return false
}

// ToggleField flips the visibility of a field.
func (s State) ToggleField(key string) State {
	out := make([]string, 0, len(s.Hidden)+1)
	found := false
	for _, h := range s.Hidden {
		if h == key {
			found = true
			continue
		}
		out = append(out, h)
	}
	if !found {
		out = append(out, key)
	}
	s.Hidden = out
	return s
}

// ColumnToggle is one entry of the field visibility menu.
type ColumnToggle struct {
	fields.Field
	Visible bool `json:"visible"`
}

// Toggles lists every field with its visibility.
func (s State) Toggles(fs []fields.Field) []ColumnToggle {
	out := make([]ColumnToggle, len(fs))
	for i, f := range fs {
		out[i] = ColumnToggle{Field: f, Visible: !s.hidden(f.Key)}
	}
	return out
}

// VisibleFields returns the fields that are not hidden, in schema order.
func (s State) VisibleFields(fs []fields.Field) []fields.Field {
	out := make([]fields.Field, 0, len(fs))
	for _, f := range fs {
		if !s.hidden(f.Key) {
			out = append(out, f)
		}
	}
	return out
}

// Rows returns the records a view iterates over. Nested-detail results are
// flattened into their ticket documents, each carrying the parent's count
// as _total_count.
func Rows(records []*analytics.Record, profile shape.Profile) []*analytics.Record {
	rows := analytics.Compact(records)
	if profile.Shape != shape.NestedDetail {
		return rows
	}
	out := make([]*analytics.Record, 0, len(rows))
	for _, parent := range rows {
		items, ok := parent.Value(fields.DetailKey).([]any)
		if !ok {
			continue
		}
		count, hasCount := parent.Number("count")
		for _, item := range items {
			rec, ok := item.(*analytics.Record)
			if !ok {
				continue
			}
			if hasCount {
				rec = rec.Clone()
				rec.Set(fields.TotalCountKey, count)
			}
			out = append(out, rec)
		}
	}
	return out
}

// matches reports whether any value of r contains the search term.
func matches(r *analytics.Record, term string) bool {
	if term == "" {
		return true
	}
	for _, k := range r.Keys() {
		if strings.Contains(strings.ToLower(analytics.Stringify(r.Value(k))), term) {
			return true
		}
	}
	return false
}

func filter(rows []*analytics.Record, search string) []*analytics.Record {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return rows
	}
	out := make([]*analytics.Record, 0, len(rows))
	for _, r := range rows {
		if matches(r, term) {
			out = append(out, r)
		}
	}
	return out
}
