package presenter

import (
	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/fields"
)

// TableRow is one rendered row; cells follow the visible column order.
type TableRow struct {
	Cells []Cell `json:"cells"`
}

// TableView is one page of the table view.
type TableView struct {
	Columns []fields.Field      `json:"columns"`
	Toggles []ColumnToggle      `json:"toggles"`
	Rows    []TableRow          `json:"rows"`
	Paging  Paging              `json:"paging"`
	SortKey string              `json:"sortKey,omitempty"`
	SortDir SortDirection       `json:"sortDir,omitempty"`
	Message string              `json:"message,omitempty"`
	Records []*analytics.Record `json:"-"`
}

// BuildTable filters, sorts and paginates rows into a table page.
func BuildTable(rows []*analytics.Record, fs []fields.Field, state State) TableView {
	if state.PageSize <= 0 {
		state.PageSize = DefaultTablePageSize
	}
	columns := state.VisibleFields(fs)
	view := TableView{Columns: columns, Toggles: state.Toggles(fs), Rows: []TableRow{}}

	page, paging := prepare(rows, fs, &state)
	view.Paging = paging
	view.SortKey, view.SortDir = state.SortKey, state.SortDir
	view.Records = page
	view.Message = emptyMessage(len(rows), paging.Total)

	for _, r := range page {
		cells := make([]Cell, len(columns))
		for i, f := range columns {
			cells[i] = FormatCell(f, r.Value(f.Key))
		}
		view.Rows = append(view.Rows, TableRow{Cells: cells})
	}
	return view
}

// prepare runs search, sort and pagination shared by the table and cards.
// Sorting on an unknown or unsortable key is ignored.
func prepare(rows []*analytics.Record, fs []fields.Field, state *State) ([]*analytics.Record, Paging) {
	rows = analytics.Compact(rows)
	filtered := filter(rows, state.Search)

	if f, ok := fields.Find(fs, state.SortKey); ok && f.Sortable {
		if state.SortDir != SortDesc {
			state.SortDir = SortAsc
		}
		filtered = sortRows(filtered, state.SortKey, state.SortDir, f.Type == fields.TypeDate)
	} else {
		state.SortKey, state.SortDir = "", ""
	}

	paging, start, end := paginate(len(filtered), state.Page, state.PageSize)
	return filtered[start:end], paging
}

func emptyMessage(total, matched int) string {
	switch {
	case total == 0:
		return EmptyMessage
	case matched == 0:
		return NoMatchesMessage
	}
	return ""
}
