package presenter

import (
	"fmt"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/fields"
)

var titleKeys = []string{"title", "name", "subject", "summary", "label"}

// CardField is one labelled value on a card.
type CardField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Cell  Cell   `json:"cell"`
}

// Card is one record rendered as a card.
type Card struct {
	Title  string      `json:"title"`
	Badges []Cell      `json:"badges,omitempty"`
	Fields []CardField `json:"fields"`
}

// CardsView is one page of the card view.
type CardsView struct {
	Cards   []Card         `json:"cards"`
	Toggles []ColumnToggle `json:"toggles"`
	Paging  Paging         `json:"paging"`
	SortKey string         `json:"sortKey,omitempty"`
	SortDir SortDirection  `json:"sortDir,omitempty"`
	Message string         `json:"message,omitempty"`
}

// BuildCards filters, sorts and paginates rows into cards. Status, priority
// and severity fields become badges; a title-like field becomes the heading.
func BuildCards(rows []*analytics.Record, fs []fields.Field, state State) CardsView {
	if state.PageSize <= 0 {
		state.PageSize = DefaultCardPageSize
	}
	visible := state.VisibleFields(fs)
	view := CardsView{Cards: []Card{}, Toggles: state.Toggles(fs)}

	page, paging := prepare(rows, fs, &state)
	view.Paging = paging
	view.SortKey, view.SortDir = state.SortKey, state.SortDir
	view.Message = emptyMessage(len(rows), paging.Total)

	offset := (paging.Page - 1) * paging.PageSize
	for i, r := range page {
		view.Cards = append(view.Cards, buildCard(r, visible, offset+i))
	}
	return view
}

func buildCard(r *analytics.Record, visible []fields.Field, index int) Card {
	titleKey, title := cardTitle(r, visible, index)
	card := Card{Title: title, Fields: []CardField{}}
	for _, f := range visible {
		if f.Key == titleKey {
			continue
		}
		cell := FormatCell(f, r.Value(f.Key))
		if isBadgeField(f) {
			if cell.Kind != CellEmpty {
				card.Badges = append(card.Badges, cell)
			}
			continue
		}
		card.Fields = append(card.Fields, CardField{Key: f.Key, Label: f.DisplayName, Cell: cell})
	}
	return card
}

func cardTitle(r *analytics.Record, visible []fields.Field, index int) (string, string) {
	for _, k := range titleKeys {
		if s, ok := r.String(k); ok && s != "" {
			return k, s
		}
	}
	for _, f := range visible {
		if f.Type != fields.TypeID {
			continue
		}
		if v := r.Value(f.Key); analytics.IsPrimitive(v) {
			return "", "#" + analytics.Stringify(v)
		}
	}
	return "", fmt.Sprintf("Item %d", index+1)
}
