// Package terminal renders interpreted results for a text terminal.
package terminal

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/querylens/querylens/internal/analytics/chartdata"
	"github.com/querylens/querylens/internal/analytics/metrics"
	"github.com/querylens/querylens/internal/presenter"
)

const barWidth = 30

var tones = map[metrics.Color]lipgloss.Color{
	metrics.ColorGreen:  lipgloss.Color("#10B981"),
	metrics.ColorBlue:   lipgloss.Color("#4F46E5"),
	metrics.ColorGray:   lipgloss.Color("#6B7280"),
	metrics.ColorPurple: lipgloss.Color("#8B5CF6"),
	metrics.ColorRed:    lipgloss.Color("#EF4444"),
	metrics.ColorAmber:  lipgloss.Color("#F59E0B"),
}

func tone(c metrics.Color) lipgloss.Color {
	if t, ok := tones[c]; ok {
		return t
	}
	return lipgloss.Color("#6B7280")
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
)

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#4F46E5")).
	Padding(0, 1).
	Width(36)

// Metrics renders metric tiles side by side. Nil metrics render nothing.
func Metrics(w io.Writer, ms []metrics.Metric) {
	if len(ms) == 0 {
		return
	}
	tiles := make([]string, 0, len(ms))
	for _, m := range ms {
		style := lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(tone(m.Color)).
			Padding(0, 1)
		body := titleStyle.Foreground(tone(m.Color)).Render(m.Value.String()) + "\n" + m.Label
		if m.Subtext != "" {
			body += "\n" + mutedStyle.Render(m.Subtext)
		}
		tiles = append(tiles, style.Render(body))
	}
	_, _ = fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
}

// Table renders a table page with its paging footer.
func Table(w io.Writer, view presenter.TableView) {
	if view.Message != "" {
		_, _ = fmt.Fprintln(w, mutedStyle.Render(view.Message))
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(view.Columns))
	for i, c := range view.Columns {
		title := c.DisplayName
		if c.Key == view.SortKey {
			if view.SortDir == presenter.SortDesc {
				title += " ↓"
			} else {
				title += " ↑"
			}
		}
		header[i] = title
	}
	t.AppendHeader(header)

	for _, r := range view.Rows {
		row := make(table.Row, len(r.Cells))
		for i, c := range r.Cells {
			row[i] = cellText(c)
		}
		t.AppendRow(row)
	}
	t.Render()
	_, _ = fmt.Fprintln(w, pagingLine(view.Paging))
}

// Cards renders a card page.
func Cards(w io.Writer, view presenter.CardsView) {
	if view.Message != "" {
		_, _ = fmt.Fprintln(w, mutedStyle.Render(view.Message))
		return
	}
	rendered := make([]string, 0, len(view.Cards))
	for _, c := range view.Cards {
		var b strings.Builder
		b.WriteString(titleStyle.Render(c.Title))
		if len(c.Badges) > 0 {
			badges := make([]string, 0, len(c.Badges))
			for _, badge := range c.Badges {
				badges = append(badges, lipgloss.NewStyle().Foreground(tone(badge.Tone)).Render("["+badge.Text+"]"))
			}
			b.WriteString("\n" + strings.Join(badges, " "))
		}
		for _, f := range c.Fields {
			b.WriteString("\n" + mutedStyle.Render(f.Label+":") + " " + cellText(f.Cell))
		}
		rendered = append(rendered, cardStyle.Render(b.String()))
	}
	for i := 0; i < len(rendered); i += 3 {
		end := i + 3
		if end > len(rendered) {
			end = len(rendered)
		}
		_, _ = fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, rendered[i:end]...))
	}
	_, _ = fmt.Fprintln(w, pagingLine(view.Paging))
}

// Chart renders chart rows as a table with proportional bars.
func Chart(w io.Writer, c chartdata.Chart) {
	if c.Empty() {
		msg := c.Message
		if msg == "" {
			msg = chartdata.NoDataMessage
		}
		_, _ = fmt.Fprintln(w, mutedStyle.Render(msg))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title := string(c.Kind); c.FallbackFrom != "" {
		t.SetTitle(fmt.Sprintf("%s (from %s)", title, c.FallbackFrom))
	} else {
		t.SetTitle(title)
	}

	header := table.Row{"Name", "Value", ""}
	for _, s := range c.Series {
		header = append(header, s)
	}
	t.AppendHeader(header)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	peak := 0.0
	for _, it := range c.Items {
		peak = math.Max(peak, math.Abs(it.Value))
	}
	for _, it := range c.Items {
		row := table.Row{it.Name, formatValue(it.Value), bar(it.Value, peak)}
		for _, s := range c.Series {
			v, ok := it.Get(s)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, formatValue(v))
		}
		t.AppendRow(row)
	}
	t.Render()
	if c.OriginalPoints > 0 {
		_, _ = fmt.Fprintf(w, "(%d of %d points)\n", len(c.Items), c.OriginalPoints)
	}
}

// JSON writes the pretty-printed raw view.
func JSON(w io.Writer, raw []byte) {
	_, _ = fmt.Fprintln(w, string(raw))
}

func bar(v, peak float64) string {
	if peak <= 0 {
		return ""
	}
	n := int(math.Round(math.Abs(v) / peak * barWidth))
	return strings.Repeat("█", n)
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func cellText(c presenter.Cell) string {
	switch c.Kind {
	case presenter.CellLines:
		return strings.Join(c.Lines, "\n")
	case presenter.CellBadges:
		parts := make([]string, len(c.Badges))
		for i, b := range c.Badges {
			parts[i] = "[" + b + "]"
		}
		return strings.Join(parts, " ")
	}
	return c.Text
}

func pagingLine(p presenter.Paging) string {
	links := make([]string, 0, len(p.Links))
	for _, l := range p.Links {
		switch {
		case l.Ellipsis:
			links = append(links, "…")
		case l.Current:
			links = append(links, fmt.Sprintf("[%d]", l.Page))
		default:
			links = append(links, fmt.Sprintf("%d", l.Page))
		}
	}
	return fmt.Sprintf("page %d/%d (%d rows)  %s", p.Page, p.PageCount, p.Total, strings.Join(links, " "))
}
