// Package report renders a dashboard snapshot for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"appliance-dashboard/internal/services"
)

const barWidth = 30

type styles struct {
	title     lipgloss.Style
	muted     lipgloss.Style
	card      lipgloss.Style
	cardTitle lipgloss.Style
	cardValue lipgloss.Style
	bar       lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A")),
		muted: r.NewStyle().Foreground(lipgloss.Color("#8C8C8C")),
		card: r.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A")),
		cardTitle: r.NewStyle().Foreground(lipgloss.Color("#8C8C8C")),
		cardValue: r.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true),
		bar:       r.NewStyle().Foreground(lipgloss.Color("#3A7BC8")),
	}
}

// Render writes the KPI cards, sales by category and the filter echo to w.
func Render(w io.Writer, tick *services.Tick) error {
	st := newStyles(lipgloss.NewRenderer(w))

	var b strings.Builder
	b.WriteString(st.title.Render("Appliance Sales Summary"))
	b.WriteString("\n")
	b.WriteString(st.muted.Render(fmt.Sprintf("%d of %d rows | %s to %s | categories: %s | regions: %s",
		len(tick.View), tick.TotalRecords,
		tick.Selection.Start, tick.Selection.End,
		joinOrNone(tick.Selection.Categories), joinOrNone(tick.Selection.Regions))))
	b.WriteString("\n\n")

	cards := []string{
		card(st, "Total Sales", tick.Display.TotalSales),
		card(st, "Units Sold", tick.Display.UnitsSold),
		card(st, "Profit Margin", tick.Display.ProfitMargin),
		card(st, "Inventory Turnover", tick.Display.InventoryTurnover),
		card(st, "Return Rate", tick.Display.ReturnRate),
		card(st, "Customer Rating", tick.Display.AvgRating),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...))
	b.WriteString("\n\n")

	b.WriteString(st.title.Render("Sales by Category"))
	b.WriteString("\n")
	if len(tick.CategorySales) == 0 {
		b.WriteString(st.muted.Render("No rows match the current filters"))
		b.WriteString("\n")
	}

	nameWidth, top := 0, 0.0
	for _, c := range tick.CategorySales {
		nameWidth = max(nameWidth, lipgloss.Width(c.Category))
		top = max(top, c.Sales)
	}
	for _, c := range tick.CategorySales {
		n := 0
		if top > 0 {
			n = int(c.Sales / top * barWidth)
		}
		fmt.Fprintf(&b, "%-*s %s %s\n", nameWidth, c.Category,
			st.bar.Render(strings.Repeat("█", max(n, 0))),
			services.FormatCurrency(c.Sales))
	}

	if len(tick.SalesTrend) > 0 {
		first, last := tick.SalesTrend[0], tick.SalesTrend[len(tick.SalesTrend)-1]
		b.WriteString("\n")
		b.WriteString(st.muted.Render(fmt.Sprintf("Trend: %d days, %s (%s) to %s (%s)",
			len(tick.SalesTrend),
			first.Date, services.FormatCurrency(first.Sales),
			last.Date, services.FormatCurrency(last.Sales))))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func card(st styles, title, value string) string {
	return st.card.Width(22).Render(st.cardTitle.Render(title) + "\n" + st.cardValue.Render(value))
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
