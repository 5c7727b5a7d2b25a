package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"appliance-dashboard/internal/models"
	"github.com/a-h/templ"
)

const datastarCDN = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"
const chartJSCDN = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"

type PageData struct {
	Title           string
	Options         models.FilterOptions
	Selection       models.SelectionInput
	Display         models.KPIDisplay
	View            []models.SalesRecord
	TotalRecords    int
	MaxTableRows    int
	RefreshInterval time.Duration
}

// pageSignals seeds the client-side state. Chart series are local signals
// (leading underscore) so they are not echoed back on every request.
type pageSignals struct {
	Categories    []string `json:"categories"`
	Regions       []string `json:"regions"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	LastRefresh   string   `json:"lastRefresh"`
	CategorySales []any    `json:"_categorySales"`
	SalesTrend    []any    `json:"_salesTrend"`
	RatingBins    []any    `json:"_ratingBins"`
}

// Dashboard renders the full page. Charts and table are filled by the first
// SSE refresh.
func Dashboard(p PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		signals, err := json.Marshal(pageSignals{
			Categories:    p.Selection.Categories,
			Regions:       p.Selection.Regions,
			Start:         p.Selection.Start,
			End:           p.Selection.End,
			CategorySales: []any{},
			SalesTrend:    []any{},
			RatingBins:    []any{},
		})
		if err != nil {
			return fmt.Errorf("marshal signals: %w", err)
		}

		title := p.Title
		if title == "" {
			title = "Appliance Sales Dashboard"
		}
		interval := max(int(p.RefreshInterval/time.Second), 1)

		var b strings.Builder
		b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
		b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
		fmt.Fprintf(&b, "<title>%s</title>\n", templ.EscapeString(title))
		fmt.Fprintf(&b, "<script type=\"module\" src=\"%s\"></script>\n", datastarCDN)
		fmt.Fprintf(&b, "<script src=\"%s\"></script>\n", chartJSCDN)
		b.WriteString(pageStyle)
		b.WriteString(chartScript)
		b.WriteString("</head>\n")

		fmt.Fprintf(&b, "<body data-signals=\"%s\" data-init=\"@get('/sse/refresh')\" data-on-interval__duration.%ds=\"@get('/sse/refresh')\">\n",
			templ.EscapeString(string(signals)), interval)

		b.WriteString("<aside class=\"sidebar\">\n<h2>Filters</h2>\n")
		writeMultiSelect(&b, "categories", "Product categories", p.Options.Categories, p.Selection.Categories)
		writeMultiSelect(&b, "regions", "Regions", p.Options.Regions, p.Selection.Regions)
		writeDateInput(&b, "start", "Start date", p.Selection.Start, p.Options)
		writeDateInput(&b, "end", "End date", p.Selection.End, p.Options)
		fmt.Fprintf(&b, "<p class=\"refresh-note\">Auto-refresh every %ds. Last refresh: <span data-text=\"$lastRefresh\"></span></p>\n", interval)
		b.WriteString("</aside>\n")

		b.WriteString("<main>\n")
		fmt.Fprintf(&b, "<h1>%s</h1>\n", templ.EscapeString(title))
		b.WriteString("<section>\n<h2>Key Performance Indicators</h2>\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		b.Reset()

		if err := KPITiles(p.Display).Render(ctx, w); err != nil {
			return err
		}

		b.WriteString("\n</section>\n<section>\n<h2>Charts</h2>\n<div class=\"chart-grid\">\n")
		b.WriteString("<div class=\"chart-panel\"><h3>Sales by Category</h3><canvas id=\"chart-category\"></canvas></div>\n")
		b.WriteString("<div class=\"chart-panel\"><h3>Sales Trend</h3><canvas id=\"chart-trend\"></canvas></div>\n")
		b.WriteString("<div class=\"chart-panel\"><h3>Customer Rating Distribution</h3><canvas id=\"chart-rating\"></canvas></div>\n")
		b.WriteString("</div>\n<div data-effect=\"window.renderCharts && window.renderCharts($_categorySales, $_salesTrend, $_ratingBins)\"></div>\n")
		b.WriteString("</section>\n<section>\n<h2>Detailed Data</h2>\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		b.Reset()

		if err := RecordsTable(p.View, p.TotalRecords, p.MaxTableRows).Render(ctx, w); err != nil {
			return err
		}

		_, err = io.WriteString(w, "\n</section>\n</main>\n</body>\n</html>\n")
		return err
	})
}

func writeMultiSelect(b *strings.Builder, signal, label string, options, selected []string) {
	chosen := make(map[string]bool, len(selected))
	for _, s := range selected {
		chosen[s] = true
	}
	fmt.Fprintf(b, "<label for=\"%s\">%s</label>\n", signal, templ.EscapeString(label))
	fmt.Fprintf(b, "<select id=\"%s\" multiple size=\"%d\" data-bind=\"%s\" data-on:change=\"@get('/sse/refresh')\">\n",
		signal, min(max(len(options), 2), 8), signal)
	for _, opt := range options {
		sel := ""
		if chosen[opt] {
			sel = " selected"
		}
		fmt.Fprintf(b, "<option value=\"%s\"%s>%s</option>\n", templ.EscapeString(opt), sel, templ.EscapeString(opt))
	}
	b.WriteString("</select>\n")
}

func writeDateInput(b *strings.Builder, signal, label, value string, opts models.FilterOptions) {
	fmt.Fprintf(b, "<label for=\"%s\">%s</label>\n", signal, templ.EscapeString(label))
	fmt.Fprintf(b, "<input id=\"%s\" type=\"date\" value=\"%s\" min=\"%s\" max=\"%s\" data-bind=\"%s\" data-on:change=\"@get('/sse/refresh')\">\n",
		signal, templ.EscapeString(value),
		opts.MinDate.Format("2006-01-02"), opts.MaxDate.Format("2006-01-02"), signal)
}

const pageStyle = `<style>
body{margin:0;display:flex;font-family:system-ui,sans-serif;background:#f5f6f8;color:#1f2933}
.sidebar{width:260px;min-height:100vh;padding:1rem;background:#fff;border-right:1px solid #e4e7eb;box-sizing:border-box}
.sidebar label{display:block;margin-top:.75rem;font-weight:600;font-size:.85rem}
.sidebar select,.sidebar input{width:100%;margin-top:.25rem}
.refresh-note{margin-top:1.5rem;font-size:.75rem;color:#616e7c}
main{flex:1;padding:1rem 2rem;overflow:hidden}
.kpi-grid{display:grid;grid-template-columns:repeat(6,1fr);gap:.75rem}
.kpi-tile{background:#fff;border-radius:8px;padding:.75rem;box-shadow:0 1px 2px rgba(0,0,0,.08)}
.kpi-label{display:block;font-size:.75rem;color:#616e7c}
.kpi-value{display:block;font-size:1.25rem;font-weight:700;margin-top:.25rem}
.chart-grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(320px,1fr));gap:1rem}
.chart-panel{background:#fff;border-radius:8px;padding:.75rem}
.table-scroll{max-height:480px;overflow:auto;background:#fff;border-radius:8px}
.modern-table{width:100%;border-collapse:collapse;font-size:.85rem}
.modern-table th,.modern-table td{padding:.4rem .6rem;border-bottom:1px solid #e4e7eb;text-align:left}
.category-badge{background:#e0e8f9;border-radius:4px;padding:0 .4rem}
.table-caption{font-size:.75rem;color:#616e7c;padding:.5rem .6rem;margin:0}
.empty{text-align:center;color:#9aa5b1}
</style>
`

const chartScript = `<script>
window.dashboardCharts = {};
window.renderCharts = function (categorySales, salesTrend, ratingBins) {
  if (typeof Chart === "undefined") { return; }
  const draw = function (id, config) {
    const existing = window.dashboardCharts[id];
    if (existing) { existing.destroy(); }
    const el = document.getElementById(id);
    if (el) { window.dashboardCharts[id] = new Chart(el, config); }
  };
  draw("chart-category", {
    type: "bar",
    data: { labels: categorySales.map(function (d) { return d.category; }),
            datasets: [{ label: "Sales ($)", data: categorySales.map(function (d) { return d.sales; }) }] },
    options: { animation: false }
  });
  draw("chart-trend", {
    type: "line",
    data: { labels: salesTrend.map(function (d) { return d.date; }),
            datasets: [{ label: "Sales ($)", data: salesTrend.map(function (d) { return d.sales; }) }] },
    options: { animation: false }
  });
  draw("chart-rating", {
    type: "bar",
    data: { labels: ratingBins.map(function (d) { return d.lower.toFixed(2) + "-" + d.upper.toFixed(2); }),
            datasets: [{ label: "Rows", data: ratingBins.map(function (d) { return d.count; }) }] },
    options: { animation: false, scales: { x: { ticks: { autoSkip: true } } } }
  });
};
</script>
`
