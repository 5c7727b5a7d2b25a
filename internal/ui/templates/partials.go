package templates

import (
	"context"
	"html/template"
	"io"

	"appliance-dashboard/internal/models"
	"github.com/a-h/templ"
)

// Element IDs patched by the SSE endpoints.
const (
	KPITilesID     = "kpi-tiles"
	RecordsTableID = "records-table"
)

var kpiTilesTemplate = template.Must(template.New("kpiTiles").Parse(`
<div id="kpi-tiles" class="kpi-grid">
<div class="kpi-tile"><span class="kpi-label">Total Sales</span><span class="kpi-value">{{.TotalSales}}</span></div>
<div class="kpi-tile"><span class="kpi-label">Units Sold</span><span class="kpi-value">{{.UnitsSold}}</span></div>
<div class="kpi-tile"><span class="kpi-label">Profit Margin</span><span class="kpi-value">{{.ProfitMargin}}</span></div>
<div class="kpi-tile"><span class="kpi-label">Inventory Turnover</span><span class="kpi-value">{{.InventoryTurnover}}</span></div>
<div class="kpi-tile"><span class="kpi-label">Return Rate</span><span class="kpi-value">{{.ReturnRate}}</span></div>
<div class="kpi-tile"><span class="kpi-label">Customer Rating</span><span class="kpi-value">{{.AvgRating}}</span></div>
</div>`))

var recordsTableTemplate = template.Must(template.New("recordsTable").Parse(`
<div id="records-table" class="table-scroll">
<p class="table-caption">Showing {{len .Rows}} of {{.Matched}} matching rows ({{.Total}} loaded)</p>
<table class="modern-table">
<thead><tr><th>Category</th><th>Region</th><th>Date</th><th>Sales</th><th>Units</th><th>Price</th><th>Cost</th><th>Inventory</th><th>Returns</th><th>Rating</th></tr></thead>
<tbody>
{{range .Rows}}<tr>
<td><span class="category-badge">{{.Category}}</span></td>
<td>{{.Region}}</td>
<td>{{.SaleDate.Format "2006-01-02"}}</td>
<td><strong>${{printf "%.2f" .SalesAmount}}</strong></td>
<td>{{.UnitsSold}}</td>
<td>{{printf "%.2f" .UnitPrice}}</td>
<td>{{printf "%.2f" .UnitCost}}</td>
<td>{{printf "%g" .InventoryLevel}}</td>
<td>{{printf "%g" .ReturnsCount}}</td>
<td>{{printf "%.1f" .CustomerRating}}</td>
</tr>{{else}}<tr><td colspan="10" class="empty">No rows match the current filters</td></tr>{{end}}
</tbody>
</table>
</div>`))

type tableData struct {
	Rows    []models.SalesRecord
	Matched int
	Total   int
}

// KPITiles renders the six metric tiles.
func KPITiles(d models.KPIDisplay) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return kpiTilesTemplate.Execute(w, d)
	})
}

// RecordsTable renders at most maxRows of the view.
func RecordsTable(view []models.SalesRecord, total, maxRows int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		rows := view
		if maxRows > 0 && len(rows) > maxRows {
			rows = rows[:maxRows]
		}
		return recordsTableTemplate.Execute(w, tableData{Rows: rows, Matched: len(view), Total: total})
	})
}
