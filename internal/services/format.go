package services

import (
	"fmt"
	"math"
	"strconv"

	"appliance-dashboard/internal/models"
	"github.com/dustin/go-humanize"
)

const notAvailable = "N/A"

// FormatKPIs renders a snapshot for display.
func FormatKPIs(k models.KPISnapshot) models.KPIDisplay {
	d := models.KPIDisplay{
		TotalSales:        FormatCurrency(k.TotalSales),
		UnitsSold:         strconv.Itoa(k.UnitsSold),
		ProfitMargin:      FormatCurrency(k.ProfitMargin),
		InventoryTurnover: notAvailable,
		ReturnRate:        FormatPercent(k.ReturnRate),
		AvgRating:         notAvailable,
	}
	if k.TurnoverRows > 0 && finite(k.InventoryTurnover) {
		d.InventoryTurnover = fmt.Sprintf("%.2f", k.InventoryTurnover)
	}
	if k.RatedRows > 0 {
		d.AvgRating = FormatRating(k.AvgRating)
	}
	return d
}

// FormatCurrency renders v as dollars with thousands separators, e.g. $1,234.50.
func FormatCurrency(v float64) string {
	if !finite(v) {
		return notAvailable
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func FormatPercent(v float64) string {
	if !finite(v) {
		return notAvailable
	}
	return fmt.Sprintf("%.2f%%", v)
}

func FormatRating(v float64) string {
	if !finite(v) {
		return notAvailable
	}
	return fmt.Sprintf("%.2f/5", v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
