package services

import (
	"math"

	"appliance-dashboard/internal/models"
	"github.com/shopspring/decimal"
)

// ComputeKPIs reduces a view to the six headline metrics. Every field is
// finite, including for an empty view.
func ComputeKPIs(view []models.SalesRecord) models.KPISnapshot {
	var (
		sales, profit decimal.Decimal
		units         int
		returns       float64
		turnoverSum   float64
		turnoverRows  int
		ratingSum     float64
	)

	for _, rec := range view {
		qty := decimal.NewFromInt(int64(rec.UnitsSold))
		sales = sales.Add(money(rec.SalesAmount))
		profit = profit.Add(money(rec.UnitPrice).Sub(money(rec.UnitCost)).Mul(qty))
		units += rec.UnitsSold
		returns += rec.ReturnsCount
		ratingSum += rec.CustomerRating

		// A row without stock has no defined turnover and is left out of the mean.
		if rec.InventoryLevel > 0 {
			turnoverSum += float64(rec.UnitsSold) / rec.InventoryLevel
			turnoverRows++
		}
	}

	kpis := models.KPISnapshot{
		TotalSales:   sales.InexactFloat64(),
		UnitsSold:    units,
		ProfitMargin: profit.InexactFloat64(),
		TurnoverRows: turnoverRows,
		RatedRows:    len(view),
	}

	if turnoverRows > 0 {
		kpis.InventoryTurnover = turnoverSum / float64(turnoverRows)
	}
	if units > 0 {
		kpis.ReturnRate = returns / float64(units) * 100
	}
	if len(view) > 0 {
		kpis.AvgRating = ratingSum / float64(len(view))
	}

	return kpis
}

// money converts an amount to a decimal. Non-finite amounts count as zero;
// the loader rejects them, so only hand-built views can carry one.
func money(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
