package services

import (
	"math"
	"testing"

	"appliance-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestComputeKPIs(t *testing.T) {
	kpis := ComputeKPIs(sampleRecords())

	assert.InDelta(t, 425.5, kpis.TotalSales, 1e-9)
	assert.Equal(t, 8, kpis.UnitsSold)
	// (50-30)*2 + (50-40)*5 + (75.5-50)*1
	assert.InDelta(t, 115.5, kpis.ProfitMargin, 1e-9)
	// mean(2/10, 5/25, 1/4)
	assert.InDelta(t, (0.2+0.2+0.25)/3, kpis.InventoryTurnover, 1e-9)
	assert.InDelta(t, 12.5, kpis.ReturnRate, 1e-9)
	assert.InDelta(t, 4.0, kpis.AvgRating, 1e-9)
	assert.Equal(t, 3, kpis.TurnoverRows)
	assert.Equal(t, 3, kpis.RatedRows)
}

func TestComputeKPIs_EmptyView(t *testing.T) {
	kpis := ComputeKPIs(nil)

	values := []float64{kpis.TotalSales, kpis.ProfitMargin, kpis.InventoryTurnover, kpis.ReturnRate, kpis.AvgRating}
	for _, v := range values {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "KPI must be finite, got %v", v)
		assert.Zero(t, v)
	}
	assert.Zero(t, kpis.UnitsSold)

	display := FormatKPIs(kpis)
	assert.Equal(t, "$0.00", display.TotalSales)
	assert.Equal(t, "0", display.UnitsSold)
	assert.Equal(t, "$0.00", display.ProfitMargin)
	assert.Equal(t, "N/A", display.InventoryTurnover)
	assert.Equal(t, "0.00%", display.ReturnRate)
	assert.Equal(t, "N/A", display.AvgRating)
}

func TestComputeKPIs_ReturnRateGuard(t *testing.T) {
	view := []models.SalesRecord{
		{Category: "A", Region: "R", SaleDate: day(1), UnitsSold: 0, ReturnsCount: 5, InventoryLevel: 3, CustomerRating: 2},
	}

	kpis := ComputeKPIs(view)
	assert.Zero(t, kpis.ReturnRate)
	assert.Equal(t, "0.00%", FormatKPIs(kpis).ReturnRate)
}

func TestComputeKPIs_ZeroInventoryExcluded(t *testing.T) {
	view := []models.SalesRecord{
		{UnitsSold: 4, InventoryLevel: 0, CustomerRating: 3},
		{UnitsSold: 3, InventoryLevel: 6, CustomerRating: 5},
	}

	kpis := ComputeKPIs(view)
	assert.InDelta(t, 0.5, kpis.InventoryTurnover, 1e-9)
	assert.Equal(t, 1, kpis.TurnoverRows)
	assert.False(t, math.IsInf(kpis.InventoryTurnover, 0))

	onlyEmpty := ComputeKPIs(view[:1])
	assert.Zero(t, onlyEmpty.InventoryTurnover)
	assert.Equal(t, "N/A", FormatKPIs(onlyEmpty).InventoryTurnover)
}

func TestComputeKPIs_Pure(t *testing.T) {
	view := sampleRecords()
	assert.Equal(t, ComputeKPIs(view), ComputeKPIs(view))
	assert.Equal(t, sampleRecords(), view, "input must not be mutated")
}

func TestComputeKPIs_CurrencyDoesNotDrift(t *testing.T) {
	view := make([]models.SalesRecord, 10)
	for i := range view {
		view[i] = models.SalesRecord{SalesAmount: 0.1, UnitsSold: 1, UnitPrice: 0.3, UnitCost: 0.2}
	}

	kpis := ComputeKPIs(view)
	assert.Equal(t, 1.0, kpis.TotalSales)
	assert.Equal(t, 1.0, kpis.ProfitMargin)
}

func TestComputeKPIs_NonFiniteAmountsDoNotPanic(t *testing.T) {
	view := []models.SalesRecord{
		{SalesAmount: math.NaN(), UnitsSold: 1, UnitPrice: math.Inf(1), UnitCost: 2},
		{SalesAmount: 10, UnitsSold: 2, UnitPrice: 5, UnitCost: 3},
	}

	var kpis models.KPISnapshot
	assert.NotPanics(t, func() { kpis = ComputeKPIs(view) })
	assert.Equal(t, 10.0, kpis.TotalSales)
	assert.Equal(t, 2.0, kpis.ProfitMargin)
}

func TestFormat_NonFiniteIsNotAvailable(t *testing.T) {
	assert.Equal(t, "N/A", FormatPercent(math.Inf(1)))
	assert.Equal(t, "N/A", FormatRating(math.NaN()))

	display := FormatKPIs(models.KPISnapshot{InventoryTurnover: math.Inf(1), TurnoverRows: 1, AvgRating: math.Inf(-1), RatedRows: 1})
	assert.Equal(t, "N/A", display.InventoryTurnover)
	assert.Equal(t, "N/A", display.AvgRating)
}

func TestFormatKPIs(t *testing.T) {
	display := FormatKPIs(models.KPISnapshot{
		TotalSales:        1234567.891,
		UnitsSold:         12345,
		ProfitMargin:      1234.5,
		InventoryTurnover: 0.456,
		ReturnRate:        3.14159,
		AvgRating:         4.256,
		TurnoverRows:      2,
		RatedRows:         2,
	})

	assert.Equal(t, "$1,234,567.89", display.TotalSales)
	assert.Equal(t, "12345", display.UnitsSold)
	assert.Equal(t, "$1,234.50", display.ProfitMargin)
	assert.Equal(t, "0.46", display.InventoryTurnover)
	assert.Equal(t, "3.14%", display.ReturnRate)
	assert.Equal(t, "4.26/5", display.AvgRating)
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{999.5, "$999.50"},
		{1000, "$1,000.00"},
		{-2500.25, "$-2,500.25"},
		{math.NaN(), "N/A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(tt.in))
	}
}
