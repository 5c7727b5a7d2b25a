package services

import (
	"slices"
	"strings"

	"appliance-dashboard/internal/models"
)

// DefaultHistogramBins is the bin count of the rating distribution.
const DefaultHistogramBins = 20

func SalesByCategory(view []models.SalesRecord) []models.CategorySales {
	groups := make(map[string]float64)
	for _, rec := range view {
		groups[rec.Category] += rec.SalesAmount
	}

	result := make([]models.CategorySales, 0, len(groups))
	for category, sales := range groups {
		result = append(result, models.CategorySales{Category: category, Sales: sales})
	}
	slices.SortFunc(result, func(a, b models.CategorySales) int {
		return strings.Compare(a.Category, b.Category)
	})
	return result
}

// SalesTrend sums sales per sale date in ascending date order.
func SalesTrend(view []models.SalesRecord) []models.DailySales {
	type point struct {
		unix  int64
		label string
		sales float64
	}
	groups := make(map[int64]*point)
	for _, rec := range view {
		key := rec.SaleDate.UnixNano()
		p, ok := groups[key]
		if !ok {
			label := rec.SaleDate.Format(dateLayout)
			if rec.SaleDate.Hour() != 0 || rec.SaleDate.Minute() != 0 || rec.SaleDate.Second() != 0 {
				label = rec.SaleDate.Format("2006-01-02 15:04:05")
			}
			p = &point{unix: key, label: label}
			groups[key] = p
		}
		p.sales += rec.SalesAmount
	}

	points := make([]*point, 0, len(groups))
	for _, p := range groups {
		points = append(points, p)
	}
	slices.SortFunc(points, func(a, b *point) int {
		switch {
		case a.unix < b.unix:
			return -1
		case a.unix > b.unix:
			return 1
		}
		return 0
	})

	result := make([]models.DailySales, 0, len(points))
	for _, p := range points {
		result = append(result, models.DailySales{Date: p.label, Sales: p.sales})
	}
	return result
}

// RatingDistribution buckets customer ratings into equal-width bins spanning
// the observed range. The last bin includes its upper edge.
func RatingDistribution(view []models.SalesRecord, bins int) []models.RatingBin {
	if len(view) == 0 || bins <= 0 {
		return []models.RatingBin{}
	}

	lo, hi := view[0].CustomerRating, view[0].CustomerRating
	for _, rec := range view[1:] {
		lo = min(lo, rec.CustomerRating)
		hi = max(hi, rec.CustomerRating)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	width := (hi - lo) / float64(bins)
	result := make([]models.RatingBin, bins)
	for i := range result {
		result[i].Lower = lo + float64(i)*width
		result[i].Upper = lo + float64(i+1)*width
	}
	result[bins-1].Upper = hi

	for _, rec := range view {
		idx := int((rec.CustomerRating - lo) / width)
		idx = max(0, min(idx, bins-1))
		result[idx].Count++
	}

	return result
}
