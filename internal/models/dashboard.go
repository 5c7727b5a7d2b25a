package models

import "time"

// SelectionInput is the raw filter state sent by a client.
//
// A nil Categories or Regions slice means the field was not supplied and
// selects every value; a non-nil empty slice selects nothing. Empty Start
// and End fall back to the dataset's date bounds.
type SelectionInput struct {
	Categories []string `json:"categories"`
	Regions    []string `json:"regions"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
}

// Selection is a resolved filter with an inclusive date interval.
type Selection struct {
	Categories map[string]struct{}
	Regions    map[string]struct{}
	Start      time.Time
	End        time.Time
}

type KPISnapshot struct {
	TotalSales        float64 `json:"total_sales"`
	UnitsSold         int     `json:"units_sold"`
	ProfitMargin      float64 `json:"profit_margin"`
	InventoryTurnover float64 `json:"inventory_turnover"`
	ReturnRate        float64 `json:"return_rate"`
	AvgRating         float64 `json:"avg_rating"`

	// Rows that contributed to InventoryTurnover and AvgRating.
	TurnoverRows int `json:"turnover_rows"`
	RatedRows    int `json:"rated_rows"`
}

type KPIDisplay struct {
	TotalSales        string `json:"total_sales"`
	UnitsSold         string `json:"units_sold"`
	ProfitMargin      string `json:"profit_margin"`
	InventoryTurnover string `json:"inventory_turnover"`
	ReturnRate        string `json:"return_rate"`
	AvgRating         string `json:"avg_rating"`
}

type CategorySales struct {
	Category string  `json:"category"`
	Sales    float64 `json:"sales"`
}

type DailySales struct {
	Date  string  `json:"date"`
	Sales float64 `json:"sales"`
}

type RatingBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}
