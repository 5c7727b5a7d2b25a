package models

import "time"

// CSV column names of the sales dataset.
const (
	ColCategory       = "categoria"
	ColRegion         = "region"
	ColSaleDate       = "fecha_venta"
	ColSalesAmount    = "ventas"
	ColUnitsSold      = "unidades_vendidas"
	ColUnitPrice      = "precio_venta"
	ColUnitCost       = "costo"
	ColInventoryLevel = "inventario"
	ColReturnsCount   = "devoluciones"
	ColCustomerRating = "calificacion_cliente"
)

// Columns lists the dataset schema in canonical order.
var Columns = []string{
	ColCategory,
	ColRegion,
	ColSaleDate,
	ColSalesAmount,
	ColUnitsSold,
	ColUnitPrice,
	ColUnitCost,
	ColInventoryLevel,
	ColReturnsCount,
	ColCustomerRating,
}

type SalesRecord struct {
	Category       string    `json:"categoria"`
	Region         string    `json:"region"`
	SaleDate       time.Time `json:"fecha_venta"`
	SalesAmount    float64   `json:"ventas"`
	UnitsSold      int       `json:"unidades_vendidas"`
	UnitPrice      float64   `json:"precio_venta"`
	UnitCost       float64   `json:"costo"`
	InventoryLevel float64   `json:"inventario"`
	ReturnsCount   float64   `json:"devoluciones"`
	CustomerRating float64   `json:"calificacion_cliente"`
}

// FilterOptions describes the values the sidebar widgets offer.
type FilterOptions struct {
	Categories []string  `json:"categories"`
	Regions    []string  `json:"regions"`
	MinDate    time.Time `json:"min_date"`
	MaxDate    time.Time `json:"max_date"`
}
