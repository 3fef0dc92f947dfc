package entity

import "github.com/shopspring/decimal"

// UncategorizedId is the synthetic category of items without any category.
const UncategorizedId int64 = 0

// InventoryItem is a sellable product or variation in the current inventory snapshot.
// Variations carry their parent's categories.
type InventoryItem struct {
	Id          int64
	Name        string
	Price       decimal.Decimal
	Cost        decimal.Decimal
	StockQty    int
	Managed     bool
	InStock     bool
	CategoryIds IdSet
}

// Countable reports whether the item contributes to stock and value sums.
func (i InventoryItem) Countable() bool {
	return i.Managed && i.InStock && i.StockQty > 0
}

type Category struct {
	Id   int64
	Name string
}

// CategoryRollup is the inventory breakdown of one category.
type CategoryRollup struct {
	CategoryId     int64           `json:"category_id"`
	Name           string          `json:"name"`
	TotalProducts  int             `json:"total_products"`
	TotalStock     int             `json:"total_stock"`
	SellValue      decimal.Decimal `json:"sell_value"`
	CostValue      decimal.Decimal `json:"cost_value"`
	ExpectedProfit decimal.Decimal `json:"expected_profit"`
	// ValueUnavailable marks a category with products but no managed in-stock item.
	ValueUnavailable bool `json:"value_unavailable"`
}

// InventoryKPI totals the managed, in-stock inventory.
type InventoryKPI struct {
	TotalProducts     int             `json:"total_products"`
	TotalCategories   int             `json:"total_categories"`
	ManagedStockItems int             `json:"managed_stock_items"`
	TotalStock        int             `json:"total_stock"`
	SellValue         decimal.Decimal `json:"sell_value"`
	CostValue         decimal.Decimal `json:"cost_value"`
	ExpectedProfit    decimal.Decimal `json:"expected_profit"`
}

type CategoryReport struct {
	KPI        InventoryKPI     `json:"kpi"`
	Categories []CategoryRollup `json:"categories"`
}
