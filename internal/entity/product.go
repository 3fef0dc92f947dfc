package entity

import "github.com/shopspring/decimal"

// ProductFilter narrows product performance rows. Zero values disable a filter.
type ProductFilter struct {
	Search     string
	CategoryId int64
}

// ProductPerformance aggregates the order lines of one product or variation.
type ProductPerformance struct {
	ItemId           int64           `db:"item_id" json:"item_id"`
	ProductId        int64           `db:"product_id" json:"product_id"`
	VariationId      int64           `db:"variation_id" json:"variation_id"`
	Name             string          `db:"name" json:"name"`
	SoldQty          int             `db:"sold_qty" json:"sold_qty"`
	DeliveredQty     int             `db:"delivered_qty" json:"delivered_qty"`
	ReturnedQty      int             `db:"returned_qty" json:"returned_qty"`
	SellingTotal     decimal.Decimal `db:"selling_total" json:"selling_total"`
	CostTotal        decimal.Decimal `db:"cost_total" json:"cost_total"`
	Profit           decimal.Decimal `db:"profit" json:"profit"`
	DeliveredPercent decimal.Decimal `db:"-" json:"delivered_percent"`
	ReturnedPercent  decimal.Decimal `db:"-" json:"returned_percent"`
}

// ProductCost is the current unit cost of a product or variation.
type ProductCost struct {
	ItemId int64           `db:"item_id" json:"item_id"`
	Cost   decimal.Decimal `db:"cost" json:"cost"`
}
