package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is an order as the order management system currently reports it.
type Order struct {
	Id            int64
	CustomerId    *int64
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Status        string
	// Subtotal is the product total before discounts.
	Subtotal      decimal.Decimal
	GrandTotal    decimal.Decimal
	DiscountTotal decimal.Decimal
	ShippingTotal decimal.Decimal
	PaymentMethod string
	CustomerNote  string
	Attribution   Attribution
	CreatedAt     time.Time
	ModifiedAt    time.Time
	Lines         []OrderLine
}

// Attribution carries the raw channel data recorded at checkout.
type Attribution struct {
	UTMSource  string
	SourceType string
}

// OrderLine is one product line of an order.
type OrderLine struct {
	ProductId   int64
	VariationId int64
	Name        string
	Quantity    int
	// Subtotal is the line total before discounts, Total after.
	Subtotal    decimal.Decimal
	Total       decimal.Decimal
	CategoryIds IdSet
}

// ItemId is the id the unit cost is resolved for: the variation when present, the product otherwise.
func (l OrderLine) ItemId() int64 {
	if l.VariationId > 0 {
		return l.VariationId
	}
	return l.ProductId
}
