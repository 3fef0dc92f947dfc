package entity

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CourierOutcome is the physical fulfillment result of an order.
type CourierOutcome string

const (
	CourierUnclassified    CourierOutcome = "unclassified"
	CourierDelivered       CourierOutcome = "delivered"
	CourierReturnedFull    CourierOutcome = "returned_full"
	CourierReturnedPartial CourierOutcome = "returned_partial"
)

func (c CourierOutcome) IsReturned() bool {
	return c == CourierReturnedFull || c == CourierReturnedPartial
}

func (c CourierOutcome) Valid() bool {
	switch c {
	case CourierUnclassified, CourierDelivered, CourierReturnedFull, CourierReturnedPartial:
		return true
	}
	return false
}

// IdSet is a deduplicated, order-irrelevant set of ids.
type IdSet map[int64]struct{}

func NewIdSet(ids ...int64) IdSet {
	s := make(IdSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s IdSet) Add(id int64) {
	s[id] = struct{}{}
}

func (s IdSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Merge adds every id of o to s.
func (s IdSet) Merge(o IdSet) {
	for id := range o {
		s[id] = struct{}{}
	}
}

// Sorted returns the ids in ascending order.
func (s IdSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// OrderFact is the denormalized reporting row kept for every source order.
type OrderFact struct {
	OrderId       int64
	CustomerId    *int64
	CustomerName  string
	CustomerPhone string
	CustomerEmail string

	TotalItems   int
	ProductIds   IdSet
	VariationIds IdSet
	CategoryIds  IdSet

	Subtotal      decimal.Decimal
	GrandTotal    decimal.Decimal
	CogsTotal     decimal.Decimal
	DiscountTotal decimal.Decimal
	ShippingCost  decimal.Decimal

	RawStatus      string
	IsConverted    bool
	CourierOutcome CourierOutcome

	GrossProfit  decimal.Decimal
	NetProfit    decimal.Decimal
	ProfitMargin decimal.Decimal

	Source        string
	PaymentMethod string
	Notes         string

	OrderCreatedAt time.Time
	UpdatedAt      time.Time

	Lines []FactLine
}

// FactLine is a persisted order line with the unit cost captured at ingestion.
type FactLine struct {
	ProductId   int64
	VariationId int64
	Name        string
	Quantity    int
	LineTotal   decimal.Decimal
	UnitCost    decimal.Decimal
	CategoryIds IdSet
}

// ItemId is the variation id when present, the product id otherwise.
func (l FactLine) ItemId() int64 {
	if l.VariationId > 0 {
		return l.VariationId
	}
	return l.ProductId
}

// StatusUpdate is the minimal write performed on a status transition.
type StatusUpdate struct {
	OrderId        int64
	RawStatus      string
	IsConverted    bool
	CourierOutcome CourierOutcome
	UpdatedAt      time.Time
}
