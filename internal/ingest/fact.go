package ingest

import (
	"strings"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/classify"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MaxMargin is the largest margin magnitude the profit_margin column holds.
var MaxMargin = decimal.RequireFromString("9999999999999999.99")

// Derive computes the profit figures of an order.
// The margin is rounded to two decimals, is zero when subtotal is zero and is
// clamped to ±MaxMargin.
func Derive(subtotal, cogs, discount decimal.Decimal) (gross, net, margin decimal.Decimal) {
	gross = subtotal.Sub(cogs)
	net = gross.Sub(discount)
	if subtotal.IsZero() {
		return gross, net, decimal.Zero
	}
	margin = net.Div(subtotal).Mul(hundred).Round(2)
	switch {
	case margin.GreaterThan(MaxMargin):
		margin = MaxMargin
	case margin.LessThan(MaxMargin.Neg()):
		margin = MaxMargin.Neg()
	}
	return gross, net, margin
}

// Attribute returns the channel label recorded for an order.
func Attribute(a entity.Attribution) string {
	source := strings.TrimSpace(a.UTMSource)
	if source == "" || source == "(not set)" {
		source = strings.TrimSpace(a.SourceType)
	}
	switch strings.ToLower(source) {
	case "":
		return "Unknown"
	case "typein", "(direct)", "checkout":
		return "Direct"
	case "referral":
		return "Referral"
	}
	return source
}

// BuildFact derives the fact row of an order from its current state.
// costs holds unit costs keyed by item id; a missing cost counts as zero.
func BuildFact(o *entity.Order, costs map[int64]decimal.Decimal, cfg *entity.ClassificationConfig, now time.Time) *entity.OrderFact {
	f := &entity.OrderFact{
		OrderId:       o.Id,
		CustomerId:    o.CustomerId,
		CustomerName:  strings.TrimSpace(o.CustomerName),
		CustomerPhone: strings.TrimSpace(o.CustomerPhone),
		CustomerEmail: strings.TrimSpace(o.CustomerEmail),
		ProductIds:    entity.NewIdSet(),
		VariationIds:  entity.NewIdSet(),
		CategoryIds:   entity.NewIdSet(),
		Subtotal:      o.Subtotal,
		GrandTotal:    o.GrandTotal,
		CogsTotal:     decimal.Zero,
		DiscountTotal: o.DiscountTotal,
		ShippingCost:  o.ShippingTotal,
		RawStatus:     o.Status,
		Source:        Attribute(o.Attribution),
		PaymentMethod: o.PaymentMethod,
		Notes:         o.CustomerNote,
		// the store never overwrites it once the row exists
		OrderCreatedAt: o.CreatedAt,
		UpdatedAt:      now,
		Lines:          make([]entity.FactLine, 0, len(o.Lines)),
	}
	if f.OrderCreatedAt.IsZero() {
		f.OrderCreatedAt = now
	}

	for _, l := range o.Lines {
		unitCost := costs[l.ItemId()]
		f.CogsTotal = f.CogsTotal.Add(unitCost.Mul(decimal.NewFromInt(int64(l.Quantity))))
		f.TotalItems += l.Quantity
		if l.ProductId > 0 {
			f.ProductIds.Add(l.ProductId)
		}
		if l.VariationId > 0 {
			f.VariationIds.Add(l.VariationId)
		}
		cats := entity.NewIdSet()
		cats.Merge(l.CategoryIds)
		f.CategoryIds.Merge(cats)

		f.Lines = append(f.Lines, entity.FactLine{
			ProductId:   l.ProductId,
			VariationId: l.VariationId,
			Name:        l.Name,
			Quantity:    l.Quantity,
			LineTotal:   l.Total,
			UnitCost:    unitCost,
			CategoryIds: cats,
		})
	}

	f.IsConverted, f.CourierOutcome = classify.Classify(o.Status, cfg)
	f.GrossProfit, f.NetProfit, f.ProfitMargin = Derive(f.Subtotal, f.CogsTotal, f.DiscountTotal)
	return f
}

// itemIds lists the distinct item ids the unit cost is resolved for.
func itemIds(o *entity.Order) []int64 {
	set := entity.NewIdSet()
	for _, l := range o.Lines {
		set.Add(l.ItemId())
	}
	return set.Sorted()
}
