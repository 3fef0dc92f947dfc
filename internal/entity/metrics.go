package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trend is the direction of a period-over-period change.
type Trend string

const (
	TrendIncrease Trend = "increase"
	TrendDecrease Trend = "decrease"
	TrendNeutral  Trend = "neutral"
)

type MetricWithComparison struct {
	Value        decimal.Decimal `json:"value"`
	CompareValue decimal.Decimal `json:"compare_value"`
	ChangePct    float64         `json:"change_pct"`
	Trend        Trend           `json:"trend"`
}

// OrderKPI is the order-derived part of the KPI bundle for one window.
type OrderKPI struct {
	TotalOrders        int `db:"total_orders"`
	ConvertedOrders    int `db:"converted_orders"`
	NotConvertedOrders int `db:"not_converted_orders"`
	CancelledOrders    int `db:"cancelled_orders"`
	DeliveredOrders    int `db:"delivered_orders"`
	ReturnedOrders     int `db:"returned_orders"`
	ConvertedItems     int `db:"converted_items"`

	// Revenue is the grand total of every order in the window.
	Revenue       decimal.Decimal `db:"revenue"`
	Cogs          decimal.Decimal `db:"cogs"`
	ShippingTotal decimal.Decimal `db:"shipping_total"`
	DiscountTotal decimal.Decimal `db:"discount_total"`

	ConvertedSubtotal    decimal.Decimal `db:"converted_subtotal"`
	ConvertedCogs        decimal.Decimal `db:"converted_cogs"`
	ConvertedGrossProfit decimal.Decimal `db:"converted_gross_profit"`
	ConvertedNetProfit   decimal.Decimal `db:"converted_net_profit"`
}

// KPIInputs are the terms of the KPI bundle not owned by the fact table.
type KPIInputs struct {
	AdSpend      decimal.Decimal
	OpExpenses   decimal.Decimal
	ReturnCharge decimal.Decimal
}

// KPIValues are the computed figures of one window.
type KPIValues struct {
	TotalOrders        int `json:"total_orders"`
	ConvertedOrders    int `json:"converted_orders"`
	NotConvertedOrders int `json:"not_converted_orders"`
	CancelledOrders    int `json:"cancelled_orders"`
	DeliveredOrders    int `json:"delivered_orders"`
	ReturnedOrders     int `json:"returned_orders"`
	ConvertedItems     int `json:"converted_items"`

	ConversionRate    decimal.Decimal `json:"conversion_rate"`
	NonConversionRate decimal.Decimal `json:"non_conversion_rate"`

	Revenue              decimal.Decimal `json:"revenue"`
	Cogs                 decimal.Decimal `json:"cogs"`
	ShippingTotal        decimal.Decimal `json:"shipping_total"`
	DiscountTotal        decimal.Decimal `json:"discount_total"`
	GrossProfit          decimal.Decimal `json:"gross_profit"`
	ConvertedSubtotal    decimal.Decimal `json:"converted_subtotal"`
	ConvertedCogs        decimal.Decimal `json:"converted_cogs"`
	ConvertedGrossProfit decimal.Decimal `json:"converted_gross_profit"`

	AdSpend              decimal.Decimal `json:"ad_spend"`
	AdCostPerOrder       decimal.Decimal `json:"ad_cost_per_order"`
	AdCostPerConverted   decimal.Decimal `json:"ad_cost_per_converted"`
	ConvertedNetAfterAds decimal.Decimal `json:"converted_net_after_ads"`
	OpExpenses           decimal.Decimal `json:"op_expenses"`
	ReturnCost           decimal.Decimal `json:"return_cost"`
	TotalExpenses        decimal.Decimal `json:"total_expenses"`
	NetProfit            decimal.Decimal `json:"net_profit"`
	ROAS                 decimal.Decimal `json:"roas"`
	ROI                  decimal.Decimal `json:"roi"`
	NetMargin            decimal.Decimal `json:"net_margin"`
}

// KPIBundle is the KPI set of a window with changes against the previous window.
type KPIBundle struct {
	Range    DateRangeSpec                   `json:"range"`
	Current  KPIValues                       `json:"current"`
	Previous KPIValues                       `json:"previous"`
	Changes  map[string]MetricWithComparison `json:"changes"`
}

// DailyPoint is one calendar day of the daily series.
type DailyPoint struct {
	Date            time.Time       `db:"day" json:"date"`
	Orders          int             `db:"orders" json:"orders"`
	ConvertedOrders int             `db:"converted_orders" json:"converted_orders"`
	Revenue         decimal.Decimal `db:"revenue" json:"revenue"`
	GrossProfit     decimal.Decimal `db:"gross_profit" json:"gross_profit"`
	AdSpend         decimal.Decimal `db:"-" json:"ad_spend"`
	Net             decimal.Decimal `db:"-" json:"net"`
}

// SpendPoint is the ad spend of one day.
type SpendPoint struct {
	Date  time.Time       `db:"day"`
	Spend decimal.Decimal `db:"spend"`
}

// SourceCount is the number of orders recorded for one raw source label.
type SourceCount struct {
	Source string `db:"source"`
	Count  int    `db:"orders"`
}

// SourceChannel distinguishes storefront from manually entered orders.
type SourceChannel string

const (
	ChannelWeb   SourceChannel = "web"
	ChannelAdmin SourceChannel = "admin"
)

type SourceGroup struct {
	Label   string          `json:"label"`
	Channel SourceChannel   `json:"channel"`
	Orders  int             `json:"orders"`
	Percent decimal.Decimal `json:"percent"`
}

type SourceReport struct {
	Range        DateRangeSpec   `json:"range"`
	TotalOrders  int             `json:"total_orders"`
	WebOrders    int             `json:"web_orders"`
	AdminOrders  int             `json:"admin_orders"`
	WebPercent   decimal.Decimal `json:"web_percent"`
	AdminPercent decimal.Decimal `json:"admin_percent"`
	Web          []SourceGroup   `json:"web"`
	Admin        []SourceGroup   `json:"admin"`
}

// CourierCounts are the classified outcomes updated inside a window.
type CourierCounts struct {
	Delivered       int `db:"delivered"`
	ReturnedFull    int `db:"returned_full"`
	ReturnedPartial int `db:"returned_partial"`
}

func (c CourierCounts) Total() int {
	return c.Delivered + c.ReturnedFull + c.ReturnedPartial
}

// Grade rates a delivery or return percentage.
type Grade string

const (
	GradeExcellent Grade = "excellent"
	GradeGreat     Grade = "great"
	GradeGood      Grade = "good"
	GradeLow       Grade = "low"
	GradePoor      Grade = "poor"
)

type CourierStat struct {
	Count   int                  `json:"count"`
	Percent decimal.Decimal      `json:"percent"`
	Grade   Grade                `json:"grade"`
	Change  MetricWithComparison `json:"change"`
}

type CourierSummary struct {
	Range           DateRangeSpec `json:"range"`
	Total           int           `json:"total"`
	Delivered       CourierStat   `json:"delivered"`
	ReturnedFull    CourierStat   `json:"returned_full"`
	ReturnedPartial CourierStat   `json:"returned_partial"`
	Returned        CourierStat   `json:"returned"`
}
