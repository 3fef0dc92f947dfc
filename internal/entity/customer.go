package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PhoneKeyLength is the number of trailing characters of a phone number that identify a customer.
const PhoneKeyLength = 11

// PhoneKey returns the customer key of a phone number, the value of the phone_key column:
// its last PhoneKeyLength characters, or the whole number when it is shorter.
func PhoneKey(phone string) string {
	r := []rune(phone)
	if len(r) > PhoneKeyLength {
		r = r[len(r)-PhoneKeyLength:]
	}
	return string(r)
}

// CustomerAggregate is a raw customer group as returned by the store.
type CustomerAggregate struct {
	PhoneKey     string          `db:"phone_key"`
	Name         string          `db:"customer_name"`
	Phone        string          `db:"customer_phone"`
	Email        string          `db:"customer_email"`
	Orders       int             `db:"orders"`
	Attempts     int             `db:"attempts"`
	Revenue      decimal.Decimal `db:"revenue"`
	Profit       decimal.Decimal `db:"profit"`
	Returns      int             `db:"returns"`
	FirstOrderAt time.Time       `db:"first_order_at"`
	LastOrderAt  time.Time       `db:"last_order_at"`
}

type CustomerBadge string

const (
	BadgeVIP     CustomerBadge = "vip"
	BadgeRegular CustomerBadge = "regular"
	BadgeNew     CustomerBadge = "new"
	BadgeAtRisk  CustomerBadge = "at_risk"
)

// CustomerRollup is one customer row of the customer report.
type CustomerRollup struct {
	PhoneKey     string          `json:"phone_key"`
	Name         string          `json:"name"`
	Phone        string          `json:"phone"`
	Email        string          `json:"email"`
	Orders       int             `json:"orders"`
	Attempts     int             `json:"attempts"`
	SuccessRate  decimal.Decimal `json:"success_rate"`
	Revenue      decimal.Decimal `json:"revenue"`
	Profit       decimal.Decimal `json:"profit"`
	Returns      int             `json:"returns"`
	ReturnRate   decimal.Decimal `json:"return_rate"`
	FirstOrderAt time.Time       `json:"first_order_at"`
	LastOrderAt  time.Time       `json:"last_order_at"`
	Badges       []CustomerBadge `json:"badges"`
}

// CustomerTotals are the converted-order totals of customers in a window.
type CustomerTotals struct {
	ActiveCustomers int             `db:"active_customers"`
	Revenue         decimal.Decimal `db:"revenue"`
	Profit          decimal.Decimal `db:"profit"`
	Orders          int             `db:"orders"`
	NewCustomers    int             `db:"-"`
}

// LifetimeCustomers are all-time converted revenue and distinct customers.
type LifetimeCustomers struct {
	Revenue   decimal.Decimal `db:"revenue"`
	Customers int             `db:"customers"`
}

type TopCustomer struct {
	Name   string          `db:"customer_name" json:"name"`
	Profit decimal.Decimal `db:"profit" json:"profit"`
}

type CustomerSummary struct {
	Range           DateRangeSpec        `json:"range"`
	ActiveCustomers MetricWithComparison `json:"active_customers"`
	NewCustomers    MetricWithComparison `json:"new_customers"`
	Revenue         MetricWithComparison `json:"revenue"`
	Profit          MetricWithComparison `json:"profit"`
	Orders          MetricWithComparison `json:"orders"`
	AvgOrderValue   MetricWithComparison `json:"avg_order_value"`
	LifetimeAvgCLTV decimal.Decimal      `json:"lifetime_avg_cltv"`
	TopCustomers    []TopCustomer        `json:"top_customers"`
}
