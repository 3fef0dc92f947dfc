package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdAccount is an advertising account whose spend is reported in USD.
type AdAccount struct {
	Id         int             `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	ExternalId string          `db:"external_id" json:"external_id"`
	UsdToLocal decimal.Decimal `db:"usd_to_local_rate" json:"usd_to_local_rate"`
	IsActive   bool            `db:"is_active" json:"is_active"`
}

// AdSpendDaily is the spend of one account on one day.
type AdSpendDaily struct {
	AccountId     int             `db:"account_id" json:"account_id"`
	ReportDate    time.Time       `db:"report_date" json:"report_date"`
	SpendUsd      decimal.Decimal `db:"spend_usd" json:"spend_usd"`
	PurchaseValue decimal.Decimal `db:"purchase_value" json:"purchase_value"`
}

// Expense is an operating expense outside advertising.
type Expense struct {
	Id          int             `db:"id" json:"id"`
	CategoryId  *int            `db:"category_id" json:"category_id,omitempty"`
	Reason      string          `db:"reason" json:"reason"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	ExpenseDate time.Time       `db:"expense_date" json:"expense_date"`
}
