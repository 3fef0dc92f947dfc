package dependency

import (
	"context"
	"database/sql"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type (
	Facts interface {
		// UpsertFact inserts or fully replaces the fact row of an order together with its lines.
		UpsertFact(ctx context.Context, fact *entity.OrderFact) error
		// UpdateFactStatus writes the classification columns only; a missing row is left missing.
		UpdateFactStatus(ctx context.Context, upd *entity.StatusUpdate) error
		// GetFact returns the fact row of an order with its lines.
		GetFact(ctx context.Context, orderId int64) (*entity.OrderFact, error)
	}

	// Costs resolves the cost basis of products and variations.
	Costs interface {
		UnitCost(ctx context.Context, itemId int64) (decimal.Decimal, bool, error)
		UnitCosts(ctx context.Context, itemIds []int64) (map[int64]decimal.Decimal, error)
		SetUnitCost(ctx context.Context, itemId int64, cost decimal.Decimal) error
	}

	Classification interface {
		// ClassificationConfig reads the current configuration, no caching.
		ClassificationConfig(ctx context.Context) (*entity.ClassificationConfig, error)
		SetClassificationConfig(ctx context.Context, ci *entity.ClassificationInsert) error
	}

	AdSpend interface {
		// TotalSpend is the spend of active accounts converted with each account's rate.
		TotalSpend(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
		DailySpend(ctx context.Context, from, to time.Time) ([]entity.SpendPoint, error)
		AddAdAccount(ctx context.Context, acc *entity.AdAccount) (int, error)
		UpsertDailySpend(ctx context.Context, rows []entity.AdSpendDaily) error
	}

	Expenses interface {
		TotalExpenses(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
		AddExpense(ctx context.Context, e *entity.Expense) (int, error)
	}

	// Reports are read-only aggregate queries over the fact table.
	Reports interface {
		OrderKPI(ctx context.Context, from, to time.Time) (*entity.OrderKPI, error)
		CustomerAggregates(ctx context.Context, from, to time.Time, search string) ([]entity.CustomerAggregate, error)
		CustomerTotals(ctx context.Context, from, to time.Time) (*entity.CustomerTotals, error)
		LifetimeCustomers(ctx context.Context) (*entity.LifetimeCustomers, error)
		TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]entity.TopCustomer, error)
		ProductPerformance(ctx context.Context, from, to time.Time, filter entity.ProductFilter) ([]entity.ProductPerformance, error)
		DailyOrders(ctx context.Context, from, to time.Time) ([]entity.DailyPoint, error)
		SourceCounts(ctx context.Context, from, to time.Time) ([]entity.SourceCount, error)
		CourierCounts(ctx context.Context, from, to time.Time) (*entity.CourierCounts, error)
	}

	Repository interface {
		Facts() Facts
		Costs() Costs
		Classification() Classification
		AdSpend() AdSpend
		Expenses() Expenses
		Reports() Reports
		Tx(ctx context.Context, f func(context.Context, Repository) error) error
		TxBegin(ctx context.Context) (Repository, error)
		TxCommit(ctx context.Context) error
		TxRollback(ctx context.Context) error
		Now() time.Time
		InTx() bool
		Close()
		Ping(ctx context.Context) error
		IsErrUniqueViolation(err error) bool
		IsErrorRepeat(err error) bool
		DB() DB
	}

	// DB represents database interface.
	DB interface {
		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

		// sqlx methods
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
		NamedQuery(query string, arg interface{}) (*sqlx.Rows, error)
		PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
		PreparexContext(ctx context.Context, query string) (*sqlx.Stmt, error)
		QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
		QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}

	// OrderSource looks orders up in the order management system.
	OrderSource interface {
		// LookupOrder returns gerr.OrderNotFound when the order does not exist.
		LookupOrder(ctx context.Context, orderId int64) (*entity.Order, error)
		// ModifiedOrderIds lists orders modified after since.
		ModifiedOrderIds(ctx context.Context, since time.Time) ([]int64, error)
	}

	InventorySource interface {
		InventorySnapshot(ctx context.Context) ([]entity.InventoryItem, error)
		Categories(ctx context.Context) ([]entity.Category, error)
	}

	Ingester interface {
		Ingest(ctx context.Context, orderId int64) error
		UpdateStatus(ctx context.Context, orderId int64, newStatus string) error
	}

	// Reporter serves the dashboard reports of one resolved window.
	Reporter interface {
		KPIBundle(ctx context.Context, spec entity.DateRangeSpec) (*entity.KPIBundle, error)
		CustomerRollup(ctx context.Context, spec entity.DateRangeSpec, search string) ([]entity.CustomerRollup, error)
		CustomerSummary(ctx context.Context, spec entity.DateRangeSpec) (*entity.CustomerSummary, error)
		ProductPerformance(ctx context.Context, spec entity.DateRangeSpec, filter entity.ProductFilter) ([]entity.ProductPerformance, error)
		CategoryRollup(ctx context.Context) (*entity.CategoryReport, error)
		DailySeries(ctx context.Context, spec entity.DateRangeSpec) ([]entity.DailyPoint, error)
		SourceReport(ctx context.Context, spec entity.DateRangeSpec) (*entity.SourceReport, error)
		CourierSummary(ctx context.Context, spec entity.DateRangeSpec) (*entity.CourierSummary, error)
	}
)
