package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/shopspring/decimal"
)

type expenseStore struct {
	*MYSQLStore
}

// Expenses returns an object implementing Expenses interface
func (ms *MYSQLStore) Expenses() dependency.Expenses {
	return &expenseStore{
		MYSQLStore: ms,
	}
}

// TotalExpenses sums operating expenses dated between two calendar days, inclusive.
func (ms *expenseStore) TotalExpenses(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0) AS amount
		FROM expense
		WHERE expense_date BETWEEN :from AND :to`
	r, err := QueryNamedOne[amountRow](ctx, ms.DB(), query, map[string]any{
		"from": from.Format(dateLayout),
		"to":   to.Format(dateLayout),
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("can't get total expenses: %w", err)
	}
	return r.Amount, nil
}

func (ms *expenseStore) AddExpense(ctx context.Context, e *entity.Expense) (int, error) {
	var categoryId sql.NullInt32
	if e.CategoryId != nil {
		categoryId = sql.NullInt32{Int32: int32(*e.CategoryId), Valid: true}
	}
	query := `
		INSERT INTO expense (category_id, reason, amount, expense_date)
		VALUES (:categoryId, :reason, :amount, :expenseDate)`
	id, err := ExecNamedLastId(ctx, ms.DB(), query, map[string]any{
		"categoryId":  categoryId,
		"reason":      e.Reason,
		"amount":      e.Amount.Round(2),
		"expenseDate": e.ExpenseDate.Format(dateLayout),
	})
	if err != nil {
		return 0, fmt.Errorf("can't add expense: %w", err)
	}
	return id, nil
}
