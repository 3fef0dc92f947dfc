package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
	"github.com/shopspring/decimal"
)

type adSpendStore struct {
	*MYSQLStore
}

// AdSpend returns an object implementing AdSpend interface
func (ms *MYSQLStore) AdSpend() dependency.AdSpend {
	return &adSpendStore{
		MYSQLStore: ms,
	}
}

type amountRow struct {
	Amount decimal.Decimal `db:"amount"`
}

// TotalSpend sums the spend of active accounts between two calendar days, inclusive.
func (ms *adSpendStore) TotalSpend(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(s.spend_usd * a.usd_to_local_rate), 0) AS amount
		FROM ad_spend_daily s
		JOIN ad_account a ON a.id = s.account_id
		WHERE a.is_active = TRUE
		AND s.report_date BETWEEN :from AND :to`
	r, err := QueryNamedOne[amountRow](ctx, ms.DB(), query, map[string]any{
		"from": from.Format(dateLayout),
		"to":   to.Format(dateLayout),
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("can't get total ad spend: %w", err)
	}
	return r.Amount.Round(2), nil
}

func (ms *adSpendStore) DailySpend(ctx context.Context, from, to time.Time) ([]entity.SpendPoint, error) {
	query := `
		SELECT s.report_date AS day, COALESCE(SUM(s.spend_usd * a.usd_to_local_rate), 0) AS spend
		FROM ad_spend_daily s
		JOIN ad_account a ON a.id = s.account_id
		WHERE a.is_active = TRUE
		AND s.report_date BETWEEN :from AND :to
		GROUP BY s.report_date
		ORDER BY s.report_date`
	points, err := QueryListNamed[entity.SpendPoint](ctx, ms.DB(), query, map[string]any{
		"from": from.Format(dateLayout),
		"to":   to.Format(dateLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("can't get daily ad spend: %w", err)
	}
	return points, nil
}

func (ms *adSpendStore) AddAdAccount(ctx context.Context, acc *entity.AdAccount) (int, error) {
	query := `
		INSERT INTO ad_account (name, external_id, usd_to_local_rate, is_active)
		VALUES (:name, :externalId, :rate, :isActive)`
	id, err := ExecNamedLastId(ctx, ms.DB(), query, map[string]any{
		"name":       acc.Name,
		"externalId": acc.ExternalId,
		"rate":       acc.UsdToLocal,
		"isActive":   acc.IsActive,
	})
	if ms.IsErrUniqueViolation(err) {
		return 0, fmt.Errorf("ad account %q: %w", acc.ExternalId, gerr.AlreadyExists)
	}
	if err != nil {
		return 0, fmt.Errorf("can't add ad account: %w", err)
	}
	return id, nil
}

// UpsertDailySpend writes one row per account and day, replacing reported values.
func (ms *adSpendStore) UpsertDailySpend(ctx context.Context, rows []entity.AdSpendDaily) error {
	if len(rows) == 0 {
		return nil
	}
	query := `
		INSERT INTO ad_spend_daily (account_id, report_date, spend_usd, purchase_value)
		VALUES (:accountId, :reportDate, :spend, :purchaseValue)
		ON DUPLICATE KEY UPDATE spend_usd = VALUES(spend_usd), purchase_value = VALUES(purchase_value)`
	return ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		for _, r := range rows {
			err := ExecNamed(ctx, rep.DB(), query, map[string]any{
				"accountId":     r.AccountId,
				"reportDate":    r.ReportDate.Format(dateLayout),
				"spend":         r.SpendUsd.Round(2),
				"purchaseValue": r.PurchaseValue.Round(2),
			})
			if err != nil {
				return fmt.Errorf("can't upsert ad spend of account %d: %w", r.AccountId, err)
			}
		}
		return nil
	})
}
