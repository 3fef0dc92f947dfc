package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/shopspring/decimal"
)

type costStore struct {
	*MYSQLStore
}

// Costs returns an object implementing Costs interface
func (ms *MYSQLStore) Costs() dependency.Costs {
	return &costStore{
		MYSQLStore: ms,
	}
}

// UnitCost returns the configured cost of a product or variation.
// The second result is false when no cost is configured.
func (ms *costStore) UnitCost(ctx context.Context, itemId int64) (decimal.Decimal, bool, error) {
	query := `SELECT item_id, cost FROM product_cost WHERE item_id = :itemId`
	pc, err := QueryNamedOne[entity.ProductCost](ctx, ms.DB(), query, map[string]any{"itemId": itemId})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("can't get unit cost: %w", err)
	}
	return pc.Cost, true, nil
}

// UnitCosts returns the configured costs of the given items. Items without a cost are absent from the map.
func (ms *costStore) UnitCosts(ctx context.Context, itemIds []int64) (map[int64]decimal.Decimal, error) {
	costs := make(map[int64]decimal.Decimal, len(itemIds))
	if len(itemIds) == 0 {
		return costs, nil
	}
	query := `SELECT item_id, cost FROM product_cost WHERE item_id IN (:itemIds)`
	rows, err := QueryListNamed[entity.ProductCost](ctx, ms.DB(), query, map[string]any{"itemIds": itemIds})
	if err != nil {
		return nil, fmt.Errorf("can't get unit costs: %w", err)
	}
	for _, r := range rows {
		costs[r.ItemId] = r.Cost
	}
	return costs, nil
}

func (ms *costStore) SetUnitCost(ctx context.Context, itemId int64, cost decimal.Decimal) error {
	query := `
		INSERT INTO product_cost (item_id, cost) VALUES (:itemId, :cost)
		ON DUPLICATE KEY UPDATE cost = VALUES(cost)`
	err := ExecNamed(ctx, ms.DB(), query, map[string]any{
		"itemId": itemId,
		"cost":   cost.Round(2),
	})
	if err != nil {
		return fmt.Errorf("can't set unit cost: %w", err)
	}
	return nil
}
