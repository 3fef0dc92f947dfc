package report

import (
	"context"
	"fmt"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const uncategorizedName = "Uncategorized"

// BuildCategoryReport rolls the inventory up by category. Items without a category go to
// the Uncategorized bucket, which is only listed when it holds items. Category ids that
// are not in categories are ignored.
func BuildCategoryReport(items []entity.InventoryItem, categories []entity.Category) *entity.CategoryReport {
	rollups := make([]entity.CategoryRollup, 0, len(categories)+1)
	idx := make(map[int64]int, len(categories)+1)
	for _, c := range categories {
		if _, ok := idx[c.Id]; ok || c.Id == entity.UncategorizedId {
			continue
		}
		idx[c.Id] = len(rollups)
		rollups = append(rollups, newRollup(c.Id, c.Name))
	}
	uncategorized := newRollup(entity.UncategorizedId, uncategorizedName)

	kpi := entity.InventoryKPI{
		TotalProducts:   len(items),
		TotalCategories: len(idx),
		SellValue:       decimal.Zero,
		CostValue:       decimal.Zero,
		ExpectedProfit:  decimal.Zero,
	}
	countable := make(map[int64]bool)

	add := func(r *entity.CategoryRollup, it entity.InventoryItem) {
		r.TotalProducts++
		if !it.Countable() {
			return
		}
		qty := decimal.NewFromInt(int64(it.StockQty))
		r.TotalStock += it.StockQty
		r.SellValue = r.SellValue.Add(it.Price.Mul(qty))
		r.CostValue = r.CostValue.Add(it.Cost.Mul(qty))
		countable[r.CategoryId] = true
	}

	for _, it := range items {
		if it.Countable() {
			qty := decimal.NewFromInt(int64(it.StockQty))
			kpi.ManagedStockItems++
			kpi.TotalStock += it.StockQty
			kpi.SellValue = kpi.SellValue.Add(it.Price.Mul(qty))
			kpi.CostValue = kpi.CostValue.Add(it.Cost.Mul(qty))
		}
		if len(it.CategoryIds) == 0 {
			add(&uncategorized, it)
			continue
		}
		for _, id := range it.CategoryIds.Sorted() {
			i, ok := idx[id]
			if !ok {
				continue
			}
			add(&rollups[i], it)
		}
	}
	kpi.ExpectedProfit = kpi.SellValue.Sub(kpi.CostValue)

	if uncategorized.TotalProducts > 0 {
		rollups = append(rollups, uncategorized)
	}
	for i := range rollups {
		r := &rollups[i]
		switch {
		case countable[r.CategoryId]:
			r.ExpectedProfit = r.SellValue.Sub(r.CostValue)
		case r.TotalProducts > 0:
			r.ValueUnavailable = true
		}
	}
	return &entity.CategoryReport{KPI: kpi, Categories: rollups}
}

func newRollup(id int64, name string) entity.CategoryRollup {
	return entity.CategoryRollup{
		CategoryId:     id,
		Name:           name,
		SellValue:      decimal.Zero,
		CostValue:      decimal.Zero,
		ExpectedProfit: decimal.Zero,
	}
}

// CategoryRollup reads the current inventory, overlays the configured unit costs and
// rolls it up by category.
func (s *Service) CategoryRollup(ctx context.Context) (*entity.CategoryReport, error) {
	var (
		items      []entity.InventoryItem
		categories []entity.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.inventory.InventorySnapshot(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.inventory.Categories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("can't get inventory: %w", err)
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Id)
	}
	costs, err := s.repo.Costs().UnitCosts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("can't get inventory costs: %w", err)
	}
	for i := range items {
		if c, ok := costs[items[i].Id]; ok {
			items[i].Cost = c
		}
	}
	return BuildCategoryReport(items, categories), nil
}
