package report

import (
	"context"
	"fmt"

	"github.com/jekabolt/grbpwr-reports/internal/daterange"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ComputeKPI joins the order-derived figures of one window with the external cost terms.
func ComputeKPI(k *entity.OrderKPI, in entity.KPIInputs) entity.KPIValues {
	v := entity.KPIValues{
		TotalOrders:        k.TotalOrders,
		ConvertedOrders:    k.ConvertedOrders,
		NotConvertedOrders: k.NotConvertedOrders,
		CancelledOrders:    k.CancelledOrders,
		DeliveredOrders:    k.DeliveredOrders,
		ReturnedOrders:     k.ReturnedOrders,
		ConvertedItems:     k.ConvertedItems,

		ConversionRate:    percentInt(k.ConvertedOrders, k.TotalOrders),
		NonConversionRate: percentInt(k.NotConvertedOrders, k.TotalOrders),

		Revenue:              k.Revenue,
		Cogs:                 k.Cogs,
		ShippingTotal:        k.ShippingTotal,
		DiscountTotal:        k.DiscountTotal,
		GrossProfit:          k.Revenue.Sub(k.Cogs),
		ConvertedSubtotal:    k.ConvertedSubtotal,
		ConvertedCogs:        k.ConvertedCogs,
		ConvertedGrossProfit: k.ConvertedGrossProfit,

		AdSpend:    in.AdSpend,
		OpExpenses: in.OpExpenses,
	}

	v.AdCostPerOrder = ratio(in.AdSpend, decimal.NewFromInt(int64(k.TotalOrders)))
	v.AdCostPerConverted = ratio(in.AdSpend, decimal.NewFromInt(int64(k.ConvertedOrders)))
	v.ConvertedNetAfterAds = k.ConvertedGrossProfit.Sub(in.AdSpend)

	v.ReturnCost = in.ReturnCharge.Mul(decimal.NewFromInt(int64(k.ReturnedOrders)))
	v.TotalExpenses = in.AdSpend.
		Add(in.OpExpenses).
		Add(v.ReturnCost).
		Add(k.ShippingTotal).
		Add(k.DiscountTotal)
	v.NetProfit = v.GrossProfit.Sub(v.TotalExpenses)

	v.ROAS = ratio(k.Revenue, in.AdSpend)
	v.ROI = percent(v.NetProfit, k.Cogs.Add(v.TotalExpenses))
	v.NetMargin = percent(v.NetProfit, k.Revenue)
	return v
}

func kpiChanges(cur, prev entity.KPIValues) map[string]entity.MetricWithComparison {
	return map[string]entity.MetricWithComparison{
		"total_orders":            compareInt(cur.TotalOrders, prev.TotalOrders),
		"converted_orders":        compareInt(cur.ConvertedOrders, prev.ConvertedOrders),
		"not_converted_orders":    compareInt(cur.NotConvertedOrders, prev.NotConvertedOrders),
		"cancelled_orders":        compareInt(cur.CancelledOrders, prev.CancelledOrders),
		"delivered_orders":        compareInt(cur.DeliveredOrders, prev.DeliveredOrders),
		"returned_orders":         compareInt(cur.ReturnedOrders, prev.ReturnedOrders),
		"converted_items":         compareInt(cur.ConvertedItems, prev.ConvertedItems),
		"conversion_rate":         Compare(cur.ConversionRate, prev.ConversionRate),
		"revenue":                 Compare(cur.Revenue, prev.Revenue),
		"cogs":                    Compare(cur.Cogs, prev.Cogs),
		"shipping_total":          Compare(cur.ShippingTotal, prev.ShippingTotal),
		"discount_total":          Compare(cur.DiscountTotal, prev.DiscountTotal),
		"gross_profit":            Compare(cur.GrossProfit, prev.GrossProfit),
		"converted_subtotal":      Compare(cur.ConvertedSubtotal, prev.ConvertedSubtotal),
		"converted_gross_profit":  Compare(cur.ConvertedGrossProfit, prev.ConvertedGrossProfit),
		"converted_net_after_ads": Compare(cur.ConvertedNetAfterAds, prev.ConvertedNetAfterAds),
		"ad_spend":                Compare(cur.AdSpend, prev.AdSpend),
		"ad_cost_per_order":       Compare(cur.AdCostPerOrder, prev.AdCostPerOrder),
		"ad_cost_per_converted":   Compare(cur.AdCostPerConverted, prev.AdCostPerConverted),
		"op_expenses":             Compare(cur.OpExpenses, prev.OpExpenses),
		"return_cost":             Compare(cur.ReturnCost, prev.ReturnCost),
		"total_expenses":          Compare(cur.TotalExpenses, prev.TotalExpenses),
		"net_profit":              Compare(cur.NetProfit, prev.NetProfit),
		"roas":                    Compare(cur.ROAS, prev.ROAS),
		"roi":                     Compare(cur.ROI, prev.ROI),
		"net_margin":              Compare(cur.NetMargin, prev.NetMargin),
	}
}

type kpiWindow struct {
	kpi     *entity.OrderKPI
	adSpend decimal.Decimal
	opex    decimal.Decimal
}

func (s *Service) kpiWindow(ctx context.Context, g *errgroup.Group, r entity.DateRange, w *kpiWindow) {
	from, to := daterange.Window(r)
	g.Go(func() error {
		kpi, err := s.repo.Reports().OrderKPI(ctx, from, to)
		if err != nil {
			return err
		}
		w.kpi = kpi
		return nil
	})
	g.Go(func() error {
		spend, err := s.repo.AdSpend().TotalSpend(ctx, r.Start, r.End)
		if err != nil {
			return err
		}
		w.adSpend = spend
		return nil
	})
	g.Go(func() error {
		opex, err := s.repo.Expenses().TotalExpenses(ctx, r.Start, r.End)
		if err != nil {
			return err
		}
		w.opex = opex
		return nil
	})
}

// KPIBundle returns the KPI set of the range and of its previous period.
func (s *Service) KPIBundle(ctx context.Context, spec entity.DateRangeSpec) (*entity.KPIBundle, error) {
	var (
		cur, prev kpiWindow
		cfg       *entity.ClassificationConfig
	)
	g, gctx := errgroup.WithContext(ctx)
	s.kpiWindow(gctx, g, spec.DateRange, &cur)
	s.kpiWindow(gctx, g, spec.Previous, &prev)
	g.Go(func() error {
		var err error
		cfg, err = s.repo.Classification().ClassificationConfig(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("can't get kpi bundle: %w", err)
	}

	curValues := ComputeKPI(cur.kpi, entity.KPIInputs{AdSpend: cur.adSpend, OpExpenses: cur.opex, ReturnCharge: cfg.ReturnCharge})
	prevValues := ComputeKPI(prev.kpi, entity.KPIInputs{AdSpend: prev.adSpend, OpExpenses: prev.opex, ReturnCharge: cfg.ReturnCharge})
	return &entity.KPIBundle{
		Range:    spec,
		Current:  curValues,
		Previous: prevValues,
		Changes:  kpiChanges(curValues, prevValues),
	}, nil
}
