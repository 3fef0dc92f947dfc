package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-reports/internal/classify"
	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
)

const dateLayout = "2006-01-02"

type reportStore struct {
	*MYSQLStore
}

// Reports returns an object implementing Reports interface
func (ms *MYSQLStore) Reports() dependency.Reports {
	return &reportStore{
		MYSQLStore: ms,
	}
}

func windowParams(from, to time.Time) map[string]any {
	return map[string]any{"from": from, "to": to}
}

// likePattern escapes LIKE wildcards of a free text search.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(search)) + "%"
}

// OrderKPI returns the order counts and money sums of orders created inside the window.
func (ms *reportStore) OrderKPI(ctx context.Context, from, to time.Time) (*entity.OrderKPI, error) {
	query := `
		SELECT
			COUNT(*) AS total_orders,
			COALESCE(SUM(is_converted = TRUE), 0) AS converted_orders,
			COALESCE(SUM(is_converted = FALSE), 0) AS not_converted_orders,
			COALESCE(SUM(raw_status IN (:cancelled)), 0) AS cancelled_orders,
			COALESCE(SUM(courier_outcome = 'delivered'), 0) AS delivered_orders,
			COALESCE(SUM(courier_outcome IN ('returned_full', 'returned_partial')), 0) AS returned_orders,
			COALESCE(SUM(CASE WHEN is_converted THEN total_items ELSE 0 END), 0) AS converted_items,
			COALESCE(SUM(grand_total), 0) AS revenue,
			COALESCE(SUM(cogs_total), 0) AS cogs,
			COALESCE(SUM(shipping_cost), 0) AS shipping_total,
			COALESCE(SUM(discount_total), 0) AS discount_total,
			COALESCE(SUM(CASE WHEN is_converted THEN subtotal ELSE 0 END), 0) AS converted_subtotal,
			COALESCE(SUM(CASE WHEN is_converted THEN cogs_total ELSE 0 END), 0) AS converted_cogs,
			COALESCE(SUM(CASE WHEN is_converted THEN gross_profit ELSE 0 END), 0) AS converted_gross_profit,
			COALESCE(SUM(CASE WHEN is_converted THEN net_profit ELSE 0 END), 0) AS converted_net_profit
		FROM order_fact
		WHERE order_created_at BETWEEN :from AND :to`
	params := windowParams(from, to)
	params["cancelled"] = classify.CancelledStatuses()
	kpi, err := QueryNamedOne[entity.OrderKPI](ctx, ms.DB(), query, params)
	if err != nil {
		return nil, fmt.Errorf("can't get order kpi: %w", err)
	}
	return &kpi, nil
}

// CustomerAggregates groups orders with a phone number by the last characters of the phone.
// The search matches the representative name, phone or email of a group, or its phone key,
// so a number searched with a country prefix finds the group stored without one.
func (ms *reportStore) CustomerAggregates(ctx context.Context, from, to time.Time, search string) ([]entity.CustomerAggregate, error) {
	query := `
		SELECT
			phone_key,
			MAX(customer_name) AS customer_name,
			MAX(customer_phone) AS customer_phone,
			MAX(customer_email) AS customer_email,
			COALESCE(SUM(is_converted = TRUE), 0) AS orders,
			COUNT(*) AS attempts,
			COALESCE(SUM(CASE WHEN is_converted THEN grand_total ELSE 0 END), 0) AS revenue,
			COALESCE(SUM(CASE WHEN is_converted THEN net_profit ELSE 0 END), 0) AS profit,
			COALESCE(SUM(courier_outcome IN ('returned_full', 'returned_partial')), 0) AS returns,
			MIN(order_created_at) AS first_order_at,
			MAX(order_created_at) AS last_order_at
		FROM order_fact
		WHERE order_created_at BETWEEN :from AND :to
		AND customer_phone <> ''
		GROUP BY phone_key
		HAVING :search = ''
			OR customer_name LIKE :like
			OR customer_phone LIKE :like
			OR customer_email LIKE :like
			OR phone_key = :phoneKey
		ORDER BY orders DESC, phone_key`
	params := windowParams(from, to)
	params["search"] = strings.TrimSpace(search)
	params["like"] = likePattern(search)
	params["phoneKey"] = entity.PhoneKey(strings.TrimSpace(search))
	rows, err := QueryListNamed[entity.CustomerAggregate](ctx, ms.DB(), query, params)
	if err != nil {
		return nil, fmt.Errorf("can't get customer aggregates: %w", err)
	}
	return rows, nil
}

// CustomerTotals sums the converted orders of the window and counts new customers,
// those whose first converted order falls inside the window.
func (ms *reportStore) CustomerTotals(ctx context.Context, from, to time.Time) (*entity.CustomerTotals, error) {
	query := `
		SELECT
			COUNT(DISTINCT NULLIF(phone_key, '')) AS active_customers,
			COALESCE(SUM(grand_total), 0) AS revenue,
			COALESCE(SUM(net_profit), 0) AS profit,
			COUNT(*) AS orders
		FROM order_fact
		WHERE is_converted = TRUE
		AND order_created_at BETWEEN :from AND :to`
	totals, err := QueryNamedOne[entity.CustomerTotals](ctx, ms.DB(), query, windowParams(from, to))
	if err != nil {
		return nil, fmt.Errorf("can't get customer totals: %w", err)
	}

	query = `
		SELECT COUNT(*) FROM (
			SELECT phone_key
			FROM order_fact
			WHERE is_converted = TRUE AND customer_phone <> ''
			GROUP BY phone_key
			HAVING MIN(order_created_at) BETWEEN :from AND :to
		) AS first_orders`
	newCustomers, err := QueryCountNamed(ctx, ms.DB(), query, windowParams(from, to))
	if err != nil {
		return nil, fmt.Errorf("can't count new customers: %w", err)
	}
	totals.NewCustomers = int(newCustomers)
	return &totals, nil
}

// LifetimeCustomers returns all-time converted revenue and the number of distinct customers.
func (ms *reportStore) LifetimeCustomers(ctx context.Context) (*entity.LifetimeCustomers, error) {
	query := `
		SELECT
			COALESCE(SUM(grand_total), 0) AS revenue,
			COUNT(DISTINCT NULLIF(phone_key, '')) AS customers
		FROM order_fact
		WHERE is_converted = TRUE`
	lc, err := QueryNamedOne[entity.LifetimeCustomers](ctx, ms.DB(), query, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("can't get lifetime customers: %w", err)
	}
	return &lc, nil
}

func (ms *reportStore) TopCustomers(ctx context.Context, from, to time.Time, limit int) ([]entity.TopCustomer, error) {
	query := `
		SELECT MAX(customer_name) AS customer_name, COALESCE(SUM(net_profit), 0) AS profit
		FROM order_fact
		WHERE is_converted = TRUE
		AND customer_phone <> ''
		AND order_created_at BETWEEN :from AND :to
		GROUP BY phone_key
		ORDER BY profit DESC, phone_key
		LIMIT :limit`
	params := windowParams(from, to)
	params["limit"] = limit
	top, err := QueryListNamed[entity.TopCustomer](ctx, ms.DB(), query, params)
	if err != nil {
		return nil, fmt.Errorf("can't get top customers: %w", err)
	}
	return top, nil
}

// productLine is one order line with the outcome of its order.
type productLine struct {
	ItemId         int64                 `db:"item_id"`
	ProductId      int64                 `db:"product_id"`
	VariationId    int64                 `db:"variation_id"`
	Name           string                `db:"name"`
	Quantity       int                   `db:"quantity"`
	LineTotal      decimal.Decimal       `db:"line_total"`
	UnitCost       decimal.Decimal       `db:"unit_cost"`
	CourierOutcome entity.CourierOutcome `db:"courier_outcome"`
}

// ProductPerformance aggregates the lines of orders created inside the window by item.
func (ms *reportStore) ProductPerformance(ctx context.Context, from, to time.Time, filter entity.ProductFilter) ([]entity.ProductPerformance, error) {
	query := `
		SELECT
			l.item_id,
			l.product_id,
			l.variation_id,
			l.name,
			l.quantity,
			l.line_total,
			l.unit_cost,
			f.courier_outcome
		FROM order_fact_line l
		JOIN order_fact f ON f.order_id = l.order_id
		WHERE f.order_created_at BETWEEN :from AND :to
		AND (:search = '' OR l.name LIKE :like)
		AND (:categoryId = 0 OR FIND_IN_SET(:categoryId, l.category_ids) > 0)`
	params := windowParams(from, to)
	params["search"] = strings.TrimSpace(filter.Search)
	params["like"] = likePattern(filter.Search)
	params["categoryId"] = filter.CategoryId
	lines, err := QueryListNamed[productLine](ctx, ms.DB(), query, params)
	if err != nil {
		return nil, fmt.Errorf("can't get product performance: %w", err)
	}
	return aggregateProducts(lines), nil
}

// aggregateProducts sums lines by item. Every line counts as sold. Delivered and
// returned quantities follow the courier outcome of the order; lines of unclassified
// orders are in neither. Money columns only count delivered lines.
// Rows are ordered by sold quantity, then item id.
func aggregateProducts(lines []productLine) []entity.ProductPerformance {
	byItem := make(map[int64]*entity.ProductPerformance)
	for _, l := range lines {
		p, ok := byItem[l.ItemId]
		if !ok {
			p = &entity.ProductPerformance{
				ItemId:       l.ItemId,
				SellingTotal: decimal.Zero,
				CostTotal:    decimal.Zero,
				Profit:       decimal.Zero,
			}
			byItem[l.ItemId] = p
		}
		p.ProductId = max(p.ProductId, l.ProductId)
		p.VariationId = max(p.VariationId, l.VariationId)
		p.Name = max(p.Name, l.Name)
		p.SoldQty += l.Quantity

		switch {
		case l.CourierOutcome == entity.CourierDelivered:
			cost := l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
			p.DeliveredQty += l.Quantity
			p.SellingTotal = p.SellingTotal.Add(l.LineTotal)
			p.CostTotal = p.CostTotal.Add(cost)
			p.Profit = p.Profit.Add(l.LineTotal.Sub(cost))
		case l.CourierOutcome.IsReturned():
			p.ReturnedQty += l.Quantity
		}
	}

	out := make([]entity.ProductPerformance, 0, len(byItem))
	for _, p := range byItem {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SoldQty != out[j].SoldQty {
			return out[i].SoldQty > out[j].SoldQty
		}
		return out[i].ItemId < out[j].ItemId
	})
	return out
}

// DailyOrders buckets orders by calendar day of creation in the zone of from.
// order_created_at is UTC, so the day is taken after shifting it by the zone offset
// in effect at from. Days without orders are absent.
func (ms *reportStore) DailyOrders(ctx context.Context, from, to time.Time) ([]entity.DailyPoint, error) {
	query := `
		SELECT
			DATE(CONVERT_TZ(order_created_at, :utc, :tz)) AS day,
			COUNT(*) AS orders,
			COALESCE(SUM(is_converted = TRUE), 0) AS converted_orders,
			COALESCE(SUM(grand_total), 0) AS revenue,
			COALESCE(SUM(CASE WHEN is_converted THEN gross_profit ELSE 0 END), 0) AS gross_profit
		FROM order_fact
		WHERE order_created_at BETWEEN :from AND :to
		GROUP BY day
		ORDER BY day`
	params := windowParams(from, to)
	params["utc"] = "+00:00"
	params["tz"] = zoneOffset(from)
	points, err := QueryListNamed[entity.DailyPoint](ctx, ms.DB(), query, params)
	if err != nil {
		return nil, fmt.Errorf("can't get daily orders: %w", err)
	}
	return points, nil
}

// zoneOffset formats the UTC offset of t as CONVERT_TZ expects it, e.g. +06:00.
func zoneOffset(t time.Time) string {
	_, off := t.Zone()
	sign := '+'
	if off < 0 {
		sign, off = '-', -off
	}
	return fmt.Sprintf("%c%02d:%02d", sign, off/3600, off%3600/60)
}

func (ms *reportStore) SourceCounts(ctx context.Context, from, to time.Time) ([]entity.SourceCount, error) {
	query := `
		SELECT source, COUNT(*) AS orders
		FROM order_fact
		WHERE order_created_at BETWEEN :from AND :to
		GROUP BY source
		ORDER BY orders DESC, source`
	counts, err := QueryListNamed[entity.SourceCount](ctx, ms.DB(), query, windowParams(from, to))
	if err != nil {
		return nil, fmt.Errorf("can't get source counts: %w", err)
	}
	return counts, nil
}

// CourierCounts counts classified outcomes of orders updated inside the window.
func (ms *reportStore) CourierCounts(ctx context.Context, from, to time.Time) (*entity.CourierCounts, error) {
	query := `
		SELECT
			COALESCE(SUM(courier_outcome = 'delivered'), 0) AS delivered,
			COALESCE(SUM(courier_outcome = 'returned_full'), 0) AS returned_full,
			COALESCE(SUM(courier_outcome = 'returned_partial'), 0) AS returned_partial
		FROM order_fact
		WHERE courier_outcome <> 'unclassified'
		AND updated_at BETWEEN :from AND :to`
	cc, err := QueryNamedOne[entity.CourierCounts](ctx, ms.DB(), query, windowParams(from, to))
	if err != nil {
		return nil, fmt.Errorf("can't get courier counts: %w", err)
	}
	return &cc, nil
}
