package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
	"github.com/shopspring/decimal"
)

type factStore struct {
	*MYSQLStore
}

// Facts returns an object implementing Facts interface
func (ms *MYSQLStore) Facts() dependency.Facts {
	return &factStore{
		MYSQLStore: ms,
	}
}

type factRow struct {
	OrderId        int64                 `db:"order_id"`
	CustomerId     sql.NullInt64         `db:"customer_id"`
	CustomerName   string                `db:"customer_name"`
	CustomerPhone  string                `db:"customer_phone"`
	CustomerEmail  string                `db:"customer_email"`
	TotalItems     int                   `db:"total_items"`
	ProductIds     string                `db:"product_ids"`
	VariationIds   string                `db:"variation_ids"`
	CategoryIds    string                `db:"category_ids"`
	Subtotal       decimal.Decimal       `db:"subtotal"`
	GrandTotal     decimal.Decimal       `db:"grand_total"`
	CogsTotal      decimal.Decimal       `db:"cogs_total"`
	DiscountTotal  decimal.Decimal       `db:"discount_total"`
	ShippingCost   decimal.Decimal       `db:"shipping_cost"`
	RawStatus      string                `db:"raw_status"`
	IsConverted    bool                  `db:"is_converted"`
	CourierOutcome entity.CourierOutcome `db:"courier_outcome"`
	GrossProfit    decimal.Decimal       `db:"gross_profit"`
	NetProfit      decimal.Decimal       `db:"net_profit"`
	ProfitMargin   decimal.Decimal       `db:"profit_margin"`
	Source         string                `db:"source"`
	PaymentMethod  string                `db:"payment_method"`
	Notes          string                `db:"notes"`
	OrderCreatedAt time.Time             `db:"order_created_at"`
	UpdatedAt      time.Time             `db:"updated_at"`
}

type factLineRow struct {
	ProductId   int64           `db:"product_id"`
	VariationId int64           `db:"variation_id"`
	Name        string          `db:"name"`
	Quantity    int             `db:"quantity"`
	LineTotal   decimal.Decimal `db:"line_total"`
	UnitCost    decimal.Decimal `db:"unit_cost"`
	CategoryIds string          `db:"category_ids"`
}

// encodeIds stores an id set as a sorted comma separated list.
func encodeIds(s entity.IdSet) string {
	ids := s.Sorted()
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

func decodeIds(s string) (entity.IdSet, error) {
	set := entity.NewIdSet()
	if strings.TrimSpace(s) == "" {
		return set, nil
	}
	for _, p := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", p, err)
		}
		set.Add(id)
	}
	return set, nil
}

func factParams(f *entity.OrderFact) map[string]any {
	var customerId sql.NullInt64
	if f.CustomerId != nil {
		customerId = sql.NullInt64{Int64: *f.CustomerId, Valid: true}
	}
	return map[string]any{
		"orderId":        f.OrderId,
		"customerId":     customerId,
		"customerName":   f.CustomerName,
		"customerPhone":  f.CustomerPhone,
		"customerEmail":  f.CustomerEmail,
		"totalItems":     f.TotalItems,
		"productIds":     encodeIds(f.ProductIds),
		"variationIds":   encodeIds(f.VariationIds),
		"categoryIds":    encodeIds(f.CategoryIds),
		"subtotal":       f.Subtotal.Round(2),
		"grandTotal":     f.GrandTotal.Round(2),
		"cogsTotal":      f.CogsTotal.Round(2),
		"discountTotal":  f.DiscountTotal.Round(2),
		"shippingCost":   f.ShippingCost.Round(2),
		"rawStatus":      f.RawStatus,
		"isConverted":    f.IsConverted,
		"courierOutcome": string(f.CourierOutcome),
		"grossProfit":    f.GrossProfit.Round(2),
		"netProfit":      f.NetProfit.Round(2),
		"profitMargin":   f.ProfitMargin.Round(2),
		"source":         f.Source,
		"paymentMethod":  f.PaymentMethod,
		"notes":          f.Notes,
		"orderCreatedAt": f.OrderCreatedAt,
		"updatedAt":      f.UpdatedAt,
	}
}

// upsertFactQuery relies on the unique key on order_id: concurrent writers of the same
// order end up updating one row. order_created_at keeps the value of the first insert.
const upsertFactQuery = `
	INSERT INTO order_fact (
		order_id, customer_id, customer_name, customer_phone, customer_email,
		total_items, product_ids, variation_ids, category_ids,
		subtotal, grand_total, cogs_total, discount_total, shipping_cost,
		raw_status, is_converted, courier_outcome,
		gross_profit, net_profit, profit_margin,
		source, payment_method, notes,
		order_created_at, updated_at
	) VALUES (
		:orderId, :customerId, :customerName, :customerPhone, :customerEmail,
		:totalItems, :productIds, :variationIds, :categoryIds,
		:subtotal, :grandTotal, :cogsTotal, :discountTotal, :shippingCost,
		:rawStatus, :isConverted, :courierOutcome,
		:grossProfit, :netProfit, :profitMargin,
		:source, :paymentMethod, :notes,
		:orderCreatedAt, :updatedAt
	)
	ON DUPLICATE KEY UPDATE
		customer_id = VALUES(customer_id),
		customer_name = VALUES(customer_name),
		customer_phone = VALUES(customer_phone),
		customer_email = VALUES(customer_email),
		total_items = VALUES(total_items),
		product_ids = VALUES(product_ids),
		variation_ids = VALUES(variation_ids),
		category_ids = VALUES(category_ids),
		subtotal = VALUES(subtotal),
		grand_total = VALUES(grand_total),
		cogs_total = VALUES(cogs_total),
		discount_total = VALUES(discount_total),
		shipping_cost = VALUES(shipping_cost),
		raw_status = VALUES(raw_status),
		is_converted = VALUES(is_converted),
		courier_outcome = VALUES(courier_outcome),
		gross_profit = VALUES(gross_profit),
		net_profit = VALUES(net_profit),
		profit_margin = VALUES(profit_margin),
		source = VALUES(source),
		payment_method = VALUES(payment_method),
		notes = VALUES(notes),
		updated_at = VALUES(updated_at)
`

// UpsertFact inserts the fact row or replaces every column of the existing one,
// and replaces the order lines, in one transaction.
func (ms *factStore) UpsertFact(ctx context.Context, f *entity.OrderFact) error {
	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		if err := ExecNamed(ctx, rep.DB(), upsertFactQuery, factParams(f)); err != nil {
			return fmt.Errorf("can't upsert order fact: %w", err)
		}
		return replaceFactLines(ctx, rep.DB(), f.OrderId, f.Lines)
	})
	if err != nil {
		return fmt.Errorf("order %d: %w: %w", f.OrderId, gerr.StoreWriteFailed, err)
	}
	return nil
}

func replaceFactLines(ctx context.Context, db dependency.DB, orderId int64, lines []entity.FactLine) error {
	query := `DELETE FROM order_fact_line WHERE order_id = :orderId`
	if err := ExecNamed(ctx, db, query, map[string]any{"orderId": orderId}); err != nil {
		return fmt.Errorf("can't delete order fact lines: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, map[string]any{
			"order_id":     orderId,
			"product_id":   l.ProductId,
			"variation_id": l.VariationId,
			"name":         l.Name,
			"quantity":     l.Quantity,
			"line_total":   l.LineTotal.Round(2),
			"unit_cost":    l.UnitCost.Round(2),
			"category_ids": encodeIds(l.CategoryIds),
		})
	}
	if err := BulkInsert(ctx, db, "order_fact_line", rows); err != nil {
		return fmt.Errorf("can't insert order fact lines: %w", err)
	}
	return nil
}

// UpdateFactStatus rewrites the classification of an existing fact row.
// Money columns are left untouched.
func (ms *factStore) UpdateFactStatus(ctx context.Context, upd *entity.StatusUpdate) error {
	query := `
		UPDATE order_fact SET
			raw_status = :rawStatus,
			is_converted = :isConverted,
			courier_outcome = :courierOutcome,
			updated_at = :updatedAt
		WHERE order_id = :orderId`
	err := ExecNamed(ctx, ms.DB(), query, map[string]any{
		"rawStatus":      upd.RawStatus,
		"isConverted":    upd.IsConverted,
		"courierOutcome": string(upd.CourierOutcome),
		"updatedAt":      upd.UpdatedAt,
		"orderId":        upd.OrderId,
	})
	if err != nil {
		return fmt.Errorf("can't update order fact status: %w: %w", gerr.StoreWriteFailed, err)
	}
	return nil
}

// GetFact returns the fact row of the order with its lines.
func (ms *factStore) GetFact(ctx context.Context, orderId int64) (*entity.OrderFact, error) {
	query := `
		SELECT
			order_id, customer_id, customer_name, customer_phone, customer_email,
			total_items, product_ids, variation_ids, category_ids,
			subtotal, grand_total, cogs_total, discount_total, shipping_cost,
			raw_status, is_converted, courier_outcome,
			gross_profit, net_profit, profit_margin,
			source, payment_method, notes,
			order_created_at, updated_at
		FROM order_fact
		WHERE order_id = :orderId`
	row, err := QueryNamedOne[factRow](ctx, ms.DB(), query, map[string]any{"orderId": orderId})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order fact %d: %w", orderId, gerr.OrderNotFound)
		}
		return nil, fmt.Errorf("can't get order fact: %w", err)
	}

	fact, err := row.toEntity()
	if err != nil {
		return nil, err
	}

	query = `
		SELECT product_id, variation_id, name, quantity, line_total, unit_cost, category_ids
		FROM order_fact_line
		WHERE order_id = :orderId
		ORDER BY id`
	lines, err := QueryListNamed[factLineRow](ctx, ms.DB(), query, map[string]any{"orderId": orderId})
	if err != nil {
		return nil, fmt.Errorf("can't get order fact lines: %w", err)
	}
	for _, l := range lines {
		cats, err := decodeIds(l.CategoryIds)
		if err != nil {
			return nil, fmt.Errorf("order fact line categories: %w", err)
		}
		fact.Lines = append(fact.Lines, entity.FactLine{
			ProductId:   l.ProductId,
			VariationId: l.VariationId,
			Name:        l.Name,
			Quantity:    l.Quantity,
			LineTotal:   l.LineTotal,
			UnitCost:    l.UnitCost,
			CategoryIds: cats,
		})
	}
	return fact, nil
}

func (r factRow) toEntity() (*entity.OrderFact, error) {
	productIds, err := decodeIds(r.ProductIds)
	if err != nil {
		return nil, fmt.Errorf("product ids: %w", err)
	}
	variationIds, err := decodeIds(r.VariationIds)
	if err != nil {
		return nil, fmt.Errorf("variation ids: %w", err)
	}
	categoryIds, err := decodeIds(r.CategoryIds)
	if err != nil {
		return nil, fmt.Errorf("category ids: %w", err)
	}
	f := &entity.OrderFact{
		OrderId:        r.OrderId,
		CustomerName:   r.CustomerName,
		CustomerPhone:  r.CustomerPhone,
		CustomerEmail:  r.CustomerEmail,
		TotalItems:     r.TotalItems,
		ProductIds:     productIds,
		VariationIds:   variationIds,
		CategoryIds:    categoryIds,
		Subtotal:       r.Subtotal,
		GrandTotal:     r.GrandTotal,
		CogsTotal:      r.CogsTotal,
		DiscountTotal:  r.DiscountTotal,
		ShippingCost:   r.ShippingCost,
		RawStatus:      r.RawStatus,
		IsConverted:    r.IsConverted,
		CourierOutcome: r.CourierOutcome,
		GrossProfit:    r.GrossProfit,
		NetProfit:      r.NetProfit,
		ProfitMargin:   r.ProfitMargin,
		Source:         r.Source,
		PaymentMethod:  r.PaymentMethod,
		Notes:          r.Notes,
		OrderCreatedAt: r.OrderCreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.CustomerId.Valid {
		id := r.CustomerId.Int64
		f.CustomerId = &id
	}
	return f, nil
}
