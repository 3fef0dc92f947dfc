// Package ingest keeps the order fact table in sync with the order management system.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/classify"
	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
)

// Engine recomputes and writes fact rows. An order id is processed at most once at a
// time inside one process; concurrent writers in other processes rely on the store upsert.
type Engine struct {
	repo   dependency.Repository
	source dependency.OrderSource
	now    func() time.Time

	ingesting *inFlight
	updating  *inFlight
}

var _ dependency.Ingester = (*Engine)(nil)

// New creates a new ingestion engine.
func New(repo dependency.Repository, source dependency.OrderSource) *Engine {
	return &Engine{
		repo:      repo,
		source:    source,
		now:       time.Now,
		ingesting: newInFlight(),
		updating:  newInFlight(),
	}
}

// InFlight reports whether the order is being ingested right now.
func (e *Engine) InFlight(orderId int64) bool {
	return e.ingesting.has(orderId)
}

// Ingest fetches the order, recomputes every derived field and upserts the fact row.
// A call for an order that is already being ingested returns nil without writing.
func (e *Engine) Ingest(ctx context.Context, orderId int64) error {
	if !e.ingesting.acquire(orderId) {
		slog.Default().DebugContext(ctx, "order ingestion already in flight",
			slog.Int64("order_id", orderId),
		)
		return nil
	}
	return e.run(ctx, orderId)
}

// run ingests a held order id until no rerun is pending and then releases it.
func (e *Engine) run(ctx context.Context, orderId int64) error {
	held := true
	defer func() {
		if held {
			e.ingesting.release(orderId)
		}
	}()

	for {
		if err := e.ingestOnce(ctx, orderId); err != nil {
			return err
		}
		if e.ingesting.finish(orderId) {
			held = false
			return nil
		}
		slog.Default().DebugContext(ctx, "order status changed while ingesting, running again",
			slog.Int64("order_id", orderId),
		)
	}
}

func (e *Engine) ingestOnce(ctx context.Context, orderId int64) error {
	order, err := e.source.LookupOrder(ctx, orderId)
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't lookup order",
			slog.Int64("order_id", orderId),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("can't lookup order %d: %w", orderId, err)
	}

	cfg, err := e.repo.Classification().ClassificationConfig(ctx)
	if err != nil {
		return fmt.Errorf("can't get classification config: %w", err)
	}

	costs, err := e.repo.Costs().UnitCosts(ctx, itemIds(order))
	if err != nil {
		return fmt.Errorf("can't get unit costs of order %d: %w", orderId, err)
	}

	fact := BuildFact(order, costs, cfg, e.now())
	if err := e.repo.Facts().UpsertFact(ctx, fact); err != nil {
		slog.Default().ErrorContext(ctx, "can't upsert order fact",
			slog.Int64("order_id", orderId),
			slog.String("err", err.Error()),
		)
		return err
	}

	slog.Default().DebugContext(ctx, "order ingested",
		slog.Int64("order_id", orderId),
		slog.String("status", fact.RawStatus),
		slog.String("courier_outcome", string(fact.CourierOutcome)),
	)
	return nil
}

// UpdateStatus writes the new classification of the order and then runs a full Ingest
// to reconcile the remaining fields. Money columns are not touched by the status write.
// When the order is being ingested already, that ingestion runs once more after its
// current pass instead, so it cannot leave a status it read before this call.
func (e *Engine) UpdateStatus(ctx context.Context, orderId int64, newStatus string) error {
	if !e.updating.acquire(orderId) {
		return nil
	}
	defer e.updating.release(orderId)

	cfg, err := e.repo.Classification().ClassificationConfig(ctx)
	if err != nil {
		return fmt.Errorf("can't get classification config: %w", err)
	}

	converted, outcome := classify.Classify(newStatus, cfg)
	err = e.repo.Facts().UpdateFactStatus(ctx, &entity.StatusUpdate{
		OrderId:        orderId,
		RawStatus:      newStatus,
		IsConverted:    converted,
		CourierOutcome: outcome,
		UpdatedAt:      e.now(),
	})
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't update order fact status",
			slog.Int64("order_id", orderId),
			slog.String("status", newStatus),
			slog.String("err", err.Error()),
		)
		return err
	}

	if !e.ingesting.acquireOrRerun(orderId) {
		slog.Default().DebugContext(ctx, "order ingestion in flight, rerun requested",
			slog.Int64("order_id", orderId),
		)
		return nil
	}
	return e.run(ctx, orderId)
}
