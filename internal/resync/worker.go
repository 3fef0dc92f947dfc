package resync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
)

func (w *Worker) worker(ctx context.Context) {
	ticker := time.NewTicker(w.c.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Sync(ctx); err != nil {
				slog.Default().ErrorContext(ctx, "can't resync modified orders",
					slog.String("err", err.Error()),
				)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Sync ingests every order modified since the last successful run. The first run
// starts Lookback before its start and fixes that point as the mark. The mark only
// advances when every order was ingested, so failed orders are picked up again by
// the next run. Orders that no longer exist in the source are skipped and do not
// hold the mark back.
func (w *Worker) Sync(ctx context.Context) error {
	started := w.now()

	w.mu.Lock()
	if w.last.IsZero() {
		w.last = started.Add(-w.c.Lookback)
	}
	since := w.last
	w.mu.Unlock()

	ids, err := w.source.ModifiedOrderIds(ctx, since)
	if err != nil {
		return fmt.Errorf("can't get modified orders: %w", err)
	}

	failed, gone := 0, 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := w.ingester.Ingest(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, gerr.OrderNotFound):
			gone++
			slog.Default().WarnContext(ctx, "modified order no longer exists, skipping",
				slog.Int64("order_id", id),
			)
		default:
			failed++
			slog.Default().ErrorContext(ctx, "can't resync order",
				slog.String("err", err.Error()),
				slog.Int64("order_id", id),
			)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d orders failed to resync", failed, len(ids))
	}

	w.mu.Lock()
	w.last = started
	w.mu.Unlock()

	slog.Default().InfoContext(ctx, "resynced modified orders",
		slog.Int("count", len(ids)-gone),
		slog.Int("skipped", gone),
		slog.Time("since", since),
	)
	return nil
}
