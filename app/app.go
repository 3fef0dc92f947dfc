package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jekabolt/grbpwr-reports/config"
	httpapi "github.com/jekabolt/grbpwr-reports/internal/api/http"
	"github.com/jekabolt/grbpwr-reports/internal/auth/jwt"
	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/ingest"
	"github.com/jekabolt/grbpwr-reports/internal/oms"
	"github.com/jekabolt/grbpwr-reports/internal/ratelimit"
	"github.com/jekabolt/grbpwr-reports/internal/report"
	"github.com/jekabolt/grbpwr-reports/internal/resync"
	"github.com/jekabolt/grbpwr-reports/internal/store"
)

// App is the main application
type App struct {
	hs     *httpapi.Server
	db     dependency.Repository
	source *oms.Client
	engine *ingest.Engine
	resync *resync.Worker
	c      *config.Config

	done     chan struct{}
	doneOnce sync.Once
}

// New returns a new instance of App
func New(c *config.Config) *App {
	return &App{
		c:    c,
		done: make(chan struct{}),
	}
}

// setup connects the store and the order management system and builds the ingestion engine.
func (a *App) setup(ctx context.Context) error {
	var err error
	a.db, err = store.New(ctx, a.c.DB)
	if err != nil {
		slog.Default().ErrorContext(ctx, "couldn't connect to mysql",
			slog.String("err", err.Error()),
		)
		return err
	}
	a.source, err = oms.New(&a.c.OMS)
	if err != nil {
		slog.Default().ErrorContext(ctx, "couldn't create oms client",
			slog.String("err", err.Error()),
		)
		return err
	}
	a.engine = ingest.New(a.db, a.source)
	return nil
}

// Start starts the app
func (a *App) Start(ctx context.Context) error {
	slog.Default().InfoContext(ctx, "starting grbpwr reports")

	if err := a.setup(ctx); err != nil {
		return err
	}

	jwtAuth, err := jwt.New(&a.c.Auth)
	if err != nil {
		slog.Default().ErrorContext(ctx, "failed to create jwt auth",
			slog.String("err", err.Error()),
		)
		return err
	}

	reports := report.New(a.db, a.source)
	limiter := ratelimit.NewCustomMultiKeyLimiter(a.c.RateLimit)

	// start API server
	a.hs = httpapi.New(&a.c.HTTP, a.engine, reports, a.db, limiter, jwtAuth)
	if err := a.hs.Start(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "cannot start http server",
			slog.String("err", err.Error()),
		)
		return err
	}
	go func() {
		<-a.hs.Done()
		a.doneOnce.Do(func() { close(a.done) })
	}()

	a.resync = resync.New(&a.c.Resync, a.engine, a.source)
	if err := a.resync.Start(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "cannot start resync worker",
			slog.String("err", err.Error()),
		)
		return err
	}

	return nil
}

// IngestOrders ingests the given orders once, without starting the servers.
func (a *App) IngestOrders(ctx context.Context, ids []int64) error {
	if err := a.setup(ctx); err != nil {
		return err
	}
	defer a.db.Close()

	var errs []error
	for _, id := range ids {
		if err := a.engine.Ingest(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("order %d: %w", id, err))
			continue
		}
		slog.Default().InfoContext(ctx, "ingested order", slog.Int64("order_id", id))
	}
	return errors.Join(errs...)
}

// Stop stops the application and waits for all services to exit
func (a *App) Stop(ctx context.Context) {
	if a.resync != nil {
		if err := a.resync.Stop(); err != nil {
			slog.Default().ErrorContext(ctx, "can't stop resync worker",
				slog.String("err", err.Error()),
			)
		}
	}
	if a.hs != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := a.hs.Stop(shutdownCtx); err != nil {
			slog.Default().ErrorContext(ctx, "can't stop http server",
				slog.String("err", err.Error()),
			)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	a.doneOnce.Do(func() { close(a.done) })
}

// Done returns a channel that is closed after the application has exited
func (a *App) Done() <-chan struct{} {
	return a.done
}
