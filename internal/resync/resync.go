package resync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/dependency"
)

// Config holds configuration for the resync worker.
type Config struct {
	WorkerInterval time.Duration `mapstructure:"worker_interval"`
	Lookback       time.Duration `mapstructure:"lookback"` // window of the first run
}

// DefaultConfig returns default configuration values.
func DefaultConfig() Config {
	return Config{
		WorkerInterval: 10 * time.Minute,
		Lookback:       24 * time.Hour,
	}
}

// Worker re-ingests orders modified in the order management system since its last
// successful run, catching status changes whose webhook never arrived.
type Worker struct {
	ingester dependency.Ingester
	source   dependency.OrderSource
	c        *Config
	now      func() time.Time

	mu   sync.Mutex
	last time.Time

	ctx  context.Context
	stop context.CancelFunc
}

// New creates a new resync worker.
func New(c *Config, ingester dependency.Ingester, source dependency.OrderSource) *Worker {
	if c == nil {
		dc := DefaultConfig()
		c = &dc
	}
	if c.WorkerInterval == 0 {
		c.WorkerInterval = 10 * time.Minute
	}
	if c.Lookback == 0 {
		c.Lookback = 24 * time.Hour
	}
	return &Worker{
		ingester: ingester,
		source:   source,
		c:        c,
		now:      time.Now,
	}
}

// Start starts the worker.
func (w *Worker) Start(ctx context.Context) error {
	if w.ctx != nil && w.stop != nil {
		return fmt.Errorf("resync worker already started")
	}
	w.ctx, w.stop = context.WithCancel(ctx)
	go w.worker(w.ctx)
	return nil
}

// Stop stops the worker gracefully.
func (w *Worker) Stop() error {
	if w.stop == nil {
		return fmt.Errorf("resync worker already stopped or not started")
	}
	w.stop()
	w.stop = nil
	return nil
}
