// Package report composes the read-only reports served from the order fact table.
package report

import (
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/dependency"
)

// Service runs the aggregate queries of a report concurrently and combines their results.
type Service struct {
	repo      dependency.Repository
	inventory dependency.InventorySource
	now       func() time.Time
}

var _ dependency.Reporter = (*Service)(nil)

// New creates a new report service.
func New(repo dependency.Repository, inventory dependency.InventorySource) *Service {
	return &Service{
		repo:      repo,
		inventory: inventory,
		now:       time.Now,
	}
}
