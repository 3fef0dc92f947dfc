package report

import (
	"context"
	"fmt"

	"github.com/jekabolt/grbpwr-reports/internal/daterange"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
)

// ProductPerformance returns per item sold, delivered and returned figures of the range.
func (s *Service) ProductPerformance(ctx context.Context, spec entity.DateRangeSpec, filter entity.ProductFilter) ([]entity.ProductPerformance, error) {
	from, to := daterange.Window(spec.DateRange)
	rows, err := s.repo.Reports().ProductPerformance(ctx, from, to, filter)
	if err != nil {
		return nil, fmt.Errorf("can't get product performance: %w", err)
	}
	if rows == nil {
		rows = []entity.ProductPerformance{}
	}
	for i := range rows {
		rows[i].DeliveredPercent = percentInt(rows[i].DeliveredQty, rows[i].SoldQty)
		rows[i].ReturnedPercent = percentInt(rows[i].ReturnedQty, rows[i].SoldQty)
	}
	return rows, nil
}
