package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/daterange"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// fillDailyGaps returns one point per calendar day from start to end inclusive,
// zero-filling days without orders and merging the ad spend of each day.
func fillDailyGaps(points []entity.DailyPoint, spend []entity.SpendPoint, start, end time.Time) []entity.DailyPoint {
	pointMap := make(map[string]entity.DailyPoint, len(points))
	for _, p := range points {
		pointMap[p.Date.Format(daterange.DateLayout)] = p
	}
	spendMap := make(map[string]decimal.Decimal, len(spend))
	for _, sp := range spend {
		key := sp.Date.Format(daterange.DateLayout)
		spendMap[key] = spendMap[key].Add(sp.Spend)
	}

	result := make([]entity.DailyPoint, 0)
	for cur := daterange.Day(start); !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		key := cur.Format(daterange.DateLayout)
		p, ok := pointMap[key]
		if !ok {
			p = entity.DailyPoint{Revenue: decimal.Zero, GrossProfit: decimal.Zero}
		}
		p.Date = cur
		p.AdSpend = spendMap[key]
		p.Net = p.GrossProfit.Sub(p.AdSpend)
		result = append(result, p)
	}
	return result
}

// seriesStart moves the start of a lifetime range to the first day with data.
func seriesStart(spec entity.DateRangeSpec, points []entity.DailyPoint, spend []entity.SpendPoint) time.Time {
	if spec.Preset != entity.PresetLifetime {
		return spec.Start
	}
	first := spec.End
	for _, p := range points {
		if d := dayIn(p.Date, spec.End.Location()); d.Before(first) {
			first = d
		}
	}
	for _, sp := range spend {
		if d := dayIn(sp.Date, spec.End.Location()); d.Before(first) {
			first = d
		}
	}
	return first
}

// dayIn reinterprets the calendar date of t in loc.
func dayIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DailySeries returns the per day order and ad spend figures of the range.
func (s *Service) DailySeries(ctx context.Context, spec entity.DateRangeSpec) ([]entity.DailyPoint, error) {
	var (
		points []entity.DailyPoint
		spend  []entity.SpendPoint
	)
	from, to := daterange.Window(spec.DateRange)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		points, err = s.repo.Reports().DailyOrders(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		spend, err = s.repo.AdSpend().DailySpend(gctx, spec.Start, spec.End)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("can't get daily series: %w", err)
	}

	start := seriesStart(spec, points, spend)
	return fillDailyGaps(points, spend, dayIn(start, spec.End.Location()), spec.End), nil
}
