package report

import (
	"context"
	"fmt"

	"github.com/jekabolt/grbpwr-reports/internal/daterange"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type gradeStep struct {
	bound decimal.Decimal
	grade entity.Grade
}

var (
	deliveredGrades = []gradeStep{
		{decimal.NewFromInt(95), entity.GradeExcellent},
		{decimal.NewFromInt(90), entity.GradeGreat},
		{decimal.NewFromInt(80), entity.GradeGood},
		{decimal.NewFromInt(70), entity.GradeLow},
	}
	returnGrades = []gradeStep{
		{decimal.NewFromInt(3), entity.GradeExcellent},
		{decimal.NewFromInt(6), entity.GradeGreat},
		{decimal.NewFromInt(13), entity.GradeGood},
		{decimal.NewFromInt(20), entity.GradeLow},
	}
)

// DeliveredGrade rates a delivered percentage; higher is better.
func DeliveredGrade(pct decimal.Decimal) entity.Grade {
	for _, s := range deliveredGrades {
		if pct.GreaterThanOrEqual(s.bound) {
			return s.grade
		}
	}
	return entity.GradePoor
}

// ReturnGrade rates a return percentage; lower is better.
func ReturnGrade(pct decimal.Decimal) entity.Grade {
	for _, s := range returnGrades {
		if pct.LessThanOrEqual(s.bound) {
			return s.grade
		}
	}
	return entity.GradePoor
}

func courierStat(count, total, prevCount, prevTotal int, grade func(decimal.Decimal) entity.Grade) entity.CourierStat {
	pct := percentInt(count, total)
	return entity.CourierStat{
		Count:   count,
		Percent: pct,
		Grade:   grade(pct),
		Change:  Compare(pct, percentInt(prevCount, prevTotal)),
	}
}

// BuildCourierSummary grades the courier outcomes of a window against the previous one.
func BuildCourierSummary(cur, prev entity.CourierCounts) entity.CourierSummary {
	total, prevTotal := cur.Total(), prev.Total()
	returned := cur.ReturnedFull + cur.ReturnedPartial
	prevReturned := prev.ReturnedFull + prev.ReturnedPartial
	return entity.CourierSummary{
		Total:           total,
		Delivered:       courierStat(cur.Delivered, total, prev.Delivered, prevTotal, DeliveredGrade),
		ReturnedFull:    courierStat(cur.ReturnedFull, total, prev.ReturnedFull, prevTotal, ReturnGrade),
		ReturnedPartial: courierStat(cur.ReturnedPartial, total, prev.ReturnedPartial, prevTotal, ReturnGrade),
		Returned:        courierStat(returned, total, prevReturned, prevTotal, ReturnGrade),
	}
}

// CourierSummary reports courier outcomes of orders updated inside the range.
func (s *Service) CourierSummary(ctx context.Context, spec entity.DateRangeSpec) (*entity.CourierSummary, error) {
	var cur, prev *entity.CourierCounts
	from, to := daterange.Window(spec.DateRange)
	prevFrom, prevTo := daterange.Window(spec.Previous)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cur, err = s.repo.Reports().CourierCounts(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		prev, err = s.repo.Reports().CourierCounts(gctx, prevFrom, prevTo)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("can't get courier summary: %w", err)
	}

	summary := BuildCourierSummary(*cur, *prev)
	summary.Range = spec
	return &summary, nil
}
