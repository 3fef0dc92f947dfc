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

const (
	topCustomersLimit = 5
	atRiskAfter       = 60 * 24 * time.Hour
)

var vipProfit = decimal.NewFromInt(5000)

// Badges returns the badges of a customer. now is used for the inactivity badge.
func Badges(c *entity.CustomerRollup, now time.Time) []entity.CustomerBadge {
	badges := []entity.CustomerBadge{}
	if c.Profit.GreaterThan(vipProfit) {
		badges = append(badges, entity.BadgeVIP)
	}
	switch {
	case c.Orders > 2:
		badges = append(badges, entity.BadgeRegular)
	case c.Orders == 1:
		badges = append(badges, entity.BadgeNew)
	}
	if !c.LastOrderAt.IsZero() && now.Sub(c.LastOrderAt) > atRiskAfter {
		badges = append(badges, entity.BadgeAtRisk)
	}
	return badges
}

// Rollup turns a customer group into a report row.
func Rollup(a entity.CustomerAggregate, now time.Time) entity.CustomerRollup {
	c := entity.CustomerRollup{
		PhoneKey:     a.PhoneKey,
		Name:         a.Name,
		Phone:        a.Phone,
		Email:        a.Email,
		Orders:       a.Orders,
		Attempts:     a.Attempts,
		SuccessRate:  percentInt(a.Orders, a.Attempts),
		Revenue:      a.Revenue,
		Profit:       a.Profit,
		Returns:      a.Returns,
		ReturnRate:   percentInt(a.Returns, a.Orders),
		FirstOrderAt: a.FirstOrderAt,
		LastOrderAt:  a.LastOrderAt,
	}
	c.Badges = Badges(&c, now)
	return c
}

// CustomerRollup returns one row per customer, customers being merged by the trailing
// digits of their phone number.
func (s *Service) CustomerRollup(ctx context.Context, spec entity.DateRangeSpec, search string) ([]entity.CustomerRollup, error) {
	from, to := daterange.Window(spec.DateRange)
	aggs, err := s.repo.Reports().CustomerAggregates(ctx, from, to, search)
	if err != nil {
		return nil, fmt.Errorf("can't get customer rollup: %w", err)
	}
	now := s.now()
	rows := make([]entity.CustomerRollup, 0, len(aggs))
	for _, a := range aggs {
		rows = append(rows, Rollup(a, now))
	}
	return rows, nil
}

// CustomerSummary returns the customer KPIs of the range compared with the previous period.
func (s *Service) CustomerSummary(ctx context.Context, spec entity.DateRangeSpec) (*entity.CustomerSummary, error) {
	var (
		cur, prev *entity.CustomerTotals
		lifetime  *entity.LifetimeCustomers
		top       []entity.TopCustomer
	)
	from, to := daterange.Window(spec.DateRange)
	prevFrom, prevTo := daterange.Window(spec.Previous)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cur, err = s.repo.Reports().CustomerTotals(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		prev, err = s.repo.Reports().CustomerTotals(gctx, prevFrom, prevTo)
		return err
	})
	g.Go(func() error {
		var err error
		lifetime, err = s.repo.Reports().LifetimeCustomers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = s.repo.Reports().TopCustomers(gctx, from, to, topCustomersLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("can't get customer summary: %w", err)
	}
	if top == nil {
		top = []entity.TopCustomer{}
	}

	return &entity.CustomerSummary{
		Range:           spec,
		ActiveCustomers: compareInt(cur.ActiveCustomers, prev.ActiveCustomers),
		NewCustomers:    compareInt(cur.NewCustomers, prev.NewCustomers),
		Revenue:         Compare(cur.Revenue, prev.Revenue),
		Profit:          Compare(cur.Profit, prev.Profit),
		Orders:          compareInt(cur.Orders, prev.Orders),
		AvgOrderValue: Compare(
			ratio(cur.Revenue, decimal.NewFromInt(int64(cur.Orders))),
			ratio(prev.Revenue, decimal.NewFromInt(int64(prev.Orders))),
		),
		LifetimeAvgCLTV: ratio(lifetime.Revenue, decimal.NewFromInt(int64(lifetime.Customers))),
		TopCustomers:    top,
	}, nil
}
