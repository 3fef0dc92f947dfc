package report

import (
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// neutralBand is the largest absolute change, in percent, reported as neutral.
const neutralBand = 0.01

// ChangePct returns the change from prev to cur in percent of |prev|.
// It is 100 when prev is zero and cur is not, and 0 when both are zero.
func ChangePct(cur, prev decimal.Decimal) float64 {
	if prev.IsZero() {
		if cur.IsZero() {
			return 0
		}
		return 100
	}
	pct, _ := cur.Sub(prev).Div(prev.Abs()).Mul(hundred).Round(2).Float64()
	return pct
}

func trend(pct float64) entity.Trend {
	switch {
	case pct > neutralBand:
		return entity.TrendIncrease
	case pct < -neutralBand:
		return entity.TrendDecrease
	default:
		return entity.TrendNeutral
	}
}

// Compare builds a metric with its change against the previous period.
func Compare(cur, prev decimal.Decimal) entity.MetricWithComparison {
	pct := ChangePct(cur, prev)
	return entity.MetricWithComparison{
		Value:        cur,
		CompareValue: prev,
		ChangePct:    pct,
		Trend:        trend(pct),
	}
}

func compareInt(cur, prev int) entity.MetricWithComparison {
	return Compare(decimal.NewFromInt(int64(cur)), decimal.NewFromInt(int64(prev)))
}

// ratio returns num / den rounded to two decimals, zero when den is zero.
func ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den).Round(2)
}

// percent returns num / den * 100 rounded to two decimals, zero when den is zero.
func percent(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Mul(hundred).Div(den).Round(2)
}

func percentInt(num, den int) decimal.Decimal {
	return percent(decimal.NewFromInt(int64(num)), decimal.NewFromInt(int64(den)))
}
