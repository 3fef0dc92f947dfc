// Package daterange resolves reporting windows and their comparison windows.
package daterange

import (
	"fmt"
	"strings"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
)

// DateLayout is the layout of explicit bounds.
const DateLayout = "2006-01-02"

// lifetimeYear is the first year covered by the lifetime preset.
const lifetimeYear = 1970

// Day truncates t to the start of its calendar day in t's location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Days returns the inclusive number of calendar days in r.
// A reversed range yields a non-positive count.
func Days(r entity.DateRange) int {
	start, end := Day(r.Start), Day(r.End)
	// calendar arithmetic in UTC keeps DST transitions out of the count
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours()/24) + 1
}

// Previous returns the window of the same length ending the day before r starts.
func Previous(r entity.DateRange) entity.DateRange {
	end := Day(r.Start).AddDate(0, 0, -1)
	days := Days(r)
	if days < 1 {
		days = 1
	}
	return entity.DateRange{
		Start: end.AddDate(0, 0, -(days - 1)),
		End:   end,
	}
}

// Window returns the first and the last second covered by r.
func Window(r entity.DateRange) (from, to time.Time) {
	from = Day(r.Start)
	end := Day(r.End)
	to = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())
	return from, to
}

// ParsePreset parses a preset name. Unknown and empty names resolve to today.
func ParsePreset(s string) entity.Preset {
	p := entity.Preset(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case entity.PresetToday, entity.PresetYesterday, entity.PresetLast7Days, entity.PresetLast30Days,
		entity.PresetThisMonth, entity.PresetThisYear, entity.PresetLifetime, entity.PresetCustom:
		return p
	}
	return entity.PresetToday
}

// ParseDate parses an explicit bound in loc. An empty string yields nil.
func ParseDate(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("can't parse date %q: %w", s, gerr.BadRequest)
	}
	return &t, nil
}

// Resolve turns a preset or explicit bounds into a DateRangeSpec relative to now.
// Explicit bounds win over the preset when both are given. Bounds with start after
// end are returned as given together with an error wrapping gerr.InvalidDateRange.
func Resolve(preset entity.Preset, start, end *time.Time, now time.Time) (entity.DateRangeSpec, error) {
	if start != nil && end != nil {
		r := entity.DateRange{Start: Day(*start), End: Day(*end)}
		spec := entity.DateRangeSpec{
			Preset:    entity.PresetCustom,
			DateRange: r,
			Previous:  Previous(r),
		}
		if r.Start.After(r.End) {
			return spec, fmt.Errorf("%s > %s: %w", r.Start.Format(DateLayout), r.End.Format(DateLayout), gerr.InvalidDateRange)
		}
		return spec, nil
	}

	today := Day(now)
	if preset == entity.PresetCustom || preset == "" {
		preset = entity.PresetToday
	}

	var r entity.DateRange
	switch preset {
	case entity.PresetYesterday:
		y := today.AddDate(0, 0, -1)
		r = entity.DateRange{Start: y, End: y}
	case entity.PresetLast7Days:
		r = entity.DateRange{Start: today.AddDate(0, 0, -6), End: today}
	case entity.PresetLast30Days:
		r = entity.DateRange{Start: today.AddDate(0, 0, -29), End: today}
	case entity.PresetThisMonth:
		r = entity.DateRange{Start: time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()), End: today}
	case entity.PresetThisYear:
		r = entity.DateRange{Start: time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location()), End: today}
	case entity.PresetLifetime:
		r = entity.DateRange{Start: time.Date(lifetimeYear, time.January, 1, 0, 0, 0, 0, today.Location()), End: today}
	default:
		preset = entity.PresetToday
		r = entity.DateRange{Start: today, End: today}
	}

	return entity.DateRangeSpec{
		Preset:    preset,
		DateRange: r,
		Previous:  Previous(r),
	}, nil
}
