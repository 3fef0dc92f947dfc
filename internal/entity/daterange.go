package entity

import "time"

// Preset is a named reporting window.
type Preset string

const (
	PresetToday      Preset = "today"
	PresetYesterday  Preset = "yesterday"
	PresetLast7Days  Preset = "last_7_days"
	PresetLast30Days Preset = "last_30_days"
	PresetThisMonth  Preset = "this_month"
	PresetThisYear   Preset = "this_year"
	PresetLifetime   Preset = "lifetime"
	PresetCustom     Preset = "custom"
)

// DateRange is an inclusive pair of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DateRangeSpec is a reporting window and the window of equal length right before it.
type DateRangeSpec struct {
	Preset Preset `json:"preset"`
	DateRange
	Previous DateRange `json:"previous"`
}
