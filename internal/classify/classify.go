// Package classify maps raw order statuses onto conversion and courier outcomes.
package classify

import (
	"strings"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
)

// StatusPrefix is the prefix the order management system puts in front of stored statuses.
const StatusPrefix = "wc-"

// StripPrefix returns the status without the StatusPrefix.
func StripPrefix(status string) string {
	return strings.TrimPrefix(strings.TrimSpace(status), StatusPrefix)
}

// IsConverted reports whether the status is one of the converted statuses.
// An empty set falls back to entity.DefaultConvertedStatus.
func IsConverted(rawStatus string, converted entity.StatusSet) bool {
	status := StripPrefix(rawStatus)
	if len(converted) == 0 {
		return status == entity.DefaultConvertedStatus
	}
	return converted.Has(status)
}

// Courier returns the courier outcome of the status.
// A full return wins over a partial return, which wins over delivered.
func Courier(rawStatus string, cfg *entity.ClassificationConfig) entity.CourierOutcome {
	if cfg == nil {
		return entity.CourierUnclassified
	}
	status := StripPrefix(rawStatus)
	switch {
	case cfg.ReturnedFull.Has(status):
		return entity.CourierReturnedFull
	case cfg.ReturnedPartial.Has(status):
		return entity.CourierReturnedPartial
	case cfg.Delivered.Has(status):
		return entity.CourierDelivered
	default:
		return entity.CourierUnclassified
	}
}

// Classify returns both classifications of the status.
func Classify(rawStatus string, cfg *entity.ClassificationConfig) (bool, entity.CourierOutcome) {
	var converted entity.StatusSet
	if cfg != nil {
		converted = cfg.Converted
	}
	return IsConverted(rawStatus, converted), Courier(rawStatus, cfg)
}

var cancelled = []string{"cancelled", "failed", "refunded", "trash"}

// IsCancelled reports whether the status ends the order without a sale.
func IsCancelled(rawStatus string) bool {
	status := StripPrefix(rawStatus)
	for _, c := range cancelled {
		if status == c {
			return true
		}
	}
	return false
}

// CancelledStatuses lists the cancelled statuses as they may be stored, with and without StatusPrefix.
func CancelledStatuses() []string {
	out := make([]string, 0, 2*len(cancelled))
	for _, c := range cancelled {
		out = append(out, c, StatusPrefix+c)
	}
	return out
}
