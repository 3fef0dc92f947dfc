package entity

import "github.com/shopspring/decimal"

// StatusSet is a set of source status codes without the "wc-" prefix.
type StatusSet map[string]struct{}

func NewStatusSet(statuses ...string) StatusSet {
	s := make(StatusSet, len(statuses))
	for _, st := range statuses {
		s[st] = struct{}{}
	}
	return s
}

func (s StatusSet) Has(status string) bool {
	_, ok := s[status]
	return ok
}

// ClassificationGroup names the status group a configured status code belongs to.
type ClassificationGroup string

const (
	GroupConverted       ClassificationGroup = "converted"
	GroupDelivered       ClassificationGroup = "delivered"
	GroupReturnedFull    ClassificationGroup = "returned_full"
	GroupReturnedPartial ClassificationGroup = "returned_partial"
)

func (g ClassificationGroup) Valid() bool {
	switch g {
	case GroupConverted, GroupDelivered, GroupReturnedFull, GroupReturnedPartial:
		return true
	}
	return false
}

// DefaultConvertedStatus is used when no converted status is configured.
const DefaultConvertedStatus = "completed"

// ClassificationConfig is the admin-configured mapping of source statuses.
type ClassificationConfig struct {
	Converted       StatusSet
	Delivered       StatusSet
	ReturnedFull    StatusSet
	ReturnedPartial StatusSet
	// ReturnCharge is the fixed cost charged by the courier per returned order.
	ReturnCharge decimal.Decimal
}

// ClassificationStatus is one stored (status, group) pair.
type ClassificationStatus struct {
	Status string              `db:"status" json:"status"`
	Group  ClassificationGroup `db:"status_group" json:"group"`
}

// ClassificationInsert replaces the whole classification configuration.
type ClassificationInsert struct {
	Converted       []string        `json:"converted"`
	Delivered       []string        `json:"delivered"`
	ReturnedFull    []string        `json:"returned_full"`
	ReturnedPartial []string        `json:"returned_partial"`
	ReturnCharge    decimal.Decimal `json:"return_charge"`
}
