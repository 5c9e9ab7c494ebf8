package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the eligibility classification of an employee for the period
type Status string

// Status constants
const (
	StatusEntitled        Status = "ENTITLED"
	StatusNotEntitled     Status = "NOT_ENTITLED"
	StatusPendingDecision Status = "PENDING_DECISION"
)

// AllStatuses lists the closed status set in display order
var AllStatuses = []Status{StatusEntitled, StatusNotEntitled, StatusPendingDecision}

// IsValid checks that the status belongs to the closed set
func (s Status) IsValid() bool {
	switch s {
	case StatusEntitled, StatusNotEntitled, StatusPendingDecision:
		return true
	}
	return false
}

// Label returns the human-readable status name
func (s Status) Label() string {
	switch s {
	case StatusEntitled:
		return "Entitled"
	case StatusNotEntitled:
		return "Not Entitled"
	case StatusPendingDecision:
		return "Pending Decision"
	}
	return string(s)
}

// ParseStatus accepts the status constant or its label, case-insensitively
func ParseStatus(s string) (Status, error) {
	needle := strings.ToUpper(strings.TrimSpace(s))
	needle = strings.ReplaceAll(needle, " ", "_")
	for _, st := range AllStatuses {
		if needle == string(st) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// CalculationResult is the computed allowance of one employee for one run
type CalculationResult struct {
	Employee          Employee        `json:"employee"`
	Status            Status          `json:"status"`
	Amount            decimal.Decimal `json:"amount"`
	Reasons           []string        `json:"reasons"`
	CertificateDays   int             `json:"certificate_days"`
	VacationDays      decimal.Decimal `json:"vacation_days"`
	LateArrival       bool            `json:"late_arrival"`
	LateHours         float64         `json:"late_hours"`
	UnknownCategories []string        `json:"unknown_categories,omitempty"`
}

// ReasonText joins the reasons in application order
func (r CalculationResult) ReasonText() string {
	return strings.Join(r.Reasons, TagSeparator)
}

// Override is a manual correction layered on top of a computed result
type Override struct {
	Status    Status          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
	AppliedAt time.Time       `json:"applied_at"`
}

// Equivalent compares the operator-visible values of two overrides
func (o Override) Equivalent(other Override) bool {
	return o.Status == other.Status && o.Amount.Equal(other.Amount) && o.Note == other.Note
}

// EffectiveResult is the unified read view: the override when present,
// otherwise the computed result
type EffectiveResult struct {
	CalculationResult
	Note       string `json:"note"`
	Overridden bool   `json:"overridden"`
}
