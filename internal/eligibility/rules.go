package eligibility

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CertificateScheme selects how certificate days reduce the allowance
type CertificateScheme string

// Certificate schemes. Both have been used by the payroll team; which one is
// authoritative is a configuration decision.
const (
	// SchemeFixed replaces the base amount with a fixed value per day count
	SchemeFixed CertificateScheme = "fixed"
	// SchemePercentage pays a fraction of the base amount per day count
	SchemePercentage CertificateScheme = "percentage"
)

// LatePolicy selects how late arrivals are handled
type LatePolicy string

// Late arrival policies
const (
	// LatePendingDecision zeroes the amount and sends the employee to review
	LatePendingDecision LatePolicy = "pending_decision"
	// LateNeutral records the lateness as a detail without changing the amount
	LateNeutral LatePolicy = "neutral"
)

// Rules parameterizes the calculator
type Rules struct {
	BaseAmount    decimal.Decimal
	SalaryLimit   decimal.Decimal
	AmountCeiling decimal.Decimal
	PeriodDays    int

	PartTimeMaxHours float64
	PartTimeFactor   decimal.Decimal

	CertificateScheme      CertificateScheme
	FixedLadder            map[int]decimal.Decimal // days -> amount
	PercentageLadder       map[int]decimal.Decimal // days -> fraction of base
	CertificateForfeitDays int

	LatePolicy LatePolicy

	// EnforceCategoryClasses makes blocks-payout and requires-decision classes
	// from the known-category table affect the status
	EnforceCategoryClasses bool
}

// DefaultRules returns the rules in force for the current payroll period
func DefaultRules() Rules {
	return Rules{
		BaseAmount:       decimal.RequireFromString("315.00"),
		SalaryLimit:      decimal.RequireFromString("2720.86"),
		AmountCeiling:    decimal.RequireFromString("1000.00"),
		PeriodDays:       30,
		PartTimeMaxHours: 120,
		PartTimeFactor:   decimal.RequireFromString("0.5"),

		CertificateScheme: SchemeFixed,
		FixedLadder: map[int]decimal.Decimal{
			1: decimal.RequireFromString("240.00"),
			2: decimal.RequireFromString("140.00"),
		},
		PercentageLadder: map[int]decimal.Decimal{
			1: decimal.RequireFromString("0.50"),
			2: decimal.RequireFromString("0.25"),
		},
		CertificateForfeitDays: 3,

		LatePolicy: LatePendingDecision,
	}
}

// Validate checks the rules for consistency
func (r Rules) Validate() error {
	if !r.BaseAmount.IsPositive() {
		return fmt.Errorf("%w: base amount must be positive", ErrInvalidRules)
	}
	if !r.SalaryLimit.IsPositive() {
		return fmt.Errorf("%w: salary limit must be positive", ErrInvalidRules)
	}
	if r.AmountCeiling.LessThan(r.BaseAmount) {
		return fmt.Errorf("%w: amount ceiling %s is below base amount %s", ErrInvalidRules, r.AmountCeiling, r.BaseAmount)
	}
	if r.PeriodDays <= 0 {
		return fmt.Errorf("%w: period days must be positive", ErrInvalidRules)
	}
	if !r.PartTimeFactor.IsPositive() || r.PartTimeFactor.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: part-time factor must be in (0, 1]", ErrInvalidRules)
	}
	if r.CertificateForfeitDays < 1 {
		return fmt.Errorf("%w: certificate forfeit days must be at least 1", ErrInvalidRules)
	}
	switch r.LatePolicy {
	case LatePendingDecision, LateNeutral:
	default:
		return fmt.Errorf("%w: unknown late arrival policy %q", ErrInvalidRules, r.LatePolicy)
	}
	switch r.CertificateScheme {
	case SchemeFixed, SchemePercentage:
	default:
		return fmt.Errorf("%w: unknown certificate scheme %q", ErrInvalidRules, r.CertificateScheme)
	}

	// amount(1) > amount(2) > ... > 0
	previous := r.BaseAmount.Add(decimal.NewFromInt(1))
	for days := 1; days < r.CertificateForfeitDays; days++ {
		amount, ok := r.CertificateAmount(days)
		if !ok {
			return fmt.Errorf("%w: %s certificate ladder has no entry for %d day(s)", ErrInvalidRules, r.CertificateScheme, days)
		}
		if !amount.IsPositive() || amount.GreaterThan(r.BaseAmount) {
			return fmt.Errorf("%w: certificate amount for %d day(s) must be in (0, base]", ErrInvalidRules, days)
		}
		if !amount.LessThan(previous) {
			return fmt.Errorf("%w: certificate ladder must decrease with each additional day", ErrInvalidRules)
		}
		previous = amount
	}
	return nil
}

// CertificateAmount returns the allowance for the given number of
// certificate days under the active scheme
func (r Rules) CertificateAmount(days int) (decimal.Decimal, bool) {
	switch r.CertificateScheme {
	case SchemeFixed:
		amount, ok := r.FixedLadder[days]
		return amount.Round(2), ok
	case SchemePercentage:
		fraction, ok := r.PercentageLadder[days]
		return r.BaseAmount.Mul(fraction).Round(2), ok
	}
	return decimal.Zero, false
}
