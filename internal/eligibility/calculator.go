// Package eligibility computes the basic-basket allowance of each employee.
package eligibility

import (
	"fmt"

	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reasons recorded on results
const (
	ReasonSalaryAboveLimit = "salary above limit"
	ReasonUnexcused        = "unexcused absence"
	ReasonUnexcusedMarked  = "unexcused absence (marked X)"
	ReasonLatePending      = "late arrival: pending decision"
)

// Calculator applies the eligibility rules to one employee at a time
type Calculator struct {
	rules      Rules
	categories *models.CategoryTable
	logger     *zap.Logger
}

// NewCalculator creates a new Calculator
func NewCalculator(rules Rules, categories *models.CategoryTable, logger *zap.Logger) (*Calculator, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{
		rules:      rules,
		categories: categories,
		logger:     logger,
	}, nil
}

// Rules returns the rules the calculator was built with
func (c *Calculator) Rules() Rules {
	return c.rules
}

// facts are the absence-derived inputs of the rules
type facts struct {
	certificateDays int
	vacationDays    decimal.Decimal
	unexcusedText   bool
	unexcusedMarked bool
	late            bool
	lateHours       float64
	blockingLabel   string
	decisionLabel   string
	unknown         []string
}

func (c *Calculator) collectFacts(absences []models.AbsenceRecord) facts {
	var f facts
	seenUnknown := make(map[string]bool)

	for _, rec := range absences {
		if rec.Has(models.AbsenceKindCertificate) {
			f.certificateDays++
		}
		if rec.Has(models.AbsenceKindVacation) || rec.Has(models.AbsenceKindStatutoryLeave) {
			f.vacationDays = f.vacationDays.Add(decimal.NewFromFloat(rec.DayCount()))
		}
		if rec.Unexcused {
			if rec.MarkedAbsent {
				f.unexcusedMarked = true
			} else {
				f.unexcusedText = true
			}
		}
		if rec.Late {
			f.late = true
			f.lateHours += rec.DurationHours
		}
		for _, tag := range rec.Tags {
			cat, ok := c.categories.Lookup(tag)
			if !ok {
				continue
			}
			switch cat.Class {
			case models.ClassBlocksPayout:
				if f.blockingLabel == "" {
					f.blockingLabel = cat.Label
				}
			case models.ClassRequiresDecision:
				if f.decisionLabel == "" {
					f.decisionLabel = cat.Label
				}
			}
		}
		for _, u := range rec.UnknownTags {
			if !seenUnknown[u] {
				seenUnknown[u] = true
				f.unknown = append(f.unknown, u)
			}
		}
	}
	return f
}

// Compute evaluates the rules for one employee. The admission filter is the
// caller's responsibility (see Run). Malformed absence data never causes a
// failure; it only contributes neutral facts.
func (c *Calculator) Compute(emp models.Employee, absences []models.AbsenceRecord) models.CalculationResult {
	f := c.collectFacts(absences)

	res := models.CalculationResult{
		Employee:          emp,
		Status:            models.StatusEntitled,
		Amount:            c.rules.BaseAmount.Round(2),
		Reasons:           []string{},
		CertificateDays:   f.certificateDays,
		VacationDays:      f.vacationDays,
		LateArrival:       f.late,
		LateHours:         f.lateHours,
		UnknownCategories: f.unknown,
	}

	c.evaluate(&res, emp, f)
	c.applyPartTime(&res, emp)

	if res.Amount.GreaterThan(c.rules.AmountCeiling) {
		res.Amount = c.rules.AmountCeiling
	}
	if res.Amount.IsNegative() {
		res.Amount = decimal.Zero
	}

	c.logger.Debug("Allowance computed",
		zap.Int64("employee_id", emp.ID),
		zap.String("status", string(res.Status)),
		zap.String("amount", res.Amount.StringFixed(2)),
		zap.Int("certificate_days", res.CertificateDays),
		zap.String("reasons", res.ReasonText()))

	return res
}

// evaluate runs the ordered rules up to the first terminal one
func (c *Calculator) evaluate(res *models.CalculationResult, emp models.Employee, f facts) {
	if emp.Salary.GreaterThan(c.rules.SalaryLimit) {
		disqualify(res, ReasonSalaryAboveLimit)
		return
	}

	if f.unexcusedText {
		disqualify(res, ReasonUnexcused)
		return
	}
	if f.unexcusedMarked {
		disqualify(res, ReasonUnexcusedMarked)
		return
	}

	if f.certificateDays >= c.rules.CertificateForfeitDays {
		disqualify(res, fmt.Sprintf("%d certificate days", f.certificateDays))
		return
	}
	if f.certificateDays > 0 {
		amount, _ := c.rules.CertificateAmount(f.certificateDays)
		res.Amount = amount
		res.Reasons = append(res.Reasons, c.certificateReason(f.certificateDays))
	}

	if c.rules.EnforceCategoryClasses {
		if f.blockingLabel != "" {
			disqualify(res, fmt.Sprintf("%s blocks payout", f.blockingLabel))
			return
		}
		if f.decisionLabel != "" {
			hold(res, fmt.Sprintf("%s: pending decision", f.decisionLabel))
			return
		}
	}

	if f.late {
		if c.rules.LatePolicy == LatePendingDecision {
			hold(res, ReasonLatePending)
			return
		}
		res.Reasons = append(res.Reasons, lateDetail(f.lateHours))
	}

	if f.vacationDays.IsPositive() && res.Status == models.StatusEntitled {
		period := decimal.NewFromInt(int64(c.rules.PeriodDays))
		worked := decimal.Max(decimal.Zero, period.Sub(f.vacationDays))
		res.Amount = res.Amount.Mul(worked).Div(period).Round(2)
		res.Reasons = append(res.Reasons, fmt.Sprintf("proportional: %s worked days", worked.String()))
	}
}

// applyPartTime halves the amount for reduced schedules. It runs exactly once,
// after every other rule.
func (c *Calculator) applyPartTime(res *models.CalculationResult, emp models.Employee) {
	if emp.MonthlyHours > c.rules.PartTimeMaxHours || !res.Amount.IsPositive() {
		return
	}
	res.Amount = res.Amount.Mul(c.rules.PartTimeFactor).Round(2)
	res.Reasons = append(res.Reasons, fmt.Sprintf("part-time (%s%%)", c.rules.PartTimeFactor.Shift(2).String()))
}

func (c *Calculator) certificateReason(days int) string {
	label := "certificate days"
	if days == 1 {
		label = "certificate day"
	}
	if c.rules.CertificateScheme == SchemePercentage {
		return fmt.Sprintf("%d %s (%s%% of base)", days, label, c.rules.PercentageLadder[days].Shift(2).String())
	}
	return fmt.Sprintf("%d %s", days, label)
}

func lateDetail(hours float64) string {
	if hours <= 0 {
		return "late arrival"
	}
	return fmt.Sprintf("late arrival (%.2f h)", hours)
}

func disqualify(res *models.CalculationResult, reason string) {
	res.Status = models.StatusNotEntitled
	res.Amount = decimal.Zero
	res.Reasons = append(res.Reasons, reason)
}

func hold(res *models.CalculationResult, reason string) {
	res.Status = models.StatusPendingDecision
	res.Amount = decimal.Zero
	res.Reasons = append(res.Reasons, reason)
}
