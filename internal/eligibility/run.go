package eligibility

import (
	"fmt"
	"time"

	"github.com/garyjia/basket-allowance/internal/models"
	"go.uber.org/zap"
)

// Exclusion records why an employee did not take part in a run
type Exclusion struct {
	Employee models.Employee `json:"employee"`
	Reason   string          `json:"reason"`
}

// RunResult is the outcome of a full calculation run
type RunResult struct {
	Results  []models.CalculationResult `json:"results"`
	Excluded []Exclusion                `json:"excluded"`
}

// FilterByAdmission drops employees admitted after the cutoff date and
// employees whose admission date is unknown. Only calendar dates are compared.
func FilterByAdmission(employees []models.Employee, cutoff time.Time) ([]models.Employee, []Exclusion) {
	limit := dateOnly(cutoff)
	included := make([]models.Employee, 0, len(employees))
	var excluded []Exclusion

	for _, emp := range employees {
		switch {
		case !emp.HasAdmissionDate():
			excluded = append(excluded, Exclusion{Employee: emp, Reason: "admission date missing or unparsable"})
		case dateOnly(emp.AdmissionDate).After(limit):
			excluded = append(excluded, Exclusion{
				Employee: emp,
				Reason:   fmt.Sprintf("admitted after %s", limit.Format("02/01/2006")),
			})
		default:
			included = append(included, emp)
		}
	}
	return included, excluded
}

// Run filters employees by admission date and computes one result per
// employee id. Repeated ids keep their first occurrence.
func (c *Calculator) Run(employees []models.Employee, absences []models.AbsenceRecord, cutoff time.Time) RunResult {
	included, excluded := FilterByAdmission(employees, cutoff)

	byEmployee := make(map[int64][]models.AbsenceRecord)
	for _, rec := range absences {
		byEmployee[rec.EmployeeID] = append(byEmployee[rec.EmployeeID], rec)
	}

	result := RunResult{
		Results:  make([]models.CalculationResult, 0, len(included)),
		Excluded: excluded,
	}
	seen := make(map[int64]bool, len(included))

	for _, emp := range included {
		if seen[emp.ID] {
			c.logger.Warn("Duplicate employee id in input, keeping first occurrence",
				zap.Int64("employee_id", emp.ID),
				zap.String("name", emp.Name))
			result.Excluded = append(result.Excluded, Exclusion{Employee: emp, Reason: "duplicate employee id"})
			continue
		}
		seen[emp.ID] = true
		result.Results = append(result.Results, c.Compute(emp, byEmployee[emp.ID]))
	}

	c.logger.Info("Calculation run finished",
		zap.Int("employees", len(employees)),
		zap.Int("computed", len(result.Results)),
		zap.Int("excluded", len(result.Excluded)),
		zap.Time("cutoff", dateOnly(cutoff)))

	return result
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
