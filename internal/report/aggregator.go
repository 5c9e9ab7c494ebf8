// Package report merges effective results into one row per employee and
// splits them into the sections of the exported report.
package report

import (
	"github.com/garyjia/basket-allowance/internal/models"
	"go.uber.org/zap"
)

// Aggregator consolidates possibly repeated rows per employee
type Aggregator struct {
	logger *zap.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(logger *zap.Logger) *Aggregator {
	return &Aggregator{
		logger: logger,
	}
}

// Aggregate returns exactly one row per employee id, in order of first appearance.
// Identity = first row; status priority NOT_ENTITLED > PENDING_DECISION > ENTITLED;
// amount = max; reasons = distinct union; note = first non-empty; counters = max.
func (a *Aggregator) Aggregate(rows []models.EffectiveResult) []models.EffectiveResult {
	var order []int64
	groups := make(map[int64]*group)

	for _, row := range rows {
		id := row.Employee.ID
		g, ok := groups[id]
		if !ok {
			g = newGroup(row)
			groups[id] = g
			order = append(order, id)
			continue
		}
		if !g.row.Employee.SameIdentity(row.Employee) {
			a.logger.Warn("Conflicting identity fields for employee, keeping first occurrence",
				zap.Int64("employee_id", id),
				zap.String("kept_name", g.row.Employee.Name),
				zap.String("dropped_name", row.Employee.Name),
				zap.String("kept_site", g.row.Employee.SiteName),
				zap.String("dropped_site", row.Employee.SiteName))
		}
		g.merge(row)
	}

	merged := make([]models.EffectiveResult, 0, len(order))
	for _, id := range order {
		row := groups[id].row
		if row.Status == models.StatusNotEntitled && row.Amount.IsPositive() {
			a.logger.Warn("Merged row is not entitled but carries a positive amount",
				zap.Int64("employee_id", id),
				zap.String("amount", row.Amount.StringFixed(2)))
		}
		merged = append(merged, row)
	}

	if len(merged) != len(rows) {
		a.logger.Info("Aggregated duplicate employee rows",
			zap.Int("rows", len(rows)),
			zap.Int("employees", len(merged)))
	}
	return merged
}

type group struct {
	row         models.EffectiveResult
	seenReasons map[string]bool
	seenUnknown map[string]bool
}

func newGroup(first models.EffectiveResult) *group {
	g := &group{
		row:         first,
		seenReasons: make(map[string]bool),
		seenUnknown: make(map[string]bool),
	}
	g.row.Reasons = nil
	g.row.UnknownCategories = nil
	g.addReasons(first.Reasons)
	g.addUnknown(first.UnknownCategories)
	if g.row.Reasons == nil {
		g.row.Reasons = []string{}
	}
	return g
}

func (g *group) merge(row models.EffectiveResult) {
	g.row.Status = higherPriorityStatus(g.row.Status, row.Status)
	if row.Amount.GreaterThan(g.row.Amount) {
		g.row.Amount = row.Amount
	}
	g.addReasons(row.Reasons)
	g.addUnknown(row.UnknownCategories)

	if g.row.Note == "" {
		g.row.Note = row.Note
	}
	g.row.Overridden = g.row.Overridden || row.Overridden
	g.row.LateArrival = g.row.LateArrival || row.LateArrival
	if row.CertificateDays > g.row.CertificateDays {
		g.row.CertificateDays = row.CertificateDays
	}
	if row.VacationDays.GreaterThan(g.row.VacationDays) {
		g.row.VacationDays = row.VacationDays
	}
	if row.LateHours > g.row.LateHours {
		g.row.LateHours = row.LateHours
	}
}

func (g *group) addReasons(reasons []string) {
	for _, r := range reasons {
		if !g.seenReasons[r] {
			g.seenReasons[r] = true
			g.row.Reasons = append(g.row.Reasons, r)
		}
	}
}

func (g *group) addUnknown(unknown []string) {
	for _, u := range unknown {
		if !g.seenUnknown[u] {
			g.seenUnknown[u] = true
			g.row.UnknownCategories = append(g.row.UnknownCategories, u)
		}
	}
}

var statusPriority = map[models.Status]int{
	models.StatusEntitled:        0,
	models.StatusPendingDecision: 1,
	models.StatusNotEntitled:     2,
}

// higherPriorityStatus returns the status that wins a merge
// Priority: NOT_ENTITLED > PENDING_DECISION > ENTITLED
func higherPriorityStatus(current, next models.Status) models.Status {
	if statusPriority[next] > statusPriority[current] {
		return next
	}
	return current
}
