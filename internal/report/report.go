package report

import (
	"sort"
	"time"

	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/shopspring/decimal"
)

// Section names
const (
	SectionEntitled        = "Entitled"
	SectionNotEntitled     = "Not Entitled"
	SectionPendingDecision = "Pending Decision"
	SectionCertificates    = "Certificates"
	SectionVacation        = "Vacation"
	SectionLateArrival     = "Late Arrival"
)

// SectionOrder lists the sections in export order
var SectionOrder = []string{
	SectionEntitled,
	SectionNotEntitled,
	SectionPendingDecision,
	SectionCertificates,
	SectionVacation,
	SectionLateArrival,
}

// Section is a named subset of the report rows. Cross-cutting sections may
// overlap the status sections.
type Section struct {
	Name string                   `json:"name"`
	Rows []models.EffectiveResult `json:"rows"`
}

// StatusTotal summarizes one status
type StatusTotal struct {
	Status models.Status   `json:"status"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
	Sites  []string        `json:"sites"`
}

// Summary is the executive overview of a report
type Summary struct {
	Employees   int             `json:"employees"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ByStatus    []StatusTotal   `json:"by_status"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Report is the final dataset handed to the exporter
type Report struct {
	Rows     []models.EffectiveResult `json:"rows"`
	Sections []Section                `json:"sections"`
	Summary  Summary                  `json:"summary"`
}

// Section returns the section with the given name
func (r *Report) Section(name string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Build aggregates rows and partitions them into a report
func (a *Aggregator) Build(rows []models.EffectiveResult, generatedAt time.Time) *Report {
	return Partition(a.Aggregate(rows), generatedAt)
}

// Partition splits already aggregated rows into sections and computes the summary.
// Every section in SectionOrder is present, possibly empty.
func Partition(rows []models.EffectiveResult, generatedAt time.Time) *Report {
	buckets := make(map[string][]models.EffectiveResult, len(SectionOrder))
	for _, row := range rows {
		switch row.Status {
		case models.StatusEntitled:
			buckets[SectionEntitled] = append(buckets[SectionEntitled], row)
		case models.StatusNotEntitled:
			buckets[SectionNotEntitled] = append(buckets[SectionNotEntitled], row)
		case models.StatusPendingDecision:
			buckets[SectionPendingDecision] = append(buckets[SectionPendingDecision], row)
		}
		if row.CertificateDays > 0 {
			buckets[SectionCertificates] = append(buckets[SectionCertificates], row)
		}
		if row.VacationDays.IsPositive() {
			buckets[SectionVacation] = append(buckets[SectionVacation], row)
		}
		if row.LateArrival {
			buckets[SectionLateArrival] = append(buckets[SectionLateArrival], row)
		}
	}

	r := &Report{
		Rows:     rows,
		Sections: make([]Section, 0, len(SectionOrder)),
		Summary:  summarize(rows, generatedAt),
	}
	for _, name := range SectionOrder {
		r.Sections = append(r.Sections, Section{Name: name, Rows: buckets[name]})
	}
	return r
}

func summarize(rows []models.EffectiveResult, generatedAt time.Time) Summary {
	sum := Summary{
		Employees:   len(rows),
		TotalAmount: decimal.Zero,
		GeneratedAt: generatedAt,
	}

	totals := make(map[models.Status]*StatusTotal, len(models.AllStatuses))
	sites := make(map[models.Status]map[string]bool, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		totals[st] = &StatusTotal{Status: st, Amount: decimal.Zero, Sites: []string{}}
		sites[st] = make(map[string]bool)
	}

	for _, row := range rows {
		t, ok := totals[row.Status]
		if !ok {
			continue
		}
		t.Count++
		// only entitled rows are paid; a merged not-entitled row may still carry an amount
		if row.Status == models.StatusEntitled {
			t.Amount = t.Amount.Add(row.Amount)
			sum.TotalAmount = sum.TotalAmount.Add(row.Amount)
		}
		if site := row.Employee.SiteName; site != "" && !sites[row.Status][site] {
			sites[row.Status][site] = true
			t.Sites = append(t.Sites, site)
		}
	}

	for _, st := range models.AllStatuses {
		sort.Strings(totals[st].Sites)
		sum.ByStatus = append(sum.ByStatus, *totals[st])
	}
	return sum
}
