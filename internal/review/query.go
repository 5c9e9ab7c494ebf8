package review

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/garyjia/basket-allowance/internal/columns"
	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/shopspring/decimal"
)

// SortOrder orders listed rows
type SortOrder string

// Sort orders
const (
	SortNone     SortOrder = ""
	SortNameAsc  SortOrder = "name_asc"
	SortNameDesc SortOrder = "name_desc"
	SortIDAsc    SortOrder = "id_asc"
	SortIDDesc   SortOrder = "id_desc"
)

// ParseSortOrder validates a sort order coming from a request
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortNone, SortNameAsc, SortNameDesc, SortIDAsc, SortIDDesc:
		return o, nil
	}
	return SortNone, fmt.Errorf("unknown sort order %q", s)
}

// Query filters and orders the effective view
type Query struct {
	Status models.Status // empty matches every status
	ID     string        // substring of the employee id
	Name   string        // substring of the name, accent and case insensitive
	Sort   SortOrder
}

// Query returns the effective rows matching q
func (s *Store) Query(q Query) []models.EffectiveResult {
	all := s.EffectiveAll()
	idNeedle := strings.TrimSpace(q.ID)
	nameNeedle := strings.TrimSpace(q.Name)

	rows := make([]models.EffectiveResult, 0, len(all))
	for _, row := range all {
		if q.Status != "" && row.Status != q.Status {
			continue
		}
		if idNeedle != "" && !strings.Contains(strconv.FormatInt(row.Employee.ID, 10), idNeedle) {
			continue
		}
		if nameNeedle != "" && !columns.Contains(row.Employee.Name, nameNeedle) {
			continue
		}
		rows = append(rows, row)
	}

	switch q.Sort {
	case SortNameAsc, SortNameDesc:
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := columns.Fold(rows[i].Employee.Name), columns.Fold(rows[j].Employee.Name)
			if q.Sort == SortNameDesc {
				return a > b
			}
			return a < b
		})
	case SortIDAsc, SortIDDesc:
		sort.SliceStable(rows, func(i, j int) bool {
			if q.Sort == SortIDDesc {
				return rows[i].Employee.ID > rows[j].Employee.ID
			}
			return rows[i].Employee.ID < rows[j].Employee.ID
		})
	}
	return rows
}

// Summary holds the review screen metrics
type Summary struct {
	Shown       int                   `json:"shown"`
	Entitled    int                   `json:"entitled"`
	Overridden  int                   `json:"overridden"`
	ByStatus    map[models.Status]int `json:"by_status"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
}

// Summarize computes metrics over the given rows
func Summarize(rows []models.EffectiveResult) Summary {
	sum := Summary{
		Shown:       len(rows),
		ByStatus:    make(map[models.Status]int, len(models.AllStatuses)),
		TotalAmount: decimal.Zero,
	}
	for _, st := range models.AllStatuses {
		sum.ByStatus[st] = 0
	}
	for _, row := range rows {
		sum.ByStatus[row.Status]++
		if row.Status == models.StatusEntitled {
			sum.Entitled++
		}
		if row.Overridden {
			sum.Overridden++
		}
		sum.TotalAmount = sum.TotalAmount.Add(row.Amount)
	}
	return sum
}
