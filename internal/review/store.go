// Package review keeps manual corrections layered over computed results for
// the lifetime of a review session.
package review

import (
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/shopspring/decimal"
)

// Store holds the computed results of one run and the overrides applied to
// them. Computed results are never modified; reads merge the override on top.
type Store struct {
	mu        sync.RWMutex
	order     []int64
	computed  map[int64]models.CalculationResult
	overrides map[int64]models.Override
	now       func() time.Time
}

// NewStore creates a store over the given results. When an employee id
// repeats, the first result is kept.
func NewStore(results []models.CalculationResult) *Store {
	s := &Store{
		order:     make([]int64, 0, len(results)),
		computed:  make(map[int64]models.CalculationResult, len(results)),
		overrides: make(map[int64]models.Override),
		now:       time.Now,
	}
	for _, r := range results {
		id := r.Employee.ID
		if _, exists := s.computed[id]; exists {
			continue
		}
		s.order = append(s.order, id)
		s.computed[id] = r
	}
	return s
}

// Apply creates or replaces the override of an employee. Applying the same
// values twice leaves the store unchanged.
func (s *Store) Apply(id int64, status models.Status, amount decimal.Decimal, note string) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeAmount, amount.StringFixed(2))
	}
	if status == models.StatusNotEntitled && amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInconsistentOverride, amount.StringFixed(2))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.computed[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEmployee, id)
	}

	next := models.Override{
		Status: status,
		Amount: amount.Round(2),
		Note:   note,
	}
	if current, ok := s.overrides[id]; ok && current.Equivalent(next) {
		return nil
	}
	next.AppliedAt = s.now()
	s.overrides[id] = next
	return nil
}

// Revert drops the override of a single employee
func (s *Store) Revert(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.computed[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEmployee, id)
	}
	delete(s.overrides, id)
	return nil
}

// RevertAll drops every override and returns how many were removed
func (s *Store) RevertAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.overrides)
	s.overrides = make(map[int64]models.Override)
	return n
}

// Override returns the override of an employee, if any
func (s *Store) Override(id int64) (models.Override, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.overrides[id]
	return o, ok
}

// Computed returns the original result of an employee
func (s *Store) Computed(id int64) (models.CalculationResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.computed[id]
	return r, ok
}

// Effective returns the override merged over the computed result
func (s *Store) Effective(id int64) (models.EffectiveResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.effective(id)
}

// EffectiveAll returns the effective view of every employee in input order
func (s *Store) EffectiveAll() []models.EffectiveResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]models.EffectiveResult, 0, len(s.order))
	for _, id := range s.order {
		row, _ := s.effective(id)
		rows = append(rows, row)
	}
	return rows
}

// Len returns the number of employees in the store
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// OverrideCount returns the number of active overrides
func (s *Store) OverrideCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.overrides)
}

func (s *Store) effective(id int64) (models.EffectiveResult, bool) {
	computed, ok := s.computed[id]
	if !ok {
		return models.EffectiveResult{}, false
	}

	row := models.EffectiveResult{CalculationResult: computed}
	row.Reasons = append([]string(nil), computed.Reasons...)

	if o, ok := s.overrides[id]; ok {
		row.Status = o.Status
		row.Amount = o.Amount
		row.Note = o.Note
		row.Overridden = true
	}
	return row, true
}
