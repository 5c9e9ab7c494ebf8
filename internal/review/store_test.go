package review

import (
	"testing"
	"time"

	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func computed(id int64, name string, status models.Status, amount string, reasons ...string) models.CalculationResult {
	return models.CalculationResult{
		Employee: models.Employee{ID: id, Name: name},
		Status:   status,
		Amount:   decimal.RequireFromString(amount),
		Reasons:  reasons,
	}
}

func newTestStore() *Store {
	return NewStore([]models.CalculationResult{
		computed(101, "Ana Souza", models.StatusEntitled, "315.00"),
		computed(202, "Bruno Lima", models.StatusNotEntitled, "0.00", "salary above limit"),
		computed(303, "Érica Alves", models.StatusPendingDecision, "0.00", "late arrival: pending decision"),
		computed(404, "Carlos Dias", models.StatusEntitled, "157.50", "part-time (50%)"),
	})
}

func TestStore_Apply(t *testing.T) {
	t.Run("override replaces status amount and note", func(t *testing.T) {
		s := newTestStore()
		require.NoError(t, s.Apply(303, models.StatusEntitled, decimal.RequireFromString("315"), "approved by manager"))

		row, ok := s.Effective(303)
		require.True(t, ok)
		assert.True(t, row.Overridden)
		assert.Equal(t, models.StatusEntitled, row.Status)
		assert.Equal(t, "315.00", row.Amount.StringFixed(2))
		assert.Equal(t, "approved by manager", row.Note)

		orig, ok := s.Computed(303)
		require.True(t, ok)
		assert.Equal(t, models.StatusPendingDecision, orig.Status)
		assert.True(t, orig.Amount.IsZero())
	})

	t.Run("idempotent", func(t *testing.T) {
		s := newTestStore()
		first := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return first }
		require.NoError(t, s.Apply(101, models.StatusEntitled, decimal.RequireFromString("200"), "n"))

		s.now = func() time.Time { return first.Add(time.Hour) }
		require.NoError(t, s.Apply(101, models.StatusEntitled, decimal.RequireFromString("200.00"), "n"))

		o, ok := s.Override(101)
		require.True(t, ok)
		assert.Equal(t, first, o.AppliedAt)
		assert.Equal(t, 1, s.OverrideCount())
	})

	t.Run("upsert", func(t *testing.T) {
		s := newTestStore()
		require.NoError(t, s.Apply(101, models.StatusEntitled, decimal.RequireFromString("200"), ""))
		require.NoError(t, s.Apply(101, models.StatusPendingDecision, decimal.Zero, "check"))

		row, _ := s.Effective(101)
		assert.Equal(t, models.StatusPendingDecision, row.Status)
		assert.Equal(t, 1, s.OverrideCount())
	})

	errs := []struct {
		name   string
		id     int64
		status models.Status
		amount string
		want   error
	}{
		{"unknown employee", 999, models.StatusEntitled, "10", ErrUnknownEmployee},
		{"invalid status", 101, models.Status("MAYBE"), "10", ErrInvalidStatus},
		{"negative amount", 101, models.StatusEntitled, "-1", ErrNegativeAmount},
		{"not entitled with amount", 101, models.StatusNotEntitled, "50", ErrInconsistentOverride},
	}
	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			err := s.Apply(tt.id, tt.status, decimal.RequireFromString(tt.amount), "")
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, s.OverrideCount())
		})
	}

	t.Run("not entitled with zero amount accepted", func(t *testing.T) {
		s := newTestStore()
		require.NoError(t, s.Apply(101, models.StatusNotEntitled, decimal.Zero, "dismissed"))
	})
}

func TestStore_Revert(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Apply(101, models.StatusNotEntitled, decimal.Zero, "x"))
	require.NoError(t, s.Apply(202, models.StatusEntitled, decimal.RequireFromString("100"), "y"))

	require.NoError(t, s.Revert(101))
	row, _ := s.Effective(101)
	assert.False(t, row.Overridden)
	assert.Equal(t, models.StatusEntitled, row.Status)

	row, _ = s.Effective(202)
	assert.True(t, row.Overridden)

	assert.ErrorIs(t, s.Revert(999), ErrUnknownEmployee)
}

func TestStore_RevertAllRestoresComputed(t *testing.T) {
	s := newTestStore()
	before := s.EffectiveAll()

	require.NoError(t, s.Apply(101, models.StatusPendingDecision, decimal.Zero, "a"))
	require.NoError(t, s.Apply(202, models.StatusEntitled, decimal.RequireFromString("315"), "b"))
	require.NoError(t, s.Apply(303, models.StatusEntitled, decimal.RequireFromString("120.5"), "c"))

	assert.Equal(t, 3, s.RevertAll())

	for _, want := range before {
		got, ok := s.Effective(want.Employee.ID)
		require.True(t, ok)
		assert.Equal(t, want, got)
		orig, _ := s.Computed(want.Employee.ID)
		assert.Equal(t, orig, got.CalculationResult)
	}
}

func TestStore_EffectiveDoesNotShareReasons(t *testing.T) {
	s := newTestStore()
	row, _ := s.Effective(202)
	row.Reasons[0] = "changed"

	orig, _ := s.Computed(202)
	assert.Equal(t, "salary above limit", orig.Reasons[0])
}

func TestNewStore_FirstResultWins(t *testing.T) {
	s := NewStore([]models.CalculationResult{
		computed(1, "First", models.StatusEntitled, "315"),
		computed(1, "Second", models.StatusNotEntitled, "0"),
	})

	assert.Equal(t, 1, s.Len())
	row, _ := s.Effective(1)
	assert.Equal(t, "First", row.Employee.Name)
}
