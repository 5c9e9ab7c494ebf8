package report

import (
	"testing"

	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func row(id int64, name string, status models.Status, amount string, reasons ...string) models.EffectiveResult {
	return models.EffectiveResult{
		CalculationResult: models.CalculationResult{
			Employee: models.Employee{ID: id, Name: name, SiteName: "Matriz", MonthlyHours: 220},
			Status:   status,
			Amount:   decimal.RequireFromString(amount),
			Reasons:  reasons,
		},
	}
}

func TestAggregator_Aggregate(t *testing.T) {
	agg := NewAggregator(zap.NewNop())

	t.Run("one row per employee in first appearance order", func(t *testing.T) {
		out := agg.Aggregate([]models.EffectiveResult{
			row(2, "B", models.StatusEntitled, "315"),
			row(1, "A", models.StatusEntitled, "315"),
			row(2, "B", models.StatusEntitled, "315"),
		})

		require.Len(t, out, 2)
		assert.Equal(t, int64(2), out[0].Employee.ID)
		assert.Equal(t, int64(1), out[1].Employee.ID)
	})

	t.Run("pending decision beats entitled and keeps its reason", func(t *testing.T) {
		out := agg.Aggregate([]models.EffectiveResult{
			row(1, "A", models.StatusPendingDecision, "0", "late arrival: pending decision"),
			row(1, "A", models.StatusEntitled, "240", "1 certificate day"),
		})

		require.Len(t, out, 1)
		assert.Equal(t, models.StatusPendingDecision, out[0].Status)
		assert.Equal(t, "240.00", out[0].Amount.StringFixed(2))
		assert.Equal(t, "late arrival: pending decision; 1 certificate day", out[0].ReasonText())
	})

	t.Run("not entitled wins with the maximum amount", func(t *testing.T) {
		out := agg.Aggregate([]models.EffectiveResult{
			row(1, "A", models.StatusNotEntitled, "0", "unexcused absence"),
			row(1, "A", models.StatusEntitled, "315"),
			row(1, "A", models.StatusPendingDecision, "0", "unexcused absence"),
		})

		require.Len(t, out, 1)
		assert.Equal(t, models.StatusNotEntitled, out[0].Status)
		assert.Equal(t, "315.00", out[0].Amount.StringFixed(2))
		assert.Equal(t, []string{"unexcused absence"}, out[0].Reasons)
	})

	t.Run("counters take the maximum and note the first non-empty", func(t *testing.T) {
		first := row(1, "A", models.StatusEntitled, "140")
		first.CertificateDays = 2
		second := row(1, "A", models.StatusEntitled, "315")
		second.Note = "kept"
		second.VacationDays = decimal.NewFromInt(3)
		second.LateArrival = true
		second.LateHours = 0.5
		third := row(1, "A", models.StatusEntitled, "315")
		third.Note = "ignored"

		out := agg.Aggregate([]models.EffectiveResult{first, second, third})

		require.Len(t, out, 1)
		assert.Equal(t, 2, out[0].CertificateDays)
		assert.Equal(t, "3", out[0].VacationDays.String())
		assert.True(t, out[0].LateArrival)
		assert.Equal(t, "kept", out[0].Note)
	})

	t.Run("input rows are not modified", func(t *testing.T) {
		in := []models.EffectiveResult{
			row(1, "A", models.StatusEntitled, "315", "x"),
			row(1, "A", models.StatusEntitled, "315", "y"),
		}
		agg.Aggregate(in)
		assert.Equal(t, []string{"x"}, in[0].Reasons)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, agg.Aggregate(nil))
	})
}

func TestAggregator_LogsIdentityConflicts(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	agg := NewAggregator(zap.New(core))

	out := agg.Aggregate([]models.EffectiveResult{
		row(7, "Maria", models.StatusEntitled, "315"),
		row(7, "Mariana", models.StatusEntitled, "315"),
	})

	require.Len(t, out, 1)
	assert.Equal(t, "Maria", out[0].Employee.Name)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Mariana", logs.All()[0].ContextMap()["dropped_name"])
}
