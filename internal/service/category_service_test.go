package service

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/garyjia/basket-allowance/internal/spreadsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCategoryService_Replace(t *testing.T) {
	repo := &mockCategoryRepo{}
	tx := &mockTxManager{}
	svc := NewCategoryService(repo, tx, spreadsheet.NewReader(zap.NewNop()), zap.NewNop())

	t.Run("folded duplicates keep the last entry", func(t *testing.T) {
		list, err := svc.Replace(context.Background(), []models.KnownCategory{
			{Label: "Atestado Médico", Class: models.ClassNeutral},
			{Label: "atestado medico", Class: models.ClassBlocksPayout},
			{Label: "Atraso", Class: models.ClassRequiresDecision},
		})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, 1, repo.replaced)
		assert.Equal(t, 1, tx.calls)

		stored, err := svc.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, list, stored)
		for _, c := range stored {
			if c.Label == "atestado medico" {
				assert.Equal(t, models.ClassBlocksPayout, c.Class)
			}
		}
	})

	t.Run("invalid class", func(t *testing.T) {
		_, err := svc.Replace(context.Background(), []models.KnownCategory{{Label: "Atraso", Class: "sometimes"}})
		assert.ErrorIs(t, err, ErrInvalidCategory)
	})

	t.Run("empty label", func(t *testing.T) {
		_, err := svc.Replace(context.Background(), []models.KnownCategory{{Label: " ", Class: models.ClassNeutral}})
		assert.ErrorIs(t, err, ErrInvalidCategory)
	})

	t.Run("empty table", func(t *testing.T) {
		_, err := svc.Replace(context.Background(), nil)
		assert.ErrorIs(t, err, ErrEmptyCategoryTable)
	})

	t.Run("repository failure", func(t *testing.T) {
		failing := NewCategoryService(&mockCategoryRepo{replaceErr: errors.New("readonly database")}, tx, nil, zap.NewNop())
		_, err := failing.Replace(context.Background(), []models.KnownCategory{{Label: "Atraso", Class: models.ClassNeutral}})
		assert.ErrorContains(t, err, "readonly database")
	})
}

func TestCategoryService_Upload(t *testing.T) {
	repo := &mockCategoryRepo{}
	svc := NewCategoryService(repo, &mockTxManager{}, spreadsheet.NewReader(zap.NewNop()), zap.NewNop())

	src := workbook(t,
		[]interface{}{"tipo de afastamento", "Direito Pagamento"},
		[]interface{}{"Atestado Médico", "Não Tem Direito"},
		[]interface{}{"Atraso", "Aguardando Decisão"},
		[]interface{}{"", "Tem Direito"},
	)

	list, warnings, err := svc.Upload(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Len(t, warnings, 1)
	assert.Equal(t, list, repo.categories)

	_, _, err = svc.Upload(context.Background(), workbook(t))
	assert.ErrorIs(t, err, spreadsheet.ErrEmptySheet)
}
