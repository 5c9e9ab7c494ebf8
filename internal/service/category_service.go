package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/garyjia/basket-allowance/internal/columns"
	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/garyjia/basket-allowance/internal/spreadsheet"
	"go.uber.org/zap"
)

// CategoryService maintains the known-category table
type CategoryService struct {
	repo      CategoryRepository
	txManager TransactionManager
	reader    *spreadsheet.Reader
	logger    *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(repo CategoryRepository, txManager TransactionManager, reader *spreadsheet.Reader, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		repo:      repo,
		txManager: txManager,
		reader:    reader,
		logger:    logger,
	}
}

// List returns the stored categories
func (s *CategoryService) List(ctx context.Context) ([]models.KnownCategory, error) {
	return s.repo.List(ctx)
}

// Replace validates categories and swaps the stored table for them. Labels
// that fold to the same key keep the last entry.
func (s *CategoryService) Replace(ctx context.Context, categories []models.KnownCategory) ([]models.KnownCategory, error) {
	if len(categories) == 0 {
		return nil, ErrEmptyCategoryTable
	}

	table := models.NewCategoryTable(columns.Fold)
	for i, c := range categories {
		if err := table.Put(c); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidCategory, i+1, err)
		}
	}
	list := table.List()

	err := s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		return s.repo.ReplaceAll(ctx, tx, list)
	})
	if err != nil {
		s.logger.Error("Failed to replace category table", zap.Error(err))
		return nil, err
	}
	return list, nil
}

// Upload reads a category spreadsheet and replaces the stored table with it
func (s *CategoryService) Upload(ctx context.Context, src io.Reader) ([]models.KnownCategory, []models.RowWarning, error) {
	categories, warnings, err := s.reader.ReadCategoryTable(src)
	if err != nil {
		return nil, warnings, fmt.Errorf("failed to read category table: %w", err)
	}

	list, err := s.Replace(ctx, categories)
	if err != nil {
		return nil, warnings, err
	}

	s.logger.Info("Category table uploaded",
		zap.Int("categories", len(list)),
		zap.Int("row_warnings", len(warnings)))
	return list, warnings, nil
}
