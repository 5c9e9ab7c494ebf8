package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/basket-allowance/internal/models"
	"go.uber.org/zap"
)

// CategoryRepository handles the known-category table
type CategoryRepository struct {
	db     *sql.DB
	fold   func(string) string
	logger *zap.Logger
}

// NewCategoryRepository creates a new category repository. fold computes the
// unique key of a label.
func NewCategoryRepository(db *sql.DB, fold func(string) string, logger *zap.Logger) *CategoryRepository {
	return &CategoryRepository{
		db:     db,
		fold:   fold,
		logger: logger,
	}
}

// List returns all categories ordered by label
func (r *CategoryRepository) List(ctx context.Context) ([]models.KnownCategory, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT label, class FROM absence_categories ORDER BY label`)
	if err != nil {
		r.logger.Error("Failed to list categories", zap.Error(err))
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.KnownCategory
	for rows.Next() {
		var c models.KnownCategory
		if err := rows.Scan(&c.Label, &c.Class); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// LoadTable returns the persisted categories as a lookup table
func (r *CategoryRepository) LoadTable(ctx context.Context) (*models.CategoryTable, error) {
	categories, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return models.NewCategoryTable(r.fold, categories...), nil
}

// Upsert inserts or updates one category, matching on the folded label
func (r *CategoryRepository) Upsert(ctx context.Context, tx *sql.Tx, c models.KnownCategory) error {
	if !c.Class.IsValid() {
		return fmt.Errorf("invalid eligibility class %q", c.Class)
	}
	key := r.fold(c.Label)
	if key == "" {
		return fmt.Errorf("category label is empty")
	}

	query := `
		INSERT INTO absence_categories (label, label_key, class)
		VALUES (?, ?, ?)
		ON CONFLICT(label_key) DO UPDATE SET
			label = excluded.label,
			class = excluded.class,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := conn(r.db, tx).ExecContext(ctx, query, c.Label, key, c.Class); err != nil {
		r.logger.Error("Failed to upsert category", zap.String("label", c.Label), zap.Error(err))
		return fmt.Errorf("failed to upsert category: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole table for categories. Must run in tx so a failed
// upload leaves the previous table in place.
func (r *CategoryRepository) ReplaceAll(ctx context.Context, tx *sql.Tx, categories []models.KnownCategory) error {
	if tx == nil {
		return fmt.Errorf("replacing categories requires a transaction")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM absence_categories`); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}
	for _, c := range categories {
		if err := r.Upsert(ctx, tx, c); err != nil {
			return err
		}
	}

	r.logger.Info("Category table replaced", zap.Int("categories", len(categories)))
	return nil
}
