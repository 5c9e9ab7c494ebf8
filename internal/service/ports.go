// Package service wires the calculation engine, review sessions and report
// export into the operations exposed by the HTTP API and the CLI.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/garyjia/basket-allowance/internal/models"
)

// Service errors
var (
	ErrInvalidCategory    = errors.New("invalid known category")
	ErrEmptyCategoryTable = errors.New("category table has no valid rows")
	ErrExportFailed       = errors.New("report export failed")
)

// CategoryRepository persists the known-category table
type CategoryRepository interface {
	List(ctx context.Context) ([]models.KnownCategory, error)
	LoadTable(ctx context.Context) (*models.CategoryTable, error)
	ReplaceAll(ctx context.Context, tx *sql.Tx, categories []models.KnownCategory) error
}

// ExportRepository records exported reports
type ExportRepository interface {
	Create(ctx context.Context, tx *sql.Tx, e *models.ReportExport) error
	List(ctx context.Context, limit int) ([]*models.ReportExport, error)
	GenerateReportNumber(ctx context.Context, now time.Time) (string, error)
}

// TransactionManager runs fn inside a database transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error
}
