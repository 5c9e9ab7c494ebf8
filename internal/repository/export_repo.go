package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExportRepository handles the export history
type ExportRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExportRepository creates a new export repository
func NewExportRepository(db *sql.DB, logger *zap.Logger) *ExportRepository {
	return &ExportRepository{
		db:     db,
		logger: logger,
	}
}

// Create records an export
func (r *ExportRepository) Create(ctx context.Context, tx *sql.Tx, e *models.ReportExport) error {
	query := `
		INSERT INTO report_exports (
			report_number, session_id, cutoff_date, employee_count, entitled_count,
			not_entitled_count, pending_count, override_count, total_amount, file_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := conn(r.db, tx).ExecContext(ctx, query,
		e.ReportNumber,
		e.SessionID,
		e.CutoffDate.Format("2006-01-02"),
		e.EmployeeCount,
		e.EntitledCount,
		e.NotEntitledCount,
		e.PendingCount,
		e.OverrideCount,
		e.TotalAmount.StringFixed(2),
		e.FilePath,
	)
	if err != nil {
		r.logger.Error("Failed to create export record", zap.String("report_number", e.ReportNumber), zap.Error(err))
		return fmt.Errorf("failed to create export record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

const exportColumns = `
	id, report_number, session_id, cutoff_date, employee_count, entitled_count,
	not_entitled_count, pending_count, override_count, total_amount, file_path, created_at
`

// GetByNumber retrieves an export by report number; nil when absent
func (r *ExportRepository) GetByNumber(ctx context.Context, number string) (*models.ReportExport, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+exportColumns+` FROM report_exports WHERE report_number = ?`, number)
	e, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get export", zap.String("report_number", number), zap.Error(err))
		return nil, fmt.Errorf("failed to get export: %w", err)
	}
	return e, nil
}

// List returns the most recent exports first
func (r *ExportRepository) List(ctx context.Context, limit int) ([]*models.ReportExport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+exportColumns+` FROM report_exports ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		r.logger.Error("Failed to list exports", zap.Error(err))
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	var exports []*models.ReportExport
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

// GenerateReportNumber returns the next number for the day of now
func (r *ExportRepository) GenerateReportNumber(ctx context.Context, now time.Time) (string, error) {
	// Format: CB-YYYYMMDD-NNNN (CB = cesta básica)
	prefix := fmt.Sprintf("CB-%s-", now.Format("20060102"))

	query := `
		SELECT report_number
		FROM report_exports
		WHERE report_number LIKE ?
		ORDER BY report_number DESC
		LIMIT 1
	`

	var last string
	err := r.db.QueryRowContext(ctx, query, prefix+"%").Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to read last report number: %w", err)
	}

	sequence := 1
	if last != "" {
		var seq int
		if _, err := fmt.Sscanf(last, prefix+"%d", &seq); err == nil {
			sequence = seq + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, sequence), nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExport(s scanner) (*models.ReportExport, error) {
	var (
		e        models.ReportExport
		cutoff   string
		total    string
		filePath sql.NullString
	)
	if err := s.Scan(
		&e.ID,
		&e.ReportNumber,
		&e.SessionID,
		&cutoff,
		&e.EmployeeCount,
		&e.EntitledCount,
		&e.NotEntitledCount,
		&e.PendingCount,
		&e.OverrideCount,
		&total,
		&filePath,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}

	if t, err := time.Parse("2006-01-02", cutoff[:min(len(cutoff), 10)]); err == nil {
		e.CutoffDate = t
	}
	amount, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("invalid stored total %q: %w", total, err)
	}
	e.TotalAmount = amount
	e.FilePath = filePath.String
	return &e, nil
}
