package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/garyjia/basket-allowance/internal/report"
	"github.com/garyjia/basket-allowance/internal/review"
	"github.com/garyjia/basket-allowance/internal/spreadsheet"
	"github.com/garyjia/basket-allowance/internal/storage"
	"go.uber.org/zap"
)

// ExportResult is a written report workbook and its history record
type ExportResult struct {
	Export   *models.ReportExport `json:"export"`
	Warnings []string             `json:"warnings"`
	Content  []byte               `json:"-"`
}

// FileName returns the download name of the workbook
func (r *ExportResult) FileName() string {
	return r.Export.ReportNumber + ".xlsx"
}

// ExportService aggregates a session into the final report
type ExportService struct {
	sessions   *review.Manager
	aggregator *report.Aggregator
	writer     *spreadsheet.Writer
	storage    storage.ReportStorage
	exports    ExportRepository
	txManager  TransactionManager
	logger     *zap.Logger
	now        func() time.Time

	// mu guards numbering, saving and recording as one step
	mu sync.Mutex
}

// NewExportService creates a new ExportService
func NewExportService(
	sessions *review.Manager,
	aggregator *report.Aggregator,
	writer *spreadsheet.Writer,
	reportStorage storage.ReportStorage,
	exports ExportRepository,
	txManager TransactionManager,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{
		sessions:   sessions,
		aggregator: aggregator,
		writer:     writer,
		storage:    reportStorage,
		exports:    exports,
		txManager:  txManager,
		logger:     logger,
		now:        time.Now,
	}
}

// Export writes the effective view of a session as a workbook, stores it and
// records it in the export history. The session is only read, so a failed
// export can be retried.
func (s *ExportService) Export(ctx context.Context, sessionID string) (*ExportResult, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rep := s.aggregator.Build(sess.Store.EffectiveAll(), now)

	content, warnings, err := s.writer.WriteReport(rep)
	if err != nil {
		s.logger.Error("Failed to write report workbook", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	record, err := s.store(ctx, sess, rep, content, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	number, path := record.ReportNumber, record.FilePath

	for _, w := range warnings {
		s.logger.Warn("Report export warning", zap.String("report_number", number), zap.String("warning", w))
	}
	s.logger.Info("Report exported",
		zap.String("session_id", sessionID),
		zap.String("report_number", number),
		zap.String("file_path", path),
		zap.Int("employees", record.EmployeeCount),
		zap.String("total_amount", record.TotalAmount.StringFixed(2)))

	return &ExportResult{
		Export:   record,
		Warnings: warnings,
		Content:  content,
	}, nil
}

// store numbers the workbook, saves it and records it in the history
func (s *ExportService) store(ctx context.Context, sess *review.Session, rep *report.Report, content []byte, now time.Time) (*models.ReportExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	number, err := s.exports.GenerateReportNumber(ctx, now)
	if err != nil {
		return nil, err
	}

	path, err := s.storage.SaveReport(number, now, content)
	if err != nil {
		s.logger.Error("Failed to save report workbook",
			zap.String("session_id", sess.ID),
			zap.String("report_number", number),
			zap.Error(err))
		return nil, err
	}

	record := newExportRecord(number, sess, rep, path, now)
	err = s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		return s.exports.Create(ctx, tx, record)
	})
	if err != nil {
		s.logger.Error("Failed to record report export",
			zap.String("report_number", number),
			zap.String("file_path", path),
			zap.Error(err))
		return nil, err
	}
	return record, nil
}

// History returns the most recent exports
func (s *ExportService) History(ctx context.Context, limit int) ([]*models.ReportExport, error) {
	return s.exports.List(ctx, limit)
}

func newExportRecord(number string, sess *review.Session, rep *report.Report, path string, now time.Time) *models.ReportExport {
	record := &models.ReportExport{
		ReportNumber:  number,
		SessionID:     sess.ID,
		CutoffDate:    sess.Cutoff,
		EmployeeCount: rep.Summary.Employees,
		OverrideCount: sess.Store.OverrideCount(),
		TotalAmount:   rep.Summary.TotalAmount,
		FilePath:      path,
		CreatedAt:     now,
	}
	for _, st := range rep.Summary.ByStatus {
		switch st.Status {
		case models.StatusEntitled:
			record.EntitledCount = st.Count
		case models.StatusNotEntitled:
			record.NotEntitledCount = st.Count
		case models.StatusPendingDecision:
			record.PendingCount = st.Count
		}
	}
	return record
}
