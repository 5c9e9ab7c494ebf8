package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/garyjia/basket-allowance/internal/absence"
	"github.com/garyjia/basket-allowance/internal/eligibility"
	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/garyjia/basket-allowance/internal/review"
	"github.com/garyjia/basket-allowance/internal/spreadsheet"
	"go.uber.org/zap"
)

// Outcome is a finished calculation run with everything the operator should
// look at before approving it
type Outcome struct {
	Cutoff            time.Time                       `json:"cutoff"`
	Results           []models.CalculationResult      `json:"results"`
	Excluded          []eligibility.Exclusion         `json:"excluded"`
	RowWarnings       []models.RowWarning             `json:"row_warnings"`
	UnknownCategories []models.UnknownCategoryWarning `json:"unknown_categories"`
}

// CalculationService turns uploaded spreadsheets into review sessions
type CalculationService struct {
	reader     *spreadsheet.Reader
	categories CategoryRepository
	rules      eligibility.Rules
	keywords   absence.Keywords
	sessions   *review.Manager
	logger     *zap.Logger
}

// NewCalculationService creates a new CalculationService
func NewCalculationService(
	reader *spreadsheet.Reader,
	categories CategoryRepository,
	rules eligibility.Rules,
	keywords absence.Keywords,
	sessions *review.Manager,
	logger *zap.Logger,
) *CalculationService {
	return &CalculationService{
		reader:     reader,
		categories: categories,
		rules:      rules,
		keywords:   keywords,
		sessions:   sessions,
		logger:     logger,
	}
}

// Calculate reads both spreadsheets and runs the eligibility rules against the
// current known-category table. Shape errors in either file abort the run.
func (s *CalculationService) Calculate(ctx context.Context, employees, absences io.Reader, cutoff time.Time) (*Outcome, error) {
	emps, empWarnings, err := s.reader.ReadEmployees(employees)
	if err != nil {
		return nil, fmt.Errorf("failed to read employees: %w", err)
	}
	raws, absWarnings, err := s.reader.ReadAbsences(absences)
	if err != nil {
		return nil, fmt.Errorf("failed to read absences: %w", err)
	}

	table, err := s.categories.LoadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load known categories: %w", err)
	}

	normalized := absence.NewNormalizer(table, s.keywords, s.logger).Normalize(raws)

	calc, err := eligibility.NewCalculator(s.rules, table, s.logger)
	if err != nil {
		return nil, err
	}
	run := calc.Run(emps, normalized.Records, cutoff)

	outcome := &Outcome{
		Cutoff:            cutoff,
		Results:           run.Results,
		Excluded:          run.Excluded,
		RowWarnings:       append(empWarnings, absWarnings...),
		UnknownCategories: normalized.Warnings,
	}

	s.logger.Info("Calculation run finished",
		zap.Time("cutoff", cutoff),
		zap.Int("employees", len(emps)),
		zap.Int("absence_rows", len(raws)),
		zap.Int("results", len(run.Results)),
		zap.Int("excluded", len(run.Excluded)),
		zap.Int("row_warnings", len(outcome.RowWarnings)),
		zap.Int("unknown_categories", len(outcome.UnknownCategories)))
	return outcome, nil
}

// StartSession calculates and opens a review session over the results
func (s *CalculationService) StartSession(ctx context.Context, employees, absences io.Reader, cutoff time.Time) (*review.Session, error) {
	outcome, err := s.Calculate(ctx, employees, absences, cutoff)
	if err != nil {
		return nil, err
	}
	return s.sessions.Open(&review.Session{
		Cutoff:            outcome.Cutoff,
		Store:             review.NewStore(outcome.Results),
		Excluded:          outcome.Excluded,
		RowWarnings:       outcome.RowWarnings,
		UnknownCategories: outcome.UnknownCategories,
	}), nil
}
