package service

import (
	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/garyjia/basket-allowance/internal/review"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SessionView is the review screen of one session
type SessionView struct {
	Session *review.Session          `json:"session"`
	Rows    []models.EffectiveResult `json:"rows"`
	Summary review.Summary           `json:"summary"`
}

// OverrideRequest is a manual correction submitted by the operator
type OverrideRequest struct {
	Status models.Status   `json:"status"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

// ReviewService applies operator corrections to open sessions
type ReviewService struct {
	sessions *review.Manager
	ceiling  decimal.Decimal
	logger   *zap.Logger
}

// NewReviewService creates a new ReviewService. Override amounts are kept
// within [0, ceiling].
func NewReviewService(sessions *review.Manager, ceiling decimal.Decimal, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		sessions: sessions,
		ceiling:  ceiling,
		logger:   logger,
	}
}

// View returns the filtered rows of a session and the metrics over them
func (s *ReviewService) View(sessionID string, q review.Query) (*SessionView, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	rows := sess.Store.Query(q)
	return &SessionView{
		Session: sess,
		Rows:    rows,
		Summary: review.Summarize(rows),
	}, nil
}

// ApplyOverride stores a correction for one employee and returns the
// resulting effective row
func (s *ReviewService) ApplyOverride(sessionID string, employeeID int64, req OverrideRequest) (models.EffectiveResult, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return models.EffectiveResult{}, err
	}

	amount := s.clamp(req.Status, req.Amount)
	if !amount.Equal(req.Amount) {
		s.logger.Info("Override amount adjusted",
			zap.String("session_id", sessionID),
			zap.Int64("employee_id", employeeID),
			zap.String("status", string(req.Status)),
			zap.String("requested", req.Amount.StringFixed(2)),
			zap.String("stored", amount.StringFixed(2)))
	}

	if err := sess.Store.Apply(employeeID, req.Status, amount, req.Note); err != nil {
		s.logger.Warn("Override rejected",
			zap.String("session_id", sessionID),
			zap.Int64("employee_id", employeeID),
			zap.Error(err))
		return models.EffectiveResult{}, err
	}

	row, _ := sess.Store.Effective(employeeID)
	s.logger.Info("Override applied",
		zap.String("session_id", sessionID),
		zap.Int64("employee_id", employeeID),
		zap.String("status", string(row.Status)),
		zap.String("amount", row.Amount.StringFixed(2)))
	return row, nil
}

// Revert drops the correction of one employee
func (s *ReviewService) Revert(sessionID string, employeeID int64) (models.EffectiveResult, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return models.EffectiveResult{}, err
	}
	if err := sess.Store.Revert(employeeID); err != nil {
		return models.EffectiveResult{}, err
	}
	row, _ := sess.Store.Effective(employeeID)
	s.logger.Info("Override reverted",
		zap.String("session_id", sessionID),
		zap.Int64("employee_id", employeeID))
	return row, nil
}

// RevertAll drops every correction of a session
func (s *ReviewService) RevertAll(sessionID string) (int, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return 0, err
	}
	n := sess.Store.RevertAll()
	s.logger.Info("All overrides reverted",
		zap.String("session_id", sessionID),
		zap.Int("removed", n))
	return n, nil
}

// Close discards a session
func (s *ReviewService) Close(sessionID string) error {
	return s.sessions.Close(sessionID)
}

// clamp keeps amounts inside [0, ceiling]; not-entitled rows never pay
func (s *ReviewService) clamp(status models.Status, amount decimal.Decimal) decimal.Decimal {
	if status == models.StatusNotEntitled || amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(s.ceiling) {
		return s.ceiling
	}
	return amount
}

// Sessions lists the open sessions, newest first
func (s *ReviewService) Sessions() []*review.Session {
	return s.sessions.List()
}
