package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportExport is the history record of one exported report
type ReportExport struct {
	ID               int64           `json:"id"`
	ReportNumber     string          `json:"report_number"` // CB-YYYYMMDD-NNNN
	SessionID        string          `json:"session_id"`
	CutoffDate       time.Time       `json:"cutoff_date"`
	EmployeeCount    int             `json:"employee_count"`
	EntitledCount    int             `json:"entitled_count"`
	NotEntitledCount int             `json:"not_entitled_count"`
	PendingCount     int             `json:"pending_count"`
	OverrideCount    int             `json:"override_count"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	FilePath         string          `json:"file_path,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
