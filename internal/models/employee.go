package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the reference record of one employee for a calculation run
type Employee struct {
	ID             int64           `json:"id"`              // Matrícula
	Name           string          `json:"name"`            // Nome_Funcionario
	Role           string          `json:"role"`            // Cargo
	SiteCode       string          `json:"site_code"`       // Codigo_Local
	SiteName       string          `json:"site_name"`       // Nome_Local
	MonthlyHours   float64         `json:"monthly_hours"`   // Qtd_Horas_Mensais
	ContractType   string          `json:"contract_type"`   // Tipo_Contrato
	ContractEnd    *time.Time      `json:"contract_end"`    // Data_Termino_Contrato
	ExperienceDays int             `json:"experience_days"` // Dias_Experiencia
	Salary         decimal.Decimal `json:"salary"`          // Salario_Mes_Atual
	AdmissionDate  time.Time       `json:"admission_date"`  // Data_Admissao
}

// HasAdmissionDate reports whether the admission date could be parsed
func (e Employee) HasAdmissionDate() bool {
	return !e.AdmissionDate.IsZero()
}

// SameIdentity reports whether two records carry the same identity fields.
// Salary and contract fields are not part of the identity.
func (e Employee) SameIdentity(other Employee) bool {
	return e.ID == other.ID &&
		e.Name == other.Name &&
		e.Role == other.Role &&
		e.SiteName == other.SiteName &&
		e.MonthlyHours == other.MonthlyHours &&
		e.AdmissionDate.Equal(other.AdmissionDate)
}

// RowWarning describes a recoverable per-row data problem found while reading input
type RowWarning struct {
	Source  string `json:"source"` // employees, absences, categories
	Row     int    `json:"row"`    // 1-based spreadsheet row
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}
