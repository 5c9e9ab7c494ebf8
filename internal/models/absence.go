package models

import "strings"

// AbsenceKind is a normalized absence category detected in free text
type AbsenceKind string

// Absence kinds recognized by the normalizer
const (
	AbsenceKindCertificate    AbsenceKind = "certificate"
	AbsenceKindUnexcused      AbsenceKind = "unexcused"
	AbsenceKindLate           AbsenceKind = "late"
	AbsenceKindVacation       AbsenceKind = "vacation"
	AbsenceKindStatutoryLeave AbsenceKind = "statutory_leave"
)

// Separators used when joining tag lists
const (
	TagSeparator     = "; "
	UnknownSeparator = ";"
)

// RawAbsence is one absence row as read from the absences spreadsheet
type RawAbsence struct {
	Row             int     `json:"row"`
	EmployeeID      int64   `json:"employee_id"`      // Matrícula
	CostCenter      string  `json:"cost_center"`      // Centro de Custo
	FullDayText     string  `json:"full_day_text"`    // Ausência Integral
	PartialText     string  `json:"partial_text"`     // Ausência Parcial
	Marker          string  `json:"marker"`           // Falta
	TerminationDate string  `json:"termination_date"` // Data de Demissão
	Category        string  `json:"category"`         // Afastamentos
	Duration        string  `json:"duration"`         // HH:MM
	Days            float64 `json:"days"`             // explicit day count, 0 when absent
}

// AbsenceRecord is a RawAbsence enriched by the normalizer
type AbsenceRecord struct {
	RawAbsence
	Kinds         map[AbsenceKind]bool `json:"kinds"`
	MarkedAbsent  bool                 `json:"marked_absent"`
	Unexcused     bool                 `json:"unexcused"`
	Late          bool                 `json:"late"`
	DurationHours float64              `json:"duration_hours"`
	Tags          []string             `json:"tags"`
	UnknownTags   []string             `json:"unknown_tags"`
}

// Has reports whether the record was classified with the given kind
func (r AbsenceRecord) Has(kind AbsenceKind) bool {
	return r.Kinds[kind]
}

// TagsText returns the tag list joined for display
func (r AbsenceRecord) TagsText() string {
	return strings.Join(r.Tags, TagSeparator)
}

// UnknownText returns the unknown tags joined for display
func (r AbsenceRecord) UnknownText() string {
	return strings.Join(r.UnknownTags, UnknownSeparator)
}

// DayCount returns the number of absence days this row represents
func (r AbsenceRecord) DayCount() float64 {
	if r.Days > 0 {
		return r.Days
	}
	return 1
}

// UnknownCategoryWarning is surfaced to the operator when a row carries tags
// missing from the known-category table
type UnknownCategoryWarning struct {
	Row        int    `json:"row"`
	EmployeeID int64  `json:"employee_id"`
	Unknown    string `json:"unknown"`
}
