package absence

import (
	"github.com/garyjia/basket-allowance/internal/columns"
	"github.com/garyjia/basket-allowance/internal/models"
)

// Canonical tags appended when a condition is detected
const (
	TagCertificate    = "Atestado"
	TagUnexcused      = "Falta não justificada"
	TagLate           = "Atraso"
	TagVacation       = "Férias"
	TagStatutoryLeave = "INSS"
)

// Keywords holds the substrings that signal each absence kind.
// Matching is case- and diacritic-insensitive.
type Keywords struct {
	Certificate    []string `mapstructure:"certificate"`
	Unexcused      []string `mapstructure:"unexcused"`
	Late           []string `mapstructure:"late"`
	Vacation       []string `mapstructure:"vacation"`
	StatutoryLeave []string `mapstructure:"statutory_leave"`
}

// DefaultKeywords returns the keyword set used by the payroll team
func DefaultKeywords() Keywords {
	return Keywords{
		Certificate:    []string{"atestado"},
		Unexcused:      []string{"falta não justificada", "falta injustificada"},
		Late:           []string{"atraso"},
		Vacation:       []string{"férias"},
		StatutoryLeave: []string{"inss", "afastamento previdenciário", "auxílio doença"},
	}
}

// detection order also fixes the order in which canonical tags are appended
type kindRule struct {
	kind     models.AbsenceKind
	tag      string
	keywords []string
}

func (k Keywords) rules() []kindRule {
	return []kindRule{
		{models.AbsenceKindLate, TagLate, k.Late},
		{models.AbsenceKindUnexcused, TagUnexcused, k.Unexcused},
		{models.AbsenceKindCertificate, TagCertificate, k.Certificate},
		{models.AbsenceKindVacation, TagVacation, k.Vacation},
		{models.AbsenceKindStatutoryLeave, TagStatutoryLeave, k.StatutoryLeave},
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if columns.Contains(text, kw) {
			return true
		}
	}
	return false
}
