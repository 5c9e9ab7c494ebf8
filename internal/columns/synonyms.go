package columns

import (
	"fmt"
	"strings"
)

// Field identifies a logical input column
type Field string

// Employee sheet fields
const (
	FieldEmployeeID     Field = "employee_id"
	FieldEmployeeName   Field = "employee_name"
	FieldRole           Field = "role"
	FieldSiteCode       Field = "site_code"
	FieldSiteName       Field = "site_name"
	FieldMonthlyHours   Field = "monthly_hours"
	FieldContractType   Field = "contract_type"
	FieldContractEnd    Field = "contract_end"
	FieldExperienceDays Field = "experience_days"
	FieldSalary         Field = "salary"
	FieldAdmissionDate  Field = "admission_date"
)

// Absence sheet fields
const (
	FieldCostCenter      Field = "cost_center"
	FieldFullDayAbsence  Field = "full_day_absence"
	FieldPartialAbsence  Field = "partial_absence"
	FieldAbsenceMarker   Field = "absence_marker"
	FieldTerminationDate Field = "termination_date"
	FieldCategory        Field = "category"
	FieldDuration        Field = "duration"
	FieldDays            Field = "days"
)

// Category table sheet fields
const (
	FieldCategoryLabel Field = "category_label"
	FieldCategoryClass Field = "category_class"
)

// EmployeeFields is the exact column contract of the employees sheet, in order
var EmployeeFields = []Field{
	FieldEmployeeID,
	FieldEmployeeName,
	FieldRole,
	FieldSiteCode,
	FieldSiteName,
	FieldMonthlyHours,
	FieldContractType,
	FieldContractEnd,
	FieldExperienceDays,
	FieldSalary,
	FieldAdmissionDate,
}

// RequiredAbsenceFields must all be present in the absences sheet
var RequiredAbsenceFields = []Field{
	FieldEmployeeID,
	FieldCostCenter,
	FieldFullDayAbsence,
	FieldPartialAbsence,
	FieldAbsenceMarker,
	FieldTerminationDate,
}

// OptionalAbsenceFields are used when present
var OptionalAbsenceFields = []Field{
	FieldCategory,
	FieldDuration,
	FieldDays,
}

// synonyms lists known header spellings per field. Comparison uses Key, so
// case, accents, spaces and underscores do not matter.
var synonyms = map[Field][]string{
	FieldEmployeeID:     {"Matricula", "Matrícula", "Registro", "ID", "Employee ID", "Codigo Funcionario"},
	FieldEmployeeName:   {"Nome_Funcionario", "Nome", "Nome do Funcionário", "Funcionário", "Colaborador", "Employee Name", "Name"},
	FieldRole:           {"Cargo", "Função", "Role", "Position"},
	FieldSiteCode:       {"Codigo_Local", "Código Local", "Cod Local", "Site Code"},
	FieldSiteName:       {"Nome_Local", "Local", "Unidade", "Site", "Site Name"},
	FieldMonthlyHours:   {"Qtd_Horas_Mensais", "Horas Mensais", "Horas_Mensais", "Carga Horária", "Carga Horaria Mensal", "Jornada", "Monthly Hours"},
	FieldContractType:   {"Tipo_Contrato", "Tipo de Contrato", "Contract Type"},
	FieldContractEnd:    {"Data_Termino_Contrato", "Data Término Contrato", "Fim do Contrato", "Contract End"},
	FieldExperienceDays: {"Dias_Experiencia", "Dias de Experiência", "Experience Days"},
	FieldSalary:         {"Salario_Mes_Atual", "Salário", "Salario Atual", "Salário Mês Atual", "Remuneração", "Salary"},
	FieldAdmissionDate:  {"Data_Admissao", "Data de Admissão", "Admissão", "Dt Admissao", "Admission Date"},

	FieldCostCenter:      {"Centro de Custo", "Centro_de_Custo", "CC", "Cost Center"},
	FieldFullDayAbsence:  {"Ausência Integral", "Ausencia_Integral", "Falta Integral", "Full Day Absence"},
	FieldPartialAbsence:  {"Ausência Parcial", "Ausencia_Parcial", "Partial Absence"},
	FieldAbsenceMarker:   {"Falta", "Faltas", "Marcação", "Absence Marker"},
	FieldTerminationDate: {"Data de Demissão", "Data_de_Demissao", "Demissão", "Termination Date"},
	FieldCategory:        {"Afastamentos", "Afastamento", "Tipo de Afastamento", "Category"},
	FieldDuration:        {"Horas", "Duração", "Horas Atraso", "Duration"},
	FieldDays:            {"Dias", "Qtd Dias", "Quantidade de Dias", "Days"},

	FieldCategoryLabel: {"tipo de afastamento", "tipo", "Afastamento", "Label"},
	FieldCategoryClass: {"Direito Pagamento", "categoria", "Classe", "Class"},
}

// Synonyms returns the known spellings of a field
func Synonyms(f Field) []string {
	return append([]string(nil), synonyms[f]...)
}

// Resolution maps fields to 0-based column indexes
type Resolution map[Field]int

// Index returns the column index of a field, or -1
func (r Resolution) Index(f Field) int {
	if i, ok := r[f]; ok {
		return i
	}
	return -1
}

// Resolve matches header cells against the synonym table. Each header is
// assigned to at most one field; fields are tried in the given order.
// The second return lists fields that found no header.
func Resolve(headers []string, fields []Field) (Resolution, []Field) {
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = Key(h)
	}

	taken := make(map[int]bool, len(headers))
	res := make(Resolution, len(fields))
	var missing []Field

	for _, f := range fields {
		idx := -1
		for _, syn := range synonyms[f] {
			sk := Key(syn)
			for i, k := range keys {
				if !taken[i] && k != "" && k == sk {
					idx = i
					break
				}
			}
			if idx >= 0 {
				break
			}
		}
		if idx < 0 {
			missing = append(missing, f)
			continue
		}
		taken[idx] = true
		res[f] = idx
	}
	return res, missing
}

// FormatFields renders a field list for error messages
func FormatFields(fields []Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("[%s]", strings.Join(names, ", "))
}
