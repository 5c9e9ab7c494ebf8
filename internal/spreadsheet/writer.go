package spreadsheet

import (
	"fmt"
	"strings"

	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/garyjia/basket-allowance/internal/report"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet names that are not report sections
const (
	SheetSummary = "Summary"
	SheetPayroll = "Payroll"
)

var sectionHeaders = []interface{}{
	"Matricula", "Nome_Funcionario", "Cargo", "Nome_Local", "Qtd_Horas_Mensais",
	"Salario_Mes_Atual", "Data_Admissao", "Status", "Valor_Cesta", "Motivo",
	"Dias_Atestado", "Dias_Ferias", "Horas_Atraso", "Afastamentos_Desconhecidos",
	"Observacao", "Ajuste_Manual",
}

var payrollHeaders = []interface{}{"Matricula", "Nome_Funcionario", "SomaDeVALOR", "CPF", "CNPJ"}

// Writer renders a report into an xlsx workbook
type Writer struct {
	companyTaxID string
	logger       *zap.Logger
}

// NewWriter creates a new Writer. companyTaxID fills the payroll sheet's CNPJ column.
func NewWriter(companyTaxID string, logger *zap.Logger) *Writer {
	return &Writer{
		companyTaxID: companyTaxID,
		logger:       logger,
	}
}

// WriteReport renders one sheet per non-empty section, a Summary sheet and a
// Payroll sheet with the entitled employees. The returned warnings name the
// sections that were left out because they were empty.
func (w *Writer) WriteReport(rep *report.Report) ([]byte, []string, error) {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyles(f)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, section := range rep.Sections {
		if len(section.Rows) == 0 {
			warnings = append(warnings, fmt.Sprintf("section %q is empty and was not exported", section.Name))
			continue
		}
		if err := w.writeSection(f, styles, section); err != nil {
			return nil, warnings, err
		}
	}

	if err := w.writeSummary(f, styles, rep.Summary); err != nil {
		return nil, warnings, err
	}
	if err := w.writePayroll(f, styles, rep.Rows); err != nil {
		return nil, warnings, err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, warnings, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, warnings, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	w.logger.Info("Report workbook written",
		zap.Int("employees", rep.Summary.Employees),
		zap.Int("bytes", buf.Len()),
		zap.Int("empty_sections", len(warnings)))
	return buf.Bytes(), warnings, nil
}

type styles struct {
	header int
	money  int
}

func newStyles(f *excelize.File) (styles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return styles{}, fmt.Errorf("failed to create header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return styles{}, fmt.Errorf("failed to create amount style: %w", err)
	}
	return styles{header: header, money: money}, nil
}

func (w *Writer) newSheet(f *excelize.File, st styles, name string, headers []interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", name, err)
	}
	if err := f.SetRowStyle(name, 1, 1, st.header); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", name, err)
	}
	return nil
}

func (w *Writer) writeSection(f *excelize.File, st styles, section report.Section) error {
	if err := w.newSheet(f, st, section.Name, sectionHeaders); err != nil {
		return err
	}

	for i, row := range section.Rows {
		values := []interface{}{
			row.Employee.ID,
			row.Employee.Name,
			row.Employee.Role,
			row.Employee.SiteName,
			row.Employee.MonthlyHours,
			row.Employee.Salary.InexactFloat64(),
			formatDate(row.Employee),
			row.Status.Label(),
			row.Amount.InexactFloat64(),
			row.ReasonText(),
			row.CertificateDays,
			row.VacationDays.InexactFloat64(),
			row.LateHours,
			strings.Join(row.UnknownCategories, models.UnknownSeparator),
			row.Note,
			yesNo(row.Overridden),
		}
		if err := w.setRow(f, section.Name, i+2, values); err != nil {
			return err
		}
	}

	last := len(section.Rows) + 1
	if err := f.SetCellStyle(section.Name, "F2", fmt.Sprintf("F%d", last), st.money); err != nil {
		return fmt.Errorf("failed to style salaries: %w", err)
	}
	if err := f.SetCellStyle(section.Name, "I2", fmt.Sprintf("I%d", last), st.money); err != nil {
		return fmt.Errorf("failed to style amounts: %w", err)
	}
	if err := f.SetColWidth(section.Name, "B", "B", 32); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	return f.SetColWidth(section.Name, "J", "J", 48)
}

func (w *Writer) writeSummary(f *excelize.File, st styles, sum report.Summary) error {
	if err := w.newSheet(f, st, SheetSummary, []interface{}{"Indicador", "Valor"}); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Gerado em", sum.GeneratedAt.Format("02/01/2006 15:04")},
		{"Funcionarios", sum.Employees},
		{"Valor Total", sum.TotalAmount.InexactFloat64()},
		{},
		{"Status", "Quantidade", "Valor", "Locais"},
	}
	for _, t := range sum.ByStatus {
		rows = append(rows, []interface{}{
			t.Status.Label(), t.Count, t.Amount.InexactFloat64(), strings.Join(t.Sites, ", "),
		})
	}

	for i, values := range rows {
		if len(values) == 0 {
			continue
		}
		if err := w.setRow(f, SheetSummary, i+2, values); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(SheetSummary, 6, 6, st.header); err != nil {
		return fmt.Errorf("failed to style summary table: %w", err)
	}
	if err := f.SetCellStyle(SheetSummary, "B4", "B4", st.money); err != nil {
		return fmt.Errorf("failed to style total: %w", err)
	}
	return f.SetColWidth(SheetSummary, "A", "D", 22)
}

// writePayroll lists the entitled employees with a positive amount, in the
// layout the payroll system imports
func (w *Writer) writePayroll(f *excelize.File, st styles, rows []models.EffectiveResult) error {
	if err := w.newSheet(f, st, SheetPayroll, payrollHeaders); err != nil {
		return err
	}

	r := 2
	for _, row := range rows {
		if row.Status != models.StatusEntitled || !row.Amount.IsPositive() {
			continue
		}
		values := []interface{}{row.Employee.ID, row.Employee.Name, row.Amount.InexactFloat64(), "", w.companyTaxID}
		if err := w.setRow(f, SheetPayroll, r, values); err != nil {
			return err
		}
		r++
	}
	if r > 2 {
		if err := f.SetCellStyle(SheetPayroll, "C2", fmt.Sprintf("C%d", r-1), st.money); err != nil {
			return fmt.Errorf("failed to style payroll amounts: %w", err)
		}
	}
	return nil
}

func (w *Writer) setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func formatDate(e models.Employee) string {
	if !e.HasAdmissionDate() {
		return ""
	}
	return e.AdmissionDate.Format("02/01/2006")
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
