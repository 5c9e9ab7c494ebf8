// Package spreadsheet reads the employee, absence and category workbooks and
// writes the final report workbook.
package spreadsheet

import (
	"fmt"
	"io"
	"strconv"

	"github.com/garyjia/basket-allowance/internal/columns"
	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Warning sources
const (
	SourceEmployees  = "employees"
	SourceAbsences   = "absences"
	SourceCategories = "categories"
)

// Reader parses uploaded workbooks. Only the first sheet is read.
type Reader struct {
	logger *zap.Logger
}

// NewReader creates a new Reader
func NewReader(logger *zap.Logger) *Reader {
	return &Reader{logger: logger}
}

// sheet is the header row plus data rows of a workbook's first sheet
type sheet struct {
	headers []string
	rows    [][]string
}

func (r *Reader) load(src io.Reader) (*sheet, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, ErrEmptySheet
	}

	rows, err := f.GetRows(names[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", names[0], err)
	}
	if len(rows) == 0 || isBlank(rows[0]) {
		return nil, ErrEmptySheet
	}

	headers := rows[0]
	for len(headers) > 0 && cell(headers, len(headers)-1) == "" {
		headers = headers[:len(headers)-1]
	}
	return &sheet{headers: headers, rows: rows[1:]}, nil
}

// ReadEmployees reads the employees workbook. The sheet must have exactly
// the eleven contracted columns; headers are matched by synonym and fall
// back to their position.
func (r *Reader) ReadEmployees(src io.Reader) ([]models.Employee, []models.RowWarning, error) {
	s, err := r.load(src)
	if err != nil {
		return nil, nil, err
	}

	if len(s.headers) != len(columns.EmployeeFields) {
		return nil, nil, fmt.Errorf("%w: employees sheet has %d columns %q, expected %d %s",
			ErrInputShape, len(s.headers), s.headers, len(columns.EmployeeFields), columns.FormatFields(columns.EmployeeFields))
	}

	res, missing := columns.Resolve(s.headers, columns.EmployeeFields)
	if len(missing) > 0 {
		taken := make(map[int]bool, len(res))
		for _, idx := range res {
			taken[idx] = true
		}
		for _, f := range missing {
			pos := fieldPosition(f)
			if !taken[pos] {
				res[f] = pos
				taken[pos] = true
			}
		}
		r.logger.Info("Employee headers resolved by position",
			zap.String("fields", columns.FormatFields(missing)))
	}

	var (
		employees []models.Employee
		warnings  []models.RowWarning
	)
	for i, row := range s.rows {
		if isBlank(row) {
			continue
		}
		rowNum := i + 2
		emp, rowWarnings, ok := parseEmployee(row, rowNum, res)
		warnings = append(warnings, rowWarnings...)
		if ok {
			employees = append(employees, emp)
		}
	}

	r.logger.Info("Employees read",
		zap.Int("employees", len(employees)),
		zap.Int("warnings", len(warnings)))
	return employees, warnings, nil
}

func fieldPosition(f columns.Field) int {
	for i, ef := range columns.EmployeeFields {
		if ef == f {
			return i
		}
	}
	return -1
}

func parseEmployee(row []string, rowNum int, res columns.Resolution) (models.Employee, []models.RowWarning, bool) {
	var warnings []models.RowWarning
	warn := func(f columns.Field, value, msg string) {
		warnings = append(warnings, models.RowWarning{
			Source: SourceEmployees, Row: rowNum, Field: string(f), Value: value, Message: msg,
		})
	}
	get := func(f columns.Field) string { return cell(row, res.Index(f)) }

	idText := get(columns.FieldEmployeeID)
	id, err := parseID(idText)
	if err != nil {
		warn(columns.FieldEmployeeID, idText, "row skipped: invalid employee id")
		return models.Employee{}, warnings, false
	}

	emp := models.Employee{
		ID:           id,
		Name:         get(columns.FieldEmployeeName),
		Role:         get(columns.FieldRole),
		SiteCode:     get(columns.FieldSiteCode),
		SiteName:     get(columns.FieldSiteName),
		ContractType: get(columns.FieldContractType),
	}

	if v := get(columns.FieldMonthlyHours); v != "" {
		if emp.MonthlyHours, err = parseFloat(v); err != nil {
			warn(columns.FieldMonthlyHours, v, "monthly hours unreadable, using 0")
			emp.MonthlyHours = 0
		}
	}

	salaryText := get(columns.FieldSalary)
	if emp.Salary, err = parseDecimal(salaryText); err != nil {
		warn(columns.FieldSalary, salaryText, "salary unreadable, using 0")
	}

	if v := get(columns.FieldExperienceDays); v != "" {
		if days, err := parseFloat(v); err == nil {
			emp.ExperienceDays = int(days)
		} else {
			warn(columns.FieldExperienceDays, v, "experience days unreadable, using 0")
		}
	}

	if v := get(columns.FieldContractEnd); v != "" {
		if end, err := parseDate(v); err == nil {
			emp.ContractEnd = &end
		} else {
			warn(columns.FieldContractEnd, v, "contract end date unreadable, ignored")
		}
	}

	admission := get(columns.FieldAdmissionDate)
	if emp.AdmissionDate, err = parseDate(admission); err != nil {
		warn(columns.FieldAdmissionDate, admission, "admission date unreadable, employee will be excluded")
	}

	return emp, warnings, true
}

// ReadAbsences reads the absences workbook. Rows whose employee id cannot be
// read are skipped with a warning.
func (r *Reader) ReadAbsences(src io.Reader) ([]models.RawAbsence, []models.RowWarning, error) {
	s, err := r.load(src)
	if err != nil {
		return nil, nil, err
	}

	fields := append(append([]columns.Field{}, columns.RequiredAbsenceFields...), columns.OptionalAbsenceFields...)
	res, _ := columns.Resolve(s.headers, fields)

	var missing []columns.Field
	for _, f := range columns.RequiredAbsenceFields {
		if res.Index(f) < 0 {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: absences sheet lacks %s (headers %q)",
			ErrMissingColumn, columns.FormatFields(missing), s.headers)
	}

	var (
		absences []models.RawAbsence
		warnings []models.RowWarning
	)
	for i, row := range s.rows {
		if isBlank(row) {
			continue
		}
		rowNum := i + 2
		get := func(f columns.Field) string { return cell(row, res.Index(f)) }

		idText := get(columns.FieldEmployeeID)
		id, err := parseID(idText)
		if err != nil {
			warnings = append(warnings, models.RowWarning{
				Source: SourceAbsences, Row: rowNum, Field: string(columns.FieldEmployeeID),
				Value: idText, Message: "row skipped: invalid employee id",
			})
			continue
		}

		raw := models.RawAbsence{
			Row:             rowNum,
			EmployeeID:      id,
			CostCenter:      get(columns.FieldCostCenter),
			FullDayText:     get(columns.FieldFullDayAbsence),
			PartialText:     get(columns.FieldPartialAbsence),
			Marker:          get(columns.FieldAbsenceMarker),
			TerminationDate: get(columns.FieldTerminationDate),
			Category:        get(columns.FieldCategory),
		}
		if v := get(columns.FieldDuration); v != "" {
			if d, err := parseDuration(v); err == nil {
				raw.Duration = d
			} else {
				warnings = append(warnings, models.RowWarning{
					Source: SourceAbsences, Row: rowNum, Field: string(columns.FieldDuration),
					Value: v, Message: "duration unreadable, using 0",
				})
			}
		}
		if v := get(columns.FieldDays); v != "" {
			if days, err := parseFloat(v); err == nil && days >= 0 {
				raw.Days = days
			} else {
				warnings = append(warnings, models.RowWarning{
					Source: SourceAbsences, Row: rowNum, Field: string(columns.FieldDays),
					Value: v, Message: "day count unreadable, counting the row as one day",
				})
			}
		}
		absences = append(absences, raw)
	}

	r.logger.Info("Absences read",
		zap.Int("rows", len(absences)),
		zap.Int("warnings", len(warnings)))
	return absences, warnings, nil
}

// ReadCategoryTable reads the known-category workbook ("tipo de afastamento",
// "Direito Pagamento")
func (r *Reader) ReadCategoryTable(src io.Reader) ([]models.KnownCategory, []models.RowWarning, error) {
	s, err := r.load(src)
	if err != nil {
		return nil, nil, err
	}

	fields := []columns.Field{columns.FieldCategoryLabel, columns.FieldCategoryClass}
	res, missing := columns.Resolve(s.headers, fields)
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: category sheet lacks %s (headers %q)",
			ErrMissingColumn, columns.FormatFields(missing), s.headers)
	}

	var (
		categories []models.KnownCategory
		warnings   []models.RowWarning
	)
	for i, row := range s.rows {
		if isBlank(row) {
			continue
		}
		rowNum := i + 2
		label := cell(row, res.Index(columns.FieldCategoryLabel))
		classText := cell(row, res.Index(columns.FieldCategoryClass))
		if label == "" {
			warnings = append(warnings, models.RowWarning{
				Source: SourceCategories, Row: rowNum, Field: string(columns.FieldCategoryLabel),
				Message: "row skipped: empty label",
			})
			continue
		}
		class, err := parseClass(classText)
		if err != nil {
			warnings = append(warnings, models.RowWarning{
				Source: SourceCategories, Row: rowNum, Field: string(columns.FieldCategoryClass),
				Value: classText, Message: "unrecognized class, using " + strconv.Quote(string(models.ClassNeutral)),
			})
			class = models.ClassNeutral
		}
		categories = append(categories, models.KnownCategory{Label: label, Class: class})
	}

	r.logger.Info("Category table read", zap.Int("categories", len(categories)))
	return categories, warnings, nil
}
