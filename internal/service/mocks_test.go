package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/garyjia/basket-allowance/internal/columns"
	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type mockCategoryRepo struct {
	categories []models.KnownCategory
	loadErr    error
	replaceErr error
	replaced   int
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]models.KnownCategory, error) {
	return m.categories, nil
}

func (m *mockCategoryRepo) LoadTable(ctx context.Context) (*models.CategoryTable, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return models.NewCategoryTable(columns.Fold, m.categories...), nil
}

func (m *mockCategoryRepo) ReplaceAll(ctx context.Context, tx *sql.Tx, categories []models.KnownCategory) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replaced++
	m.categories = categories
	return nil
}

type mockExportRepo struct {
	created   []*models.ReportExport
	createErr error
	numberErr error
}

func (m *mockExportRepo) Create(ctx context.Context, tx *sql.Tx, e *models.ReportExport) error {
	if m.createErr != nil {
		return m.createErr
	}
	e.ID = int64(len(m.created) + 1)
	m.created = append(m.created, e)
	return nil
}

func (m *mockExportRepo) List(ctx context.Context, limit int) ([]*models.ReportExport, error) {
	return m.created, nil
}

func (m *mockExportRepo) GenerateReportNumber(ctx context.Context, now time.Time) (string, error) {
	if m.numberErr != nil {
		return "", m.numberErr
	}
	return fmt.Sprintf("CB-%s-%04d", now.Format("20060102"), len(m.created)+1), nil
}

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	m.calls++
	return fn(nil)
}

type mockStorage struct {
	saved map[string][]byte
	err   error
	delay time.Duration
}

func (m *mockStorage) SaveReport(name string, generatedAt time.Time, content []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	time.Sleep(m.delay)
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	path := generatedAt.Format("2006-01") + "/" + name + ".xlsx"
	m.saved[path] = content
	return path, nil
}

func (m *mockStorage) ListReports() ([]string, error) {
	var paths []string
	for p := range m.saved {
		paths = append(paths, p)
	}
	return paths, nil
}

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

var (
	employeeHeader = []interface{}{
		"Matricula", "Nome_Funcionario", "Cargo", "Codigo_Local", "Nome_Local", "Qtd_Horas_Mensais",
		"Tipo_Contrato", "Data_Termino_Contrato", "Dias_Experiencia", "Salario_Mes_Atual", "Data_Admissao",
	}
	absenceHeader = []interface{}{
		"Matricula", "Centro de Custo", "Ausência Integral", "Ausência Parcial", "Falta", "Data de Demissão", "Afastamentos",
	}
)

// payrollFiles returns the employees and absences workbooks of a small payroll:
// 101 loses part of the allowance to a certificate, 202 is part-time,
// 303 earns above the limit and 404 was admitted after the cutoff.
func payrollFiles(t *testing.T) (*bytes.Reader, *bytes.Reader) {
	t.Helper()
	employees := workbook(t,
		employeeHeader,
		[]interface{}{101, "Ana Souza", "Auxiliar", "L01", "Matriz", 220, "CLT", "", 0, 2000, "15/03/2023"},
		[]interface{}{202, "Bruno Lima", "Porteiro", "L02", "Filial", 100, "CLT", "", 0, 1500, "10/01/2022"},
		[]interface{}{303, "Carla Dias", "Gerente", "L01", "Matriz", 220, "CLT", "", 0, 3000, "01/06/2019"},
		[]interface{}{404, "Davi Reis", "Auxiliar", "L02", "Filial", 220, "CLT", "", 0, 1800, "10/02/2025"},
	)
	absences := workbook(t,
		absenceHeader,
		[]interface{}{101, "CC1", "Atestado Médico", "", "", "", "Atestado Médico"},
	)
	return employees, absences
}

var cutoff = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
