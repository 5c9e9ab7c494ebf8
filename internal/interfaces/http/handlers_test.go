package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/basket-allowance/internal/absence"
	"github.com/garyjia/basket-allowance/internal/columns"
	"github.com/garyjia/basket-allowance/internal/eligibility"
	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/garyjia/basket-allowance/internal/report"
	"github.com/garyjia/basket-allowance/internal/repository"
	"github.com/garyjia/basket-allowance/internal/review"
	"github.com/garyjia/basket-allowance/internal/service"
	"github.com/garyjia/basket-allowance/internal/spreadsheet"
	"github.com/garyjia/basket-allowance/internal/storage"
	"github.com/garyjia/basket-allowance/migrations"
	"github.com/garyjia/basket-allowance/pkg/database"
)

type testEnv struct {
	router    http.Handler
	reportDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	dir := t.TempDir()

	db, err := database.Open(ctx, database.Config{Path: filepath.Join(dir, "allowance.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = database.NewMigrator(db, logger).Run(ctx, migrations.FS)
	require.NoError(t, err)

	categoryRepo := repository.NewCategoryRepository(db.DB, columns.Fold, logger)
	exportRepo := repository.NewExportRepository(db.DB, logger)
	reader := spreadsheet.NewReader(logger)
	sessions := review.NewManager(time.Hour, logger)
	rules := eligibility.DefaultRules()
	reportDir := filepath.Join(dir, "reports")

	handlers := NewHandlers(
		service.NewCalculationService(reader, categoryRepo, rules, absence.DefaultKeywords(), sessions, logger),
		service.NewReviewService(sessions, rules.AmountCeiling, logger),
		service.NewExportService(
			sessions,
			report.NewAggregator(logger),
			spreadsheet.NewWriter("65035552000180", logger),
			storage.NewLocalFileStorage(reportDir, logger),
			exportRepo,
			db,
			logger,
		),
		service.NewCategoryService(categoryRepo, db, reader, logger),
		"test",
		logger,
	)
	server := NewServer(DefaultServerConfig(), handlers, logger)
	return &testEnv{router: server.Router(), reportDir: reportDir}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(t *testing.T, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return e.do(t, method, path, body, "application/json")
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func xlsx(t *testing.T, rows ...[]interface{}) []byte {
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
	return buf.Bytes()
}

func employeesFile(t *testing.T) []byte {
	return xlsx(t,
		[]interface{}{"Matricula", "Nome_Funcionario", "Cargo", "Codigo_Local", "Nome_Local", "Qtd_Horas_Mensais",
			"Tipo_Contrato", "Data_Termino_Contrato", "Dias_Experiencia", "Salario_Mes_Atual", "Data_Admissao"},
		[]interface{}{101, "Ana Souza", "Auxiliar", "L01", "Matriz", 220, "CLT", "", 0, 2000, "15/03/2023"},
		[]interface{}{202, "Bruno Lima", "Porteiro", "L02", "Filial", 100, "CLT", "", 0, 1500, "10/01/2022"},
		[]interface{}{303, "Carla Dias", "Gerente", "L01", "Matriz", 220, "CLT", "", 0, 3000, "01/06/2019"},
	)
}

func absencesFile(t *testing.T) []byte {
	return xlsx(t,
		[]interface{}{"Matricula", "Centro de Custo", "Ausência Integral", "Ausência Parcial", "Falta", "Data de Demissão", "Afastamentos"},
		[]interface{}{101, "CC1", "Atestado Médico", "", "", "", "Atestado Médico"},
	)
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, mw.WriteField(name, value))
	}
	for name, content := range files {
		part, err := mw.CreateFormFile(name, name+".xlsx")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) createSession(t *testing.T) SessionResponse {
	t.Helper()
	body, ct := multipartBody(t,
		map[string]string{"cutoff": "31/01/2025"},
		map[string][]byte{"employees": employeesFile(t), "absences": absencesFile(t)},
	)
	w := e.do(t, http.MethodPost, "/api/sessions", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var sess SessionResponse
	decode(t, w, &sess)
	return sess
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	decode(t, w, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)
}

func TestReviewWorkflow(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPut, "/api/categories", ReplaceCategoriesRequest{
		Categories: []models.KnownCategory{{Label: "Atestado Médico", Class: models.ClassNeutral}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	sess := env.createSession(t)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "31/01/2025", sess.Cutoff)
	assert.Equal(t, 3, sess.Employees)
	assert.Empty(t, sess.UnknownCategories)

	base := "/api/sessions/" + sess.ID

	t.Run("filtered view", func(t *testing.T) {
		w := env.do(t, http.MethodGet, base+"?status=entitled&sort=name_desc", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var view SessionViewResponse
		decode(t, w, &view)
		require.Len(t, view.Rows, 2)
		assert.Equal(t, "Bruno Lima", view.Rows[0].Name)
		assert.Equal(t, "157.50", view.Rows[0].Amount)
		assert.Equal(t, "Ana Souza", view.Rows[1].Name)
		assert.Equal(t, "240.00", view.Rows[1].Amount)
		assert.Equal(t, "397.50", view.Summary.TotalAmount.StringFixed(2))
	})

	t.Run("override is clamped", func(t *testing.T) {
		w := env.doJSON(t, http.MethodPut, base+"/overrides/303", map[string]interface{}{
			"status": "ENTITLED", "amount": "2500", "note": "director approval",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var row RowResponse
		decode(t, w, &row)
		assert.True(t, row.Overridden)
		assert.Equal(t, "1000.00", row.Amount)
		assert.Equal(t, "director approval", row.Note)
	})

	t.Run("override errors", func(t *testing.T) {
		w := env.doJSON(t, http.MethodPut, base+"/overrides/101", map[string]interface{}{"status": "MAYBE"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = env.doJSON(t, http.MethodPut, base+"/overrides/999", map[string]interface{}{"status": "ENTITLED"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = env.doJSON(t, http.MethodPut, base+"/overrides/abc", map[string]interface{}{"status": "ENTITLED"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = env.doJSON(t, http.MethodPut, "/api/sessions/unknown/overrides/101", map[string]interface{}{"status": "ENTITLED"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("export", func(t *testing.T) {
		w := env.do(t, http.MethodPost, base+"/export", nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

		number := w.Header().Get("X-Report-Number")
		assert.True(t, strings.HasPrefix(number, "CB-"), number)
		assert.Contains(t, w.Header().Get("Content-Disposition"), number+".xlsx")

		book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		defer book.Close()
		assert.Contains(t, book.GetSheetList(), spreadsheet.SheetPayroll)

		matches, err := filepath.Glob(filepath.Join(env.reportDir, "*", number+".xlsx"))
		require.NoError(t, err)
		require.Len(t, matches, 1)
		stored, err := os.ReadFile(matches[0])
		require.NoError(t, err)
		assert.Equal(t, w.Body.Bytes(), stored)

		w = env.do(t, http.MethodGet, "/api/exports", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var history []models.ReportExport
		decode(t, w, &history)
		require.Len(t, history, 1)
		assert.Equal(t, number, history[0].ReportNumber)
		assert.Equal(t, 1, history[0].OverrideCount)
	})

	t.Run("revert", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, base+"/overrides/303", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var row RowResponse
		decode(t, w, &row)
		assert.False(t, row.Overridden)
		assert.Equal(t, "NOT_ENTITLED", row.Status)

		w = env.do(t, http.MethodDelete, base+"/overrides", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var out map[string]int
		decode(t, w, &out)
		assert.Equal(t, 0, out["reverted"])
	})

	t.Run("close", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, base, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, http.MethodGet, base, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCreateSession_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		fields   map[string]string
		files    map[string][]byte
		wantCode int
	}{
		{
			name:     "missing cutoff",
			files:    map[string][]byte{"employees": employeesFile(t), "absences": absencesFile(t)},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing absences file",
			fields:   map[string]string{"cutoff": "31/01/2025"},
			files:    map[string][]byte{"employees": employeesFile(t)},
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "employees sheet with wrong shape",
			fields: map[string]string{"cutoff": "31/01/2025"},
			files: map[string][]byte{
				"employees": xlsx(t, []interface{}{"Matricula", "Nome_Funcionario"}),
				"absences":  absencesFile(t),
			},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:   "not a workbook",
			fields: map[string]string{"cutoff": "31/01/2025"},
			files: map[string][]byte{
				"employees": []byte("Matricula;Nome"),
				"absences":  absencesFile(t),
			},
			wantCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.fields, tt.files)
			w := env.do(t, http.MethodPost, "/api/sessions", body, ct)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())

			resp := decode(t, w, nil)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, nil, map[string][]byte{
		"file": xlsx(t,
			[]interface{}{"tipo de afastamento", "Direito Pagamento"},
			[]interface{}{"Atestado Médico", "Não Tem Direito"},
			[]interface{}{"Atraso", "Aguardando Decisão"},
		),
	})
	w := env.do(t, http.MethodPost, "/api/categories/upload", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var uploaded CategoryUploadResponse
	decode(t, w, &uploaded)
	assert.Len(t, uploaded.Categories, 2)

	w = env.do(t, http.MethodGet, "/api/categories", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.KnownCategory
	decode(t, w, &list)
	assert.Len(t, list, 2)

	w = env.doJSON(t, http.MethodPut, "/api/categories", ReplaceCategoriesRequest{
		Categories: []models.KnownCategory{{Label: "Atraso", Class: "sometimes"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// the rejected replacement left the table untouched
	w = env.do(t, http.MethodGet, "/api/categories", nil, "")
	decode(t, w, &list)
	assert.Len(t, list, 2)
}
