package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/garyjia/basket-allowance/internal/review"
	"github.com/garyjia/basket-allowance/internal/service"
	"github.com/garyjia/basket-allowance/internal/spreadsheet"
	"github.com/garyjia/basket-allowance/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CalculationService starts review sessions from uploaded spreadsheets
type CalculationService interface {
	StartSession(ctx context.Context, employees, absences io.Reader, cutoff time.Time) (*review.Session, error)
}

// ReviewService manages overrides within open sessions
type ReviewService interface {
	Sessions() []*review.Session
	View(sessionID string, q review.Query) (*service.SessionView, error)
	ApplyOverride(sessionID string, employeeID int64, req service.OverrideRequest) (models.EffectiveResult, error)
	Revert(sessionID string, employeeID int64) (models.EffectiveResult, error)
	RevertAll(sessionID string) (int, error)
	Close(sessionID string) error
}

// ExportService writes final reports
type ExportService interface {
	Export(ctx context.Context, sessionID string) (*service.ExportResult, error)
	History(ctx context.Context, limit int) ([]*models.ReportExport, error)
}

// CategoryService maintains the known-category table
type CategoryService interface {
	List(ctx context.Context) ([]models.KnownCategory, error)
	Replace(ctx context.Context, categories []models.KnownCategory) ([]models.KnownCategory, error)
	Upload(ctx context.Context, src io.Reader) ([]models.KnownCategory, []models.RowWarning, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	calculation CalculationService
	review      ReviewService
	export      ExportService
	categories  CategoryService
	version     string
	logger      *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	calculation CalculationService,
	reviewService ReviewService,
	exportService ExportService,
	categories CategoryService,
	version string,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		calculation: calculation,
		review:      reviewService,
		export:      exportService,
		categories:  categories,
		version:     version,
		logger:      logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SessionResponse describes a review session without its rows
type SessionResponse struct {
	ID                string                          `json:"id"`
	CreatedAt         string                          `json:"created_at"`
	Cutoff            string                          `json:"cutoff"`
	Employees         int                             `json:"employees"`
	Overrides         int                             `json:"overrides"`
	Excluded          []ExclusionResponse             `json:"excluded"`
	RowWarnings       []models.RowWarning             `json:"row_warnings"`
	UnknownCategories []models.UnknownCategoryWarning `json:"unknown_categories"`
}

// ExclusionResponse is an employee left out of the run
type ExclusionResponse struct {
	EmployeeID int64  `json:"employee_id"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
}

// RowResponse is one line of the review screen
type RowResponse struct {
	EmployeeID        int64    `json:"employee_id"`
	Name              string   `json:"name"`
	Role              string   `json:"role"`
	Site              string   `json:"site"`
	Status            string   `json:"status"`
	StatusLabel       string   `json:"status_label"`
	Amount            string   `json:"amount"`
	Reasons           []string `json:"reasons"`
	CertificateDays   int      `json:"certificate_days"`
	VacationDays      string   `json:"vacation_days"`
	LateArrival       bool     `json:"late_arrival"`
	UnknownCategories []string `json:"unknown_categories,omitempty"`
	Note              string   `json:"note,omitempty"`
	Overridden        bool     `json:"overridden"`
}

// SessionViewResponse is the review screen of a session
type SessionViewResponse struct {
	Session SessionResponse `json:"session"`
	Rows    []RowResponse   `json:"rows"`
	Summary review.Summary  `json:"summary"`
}

// OverrideRequest is the body of PUT /api/sessions/:id/overrides/:employee
type OverrideRequest struct {
	Status string          `json:"status" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

// ReplaceCategoriesRequest is the body of PUT /api/categories
type ReplaceCategoriesRequest struct {
	Categories []models.KnownCategory `json:"categories" binding:"required"`
}

// CategoryUploadResponse reports an uploaded category table
type CategoryUploadResponse struct {
	Categories []models.KnownCategory `json:"categories"`
	Warnings   []models.RowWarning    `json:"warnings"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   h.version,
		},
	})
}

// ListSessions handles GET /api/sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.review.Sessions()
	out := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// CreateSession handles POST /api/sessions
func (h *Handlers) CreateSession(c *gin.Context) {
	cutoff, err := utils.ParseCutoffDate(c.PostForm("cutoff"))
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	employees, err := openUpload(c, "employees")
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}
	defer employees.Close()

	absences, err := openUpload(c, "absences")
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}
	defer absences.Close()

	sess, err := h.calculation.StartSession(c.Request.Context(), employees, absences, cutoff)
	if err != nil {
		h.fail(c, "failed to start review session", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: toSessionResponse(sess)})
}

// GetSession handles GET /api/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	q := review.Query{
		ID:   c.Query("id"),
		Name: c.Query("name"),
	}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			h.badRequest(c, err.Error())
			return
		}
		q.Status = status
	}
	sort, err := review.ParseSortOrder(c.Query("sort"))
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}
	q.Sort = sort

	view, err := h.review.View(c.Param("id"), q)
	if err != nil {
		h.fail(c, "failed to load session", err)
		return
	}

	rows := make([]RowResponse, 0, len(view.Rows))
	for _, r := range view.Rows {
		rows = append(rows, toRowResponse(r))
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: SessionViewResponse{
			Session: toSessionResponse(view.Session),
			Rows:    rows,
			Summary: view.Summary,
		},
	})
}

// CloseSession handles DELETE /api/sessions/:id
func (h *Handlers) CloseSession(c *gin.Context) {
	if err := h.review.Close(c.Param("id")); err != nil {
		h.fail(c, "failed to close session", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ApplyOverride handles PUT /api/sessions/:id/overrides/:employee
func (h *Handlers) ApplyOverride(c *gin.Context) {
	employeeID, ok := h.employeeParam(c)
	if !ok {
		return
	}

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid override body", zap.Error(err))
		h.badRequest(c, "invalid request body")
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	row, err := h.review.ApplyOverride(c.Param("id"), employeeID, service.OverrideRequest{
		Status: status,
		Amount: req.Amount,
		Note:   req.Note,
	})
	if err != nil {
		h.fail(c, "failed to apply override", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toRowResponse(row)})
}

// RevertOverride handles DELETE /api/sessions/:id/overrides/:employee
func (h *Handlers) RevertOverride(c *gin.Context) {
	employeeID, ok := h.employeeParam(c)
	if !ok {
		return
	}

	row, err := h.review.Revert(c.Param("id"), employeeID)
	if err != nil {
		h.fail(c, "failed to revert override", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toRowResponse(row)})
}

// RevertAllOverrides handles DELETE /api/sessions/:id/overrides
func (h *Handlers) RevertAllOverrides(c *gin.Context) {
	n, err := h.review.RevertAll(c.Param("id"))
	if err != nil {
		h.fail(c, "failed to revert overrides", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"reverted": n}})
}

// ExportSession handles POST /api/sessions/:id/export and returns the workbook
func (h *Handlers) ExportSession(c *gin.Context) {
	result, err := h.export.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "failed to export report", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.FileName()))
	c.Header("X-Report-Number", result.Export.ReportNumber)
	c.Header("X-Report-Warnings", strconv.Itoa(len(result.Warnings)))
	c.Data(http.StatusOK, xlsxContentType, result.Content)
}

// ListExports handles GET /api/exports
func (h *Handlers) ListExports(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	exports, err := h.export.History(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, "failed to retrieve export history", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: exports})
}

// ListCategories handles GET /api/categories
func (h *Handlers) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to retrieve categories", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: categories})
}

// ReplaceCategories handles PUT /api/categories
func (h *Handlers) ReplaceCategories(c *gin.Context) {
	var req ReplaceCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid categories body", zap.Error(err))
		h.badRequest(c, "invalid request body")
		return
	}

	categories, err := h.categories.Replace(c.Request.Context(), req.Categories)
	if err != nil {
		h.fail(c, "failed to replace categories", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: categories})
}

// UploadCategories handles POST /api/categories/upload
func (h *Handlers) UploadCategories(c *gin.Context) {
	file, err := openUpload(c, "file")
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}
	defer file.Close()

	categories, warnings, err := h.categories.Upload(c.Request.Context(), file)
	if err != nil {
		h.fail(c, "failed to upload categories", err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    CategoryUploadResponse{Categories: categories, Warnings: warnings},
	})
}

func (h *Handlers) employeeParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("employee"), 10, 64)
	if err != nil {
		h.badRequest(c, "invalid employee id")
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// fail maps service errors to status codes. Internal errors are logged and
// hidden behind msg.
func (h *Handlers) fail(c *gin.Context, msg string, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(status, Response{Success: false, Error: msg})
		return
	}
	h.logger.Warn(msg, zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, review.ErrSessionNotFound),
		errors.Is(err, review.ErrUnknownEmployee):
		return http.StatusNotFound
	case errors.Is(err, review.ErrInvalidStatus),
		errors.Is(err, review.ErrNegativeAmount),
		errors.Is(err, review.ErrInconsistentOverride),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrEmptyCategoryTable):
		return http.StatusBadRequest
	case errors.Is(err, spreadsheet.ErrInputShape),
		errors.Is(err, spreadsheet.ErrMissingColumn),
		errors.Is(err, spreadsheet.ErrEmptySheet),
		errors.Is(err, spreadsheet.ErrUnreadable):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func openUpload(c *gin.Context, field string) (multipart.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing %s file", field)
	}
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("cannot open %s file", field)
	}
	return file, nil
}

func toSessionResponse(s *review.Session) SessionResponse {
	resp := SessionResponse{
		ID:                s.ID,
		CreatedAt:         s.CreatedAt.UTC().Format(time.RFC3339),
		Cutoff:            s.Cutoff.Format(utils.CutoffLayout),
		Employees:         s.Store.Len(),
		Overrides:         s.Store.OverrideCount(),
		Excluded:          make([]ExclusionResponse, 0, len(s.Excluded)),
		RowWarnings:       s.RowWarnings,
		UnknownCategories: s.UnknownCategories,
	}
	for _, e := range s.Excluded {
		resp.Excluded = append(resp.Excluded, ExclusionResponse{
			EmployeeID: e.Employee.ID,
			Name:       e.Employee.Name,
			Reason:     e.Reason,
		})
	}
	return resp
}

func toRowResponse(r models.EffectiveResult) RowResponse {
	return RowResponse{
		EmployeeID:        r.Employee.ID,
		Name:              r.Employee.Name,
		Role:              r.Employee.Role,
		Site:              r.Employee.SiteName,
		Status:            string(r.Status),
		StatusLabel:       r.Status.Label(),
		Amount:            r.Amount.StringFixed(2),
		Reasons:           r.Reasons,
		CertificateDays:   r.CertificateDays,
		VacationDays:      r.VacationDays.String(),
		LateArrival:       r.LateArrival,
		UnknownCategories: r.UnknownCategories,
		Note:              r.Note,
		Overridden:        r.Overridden,
	}
}
