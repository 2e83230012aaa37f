package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/field-expense/internal/application/service"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/garyjia/field-expense/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	services       Services
	maxUploadBytes int64
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, maxUploadBytes int64, logger Logger) *Handlers {
	return &Handlers{
		services:       services,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	if h.services.Database != nil {
		if err := h.services.Database.Check(c.Request.Context()); err != nil {
			h.logger.Error("Health check failed", "error", err)
			resp.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: resp, Error: "database unavailable"})
			return
		}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}

// EntryWindow handles GET /api/entry-window
func (h *Handlers) EntryWindow(c *gin.Context) {
	window, err := h.services.Expenses.EntryWindow(c.Request.Context())
	if err != nil {
		h.respondError(c, "check entry window", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: window})
}

// GetSettings handles GET /api/settings
func (h *Handlers) GetSettings(c *gin.Context) {
	settings, err := h.services.Settings.Get(c.Request.Context())
	if err != nil {
		h.respondError(c, "load settings", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: settings})
}

// UpdateSettings handles PUT /api/settings
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var patch entity.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, fmt.Errorf("invalid settings payload: %w", err))
		return
	}

	settings, err := h.services.Settings.Update(c.Request.Context(), patch)
	if err != nil {
		h.respondError(c, "update settings", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: settings})
}

// ResetSettings handles POST /api/settings/reset
func (h *Handlers) ResetSettings(c *gin.Context) {
	settings, err := h.services.Settings.Reset(c.Request.Context())
	if err != nil {
		h.respondError(c, "reset settings", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: settings})
}

// PreviewExpense handles POST /api/expenses/preview
func (h *Handlers) PreviewExpense(c *gin.Context) {
	var req ExpenseInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		badRequest(c, err)
		return
	}

	preview, err := h.services.Expenses.Preview(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, "preview expense", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: preview})
}

// ValidateExpense handles POST /api/expenses/validate
func (h *Handlers) ValidateExpense(c *gin.Context) {
	var req ExpenseInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.services.Expenses.Validate(in)})
}

// SubmitExpense handles POST /api/expenses
func (h *Handlers) SubmitExpense(c *gin.Context) {
	var body SubmitExpenseRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	req, err := body.toSubmitRequest()
	if err != nil {
		badRequest(c, err)
		return
	}

	e, err := h.services.Expenses.Submit(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "submit expense", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: e})
}

// GetExpense handles GET /api/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	e, err := h.services.Expenses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get expense", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: e})
}

// ExpenseHistory handles GET /api/expenses/:id/history
func (h *Handlers) ExpenseHistory(c *gin.Context) {
	records, err := h.services.Expenses.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get expense history", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// ListExpenses handles GET /api/expenses
func (h *Handlers) ListExpenses(c *gin.Context) {
	var q ListExpensesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, fmt.Errorf("invalid query parameters: %w", err))
		return
	}
	filter, err := q.toFilter()
	if err != nil {
		badRequest(c, err)
		return
	}

	expenses, err := h.services.Expenses.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "list expenses", err)
		return
	}
	if expenses == nil {
		expenses = []*entity.Expense{}
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    ExpenseListResponse{Expenses: expenses, Count: len(expenses)},
	})
}

// ExpenseSummary handles GET /api/expenses/summary
func (h *Handlers) ExpenseSummary(c *gin.Context) {
	from, to, err := parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		badRequest(c, err)
		return
	}

	summary, err := h.services.Expenses.Summary(c.Request.Context(), c.Query("user_id"), from, to)
	if err != nil {
		h.respondError(c, "summarize expenses", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// ApproveExpense handles POST /api/expenses/:id/approve
func (h *Handlers) ApproveExpense(c *gin.Context) {
	h.decide(c, "approve expense", h.services.Approvals.Approve)
}

// FlagExpense handles POST /api/expenses/:id/flag
func (h *Handlers) FlagExpense(c *gin.Context) {
	h.decide(c, "flag expense", h.services.Approvals.Flag)
}

// RejectExpense handles POST /api/expenses/:id/reject
func (h *Handlers) RejectExpense(c *gin.Context) {
	h.decide(c, "reject expense", h.services.Approvals.Reject)
}

func (h *Handlers) decide(c *gin.Context, op string, act func(ctx context.Context, d service.Decision) (*entity.Expense, error)) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateID("manager_id", req.ManagerID); err != nil {
		badRequest(c, err)
		return
	}

	e, err := act(c.Request.Context(), service.Decision{
		ExpenseID:   c.Param("id"),
		ManagerID:   req.ManagerID,
		ManagerName: utils.SanitizeString(req.ManagerName),
		Reason:      utils.SanitizeString(req.Reason),
	})
	if err != nil {
		h.respondError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: e})
}

// UploadOdometerImage handles POST /api/images/odometer
func (h *Handlers) UploadOdometerImage(c *gin.Context) {
	req, ok := h.readUpload(c, entity.ImageKindOdometer)
	if !ok {
		return
	}

	var err error
	if req.PreviousReading, err = formDecimal(c, "previous_reading"); err != nil {
		badRequest(c, err)
		return
	}
	if req.ClaimedDistance, err = formDecimal(c, "claimed_distance"); err != nil {
		badRequest(c, err)
		return
	}
	h.upload(c, req)
}

// UploadBillImage handles POST /api/images/bill
func (h *Handlers) UploadBillImage(c *gin.Context) {
	req, ok := h.readUpload(c, entity.ImageKindBill)
	if !ok {
		return
	}

	var err error
	if req.ClaimedAmount, err = formDecimal(c, "claimed_amount"); err != nil {
		badRequest(c, err)
		return
	}
	h.upload(c, req)
}

func (h *Handlers) upload(c *gin.Context, req service.UploadRequest) {
	result, err := h.services.Images.Upload(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "validate image", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: result})
}

// readUpload reads the "file" part of a multipart upload
func (h *Handlers) readUpload(c *gin.Context, kind string) (service.UploadRequest, bool) {
	userID := c.PostForm("user_id")
	if err := utils.ValidateID("user_id", userID); err != nil {
		badRequest(c, err)
		return service.UploadRequest{}, false
	}

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, fmt.Errorf("file is required: %w", err))
		return service.UploadRequest{}, false
	}
	if header.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, Response{
			Success: false,
			Error:   fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes),
		})
		return service.UploadRequest{}, false
	}

	f, err := header.Open()
	if err != nil {
		h.respondError(c, "read upload", err)
		return service.UploadRequest{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes))
	if err != nil {
		h.respondError(c, "read upload", err)
		return service.UploadRequest{}, false
	}
	if len(data) == 0 {
		badRequest(c, fmt.Errorf("file is empty"))
		return service.UploadRequest{}, false
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	return service.UploadRequest{
		UserID:   userID,
		Kind:     kind,
		Data:     data,
		MIMEType: mimeType,
	}, true
}

func formDecimal(c *gin.Context, field string) (decimal.Decimal, error) {
	v := c.PostForm(field)
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %q", field, v)
	}
	return d, nil
}

// MonthlyReport handles GET /api/reports/monthly
func (h *Handlers) MonthlyReport(c *gin.Context) {
	userID := c.Query("user_id")
	if err := utils.ValidateID("user_id", userID); err != nil {
		badRequest(c, err)
		return
	}
	month, err := utils.ParseMonth(c.Query("month"))
	if err != nil {
		badRequest(c, err)
		return
	}

	statement, err := h.services.Reports.MonthlyStatement(c.Request.Context(), userID, month)
	if err != nil {
		h.respondError(c, "build monthly report", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, statement.FileName))
	c.Data(http.StatusOK, xlsxContentType, statement.Content)
}
