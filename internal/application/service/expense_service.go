package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/field-expense/internal/application/port"
	"github.com/garyjia/field-expense/internal/clock"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/garyjia/field-expense/internal/domain/workflow"
	"github.com/garyjia/field-expense/internal/expense"
	"github.com/garyjia/field-expense/internal/metrics"
	"github.com/google/uuid"
)

// Upload issue codes raised while resolving photo references
const (
	CodeUploadNotFound    = "upload_not_found"
	CodeUploadAlreadyUsed = "upload_already_used"
)

// SubmitRequest is one day's claim together with its proof references
type SubmitRequest struct {
	Input           expense.Input
	UserName        string
	ExpenseDate     time.Time
	ManagerID       string
	JointWorkMRID   string
	JointWorkMRName string
	BillPhotoRef    string
	Odometer        *entity.OdometerReading
}

// PreviewResult is the live calculation shown while the form is filled in
type PreviewResult struct {
	Calculation expense.Calculation      `json:"calculation"`
	Validation  expense.ValidationResult `json:"validation"`
}

// ListFilter selects expenses. UserID and Status may be combined with a
// date range; without a range the newest expenses come first.
type ListFilter struct {
	UserID string
	Status string
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// ExpenseService runs the expense engine against stored settings and records
type ExpenseService interface {
	EntryWindow(ctx context.Context) (expense.EntryWindow, error)
	Preview(ctx context.Context, in expense.Input) (*PreviewResult, error)
	Validate(in expense.Input) expense.ValidationResult
	Submit(ctx context.Context, req SubmitRequest) (*entity.Expense, error)
	Get(ctx context.Context, id string) (*entity.Expense, error)
	List(ctx context.Context, filter ListFilter) ([]*entity.Expense, error)
	Summary(ctx context.Context, userID string, from, to time.Time) (expense.Summary, error)
	History(ctx context.Context, id string) ([]*entity.StatusHistory, error)
}

type expenseServiceImpl struct {
	settings         SettingsService
	expenseRepo      port.ExpenseRepository
	uploadRepo       port.UploadRepository
	historyRepo      port.HistoryRepository
	notificationRepo port.NotificationRepository
	txManager        port.TransactionManager
	policy           expense.ValidationPolicy
	clock            clock.Clock
	metrics          Metrics
	logger           Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	settings SettingsService,
	expenseRepo port.ExpenseRepository,
	uploadRepo port.UploadRepository,
	historyRepo port.HistoryRepository,
	notificationRepo port.NotificationRepository,
	txManager port.TransactionManager,
	policy expense.ValidationPolicy,
	c clock.Clock,
	m Metrics,
	logger Logger,
) ExpenseService {
	if m == nil {
		m = NopMetrics{}
	}
	return &expenseServiceImpl{
		settings:         settings,
		expenseRepo:      expenseRepo,
		uploadRepo:       uploadRepo,
		historyRepo:      historyRepo,
		notificationRepo: notificationRepo,
		txManager:        txManager,
		policy:           policy,
		clock:            c,
		metrics:          m,
		logger:           logger,
	}
}

// EntryWindow reports whether expenses may be entered now
func (s *expenseServiceImpl) EntryWindow(ctx context.Context) (expense.EntryWindow, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return expense.EntryWindow{}, err
	}
	return expense.IsEntryAllowed(settings, s.clock), nil
}

// Preview calculates without persisting anything
func (s *expenseServiceImpl) Preview(ctx context.Context, in expense.Input) (*PreviewResult, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{
		Calculation: expense.Calculate(in, settings),
		Validation:  expense.ValidateInputWithPolicy(in, s.policy),
	}, nil
}

// Validate checks an input against the configured policy
func (s *expenseServiceImpl) Validate(in expense.Input) expense.ValidationResult {
	return expense.ValidateInputWithPolicy(in, s.policy)
}

// Submit gates, calculates and stores an expense. Blocking findings come
// back together as a *SubmissionError.
func (s *expenseServiceImpl) Submit(ctx context.Context, req SubmitRequest) (*entity.Expense, error) {
	s.logger.Info("Submitting expense", "user_id", req.Input.UserID, "role", req.Input.Role)

	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.metrics.SubmissionObserved(metrics.OutcomeInternalError)
		return nil, err
	}

	now := s.clock.Now()
	if window := expense.CheckEntryWindow(settings, now); !window.Allowed {
		s.metrics.SubmissionObserved(metrics.OutcomeWindowClosed)
		return nil, fmt.Errorf("%w: %s", ErrEntryWindowClosed, window.Message)
	}

	var issues []expense.Issue
	for _, issue := range expense.ValidateInputWithPolicy(req.Input, s.policy).Issues {
		if issue.Blocking() {
			issues = append(issues, issue)
		}
	}

	billVerdict, odometerVerdict, refIssues, err := s.resolveVerdicts(ctx, req)
	if err != nil {
		s.metrics.SubmissionObserved(metrics.OutcomeInternalError)
		return nil, err
	}
	issues = append(issues, refIssues...)

	issues = append(issues, expense.CheckSubmission(expense.SubmissionCheck{
		Input:           req.Input,
		BillPhotoRef:    req.BillPhotoRef,
		BillVerdict:     billVerdict,
		Odometer:        req.Odometer,
		OdometerVerdict: odometerVerdict,
	})...)

	if len(issues) > 0 {
		for _, issue := range issues {
			s.metrics.ValidationIssueObserved(issue.Code)
		}
		s.metrics.SubmissionObserved(metrics.OutcomeRejected)
		s.logger.Info("Expense submission rejected", "user_id", req.Input.UserID, "issue_count", len(issues))
		return nil, &SubmissionError{Issues: issues}
	}

	calc := expense.Calculate(req.Input, settings)
	aiRisk := billVerdict.NeedsReview() || odometerVerdict.NeedsReview()

	machine, err := workflow.NewExpenseMachine(string(workflow.StateDraft))
	if err != nil {
		return nil, err
	}
	if _, err := machine.Fire(ctx, workflow.TriggerSubmit); err != nil {
		return nil, fmt.Errorf("submit expense: %w", err)
	}

	e := &entity.Expense{
		ID:                 uuid.NewString(),
		UserID:             req.Input.UserID,
		UserName:           req.UserName,
		Role:               req.Input.Role,
		ExpenseDate:        expenseDate(req.ExpenseDate, now),
		DistanceKm:         req.Input.DistanceKm,
		IsOutstation:       req.Input.IsOutstation,
		IsNightStay:        req.Input.IsNightStay,
		HotelBillAmount:    req.Input.HotelBillAmount,
		BillProofRef:       req.BillPhotoRef,
		Odometer:           req.Odometer,
		IsJointWork:        req.Input.IsJointWork,
		JointWorkMRID:      req.JointWorkMRID,
		JointWorkMRName:    req.JointWorkMRName,
		CalculatedDA:       calc.CalculatedDA,
		CalculatedTA:       calc.CalculatedTA,
		HotelAmount:        calc.Breakdown.HotelAmount,
		TotalExpense:       calc.TotalExpense,
		Breakdown:          calc.Breakdown,
		Status:             machine.State().String(),
		ManagerID:          req.ManagerID,
		SubmittedAt:        now,
		BillValidation:     billVerdict,
		OdometerValidation: odometerVerdict,
		AIRiskFlag:         aiRisk,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.expenseRepo.Create(ctx, e); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}

		if err := s.uploadRepo.AttachToExpense(ctx, photoRefs(req), e.ID); err != nil {
			return fmt.Errorf("attach uploads: %w", err)
		}

		if err := s.historyRepo.Create(ctx, &entity.StatusHistory{
			ExpenseID:      e.ID,
			ActorID:        e.UserID,
			PreviousStatus: string(workflow.StateDraft),
			NewStatus:      e.Status,
			Action:         entity.HistoryActionSubmit,
			Timestamp:      now,
		}); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		if e.ManagerID == "" {
			return nil
		}
		return s.notificationRepo.Create(ctx, submittedNotification(e, now))
	})
	if err != nil {
		s.metrics.SubmissionObserved(metrics.OutcomeInternalError)
		s.logger.Error("Failed to store expense", "error", err, "user_id", e.UserID)
		return nil, err
	}

	outcome := metrics.OutcomeAccepted
	if e.AIRiskFlag {
		outcome = metrics.OutcomeFlagged
	}
	s.metrics.SubmissionObserved(outcome)

	s.logger.Info("Expense submitted",
		"expense_id", e.ID,
		"user_id", e.UserID,
		"status", e.Status,
		"total", e.TotalExpense.StringFixed(2),
	)
	return e, nil
}

// resolveVerdicts loads the verdicts stored with the referenced uploads.
// Unknown, foreign, mismatched or reused references become blocking issues.
func (s *expenseServiceImpl) resolveVerdicts(ctx context.Context, req SubmitRequest) (bill, odometer *entity.ImageVerdict, issues []expense.Issue, err error) {
	lookup := func(ref, kind string) (*entity.ImageVerdict, error) {
		upload, err := s.uploadRepo.GetByRef(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("get upload %s: %w", ref, err)
		}
		if upload == nil || upload.UserID != req.Input.UserID || upload.Kind != kind {
			issues = append(issues, expense.Issue{
				Code:     CodeUploadNotFound,
				Message:  fmt.Sprintf("Uploaded photo %s was not found", ref),
				Severity: expense.SeverityBlocking,
			})
			return nil, nil
		}
		if upload.ExpenseID != "" {
			issues = append(issues, expense.Issue{
				Code:     CodeUploadAlreadyUsed,
				Message:  fmt.Sprintf("Uploaded photo %s is already attached to another expense", ref),
				Severity: expense.SeverityBlocking,
			})
			return nil, nil
		}
		return upload.Verdict, nil
	}

	if req.BillPhotoRef != "" {
		if bill, err = lookup(req.BillPhotoRef, entity.ImageKindBill); err != nil {
			return nil, nil, nil, err
		}
	}

	if req.Odometer != nil {
		if ref := req.Odometer.StartPhotoRef; ref != "" {
			if _, err = lookup(ref, entity.ImageKindOdometer); err != nil {
				return nil, nil, nil, err
			}
		}
		if ref := req.Odometer.EndPhotoRef; ref != "" {
			if odometer, err = lookup(ref, entity.ImageKindOdometer); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	return bill, odometer, issues, nil
}

// Get returns an expense by ID
func (s *expenseServiceImpl) Get(ctx context.Context, id string) (*entity.Expense, error) {
	e, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get expense", "error", err, "expense_id", id)
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if e == nil {
		return nil, ErrExpenseNotFound
	}
	return e, nil
}

// List returns expenses matching the filter
func (s *expenseServiceImpl) List(ctx context.Context, f ListFilter) ([]*entity.Expense, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	var (
		expenses []*entity.Expense
		err      error
	)
	switch {
	case !f.From.IsZero() || !f.To.IsZero():
		from, to := dateRange(f.From, f.To)
		expenses, err = s.expenseRepo.ListByDateRange(ctx, f.UserID, from, to)
		if err == nil && f.Status != "" {
			expenses = filterStatus(expenses, f.Status)
		}
	case f.UserID != "":
		expenses, err = s.expenseRepo.ListByUser(ctx, f.UserID, f.Limit, f.Offset)
		if err == nil && f.Status != "" {
			expenses = filterStatus(expenses, f.Status)
		}
	case f.Status != "":
		expenses, err = s.expenseRepo.ListByStatus(ctx, f.Status, f.Limit, f.Offset)
	default:
		expenses, err = s.expenseRepo.ListByStatus(ctx, entity.ExpenseStatusPending, f.Limit, f.Offset)
	}
	if err != nil {
		s.logger.Error("Failed to list expenses", "error", err, "user_id", f.UserID, "status", f.Status)
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Summary aggregates expenses dated within [from, to]
func (s *expenseServiceImpl) Summary(ctx context.Context, userID string, from, to time.Time) (expense.Summary, error) {
	from, to = dateRange(from, to)
	expenses, err := s.expenseRepo.ListByDateRange(ctx, userID, from, to)
	if err != nil {
		s.logger.Error("Failed to load expenses for summary", "error", err, "user_id", userID)
		return expense.Summary{}, fmt.Errorf("summarize expenses: %w", err)
	}
	return expense.SummarizeExpenses(expenses), nil
}

// History returns the status changes of an expense
func (s *expenseServiceImpl) History(ctx context.Context, id string) ([]*entity.StatusHistory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	records, err := s.historyRepo.ListByExpense(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}

func expenseDate(requested, now time.Time) time.Time {
	if requested.IsZero() {
		requested = now
	}
	y, m, d := requested.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dateRange fills an open end of a range with a far bound
func dateRange(from, to time.Time) (time.Time, time.Time) {
	if from.IsZero() {
		from = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return from, to
}

func filterStatus(expenses []*entity.Expense, status string) []*entity.Expense {
	out := make([]*entity.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

func photoRefs(req SubmitRequest) []string {
	var refs []string
	if req.BillPhotoRef != "" {
		refs = append(refs, req.BillPhotoRef)
	}
	if req.Odometer != nil {
		for _, ref := range []string{req.Odometer.StartPhotoRef, req.Odometer.EndPhotoRef} {
			if ref != "" {
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

func submittedNotification(e *entity.Expense, now time.Time) *entity.Notification {
	event := entity.NotificationEventSubmitted
	content := fmt.Sprintf("%s submitted an expense of ₹%s for %s.",
		displayName(e), e.TotalExpense.StringFixed(2), e.ExpenseDate.Format("02 Jan 2006"))
	if e.AIRiskFlag {
		event = entity.NotificationEventFlagged
		content += " Proof images need manual review."
	}
	return &entity.Notification{
		ExpenseID:   e.ID,
		RecipientID: e.ManagerID,
		Event:       event,
		Content:     content,
		Status:      entity.NotificationStatusPending,
		CreatedAt:   now,
	}
}

func displayName(e *entity.Expense) string {
	if e.UserName != "" {
		return e.UserName
	}
	return e.UserID
}
