package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/field-expense/internal/application/port"
	"github.com/garyjia/field-expense/internal/clock"
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/garyjia/field-expense/internal/domain/workflow"
)

// Decision is a manager's action on one expense
type Decision struct {
	ExpenseID   string
	ManagerID   string
	ManagerName string
	Reason      string
}

// ApprovalService moves expenses through manager review
type ApprovalService interface {
	Approve(ctx context.Context, d Decision) (*entity.Expense, error)
	Reject(ctx context.Context, d Decision) (*entity.Expense, error)
	Flag(ctx context.Context, d Decision) (*entity.Expense, error)
}

type approvalServiceImpl struct {
	expenseRepo      port.ExpenseRepository
	historyRepo      port.HistoryRepository
	notificationRepo port.NotificationRepository
	txManager        port.TransactionManager
	clock            clock.Clock
	metrics          Metrics
	logger           Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	expenseRepo port.ExpenseRepository,
	historyRepo port.HistoryRepository,
	notificationRepo port.NotificationRepository,
	txManager port.TransactionManager,
	c clock.Clock,
	m Metrics,
	logger Logger,
) ApprovalService {
	if m == nil {
		m = NopMetrics{}
	}
	return &approvalServiceImpl{
		expenseRepo:      expenseRepo,
		historyRepo:      historyRepo,
		notificationRepo: notificationRepo,
		txManager:        txManager,
		clock:            c,
		metrics:          m,
		logger:           logger,
	}
}

// Approve approves a pending or flagged expense
func (s *approvalServiceImpl) Approve(ctx context.Context, d Decision) (*entity.Expense, error) {
	return s.decide(ctx, d, workflow.TriggerApprove, entity.HistoryActionApprove)
}

// Reject rejects a pending or flagged expense. A reason is required.
func (s *approvalServiceImpl) Reject(ctx context.Context, d Decision) (*entity.Expense, error) {
	d.Reason = strings.TrimSpace(d.Reason)
	return s.decide(ctx, d, workflow.TriggerReject, entity.HistoryActionReject)
}

// Flag parks a pending expense for further review. A reason is required.
func (s *approvalServiceImpl) Flag(ctx context.Context, d Decision) (*entity.Expense, error) {
	d.Reason = strings.TrimSpace(d.Reason)
	if d.Reason == "" {
		return nil, fmt.Errorf("flag expense %s: %w", d.ExpenseID, workflow.ErrGuardFailed)
	}
	return s.decide(ctx, d, workflow.TriggerFlag, entity.HistoryActionFlag)
}

func (s *approvalServiceImpl) decide(ctx context.Context, d Decision, trigger workflow.Trigger, action string) (*entity.Expense, error) {
	s.logger.Info("Processing expense decision", "expense_id", d.ExpenseID, "action", action, "manager_id", d.ManagerID)

	var decided *entity.Expense
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		e, err := s.expenseRepo.GetByID(ctx, d.ExpenseID)
		if err != nil {
			return fmt.Errorf("get expense: %w", err)
		}
		if e == nil {
			return ErrExpenseNotFound
		}
		if d.ManagerID != "" && d.ManagerID == e.UserID {
			return ErrSelfApproval
		}

		machine, err := workflow.NewExpenseMachine(e.Status)
		if err != nil {
			return err
		}
		tr, err := machine.Fire(workflow.WithRejectionReason(ctx, d.Reason), trigger)
		if err != nil {
			return fmt.Errorf("%s expense %s: %w", strings.ToLower(action), e.ID, err)
		}

		now := s.clock.Now()
		e.Status = tr.To.String()
		e.UpdatedAt = now
		if tr.To != workflow.StateFlagged {
			e.ApprovedByID = d.ManagerID
			e.ApprovedByName = d.ManagerName
			e.ProcessedAt = &now
		}
		if trigger == workflow.TriggerReject {
			e.RejectionReason = d.Reason
		}

		if err := s.expenseRepo.UpdateStatus(ctx, e.ID, port.StatusUpdate{
			Status:          e.Status,
			ApprovedByID:    e.ApprovedByID,
			ApprovedByName:  e.ApprovedByName,
			RejectionReason: e.RejectionReason,
			ProcessedAt:     e.ProcessedAt,
			UpdatedAt:       now,
		}); err != nil {
			return fmt.Errorf("update expense status: %w", err)
		}

		if err := s.historyRepo.Create(ctx, &entity.StatusHistory{
			ExpenseID:      e.ID,
			ActorID:        d.ManagerID,
			PreviousStatus: tr.From.String(),
			NewStatus:      e.Status,
			Action:         action,
			Note:           d.Reason,
			Timestamp:      now,
		}); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		if err := s.notificationRepo.Create(ctx, decisionNotification(e, d.Reason, now)); err != nil {
			return fmt.Errorf("queue notification: %w", err)
		}

		decided = e
		return nil
	})
	if err != nil {
		s.logger.Error("Expense decision failed", "error", err, "expense_id", d.ExpenseID, "action", action)
		return nil, err
	}

	s.metrics.DecisionObserved(decided.Status)
	s.logger.Info("Expense decided", "expense_id", decided.ID, "status", decided.Status)
	return decided, nil
}

func decisionNotification(e *entity.Expense, note string, now time.Time) *entity.Notification {
	date := e.ExpenseDate.Format("02 Jan 2006")
	n := &entity.Notification{
		ExpenseID:   e.ID,
		RecipientID: e.UserID,
		Status:      entity.NotificationStatusPending,
		CreatedAt:   now,
	}
	switch e.Status {
	case entity.ExpenseStatusFlagged:
		n.Event = entity.NotificationEventFlagged
		n.Content = fmt.Sprintf("Your expense of ₹%s for %s needs further review: %s",
			e.TotalExpense.StringFixed(2), date, note)
	case entity.ExpenseStatusRejected:
		n.Event = entity.NotificationEventRejected
		n.Content = fmt.Sprintf("Your expense of ₹%s for %s was rejected: %s",
			e.TotalExpense.StringFixed(2), date, e.RejectionReason)
	default:
		n.Event = entity.NotificationEventApproved
		n.Content = fmt.Sprintf("Your expense of ₹%s for %s was approved by %s.",
			e.TotalExpense.StringFixed(2), date, approverName(e))
	}
	return n
}

func approverName(e *entity.Expense) string {
	if e.ApprovedByName != "" {
		return e.ApprovedByName
	}
	return e.ApprovedByID
}
