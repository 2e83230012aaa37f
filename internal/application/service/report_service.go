package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/field-expense/internal/application/port"
	"github.com/garyjia/field-expense/internal/expense"
	"github.com/garyjia/field-expense/internal/report"
)

// StatementRenderer turns a statement into a file
type StatementRenderer interface {
	Write(s *report.Statement) ([]byte, error)
}

// MonthlyStatement is a rendered statement ready for download
type MonthlyStatement struct {
	FileName string
	Content  []byte
	Summary  expense.Summary
}

// ReportService builds downloadable expense reports
type ReportService interface {
	MonthlyStatement(ctx context.Context, userID string, month time.Time) (*MonthlyStatement, error)
}

type reportServiceImpl struct {
	expenseRepo port.ExpenseRepository
	renderer    StatementRenderer
	companyName string
	logger      Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	expenseRepo port.ExpenseRepository,
	renderer StatementRenderer,
	companyName string,
	logger Logger,
) ReportService {
	return &reportServiceImpl{
		expenseRepo: expenseRepo,
		renderer:    renderer,
		companyName: companyName,
		logger:      logger,
	}
}

// MonthlyStatement renders every expense a user dated within the month of month
func (s *reportServiceImpl) MonthlyStatement(ctx context.Context, userID string, month time.Time) (*MonthlyStatement, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	expenses, err := s.expenseRepo.ListByDateRange(ctx, userID, first, last)
	if err != nil {
		s.logger.Error("Failed to load expenses for statement", "error", err, "user_id", userID)
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	userName := ""
	if len(expenses) > 0 {
		userName = expenses[0].UserName
	}

	statement := &report.Statement{
		CompanyName: s.companyName,
		UserID:      userID,
		UserName:    userName,
		Month:       first,
		Expenses:    expenses,
		Summary:     expense.SummarizeExpenses(expenses),
	}

	content, err := s.renderer.Write(statement)
	if err != nil {
		s.logger.Error("Failed to render statement", "error", err, "user_id", userID)
		return nil, fmt.Errorf("render statement: %w", err)
	}

	return &MonthlyStatement{
		FileName: statement.FileName(),
		Content:  content,
		Summary:  statement.Summary,
	}, nil
}
