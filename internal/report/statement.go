// Package report renders monthly expense statements as xlsx workbooks
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/garyjia/field-expense/internal/expense"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	sheetName = "Statement"

	// Header section
	cellTitle    = "A1"
	cellCompany  = "A2"
	cellEmployee = "B4"
	cellMonth    = "E4"

	// Data rows start below the column header on row 6
	headerRow    = 6
	dataRowStart = 7
)

var columns = []string{"Date", "Type", "Distance (km)", "DA", "TA", "Hotel", "Total", "Status"}

// Statement is the data behind one monthly statement
type Statement struct {
	CompanyName string
	UserID      string
	UserName    string
	Month       time.Time
	Expenses    []*entity.Expense
	Summary     expense.Summary
}

// FileName returns the download name for the statement
func (s *Statement) FileName() string {
	return fmt.Sprintf("expense_statement_%s_%s.xlsx", s.UserID, s.Month.Format("2006-01"))
}

// StatementWriter renders statements
type StatementWriter struct {
	logger *zap.Logger
}

// NewStatementWriter creates a new StatementWriter
func NewStatementWriter(logger *zap.Logger) *StatementWriter {
	return &StatementWriter{logger: logger}
}

// Write renders the statement and returns the workbook bytes
func (w *StatementWriter) Write(s *Statement) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := w.fillHeader(file, s); err != nil {
		return nil, fmt.Errorf("failed to fill header: %w", err)
	}

	lastRow, err := w.fillRows(file, s.Expenses)
	if err != nil {
		return nil, fmt.Errorf("failed to fill rows: %w", err)
	}

	if err := w.fillTotals(file, lastRow+1, s.Summary); err != nil {
		return nil, fmt.Errorf("failed to fill totals: %w", err)
	}

	if err := file.SetColWidth(sheetName, "A", "H", 16); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Info("Monthly statement rendered",
		zap.String("user_id", s.UserID),
		zap.String("month", s.Month.Format("2006-01")),
		zap.Int("expense_count", len(s.Expenses)))

	return bytes.Clone(buf.Bytes()), nil
}

func (w *StatementWriter) fillHeader(file *excelize.File, s *Statement) error {
	cells := map[string]interface{}{
		cellTitle:    "Monthly Expense Statement",
		cellCompany:  s.CompanyName,
		"A4":         "Employee",
		cellEmployee: fmt.Sprintf("%s (%s)", s.UserName, s.UserID),
		"D4":         "Month",
		cellMonth:    s.Month.Format("January 2006"),
	}
	for cell, value := range cells {
		if err := file.SetCellValue(sheetName, cell, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", cell, err)
		}
	}

	for i, title := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheetName, cell, title); err != nil {
			return fmt.Errorf("failed to set column header %s: %w", title, err)
		}
	}

	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	if err := file.SetCellStyle(sheetName, cellTitle, cellTitle, bold); err != nil {
		return err
	}
	return file.SetCellStyle(sheetName, "A6", "H6", bold)
}

// fillRows writes one row per expense and returns the last row used
func (w *StatementWriter) fillRows(file *excelize.File, expenses []*entity.Expense) (int, error) {
	row := dataRowStart - 1
	for _, e := range expenses {
		row++
		values := []interface{}{
			e.ExpenseDate.Format("2006-01-02"),
			e.Breakdown.DAType,
			e.DistanceKm.InexactFloat64(),
			e.CalculatedDA.InexactFloat64(),
			e.CalculatedTA.InexactFloat64(),
			e.HotelAmount.InexactFloat64(),
			e.TotalExpense.InexactFloat64(),
			e.Status,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return 0, err
		}
		if err := file.SetSheetRow(sheetName, cell, &values); err != nil {
			return 0, fmt.Errorf("failed to set row %d: %w", row, err)
		}
	}
	return row, nil
}

func (w *StatementWriter) fillTotals(file *excelize.File, row int, sum expense.Summary) error {
	values := []interface{}{
		"Total",
		fmt.Sprintf("%d expenses", sum.Count),
		nil,
		sum.TotalDA.InexactFloat64(),
		sum.TotalTA.InexactFloat64(),
		sum.TotalHotel.InexactFloat64(),
		sum.TotalExpenses.InexactFloat64(),
		nil,
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return file.SetSheetRow(sheetName, cell, &values)
}
